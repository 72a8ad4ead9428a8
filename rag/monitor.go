package rag

import "github.com/poiesic/tedrag/core"

// Monitor provides hooks to observe each stage of answering a question.
type Monitor interface {
	Start(question string)
	AfterEmbedding(dimension int)
	AfterRetrieval(matches []core.Match)
	AfterPromptBuild(prompt Prompt)
	Finish(answer *Answer, err error)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                {}
func (n *noopMonitor) AfterEmbedding(_ int)          {}
func (n *noopMonitor) AfterRetrieval(_ []core.Match) {}
func (n *noopMonitor) AfterPromptBuild(_ Prompt)     {}
func (n *noopMonitor) Finish(_ *Answer, _ error)     {}
