// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package rag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/tedrag/ai"
	"github.com/poiesic/tedrag/chunking"
	"github.com/poiesic/tedrag/vectorstore"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 5

// ContextItem is one retrieved chunk as returned to clients.
type ContextItem struct {
	TalkID string  `json:"talk_id"`
	Title  string  `json:"title"`
	Chunk  string  `json:"chunk"`
	Score  float32 `json:"score"`
}

// Prompt is the exact pair of messages sent to the chat model.
type Prompt struct {
	System string `json:"System"`
	User   string `json:"User"`
}

// Answer is the result of a question. Field order is the JSON key order.
type Answer struct {
	Response        string        `json:"response"`
	Context         []ContextItem `json:"context"`
	AugmentedPrompt Prompt        `json:"Augmented_prompt"`
}

// Stats reports the retrieval configuration.
type Stats struct {
	ChunkSize    int     `json:"chunk_size"`
	OverlapRatio float64 `json:"overlap_ratio"`
	TopK         int     `json:"top_k"`
}

// Service answers questions over a vector index.
type Service struct {
	index        vectorstore.Index
	embedder     ai.Embedder
	chat         ai.ChatModel
	namespace    string
	topK         int
	chunkSize    int
	chunkOverlap int
	monitor      Monitor
	logger       *slog.Logger
}

// Option configures a Service.
type Option func(*Service) error

// WithNamespace sets the namespace queried for context.
// Default is vectorstore.DefaultNamespace.
func WithNamespace(namespace string) Option {
	return func(s *Service) error {
		if namespace == "" {
			return fmt.Errorf("namespace must not be empty")
		}
		s.namespace = namespace
		return nil
	}
}

// WithTopK sets how many chunks are retrieved per question.
// Default is DefaultTopK.
func WithTopK(k int) Option {
	return func(s *Service) error {
		if k < 1 {
			return vectorstore.ErrInvalidTopK
		}
		s.topK = k
		return nil
	}
}

// WithChunkSettings sets the chunking parameters reported by Stats.
// They should match the splitter used at ingestion.
func WithChunkSettings(size, overlap int) Option {
	return func(s *Service) error {
		if size < 1 {
			return chunking.ErrInvalidChunkSize
		}
		if overlap < 0 || overlap >= size {
			return chunking.ErrInvalidOverlap
		}
		s.chunkSize = size
		s.chunkOverlap = overlap
		return nil
	}
}

// WithMonitor installs a monitor that observes every Answer call.
func WithMonitor(monitor Monitor) Option {
	return func(s *Service) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		s.monitor = monitor
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewService creates a new query service.
func NewService(index vectorstore.Index, provider ai.AIProvider, opts ...Option) (*Service, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Service{
		index:        index,
		embedder:     provider.Embedder(),
		chat:         provider.ChatModel(),
		namespace:    vectorstore.DefaultNamespace,
		topK:         DefaultTopK,
		chunkSize:    chunking.DefaultChunkSize,
		chunkOverlap: chunking.DefaultChunkOverlap,
		monitor:      &noopMonitor{},
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "rag")

	return s, nil
}

// Answer embeds question, retrieves context and asks the chat model.
// Errors are always *Error.
func (s *Service) Answer(ctx context.Context, question string) (answer *Answer, err error) {
	if question == "" {
		return nil, newError(KindValidation, "validate", ErrNoQuestion)
	}

	s.monitor.Start(question)
	defer func() {
		s.monitor.Finish(answer, err)
	}()

	// 1. Embed the question
	embedding, err := s.embedder.EmbedText(ctx, question)
	if err != nil {
		s.logger.Error("error generating embedding for question", "err", err)
		return nil, newError(KindRetrieval, "embed question", err)
	}
	s.monitor.AfterEmbedding(len(embedding))

	// 2. Retrieve the closest chunks
	matches, err := s.index.Query(ctx, s.namespace, embedding, s.topK)
	if err != nil {
		s.logger.Error("error querying index", "namespace", s.namespace, "err", err)
		return nil, newError(KindRetrieval, "query index", err)
	}
	s.monitor.AfterRetrieval(matches)

	// 3. Build the augmented prompt
	items := make([]ContextItem, 0, len(matches))
	for _, m := range matches {
		items = append(items, ContextItem{
			TalkID: m.Metadata.TalkID,
			Title:  orUnknown(m.Metadata.Title),
			Chunk:  m.Metadata.Text,
			Score:  m.Score,
		})
	}
	prompt := Prompt{
		System: SystemPrompt,
		User:   BuildUserMessage(BuildContext(matches), question),
	}
	s.monitor.AfterPromptBuild(prompt)

	// 4. Generate
	response, err := s.chat.Generate(ctx, prompt.System, prompt.User)
	if err != nil {
		s.logger.Error("error generating answer", "err", err)
		return nil, newError(KindGeneration, "generate answer", err)
	}

	s.logger.Debug("answered question", "matches", len(matches))
	return &Answer{
		Response:        response,
		Context:         items,
		AugmentedPrompt: prompt,
	}, nil
}

// Stats returns the retrieval configuration.
func (s *Service) Stats() Stats {
	return Stats{
		ChunkSize:    s.chunkSize,
		OverlapRatio: float64(s.chunkOverlap) / float64(s.chunkSize),
		TopK:         s.topK,
	}
}
