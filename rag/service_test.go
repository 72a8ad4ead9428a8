package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/tedrag/ai/mock"
	"github.com/poiesic/tedrag/core"
	"github.com/poiesic/tedrag/vectorstore"
	"github.com/poiesic/tedrag/vectorstore/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubIndex implements vectorstore.Index with canned results.
type stubIndex struct {
	matches  []core.Match
	err      error
	lastNS   string
	lastTopK int
	calls    int
}

func (s *stubIndex) Upsert(ctx context.Context, namespace string, vectors []core.Vector) error {
	return nil
}

func (s *stubIndex) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]core.Match, error) {
	s.calls++
	s.lastNS = namespace
	s.lastTopK = topK
	return s.matches, s.err
}

func (s *stubIndex) Close() error {
	return nil
}

func sampleMatches() []core.Match {
	return []core.Match{
		{
			ID:    "1_chunk_0",
			Score: 0.91,
			Metadata: core.Metadata{
				TalkID:  "1",
				Title:   "Averting the climate crisis",
				Speaker: "Al Gore",
				Text:    "I want to talk about what you can do.",
			},
		},
		{
			ID:    "7_chunk_2",
			Score: 0.74,
			Metadata: core.Metadata{
				TalkID: "7",
				Text:   "Switch off the lights.",
			},
		},
	}
}

func newTestService(t *testing.T, index vectorstore.Index, opts ...Option) (*Service, *mock.MockProvider) {
	t.Helper()
	provider := mock.NewMockProviderWithServices(mock.NewMockEmbedder(), mock.NewMockChatModel())
	s, err := NewService(index, provider, opts...)
	require.NoError(t, err)
	return s, provider
}

func TestNewService(t *testing.T) {
	provider := mock.NewMockProvider()

	t.Run("valid configuration", func(t *testing.T) {
		s, err := NewService(&stubIndex{}, provider)
		require.NoError(t, err)
		assert.NotNil(t, s)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		s, err := NewService(&stubIndex{}, provider, WithLogger(nil), WithMonitor(nil))
		require.NoError(t, err)
		assert.NotNil(t, s)
	})

	t.Run("nil index", func(t *testing.T) {
		_, err := NewService(nil, provider)
		assert.Equal(t, ErrIndexRequired, err)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewService(&stubIndex{}, nil)
		assert.Equal(t, ErrAIProviderRequired, err)
	})

	t.Run("invalid options", func(t *testing.T) {
		for _, opt := range []Option{WithTopK(0), WithNamespace(""), WithChunkSettings(0, 0), WithChunkSettings(100, 100)} {
			_, err := NewService(&stubIndex{}, provider, opt)
			assert.Error(t, err)
		}
	})
}

func TestAnswer_Success(t *testing.T) {
	index := &stubIndex{matches: sampleMatches()}
	s, provider := newTestService(t, index)
	provider.GetMockChatModel().GenerateFunc = func(ctx context.Context, system, user string) (string, error) {
		return "Watch Al Gore's talk.", nil
	}

	answer, err := s.Answer(context.Background(), "Which talk covers climate change?")
	require.NoError(t, err)

	assert.Equal(t, "Watch Al Gore's talk.", answer.Response)
	assert.Equal(t, "ns1", index.lastNS)
	assert.Equal(t, 5, index.lastTopK)

	require.Len(t, answer.Context, 2)
	assert.Equal(t, ContextItem{
		TalkID: "1",
		Title:  "Averting the climate crisis",
		Chunk:  "I want to talk about what you can do.",
		Score:  0.91,
	}, answer.Context[0])
	assert.Equal(t, ContextItem{
		TalkID: "7",
		Title:  "Unknown",
		Chunk:  "Switch off the lights.",
		Score:  0.74,
	}, answer.Context[1], "missing title falls back like the prompt")

	assert.Equal(t, SystemPrompt, answer.AugmentedPrompt.System)
	assert.Equal(t, "Context:\n"+
		"---\nTitle: Averting the climate crisis\nSpeaker: Al Gore\nTranscript Snippet: I want to talk about what you can do.\n"+
		"---\nTitle: Unknown\nSpeaker: Unknown\nTranscript Snippet: Switch off the lights.\n"+
		"\n\nQuestion: Which talk covers climate change?", answer.AugmentedPrompt.User)

	call, ok := provider.GetMockChatModel().LastCall()
	require.True(t, ok)
	assert.Equal(t, answer.AugmentedPrompt.System, call.System)
	assert.Equal(t, answer.AugmentedPrompt.User, call.User)
}

func TestAnswer_EmptyQuestion(t *testing.T) {
	index := &stubIndex{matches: sampleMatches()}
	s, provider := newTestService(t, index)

	_, err := s.Answer(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.ErrorIs(t, err, ErrNoQuestion)
	assert.Equal(t, "No question provided", err.Error())

	assert.Zero(t, provider.GetMockEmbedder().CallCount())
	assert.Zero(t, provider.GetMockChatModel().CallCount())
	assert.Zero(t, index.calls)
}

func TestAnswer_WhitespaceQuestionIsAccepted(t *testing.T) {
	s, _ := newTestService(t, &stubIndex{})

	_, err := s.Answer(context.Background(), "   ")
	assert.NoError(t, err)
}

func TestAnswer_NoMatches(t *testing.T) {
	s, _ := newTestService(t, &stubIndex{})

	answer, err := s.Answer(context.Background(), "Anything about octopuses?")
	require.NoError(t, err)
	require.NotNil(t, answer.Context)
	assert.Empty(t, answer.Context)
	assert.Equal(t, mock.DefaultAnswer, answer.Response)
	assert.Equal(t, "Context:\n\n\nQuestion: Anything about octopuses?", answer.AugmentedPrompt.User)
}

func TestAnswer_Failures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(index *stubIndex, provider *mock.MockProvider)
		kind  Kind
		msg   string
	}{
		{
			name: "embedding failure",
			setup: func(index *stubIndex, provider *mock.MockProvider) {
				provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
					return nil, errors.New("embedding service down")
				}
			},
			kind: KindRetrieval,
			msg:  "embedding service down",
		},
		{
			name: "index failure",
			setup: func(index *stubIndex, provider *mock.MockProvider) {
				index.err = errors.New("index unreachable")
			},
			kind: KindRetrieval,
			msg:  "index unreachable",
		},
		{
			name: "generation failure",
			setup: func(index *stubIndex, provider *mock.MockProvider) {
				provider.GetMockChatModel().GenerateFunc = func(ctx context.Context, system, user string) (string, error) {
					return "", errors.New("model overloaded")
				}
			},
			kind: KindGeneration,
			msg:  "model overloaded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index := &stubIndex{matches: sampleMatches()}
			s, provider := newTestService(t, index)
			tt.setup(index, provider)

			answer, err := s.Answer(context.Background(), "question")
			require.Error(t, err)
			assert.Nil(t, answer)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.Equal(t, tt.msg, err.Error())
			assert.True(t, strings.HasPrefix(Describe(err), tt.kind.String()+": "))
		})
	}
}

func TestAnswer_EndToEndWithBadger(t *testing.T) {
	index, err := badger.NewMemoryIndex()
	require.NoError(t, err)
	defer index.Close()

	ctx := context.Background()
	texts := map[string]string{
		"1_chunk_0": "climate change and what individuals can do",
		"2_chunk_0": "the history of jazz",
	}
	var vectors []core.Vector
	for id, text := range texts {
		vectors = append(vectors, core.Vector{
			ID:       id,
			Values:   mock.Vector(text, mock.DefaultDimension),
			Metadata: core.Metadata{TalkID: id[:1], Title: "Talk " + id[:1], Text: text},
		})
	}
	require.NoError(t, index.Upsert(ctx, "ns1", vectors))

	s, _ := newTestService(t, index, WithTopK(1))
	answer, err := s.Answer(ctx, "climate change and what individuals can do")
	require.NoError(t, err)
	require.Len(t, answer.Context, 1)
	assert.Equal(t, "1", answer.Context[0].TalkID)
	assert.InDelta(t, 1.0, answer.Context[0].Score, 1e-5)
}

func TestStats(t *testing.T) {
	s, _ := newTestService(t, &stubIndex{})
	assert.Equal(t, Stats{ChunkSize: 1000, OverlapRatio: 0.2, TopK: 5}, s.Stats())

	custom, _ := newTestService(t, &stubIndex{}, WithChunkSettings(500, 50), WithTopK(3))
	assert.Equal(t, Stats{ChunkSize: 500, OverlapRatio: 0.1, TopK: 3}, custom.Stats())
}

type recordingMonitor struct {
	started   string
	dimension int
	matches   int
	prompt    Prompt
	finished  bool
	finishErr error
}

func (m *recordingMonitor) Start(question string)        { m.started = question }
func (m *recordingMonitor) AfterEmbedding(dimension int) { m.dimension = dimension }
func (m *recordingMonitor) AfterRetrieval(matches []core.Match) {
	m.matches = len(matches)
}
func (m *recordingMonitor) AfterPromptBuild(prompt Prompt) { m.prompt = prompt }
func (m *recordingMonitor) Finish(answer *Answer, err error) {
	m.finished = true
	m.finishErr = err
}

func TestAnswer_Monitor(t *testing.T) {
	monitor := &recordingMonitor{}
	s, _ := newTestService(t, &stubIndex{matches: sampleMatches()}, WithMonitor(monitor))

	_, err := s.Answer(context.Background(), "what can I do?")
	require.NoError(t, err)

	assert.Equal(t, "what can I do?", monitor.started)
	assert.Equal(t, mock.DefaultDimension, monitor.dimension)
	assert.Equal(t, 2, monitor.matches)
	assert.Equal(t, SystemPrompt, monitor.prompt.System)
	assert.True(t, monitor.finished)
	assert.NoError(t, monitor.finishErr)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.Equal(t, "unknown", KindUnknown.String())
	assert.Equal(t, "plain", Describe(errors.New("plain")))
}
