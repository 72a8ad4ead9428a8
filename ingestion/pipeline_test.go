package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/tedrag/ai/mock"
	"github.com/poiesic/tedrag/core"
	"github.com/poiesic/tedrag/vectorstore"
	"github.com/poiesic/tedrag/vectorstore/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingIndex implements vectorstore.Index and records every upsert.
type recordingIndex struct {
	mu         sync.Mutex
	batches    [][]core.Vector
	namespaces []string
	upsertErr  error
}

func (r *recordingIndex) Upsert(ctx context.Context, namespace string, vectors []core.Vector) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return r.upsertErr
	}
	batch := make([]core.Vector, len(vectors))
	copy(batch, vectors)
	r.batches = append(r.batches, batch)
	r.namespaces = append(r.namespaces, namespace)
	return nil
}

func (r *recordingIndex) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]core.Match, error) {
	return nil, nil
}

func (r *recordingIndex) Close() error {
	return nil
}

func (r *recordingIndex) batchSizes() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	sizes := make([]int, len(r.batches))
	for i, b := range r.batches {
		sizes[i] = len(b)
	}
	return sizes
}

// pipeSplitter splits on '|' so tests control the exact chunk count.
type pipeSplitter struct{}

func (pipeSplitter) Split(text string) ([]string, error) {
	return strings.Split(text, "|"), nil
}

// failingProvisioner implements vectorstore.Provisioner and always fails.
type failingProvisioner struct{}

func (failingProvisioner) EnsureIndex(ctx context.Context, spec vectorstore.IndexSpec) (bool, error) {
	return false, errors.New("quota exceeded")
}

func (failingProvisioner) ListIndexes(ctx context.Context) ([]string, error) {
	return nil, nil
}

func talkWithChunks(id string, n int) core.Talk {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("talk %s part %d", id, i)
	}
	return core.Talk{ID: id, Title: "Talk " + id, Speaker: "Speaker " + id, Transcript: strings.Join(parts, "|")}
}

func smallEmbedder() *mock.MockEmbedder {
	embedder := mock.NewMockEmbedder()
	embedder.Dimension = 8
	return embedder
}

func newTestPipeline(t *testing.T, index vectorstore.Index, embedder *mock.MockEmbedder, opts ...Option) *Pipeline {
	t.Helper()
	p, err := NewPipeline(index, embedder, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

func TestNewPipeline_RequiredDependencies(t *testing.T) {
	_, err := NewPipeline(nil, smallEmbedder())
	assert.ErrorIs(t, err, ErrIndexRequired)

	_, err = NewPipeline(&recordingIndex{}, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestNewPipeline_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"zero batch size", WithBatchSize(0)},
		{"empty namespace", WithNamespace("")},
		{"nil splitter", WithSplitter(nil)},
		{"invalid spec", WithProvisioner(failingProvisioner{}, vectorstore.IndexSpec{})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPipeline(&recordingIndex{}, smallEmbedder(), tt.opt)
			assert.Error(t, err)
		})
	}
}

func TestPipeline_Run2500CharTranscript(t *testing.T) {
	index := &recordingIndex{}
	p := newTestPipeline(t, index, smallEmbedder())

	talk := core.Talk{
		ID:         "1",
		Title:      "Averting the climate crisis",
		Speaker:    "Al Gore",
		URL:        "https://www.ted.com/talks/1",
		Transcript: strings.Repeat("abcd ", 499) + "abcde",
	}
	require.Len(t, talk.Transcript, 2500)

	summary, err := p.Run(context.Background(), []core.Talk{talk})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 3, summary.Chunks)
	assert.Equal(t, 3, summary.Upserted)
	assert.Equal(t, 1, summary.Batches)

	require.Len(t, index.batches, 1)
	batch := index.batches[0]
	total := 0
	for i, v := range batch {
		assert.Equal(t, fmt.Sprintf("1_chunk_%d", i), v.ID)
		assert.LessOrEqual(t, len(v.Metadata.Text), 1000)
		assert.Equal(t, "Al Gore", v.Metadata.Speaker)
		assert.Equal(t, "1", v.Metadata.TalkID)
		assert.Len(t, v.Values, 8)
		total += len(v.Metadata.Text)
	}
	assert.Greater(t, total, 2500, "overlap repeats text across chunks")
	assert.Equal(t, []string{"ns1"}, index.namespaces)
}

func TestPipeline_SkipsMissingTranscripts(t *testing.T) {
	index := &recordingIndex{}
	embedder := smallEmbedder()
	p := newTestPipeline(t, index, embedder, WithSplitter(pipeSplitter{}))

	talks := []core.Talk{
		talkWithChunks("1", 2),
		{ID: "2", Title: "Empty", Transcript: ""},
		{ID: "3", Title: "Null", Transcript: "nan"},
		{ID: "4", Title: "Padded null", Transcript: "  NaN "},
	}

	summary, err := p.Run(context.Background(), talks)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 3, summary.SkippedEmpty)
	assert.Equal(t, 3, summary.Skipped())
	assert.Equal(t, 2, summary.Upserted)
	assert.Equal(t, 1, embedder.CallCount(), "skipped talks are never embedded")
}

func TestPipeline_FlushesOnlyBetweenTalks(t *testing.T) {
	tests := []struct {
		name    string
		chunks  []int
		batches []int
	}{
		{
			name:    "threshold crossed on second talk",
			chunks:  []int{30, 30, 30},
			batches: []int{60, 30},
		},
		{
			name:    "single large talk exceeds threshold",
			chunks:  []int{120},
			batches: []int{120},
		},
		{
			name:    "exact threshold",
			chunks:  []int{25, 25, 10},
			batches: []int{50, 10},
		},
		{
			name:    "below threshold flushed at end",
			chunks:  []int{5, 5},
			batches: []int{10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index := &recordingIndex{}
			p := newTestPipeline(t, index, smallEmbedder(), WithSplitter(pipeSplitter{}))

			var talks []core.Talk
			total := 0
			for i, n := range tt.chunks {
				talks = append(talks, talkWithChunks(fmt.Sprint(i+1), n))
				total += n
			}

			summary, err := p.Run(context.Background(), talks)
			require.NoError(t, err)
			assert.Equal(t, tt.batches, index.batchSizes())
			assert.Equal(t, len(tt.batches), summary.Batches)
			assert.Equal(t, total, summary.Upserted)
			assert.Equal(t, total, summary.Chunks)

			// No talk is split across batches.
			for _, batch := range index.batches {
				seen := map[string]int{}
				for _, v := range batch {
					seen[v.Metadata.TalkID]++
				}
				for talkID, count := range seen {
					idx := 0
					fmt.Sscan(talkID, &idx)
					assert.Equal(t, tt.chunks[idx-1], count, "talk %s split across batches", talkID)
				}
			}
		})
	}
}

func TestPipeline_PoolSizeDoesNotChangeBatches(t *testing.T) {
	var talks []core.Talk
	for i := 1; i <= 12; i++ {
		talks = append(talks, talkWithChunks(fmt.Sprint(i), i*3))
	}

	var expected []int
	for _, size := range []int{1, 4} {
		index := &recordingIndex{}
		p := newTestPipeline(t, index, smallEmbedder(), WithSplitter(pipeSplitter{}), WithPoolSize(size))

		_, err := p.Run(context.Background(), talks)
		require.NoError(t, err)

		if expected == nil {
			expected = index.batchSizes()
			continue
		}
		assert.Equal(t, expected, index.batchSizes())
	}
}

func TestPipeline_EmbeddingFailureSkipsTalk(t *testing.T) {
	index := &recordingIndex{}
	embedder := smallEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		if strings.Contains(texts[0], "talk 2 ") {
			return nil, errors.New("rate limited")
		}
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = mock.Vector(text, 8)
		}
		return out, nil
	}
	p := newTestPipeline(t, index, embedder, WithSplitter(pipeSplitter{}))

	summary, err := p.Run(context.Background(), []core.Talk{
		talkWithChunks("1", 2),
		talkWithChunks("2", 3),
		talkWithChunks("3", 4),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 6, summary.Upserted)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "2", summary.Failures[0].TalkID)
	assert.ErrorContains(t, summary.Failures[0].Err, "rate limited")
}

func TestPipeline_EmbeddingCountMismatch(t *testing.T) {
	embedder := smallEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{mock.Vector(texts[0], 8)}, nil
	}
	p := newTestPipeline(t, &recordingIndex{}, embedder, WithSplitter(pipeSplitter{}))

	summary, err := p.Run(context.Background(), []core.Talk{talkWithChunks("1", 3)})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.ErrorIs(t, summary.Failures[0].Err, ErrEmbeddingMismatch)
	assert.Zero(t, summary.Batches)
}

func TestPipeline_UpsertFailureIsFatal(t *testing.T) {
	index := &recordingIndex{upsertErr: errors.New("index unavailable")}
	p := newTestPipeline(t, index, smallEmbedder(), WithSplitter(pipeSplitter{}), WithBatchSize(2))

	summary, err := p.Run(context.Background(), []core.Talk{
		talkWithChunks("1", 2),
		talkWithChunks("2", 2),
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "index unavailable")
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Zero(t, summary.Upserted)
}

func TestPipeline_Provisioning(t *testing.T) {
	index, err := badger.NewMemoryIndex()
	require.NoError(t, err)
	defer index.Close()

	spec := vectorstore.DefaultSpec()
	spec.Dimension = 8
	p := newTestPipeline(t, index, smallEmbedder(), WithSplitter(pipeSplitter{}), WithProvisioner(index, spec))

	_, err = p.Run(context.Background(), []core.Talk{talkWithChunks("1", 2)})
	require.NoError(t, err)

	names, err := index.ListIndexes(context.Background())
	require.NoError(t, err)
	assert.Contains(t, names, "ted-rag")
}

func TestPipeline_ProvisioningFailure(t *testing.T) {
	embedder := smallEmbedder()
	p := newTestPipeline(t, &recordingIndex{}, embedder,
		WithProvisioner(failingProvisioner{}, vectorstore.DefaultSpec()))

	_, err := p.Run(context.Background(), []core.Talk{talkWithChunks("1", 2)})
	assert.ErrorIs(t, err, ErrProvisioning)
	assert.Zero(t, embedder.CallCount())
}

func TestPipeline_ReingestIsIdempotent(t *testing.T) {
	index, err := badger.NewMemoryIndex()
	require.NoError(t, err)
	defer index.Close()

	p := newTestPipeline(t, index, smallEmbedder(), WithSplitter(pipeSplitter{}))
	talks := []core.Talk{talkWithChunks("1", 4), talkWithChunks("2", 3)}

	for run := 0; run < 2; run++ {
		_, err := p.Run(context.Background(), talks)
		require.NoError(t, err)

		count, err := index.Count("ns1")
		require.NoError(t, err)
		assert.Equal(t, 7, count)
	}
}

func TestPipeline_CustomNamespace(t *testing.T) {
	index := &recordingIndex{}
	p := newTestPipeline(t, index, smallEmbedder(), WithSplitter(pipeSplitter{}), WithNamespace("staging"))

	_, err := p.Run(context.Background(), []core.Talk{talkWithChunks("1", 1)})
	require.NoError(t, err)
	assert.Equal(t, []string{"staging"}, index.namespaces)
}

func TestPipeline_Progress(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPipeline(t, &recordingIndex{}, smallEmbedder(), WithSplitter(pipeSplitter{}), WithProgress(&buf, 1))

	_, err := p.Run(context.Background(), []core.Talk{
		talkWithChunks("1", 2),
		{ID: "2", Transcript: "nan"},
		talkWithChunks("3", 1),
	})
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "3/3 talks")
	assert.Contains(t, output, "3 vectors")
	assert.True(t, strings.HasSuffix(output, "\n"))
}

func TestPipeline_CanceledContext(t *testing.T) {
	index := &recordingIndex{}
	p := newTestPipeline(t, index, smallEmbedder(), WithSplitter(pipeSplitter{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, []core.Talk{talkWithChunks("1", 2)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, index.batches)
}
