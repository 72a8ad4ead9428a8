package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/tedrag/ai"
	"github.com/poiesic/tedrag/chunking"
	"github.com/poiesic/tedrag/core"
)

// recordResult is the outcome of processing one talk.
type recordResult struct {
	skipped bool
	chunks  int
	vectors []core.Vector
	err     error
}

// recordEmbedder chunks and embeds a single talk.
type recordEmbedder struct {
	splitter chunking.Splitter
	embedder ai.Embedder
	logger   *slog.Logger
}

func newRecordEmbedder(splitter chunking.Splitter, embedder ai.Embedder, logger *slog.Logger) (*recordEmbedder, error) {
	if splitter == nil {
		return nil, fmt.Errorf("splitter required")
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &recordEmbedder{
		splitter: splitter,
		embedder: embedder,
		logger:   logger.With("processor", "embeddings"),
	}, nil
}

// process splits talk into chunks and returns one vector per chunk.
func (re *recordEmbedder) process(ctx context.Context, talk *core.Talk) recordResult {
	if !talk.HasTranscript() {
		return recordResult{skipped: true}
	}
	if err := core.ValidateTalk(talk); err != nil {
		return recordResult{err: err}
	}
	if err := ctx.Err(); err != nil {
		return recordResult{err: err}
	}

	chunks, err := chunking.ChunkTalk(re.splitter, talk)
	if err != nil {
		return recordResult{err: err}
	}
	re.logger.Info("processing talk", "talk_id", talk.ID, "title", talk.Title, "chunks", len(chunks))
	if len(chunks) == 0 {
		return recordResult{}
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}

	embeddings, err := re.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return recordResult{chunks: len(chunks), err: fmt.Errorf("embed talk %s: %w", talk.ID, err)}
	}
	if len(embeddings) != len(chunks) {
		return recordResult{
			chunks: len(chunks),
			err: fmt.Errorf("%w: talk %s expected %d, received %d",
				ErrEmbeddingMismatch, talk.ID, len(chunks), len(embeddings)),
		}
	}

	vectors := make([]core.Vector, len(chunks))
	for i := range chunks {
		vectors[i] = core.Vector{
			ID:       chunks[i].ID(),
			Values:   embeddings[i],
			Metadata: core.NewMetadata(talk, &chunks[i]),
		}
	}
	return recordResult{chunks: len(chunks), vectors: vectors}
}
