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


package chunking

import (
	"fmt"

	"github.com/poiesic/tedrag/core"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// DefaultChunkSize is the maximum chunk length in characters.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the number of characters shared by consecutive chunks.
	DefaultChunkOverlap = 200
)

// DefaultSeparators are tried in order: paragraph, line, word, character.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter breaks a transcript into ordered chunks.
// Implementations must be deterministic and safe for concurrent use.
type Splitter interface {
	Split(text string) ([]string, error)
}

// Recursive is a greedy recursive character splitter.
type Recursive struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
	splitter     textsplitter.RecursiveCharacter
}

var _ Splitter = (*Recursive)(nil)

// Option configures a Recursive splitter.
type Option func(*Recursive) error

// WithChunkSize sets the maximum chunk length.
func WithChunkSize(size int) Option {
	return func(r *Recursive) error {
		if size < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidChunkSize, size)
		}
		r.chunkSize = size
		return nil
	}
}

// WithChunkOverlap sets the overlap between consecutive chunks.
func WithChunkOverlap(overlap int) Option {
	return func(r *Recursive) error {
		if overlap < 0 {
			return fmt.Errorf("%w: %d", ErrInvalidOverlap, overlap)
		}
		r.chunkOverlap = overlap
		return nil
	}
}

// WithSeparators overrides the separator hierarchy.
func WithSeparators(separators ...string) Option {
	return func(r *Recursive) error {
		if len(separators) == 0 {
			return ErrNoSeparators
		}
		r.separators = separators
		return nil
	}
}

// NewRecursive creates a splitter with 1000 character chunks and 200 characters of overlap.
func NewRecursive(opts ...Option) (*Recursive, error) {
	r := &Recursive{
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		separators:   DefaultSeparators,
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	if r.chunkOverlap >= r.chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d",
			ErrInvalidOverlap, r.chunkOverlap, r.chunkSize)
	}

	r.splitter = textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(r.chunkSize),
		textsplitter.WithChunkOverlap(r.chunkOverlap),
		textsplitter.WithSeparators(r.separators),
	)

	return r, nil
}

// Split returns the chunks of text in order. Empty input yields no chunks.
func (r *Recursive) Split(text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}
	return r.splitter.SplitText(text)
}

// ChunkSize returns the configured maximum chunk length.
func (r *Recursive) ChunkSize() int {
	return r.chunkSize
}

// ChunkOverlap returns the configured overlap.
func (r *Recursive) ChunkOverlap() int {
	return r.chunkOverlap
}

// OverlapRatio returns overlap divided by chunk size.
func (r *Recursive) OverlapRatio() float64 {
	return float64(r.chunkOverlap) / float64(r.chunkSize)
}

// ChunkTalk splits a talk transcript and tags each piece with its talk id and position.
func ChunkTalk(splitter Splitter, talk *core.Talk) ([]core.Chunk, error) {
	texts, err := splitter.Split(talk.Transcript)
	if err != nil {
		return nil, fmt.Errorf("split talk %s: %w", talk.ID, err)
	}

	chunks := make([]core.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = core.Chunk{
			TalkID: talk.ID,
			Index:  i,
			Text:   text,
		}
	}
	return chunks, nil
}
