package core

import (
	"strconv"
	"strings"
)

// nullTranscript is the marker left in exported datasets for missing transcripts.
const nullTranscript = "nan"

// Metadata keys stored alongside every indexed vector.
const (
	MetaTalkID  = "talk_id"
	MetaTitle   = "title"
	MetaSpeaker = "speaker"
	MetaURL     = "url"
	MetaText    = "text"
)

// Talk is a single row of the source dataset.
type Talk struct {
	ID         string
	Title      string
	Speaker    string
	URL        string
	Transcript string
}

// HasTranscript reports whether the talk carries usable transcript text.
// Empty transcripts and the "nan" null marker are treated as missing.
func (t *Talk) HasTranscript() bool {
	text := strings.TrimSpace(t.Transcript)
	if text == "" {
		return false
	}
	return !strings.EqualFold(text, nullTranscript)
}

// Chunk is an ordered slice of a talk transcript.
type Chunk struct {
	TalkID string
	Index  int
	Text   string
}

// ID returns the chunk's stable identifier.
func (c *Chunk) ID() string {
	return ChunkID(c.TalkID, c.Index)
}

// ChunkID derives the identifier for the index-th chunk of a talk.
// The same inputs always produce the same id, so re-ingestion overwrites.
func ChunkID(talkID string, index int) string {
	return talkID + "_chunk_" + strconv.Itoa(index)
}

// Metadata is the payload persisted next to each vector.
type Metadata struct {
	TalkID  string
	Title   string
	Speaker string
	URL     string
	Text    string
}

// NewMetadata builds chunk metadata from its owning talk.
func NewMetadata(talk *Talk, chunk *Chunk) Metadata {
	return Metadata{
		TalkID:  talk.ID,
		Title:   talk.Title,
		Speaker: talk.Speaker,
		URL:     talk.URL,
		Text:    chunk.Text,
	}
}

// ToMap flattens the metadata into string key/value pairs.
func (m Metadata) ToMap() map[string]string {
	return map[string]string{
		MetaTalkID:  m.TalkID,
		MetaTitle:   m.Title,
		MetaSpeaker: m.Speaker,
		MetaURL:     m.URL,
		MetaText:    m.Text,
	}
}

// MetadataFromMap is the inverse of ToMap. Unknown keys are ignored.
func MetadataFromMap(values map[string]string) Metadata {
	return Metadata{
		TalkID:  values[MetaTalkID],
		Title:   values[MetaTitle],
		Speaker: values[MetaSpeaker],
		URL:     values[MetaURL],
		Text:    values[MetaText],
	}
}

// Vector is the unit persisted in a vector index.
type Vector struct {
	ID       string
	Values   []float32
	Metadata Metadata
}

// Match is a single similarity search hit.
type Match struct {
	ID       string
	Metadata Metadata
	Score    float32
}
