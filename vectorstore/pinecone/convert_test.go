package pinecone

import (
	"testing"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"github.com/poiesic/tedrag/core"
	"github.com/poiesic/tedrag/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestToVector(t *testing.T) {
	v := core.Vector{
		ID:     "1_chunk_0",
		Values: []float32{0.1, 0.2},
		Metadata: core.Metadata{
			TalkID:  "1",
			Title:   "Averting the climate crisis",
			Speaker: "Al Gore",
			URL:     "https://www.ted.com/talks/al_gore_averting_the_climate_crisis",
			Text:    "Thank you so much, Chris.",
		},
	}

	record, err := toVector(&v)
	require.NoError(t, err)
	assert.Equal(t, "1_chunk_0", record.Id)
	assert.Equal(t, []float32{0.1, 0.2}, record.Values)

	fields := record.Metadata.GetFields()
	assert.Equal(t, "1", fields[core.MetaTalkID].GetStringValue())
	assert.Equal(t, "Al Gore", fields[core.MetaSpeaker].GetStringValue())
	assert.Equal(t, "Thank you so much, Chris.", fields[core.MetaText].GetStringValue())

	assert.Equal(t, v.Metadata, fromStruct(record.Metadata))
}

func TestFromStruct(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]any
		want   core.Metadata
	}{
		{
			name:   "numeric talk id",
			fields: map[string]any{"talk_id": float64(66), "title": "Do schools kill creativity?"},
			want:   core.Metadata{TalkID: "66", Title: "Do schools kill creativity?"},
		},
		{
			name:   "fractional number",
			fields: map[string]any{"talk_id": 1.5},
			want:   core.Metadata{TalkID: "1.5"},
		},
		{
			name:   "null value",
			fields: map[string]any{"speaker": nil, "text": "hello"},
			want:   core.Metadata{Text: "hello"},
		},
		{
			name:   "unknown keys ignored",
			fields: map[string]any{"genre": "science"},
			want:   core.Metadata{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := structpb.NewStruct(tt.fields)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fromStruct(s))
		})
	}

	assert.Equal(t, core.Metadata{}, fromStruct(nil))
}

func TestFromScored(t *testing.T) {
	meta, err := structpb.NewStruct(map[string]any{"talk_id": "7", "text": "chunk"})
	require.NoError(t, err)

	matches := fromScored([]*pinecone.ScoredVector{
		{Vector: &pinecone.Vector{Id: "7_chunk_0", Metadata: meta}, Score: 0.91},
		nil,
		{Score: 0.5},
		{Vector: &pinecone.Vector{Id: "8_chunk_3"}, Score: 0.42},
	})

	require.Len(t, matches, 2)
	assert.Equal(t, "7_chunk_0", matches[0].ID)
	assert.Equal(t, "7", matches[0].Metadata.TalkID)
	assert.Equal(t, "chunk", matches[0].Metadata.Text)
	assert.InDelta(t, 0.91, matches[0].Score, 1e-6)
	assert.Equal(t, "8_chunk_3", matches[1].ID)
	assert.Equal(t, core.Metadata{}, matches[1].Metadata)
}

func TestToMetric(t *testing.T) {
	m, err := toMetric(vectorstore.MetricCosine)
	require.NoError(t, err)
	assert.Equal(t, pinecone.Cosine, m)

	_, err = toMetric("manhattan")
	assert.ErrorIs(t, err, vectorstore.ErrUnsupportedMetric)
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New("", "ted-rag")
	assert.ErrorIs(t, err, ErrAPIKeyRequired)
}
