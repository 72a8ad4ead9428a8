package vectorstore

import (
	"testing"

	"github.com/poiesic/tedrag/core"
	"github.com/stretchr/testify/assert"
)

func TestDefaultSpec(t *testing.T) {
	spec := DefaultSpec()

	assert.Equal(t, "ted-rag", spec.Name)
	assert.Equal(t, 1536, spec.Dimension)
	assert.Equal(t, MetricCosine, spec.Metric)
	assert.Equal(t, "aws", spec.Cloud)
	assert.Equal(t, "us-east-1", spec.Region)
	assert.NoError(t, spec.Validate())
}

func TestIndexSpec_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*IndexSpec)
		wantErr error
	}{
		{name: "missing name", mutate: func(s *IndexSpec) { s.Name = "" }, wantErr: ErrInvalidSpec},
		{name: "zero dimension", mutate: func(s *IndexSpec) { s.Dimension = 0 }, wantErr: ErrInvalidSpec},
		{name: "unknown metric", mutate: func(s *IndexSpec) { s.Metric = "manhattan" }, wantErr: ErrUnsupportedMetric},
		{name: "dot product is fine", mutate: func(s *IndexSpec) { s.Metric = MetricDotProduct }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := DefaultSpec()
			tt.mutate(&spec)
			err := spec.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-6)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-6)
	assert.Equal(t, float32(0), Cosine([]float32{0, 0}, []float32{1, 1}))
}

func TestTopK(t *testing.T) {
	matches := []core.Match{
		{ID: "b", Score: 0.5},
		{ID: "a", Score: 0.9},
		{ID: "c", Score: 0.5},
		{ID: "d", Score: 0.1},
	}

	top := TopK(matches, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{top[0].ID, top[1].ID, top[2].ID})
	assert.Len(t, TopK([]core.Match{{ID: "x"}}, 5), 1)
}
