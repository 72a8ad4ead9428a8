package pinecone

import (
	"fmt"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"github.com/poiesic/tedrag/core"
	"github.com/poiesic/tedrag/vectorstore"
	"google.golang.org/protobuf/types/known/structpb"
)

func toVector(v *core.Vector) (*pinecone.Vector, error) {
	meta, err := toStruct(v.Metadata)
	if err != nil {
		return nil, err
	}
	return &pinecone.Vector{
		Id:       v.ID,
		Values:   v.Values,
		Metadata: meta,
	}, nil
}

func toStruct(m core.Metadata) (*structpb.Struct, error) {
	fields := make(map[string]any, 5)
	for k, v := range m.ToMap() {
		fields[k] = v
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", vectorstore.ErrSerializationFailed, err)
	}
	return s, nil
}

// fromStruct reads metadata back. Non-string values, such as numeric talk
// ids written by other tools, are formatted rather than dropped.
func fromStruct(s *structpb.Struct) core.Metadata {
	if s == nil {
		return core.Metadata{}
	}
	values := make(map[string]string, len(s.GetFields()))
	for k, v := range s.AsMap() {
		switch val := v.(type) {
		case string:
			values[k] = val
		case float64:
			if val == float64(int64(val)) {
				values[k] = fmt.Sprintf("%d", int64(val))
			} else {
				values[k] = fmt.Sprintf("%g", val)
			}
		case nil:
		default:
			values[k] = fmt.Sprint(val)
		}
	}
	return core.MetadataFromMap(values)
}

func fromScored(scored []*pinecone.ScoredVector) []core.Match {
	matches := make([]core.Match, 0, len(scored))
	for _, sv := range scored {
		if sv == nil || sv.Vector == nil {
			continue
		}
		matches = append(matches, core.Match{
			ID:       sv.Vector.Id,
			Metadata: fromStruct(sv.Vector.Metadata),
			Score:    sv.Score,
		})
	}
	return matches
}
