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




package badger

import (
	"errors"
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/tedrag/core"
	"github.com/poiesic/tedrag/vectorstore"
)

// errBadLength is returned when a stored slice length cannot fit the record.
var errBadLength = errors.New("invalid length")

// Records are encoded field by field in declaration order.
var (
	vectorMUS   = vectorSer{}
	valuesMUS   = valuesSer{}
	metadataMUS = metadataSer{}
	specMUS     = specSer{}
)

// marshalVector serializes a Vector to bytes.
func marshalVector(vector *core.Vector) ([]byte, error) {
	buf := make([]byte, vectorMUS.Size(*vector))
	vectorMUS.Marshal(*vector, buf)
	return buf, nil
}

// unmarshalVector deserializes a Vector from bytes.
func unmarshalVector(data []byte) (*core.Vector, error) {
	vector, _, err := vectorMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: vector: %w", vectorstore.ErrSerializationFailed, err)
	}
	return &vector, nil
}

// marshalSpec serializes an IndexSpec to bytes.
func marshalSpec(spec *vectorstore.IndexSpec) ([]byte, error) {
	buf := make([]byte, specMUS.Size(*spec))
	specMUS.Marshal(*spec, buf)
	return buf, nil
}

// unmarshalSpec deserializes an IndexSpec from bytes.
func unmarshalSpec(data []byte) (*vectorstore.IndexSpec, error) {
	spec, _, err := specMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: index spec: %w", vectorstore.ErrSerializationFailed, err)
	}
	return &spec, nil
}

type vectorSer struct{}

func (vectorSer) Marshal(v core.Vector, bs []byte) (n int) {
	n = ord.String.Marshal(v.ID, bs)
	n += valuesMUS.Marshal(v.Values, bs[n:])
	return n + metadataMUS.Marshal(v.Metadata, bs[n:])
}

func (vectorSer) Unmarshal(bs []byte) (v core.Vector, n int, err error) {
	var n1 int
	v.ID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Values, n1, err = valuesMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Metadata, n1, err = metadataMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (vectorSer) Size(v core.Vector) int {
	return ord.String.Size(v.ID) + valuesMUS.Size(v.Values) + metadataMUS.Size(v.Metadata)
}

// valuesSer writes a varint length followed by fixed-width float32s.
type valuesSer struct{}

func (valuesSer) Marshal(values []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(values), bs)
	for _, f := range values {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func (valuesSer) Unmarshal(bs []byte) (values []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 || length > (len(bs)-n)/4 {
		return nil, n, fmt.Errorf("%w: %d values", errBadLength, length)
	}
	if length == 0 {
		return nil, n, nil
	}

	values = make([]float32, length)
	for i := range values {
		var n1 int
		values[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return values, n, nil
}

func (valuesSer) Size(values []float32) int {
	size := varint.Int.Size(len(values))
	for _, f := range values {
		size += raw.Float32.Size(f)
	}
	return size
}

type metadataSer struct{}

func (metadataSer) fields(m *core.Metadata) [5]*string {
	return [5]*string{&m.TalkID, &m.Title, &m.Speaker, &m.URL, &m.Text}
}

func (s metadataSer) Marshal(m core.Metadata, bs []byte) (n int) {
	for _, f := range s.fields(&m) {
		n += ord.String.Marshal(*f, bs[n:])
	}
	return n
}

func (s metadataSer) Unmarshal(bs []byte) (m core.Metadata, n int, err error) {
	for _, f := range s.fields(&m) {
		var n1 int
		*f, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (s metadataSer) Size(m core.Metadata) (size int) {
	for _, f := range s.fields(&m) {
		size += ord.String.Size(*f)
	}
	return size
}

type specSer struct{}

func (specSer) Marshal(spec vectorstore.IndexSpec, bs []byte) (n int) {
	n = ord.String.Marshal(spec.Name, bs)
	n += varint.Int.Marshal(spec.Dimension, bs[n:])
	n += ord.String.Marshal(string(spec.Metric), bs[n:])
	n += ord.String.Marshal(spec.Cloud, bs[n:])
	return n + ord.String.Marshal(spec.Region, bs[n:])
}

func (specSer) Unmarshal(bs []byte) (spec vectorstore.IndexSpec, n int, err error) {
	var (
		n1     int
		metric string
	)
	if spec.Name, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	spec.Dimension, n1, err = varint.Int.Unmarshal(bs[n:])
	if n += n1; err != nil {
		return
	}
	metric, n1, err = ord.String.Unmarshal(bs[n:])
	if n += n1; err != nil {
		return
	}
	spec.Metric = vectorstore.Metric(metric)
	spec.Cloud, n1, err = ord.String.Unmarshal(bs[n:])
	if n += n1; err != nil {
		return
	}
	spec.Region, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (specSer) Size(spec vectorstore.IndexSpec) int {
	return ord.String.Size(spec.Name) +
		varint.Int.Size(spec.Dimension) +
		ord.String.Size(string(spec.Metric)) +
		ord.String.Size(spec.Cloud) +
		ord.String.Size(spec.Region)
}
