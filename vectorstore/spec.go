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


package vectorstore

import "fmt"

// Metric is the similarity function used by an index.
type Metric string

const (
	MetricCosine     Metric = "cosine"
	MetricDotProduct Metric = "dotproduct"
	MetricEuclidean  Metric = "euclidean"
)

// Defaults for the talk index.
const (
	DefaultIndexName = "ted-rag"
	DefaultNamespace = "ns1"
	DefaultDimension = 1536
	DefaultCloud     = "aws"
	DefaultRegion    = "us-east-1"
)

// IndexSpec describes the index that ingestion writes into.
type IndexSpec struct {
	Name      string
	Dimension int
	Metric    Metric
	Cloud     string
	Region    string
}

// DefaultSpec returns the spec of the talk index: 1536 dimensions, cosine, aws us-east-1.
func DefaultSpec() IndexSpec {
	return IndexSpec{
		Name:      DefaultIndexName,
		Dimension: DefaultDimension,
		Metric:    MetricCosine,
		Cloud:     DefaultCloud,
		Region:    DefaultRegion,
	}
}

// Validate checks that the spec can be provisioned.
func (s IndexSpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSpec)
	}
	if s.Dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive", ErrInvalidSpec)
	}
	switch s.Metric {
	case MetricCosine, MetricDotProduct, MetricEuclidean:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedMetric, s.Metric)
	}
	return nil
}
