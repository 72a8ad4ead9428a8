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

import "errors"

var (
	// ErrInvalidSpec indicates an index spec that cannot be provisioned.
	ErrInvalidSpec = errors.New("invalid index spec")

	// ErrUnsupportedMetric indicates a metric the backend cannot serve.
	ErrUnsupportedMetric = errors.New("unsupported metric")

	// ErrSpecConflict indicates an existing index whose spec differs from the requested one.
	ErrSpecConflict = errors.New("index exists with a different spec")

	// ErrInvalidTopK indicates a non-positive result limit.
	ErrInvalidTopK = errors.New("topK must be positive")

	// ErrIndexClosed indicates that the index has been closed.
	ErrIndexClosed = errors.New("index is closed")

	// ErrSerializationFailed indicates a record could not be encoded or decoded.
	ErrSerializationFailed = errors.New("serialization failed")
)
