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


package core

import "fmt"

// ValidateTalk validates a Talk according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//
// NOT validated:
//   - Transcript (empty transcripts are skipped by ingestion, not rejected)
func ValidateTalk(talk *Talk) error {
	if talk == nil {
		return fmt.Errorf("%w: talk is nil", ErrInvalidTalk)
	}
	if talk.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTalk, ErrEmptyID)
	}
	return nil
}

// ValidateVector validates a Vector before it is written to an index.
// A dimension of zero or less disables the length check.
func ValidateVector(vector *Vector, dimension int) error {
	if vector == nil {
		return fmt.Errorf("%w: vector is nil", ErrInvalidVector)
	}
	if vector.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidVector, ErrEmptyID)
	}
	if len(vector.Values) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidVector, ErrEmptyValues)
	}
	if dimension > 0 && len(vector.Values) != dimension {
		return fmt.Errorf("%w: %w: expected %d, got %d",
			ErrInvalidVector, ErrDimensionMismatch, dimension, len(vector.Values))
	}
	return nil
}
