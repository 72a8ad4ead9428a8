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

import "errors"

// Domain validation errors
var (
	// ErrInvalidVector indicates a Vector failed validation.
	ErrInvalidVector = errors.New("invalid vector")

	// ErrInvalidTalk indicates a Talk failed validation.
	ErrInvalidTalk = errors.New("invalid talk")

	// ErrEmptyID indicates the identifier is empty.
	ErrEmptyID = errors.New("id cannot be empty")

	// ErrEmptyValues indicates the vector carries no values.
	ErrEmptyValues = errors.New("vector values cannot be empty")

	// ErrDimensionMismatch indicates the vector length differs from the expected dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
