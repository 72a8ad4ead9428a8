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


package ingestion

import "fmt"

// RecordFailure describes a talk that was skipped because it could not be processed.
type RecordFailure struct {
	TalkID string
	Title  string
	Err    error
}

// Summary reports the outcome of an ingestion run.
type Summary struct {
	Total        int
	Succeeded    int
	SkippedEmpty int
	Failed       int
	Chunks       int
	Upserted     int
	Batches      int
	Failures     []RecordFailure
}

// Skipped returns the number of talks that produced no vectors.
func (s *Summary) Skipped() int {
	return s.SkippedEmpty + s.Failed
}

func (s *Summary) String() string {
	return fmt.Sprintf("talks=%d succeeded=%d skipped=%d (empty=%d failed=%d) chunks=%d upserted=%d batches=%d",
		s.Total, s.Succeeded, s.Skipped(), s.SkippedEmpty, s.Failed, s.Chunks, s.Upserted, s.Batches)
}
