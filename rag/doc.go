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


// Package rag answers questions about TED talks from retrieved transcript chunks.
//
// The Service type runs one retrieval-augmented generation round per question:
//   - Embedding the question
//   - Retrieving the top matching chunks from the vector index
//   - Building a context block and a fixed system instruction
//   - Asking the chat model for an answer grounded in that context
//
// Failures are reported as *Error values whose Kind tells callers whether
// the request was invalid, retrieval failed, or generation failed.
package rag
