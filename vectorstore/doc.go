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


// Package vectorstore provides the vector index abstraction for tedrag.
//
// Ingestion writes chunk vectors through Index.Upsert and the query service
// reads them back through Index.Query. Records are grouped by namespace and
// identified by their chunk id, so writing the same id twice replaces the
// earlier record.
//
// # Backends
//
//   - vectorstore/pinecone: managed Pinecone serverless index
//   - vectorstore/chromem: embedded chromem-go database, in memory or on disk
//   - vectorstore/badger: embedded BadgerDB store with brute-force cosine search
//
// Backends that can create their own index also implement Provisioner.
// EnsureIndex is idempotent and is run once before ingestion starts.
//
// # Usage
//
//	index, err := badger.NewMemoryIndex()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer index.Close()
//
//	created, err := index.EnsureIndex(ctx, vectorstore.DefaultSpec())
//	err = index.Upsert(ctx, "ns1", vectors)
//	matches, err := index.Query(ctx, "ns1", queryVector, 5)
//
// # Thread Safety
//
// All implementations must be safe for concurrent use.
package vectorstore
