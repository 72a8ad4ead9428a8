// Package ingestion turns talk records into vectors in an index.
//
// The Pipeline type runs the ingestion workflow:
//   - Skipping talks with an empty or "nan" transcript
//   - Splitting each transcript into overlapping chunks
//   - Embedding all chunks of a talk in one batched call
//   - Buffering vectors and upserting them in batches
//
// The buffer is only flushed between talks, so a talk's vectors are never
// split across a failed and a successful batch. Records are embedded on an
// ants worker pool, but results are consumed in input order, so batch
// boundaries do not depend on the pool size.
//
// Embedding failures skip the talk and are reported in the Summary. Upsert
// failures stop the run.
package ingestion
