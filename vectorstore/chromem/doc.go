// Package chromem implements vectorstore.Index with chromem-go.
//
// Each provisioned index is a marker collection named after the index, and
// each namespace is stored in its own collection named index/namespace.
// Embeddings are always computed before they reach the store, so the
// collections are created with an embedding function that refuses to run.
//
// The database can live purely in memory or be persisted to a directory
// with NewPersistent.
package chromem
