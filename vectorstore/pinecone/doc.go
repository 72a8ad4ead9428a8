// Package pinecone implements vectorstore.Index against a Pinecone
// serverless index using the official go-pinecone client.
//
// EnsureIndex creates the serverless index when it is missing and waits for
// its host to be assigned. Index connections are opened lazily, one per
// namespace, and reused for the lifetime of the Index.
//
// Chunk metadata travels as a protobuf Struct with the keys talk_id, title,
// speaker, url and text.
package pinecone
