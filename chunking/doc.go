// Package chunking splits talk transcripts into overlapping passages.
//
// The Recursive splitter tries the largest separator first (paragraph
// break, then line break, then space, then single characters) and merges
// the resulting pieces greedily so that no chunk exceeds the configured size.
// Consecutive chunks repeat up to the configured overlap so that context
// survives chunk boundaries.
package chunking
