// Package reembed regenerates the embeddings of every stored chunk, for use
// when the embedding model changes. Chunks are processed in batches with
// retry and progress reporting.
package reembed
