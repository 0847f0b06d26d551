// Package ingest turns raw documents into stored, embedded chunks. A
// document is split into overlapping word-window chunks, the chunks are
// embedded in concurrent batches, and the results are written to the chunk
// store with their access metadata attached.
package ingest
