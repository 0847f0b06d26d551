// Package decompose splits complex questions into focused sub-queries so
// each can be retrieved independently. Simple questions pass through
// unchanged, and any model failure degrades to the original question rather
// than surfacing an error.
package decompose
