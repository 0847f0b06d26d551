// Package grade filters fused retrieval candidates by asking an LLM whether
// each one actually bears on the question. Grading fails open: when the
// model is unavailable, candidates pass through as relevant rather than
// being silently dropped.
package grade
