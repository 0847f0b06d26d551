// Package synthesize turns graded evidence into a cited answer. The model
// only ever sees chunks that survived grading, and the answer's citation
// list is reconciled against that evidence so a marker can never point at a
// chunk that was not provided.
package synthesize
