// Package fusion merges ranked candidate lists from independent retrievers
// into a single ordering using reciprocal rank fusion.
package fusion
