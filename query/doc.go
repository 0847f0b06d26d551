// Package query orchestrates the full retrieval pipeline: access filter
// construction, question decomposition, parallel per-sub-query hybrid
// search, rank fusion, relevance grading, and cited synthesis.
package query
