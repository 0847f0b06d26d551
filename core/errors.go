// Copyright 2025 Evidentia Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "errors"

// Infrastructure error taxonomy. Components wrap these sentinels so callers
// can select retry and fallback behavior with errors.Is.
var (
	// ErrIndexUnavailable indicates an index backend could not be reached.
	// Transient; the orchestrator retries the call once with backoff.
	ErrIndexUnavailable = errors.New("index backend unavailable")

	// ErrDimensionMismatch indicates a query vector of the wrong length.
	// Fatal for that call; never retried.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrInvalidFilter indicates a malformed access filter.
	// A backend must refuse to search rather than search unfiltered.
	ErrInvalidFilter = errors.New("invalid access filter")

	// ErrLLMUnavailable indicates the completion capability failed or timed out.
	// Optimization stages fall back; synthesis surfaces it.
	ErrLLMUnavailable = errors.New("completion capability unavailable")

	// ErrNoEvidence indicates every sub-query pipeline failed or yielded zero
	// relevant chunks. Surfaced to the caller as a distinct "could not find an
	// answer" result, never as a fabricated answer.
	ErrNoEvidence = errors.New("no grounded evidence available")
)

// Domain validation errors
var (
	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptyDocumentID indicates the DocumentID field is empty.
	ErrEmptyDocumentID = errors.New("document ID cannot be empty")

	// ErrInvalidAccessContext indicates an AccessContext failed validation.
	ErrInvalidAccessContext = errors.New("invalid access context")

	// ErrEmptyUserID indicates a non-admin context without a user identifier.
	ErrEmptyUserID = errors.New("user ID cannot be empty")

	// ErrInvalidQueryOptions indicates QueryOptions failed validation.
	ErrInvalidQueryOptions = errors.New("invalid query options")

	// ErrInvalidSearchMode indicates an unknown SearchMode value.
	ErrInvalidSearchMode = errors.New("invalid search mode")

	// ErrInvalidMatchCount indicates a non-positive match count.
	ErrInvalidMatchCount = errors.New("match count must be positive")
)
