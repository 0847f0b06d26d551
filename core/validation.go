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

import "fmt"

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Content must not be empty
//   - DocumentID must not be empty
//
// NOT validated (owned by the ingestion subsystem):
//   - Embedding (dimension is enforced by the vector index at write time;
//     search separately rejects mismatched query vectors)
//   - Metadata ownership fields (chunks without an owner are only reachable
//     through the public or admin rules)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if chunk.DocumentID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyDocumentID)
	}

	return nil
}

// ValidateAccessContext validates a caller identity.
//
// Validation rules:
//   - non-admin contexts must carry a UserID; an anonymous non-admin caller
//     has no defined access scope and must be rejected before any search
func ValidateAccessContext(ctx AccessContext) error {
	if ctx.IsAdmin {
		return nil
	}

	if ctx.UserID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidAccessContext, ErrEmptyUserID)
	}

	return nil
}

// ValidateQueryOptions validates query options.
//
// Validation rules:
//   - MatchCount must be positive
//   - SearchMode must be semantic, text, or hybrid
func ValidateQueryOptions(opts QueryOptions) error {
	if opts.MatchCount <= 0 {
		return fmt.Errorf("%w: %w", ErrInvalidQueryOptions, ErrInvalidMatchCount)
	}

	switch opts.SearchMode {
	case SearchModeSemantic, SearchModeText, SearchModeHybrid:
	default:
		return fmt.Errorf("%w: %w: %q", ErrInvalidQueryOptions, ErrInvalidSearchMode, opts.SearchMode)
	}

	return nil
}
