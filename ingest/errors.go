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


package ingest

import "errors"

var (
	// ErrStoreRequired indicates a nil chunk writer was passed to the constructor.
	ErrStoreRequired = errors.New("chunk store required")

	// ErrEmbedderRequired indicates a nil embedder was passed to the constructor.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrEmptyDocumentID indicates a document without an identifier.
	ErrEmptyDocumentID = errors.New("document ID cannot be empty")

	// ErrEmptyDocument indicates a document with no content to chunk.
	ErrEmptyDocument = errors.New("document has no content")
)
