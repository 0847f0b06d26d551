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


package query

import "errors"

var (
	// ErrVectorBackendRequired indicates a nil vector backend was passed to the constructor.
	ErrVectorBackendRequired = errors.New("vector backend required")

	// ErrTextBackendRequired indicates a nil text backend was passed to the constructor.
	ErrTextBackendRequired = errors.New("text backend required")

	// ErrProviderRequired indicates a nil AI provider was passed to the constructor.
	ErrProviderRequired = errors.New("ai provider required")

	// ErrEmptyQuestion indicates an empty or whitespace-only question.
	ErrEmptyQuestion = errors.New("question cannot be empty")

	// ErrInvalidMaxAttempts indicates a non-positive retry attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")
)
