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


// Package ai defines the model capabilities the query engine consumes.
//
// The engine needs exactly two capabilities: an Embedder that turns text into
// vectors for semantic search, and a Completer that produces completions for
// decomposition, grading, and synthesis. A Provider aggregates both for
// convenient initialization and lifecycle management.
//
// The interfaces carry no protocol specifics. Production implementations for
// OpenAI-compatible services live in the openai subpackage; injectable test
// doubles live in the mock subpackage.
package ai
