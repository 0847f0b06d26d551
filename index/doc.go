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


// Package index defines the search index abstraction the query engine reads.
//
// A Backend answers a single similarity or keyword query, with the caller's
// access filter applied before any candidate is returned. The engine uses two
// backends (vector and text) and optionally a third graph-backed one, all
// behind the same contract; rankings from different backends are merged by
// the fusion package using rank positions only.
//
// The badger subpackage provides an embedded implementation backed by a
// shared chunk store. Production deployments may substitute adapters over
// external search services; the contract is deliberately small.
package index
