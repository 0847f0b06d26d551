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


// Package access implements the row-level access filter.
//
// A Filter is built once per request from the caller's AccessContext and
// passed to every index backend call. A non-admin filter permits a chunk when
// the caller owns it, the chunk is public, the chunk is shared directly with
// the caller, or the caller shares a group with the chunk. An admin filter
// permits everything.
//
// Filter construction is deterministic and side-effect free. A chunk that
// does not satisfy the filter must never reach the caller, even transiently,
// even under partial failure.
package access
