// Copyright 2025 Poiesic Systems
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


// Package storage provides the storage abstraction layer for pawgraph.
//
// This package defines repository interfaces that decouple the social graph
// store from its backing key-value engine, plus the codecs that turn typed
// records into persisted bytes.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - UserRepository, PetRepository: profile entities
//   - PostRepository, CommentRepository: feed entities with denormalized counters
//   - InteractionRepository: relations (likes, saves, follows) and the
//     toggle protocol that keeps counters consistent with them
//   - CheckpointRepository: progress of maintenance jobs
//
// # Persisted Form
//
// Every record is written as a schema version followed by its fields
// (see core.SchemaVersion). Records written with fewer fields decode with
// the missing fields at their zero values; fields written by a newer schema
// are skipped. Anything else that fails to decode surfaces as
// ErrSerializationFailed, which collection loaders log and treat as empty.
//
// # Usage
//
// Create repositories over a shared backend:
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//	posts := badger.NewPostRepository(backend)
//
// Use in tests with in-memory storage:
//
//	repos, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repos.Close()
//
// # Thread Safety
//
// All repository implementations are safe for concurrent use. Every
// mutating operation runs in a single read-write transaction.
package storage
