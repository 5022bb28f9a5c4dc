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


package badger

import "errors"

// Store bundles the repositories that share one backend.
type Store struct {
	Backend  *Backend
	Spec     *SpecRepository
	Chunks   *ChunkRepository
	QueryLog *QueryLogRepository
}

// OpenStore opens a BadgerDB database at path and creates all repositories on it.
// Caller must Close the store when done.
func OpenStore(path string) (*Store, error) {
	return openStore(path, false)
}

// NewMemoryStore creates an in-memory store for testing.
// Caller must Close the store when done.
func NewMemoryStore() (*Store, error) {
	return openStore("", true)
}

func openStore(path string, inMemory bool) (*Store, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}

	specRepo, err := NewSpecRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	chunkRepo, err := NewChunkRepository(backend)
	if err != nil {
		specRepo.Close()
		backend.Close()
		return nil, err
	}

	queryLogRepo, err := NewQueryLogRepository(backend)
	if err != nil {
		specRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Store{
		Backend:  backend,
		Spec:     specRepo,
		Chunks:   chunkRepo,
		QueryLog: queryLogRepo,
	}, nil
}

// Close releases the repositories and closes the backend.
func (s *Store) Close() error {
	return errors.Join(
		s.QueryLog.Close(),
		s.Chunks.Close(),
		s.Spec.Close(),
		s.Backend.Close(),
	)
}
