package badger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/evidentia/grounder/core"
	"github.com/evidentia/grounder/index"
)

// ChunkStore persists chunks in BadgerDB. It is the shared substrate for the
// vector and text index backends; writes belong to the ingestion subsystem
// and the seeder, the engine itself only reads.
type ChunkStore struct {
	backend *Backend
	logger  *slog.Logger
}

// StoreOption configures a ChunkStore.
type StoreOption func(*ChunkStore) error

// WithStoreLogger sets a custom logger.
// Default is slog.Default().
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *ChunkStore) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewChunkStore creates a chunk store over an open backend.
func NewChunkStore(backend *Backend, opts ...StoreOption) (*ChunkStore, error) {
	if backend == nil {
		return nil, index.ErrStoreRequired
	}

	s := &ChunkStore{
		backend: backend,
		logger:  slog.Default().With("component", "chunk-store"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Close closes the underlying backend.
func (s *ChunkStore) Close() error {
	return s.backend.Close()
}

// AddChunks validates and stores chunks. Chunks with Id=0 get a deterministic
// content-derived ID so re-ingesting the same document is idempotent.
func (s *ChunkStore) AddChunks(ctx context.Context, chunks ...*core.Chunk) error {
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return err
		}
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			if chunk.Id == 0 {
				chunk.Id = core.IDFromContent(
					chunk.DocumentID + "#" + strconv.Itoa(chunk.Metadata.ChunkIndex) + ":" + chunk.Content)
			}

			if err := tx.Set(makeChunkKey(chunk.Id), index.MarshalChunk(chunk)); err != nil {
				return err
			}
			if err := tx.Set(makeDocumentKey(chunk.DocumentID, chunk.Id), index.MarshalID(chunk.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetChunk retrieves a single chunk by ID.
// Returns index.ErrNotFound if the chunk doesn't exist.
func (s *ChunkStore) GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error) {
	var chunk *core.Chunk

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeChunkKey(id))
		if err == badger.ErrKeyNotFound {
			return index.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			chunk, err = index.UnmarshalChunk(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}

	return chunk, nil
}

// GetChunks retrieves multiple chunks by their IDs.
// Returns only the chunks that exist (no error for missing chunks).
func (s *ChunkStore) GetChunks(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error) {
	chunks := make([]*core.Chunk, 0, len(ids))

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			item, err := tx.Get(makeChunkKey(id))
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return err
			}
			err = item.Value(func(val []byte) error {
				chunk, err := index.UnmarshalChunk(val)
				if err != nil {
					return err
				}
				chunks = append(chunks, chunk)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return chunks, nil
}

// GetChunksByDocument retrieves the IDs of every chunk of a document.
func (s *ChunkStore) GetChunksByDocument(ctx context.Context, documentID string) ([]core.ID, error) {
	var ids []core.ID

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialDocumentKey(documentID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				id, err := index.UnmarshalID(val)
				if err != nil {
					return err
				}
				ids = append(ids, id)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// DeleteChunks removes chunks by their IDs, along with their document index
// entries. Returns index.ErrNotFound if any chunk doesn't exist.
func (s *ChunkStore) DeleteChunks(ctx context.Context, ids ...core.ID) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			item, err := tx.Get(makeChunkKey(id))
			if err == badger.ErrKeyNotFound {
				return index.ErrNotFound
			}
			if err != nil {
				return err
			}

			var chunk *core.Chunk
			err = item.Value(func(val []byte) error {
				chunk, err = index.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}

			if err := tx.Delete(makeChunkKey(id)); err != nil {
				return err
			}
			if err := tx.Delete(makeDocumentKey(chunk.DocumentID, id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// ChunkIDs returns the IDs of every stored chunk, in key order.
func (s *ChunkStore) ChunkIDs(ctx context.Context) ([]core.ID, error) {
	var ids []core.ID
	err := s.forEachChunk(func(chunk *core.Chunk) error {
		ids = append(ids, chunk.Id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// CountChunks returns the number of stored chunks.
func (s *ChunkStore) CountChunks(ctx context.Context) (int, error) {
	count := 0
	err := s.forEachChunk(func(*core.Chunk) error {
		count++
		return nil
	})
	return count, err
}

// forEachChunk iterates over every stored chunk.
// Iteration stops at the first error from fn.
func (s *ChunkStore) forEachChunk(fn func(chunk *core.Chunk) error) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()

			var chunk *core.Chunk
			err := item.Value(func(val []byte) error {
				var err error
				chunk, err = index.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if err := fn(chunk); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// available wraps backend failures as index unavailability for search callers.
func (s *ChunkStore) available(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", core.ErrIndexUnavailable, err)
}
