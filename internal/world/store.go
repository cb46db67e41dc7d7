package world

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/df-mc/goleveldb/leveldb"

	"sandfall/internal/chunk"
)

// Store is the persistence collaborator for evicted chunks. Load returns
// ErrNotFound when nothing was saved for a key.
type Store interface {
	Load(k chunk.Key) (*chunk.Chunk, error)
	Save(c *chunk.Chunk) error
	Delete(k chunk.Key) error
	Close() error
}

// MemoryStore keeps encoded chunks in a map. It is safe for concurrent use.
type MemoryStore struct {
	mu   sync.Mutex
	data map[chunk.Key][]byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[chunk.Key][]byte)}
}

func (s *MemoryStore) Load(k chunk.Key) (*chunk.Chunk, error) {
	s.mu.Lock()
	b, ok := s.data[k]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decodeChunk(k, b)
}

func (s *MemoryStore) Save(c *chunk.Chunk) error {
	b, err := c.MarshalBinary()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[c.Key] = b
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(k chunk.Key) error {
	s.mu.Lock()
	delete(s.data, k)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// Len returns the number of stored chunks.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// LevelDBStore persists chunks in a LevelDB database, one record per chunk.
type LevelDBStore struct {
	db *leveldb.DB
}

// OpenLevelDB opens or creates a chunk database at dir.
func OpenLevelDB(dir string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("world: open leveldb %s: %w", dir, err)
	}
	return &LevelDBStore{db: db}, nil
}

func (s *LevelDBStore) Load(k chunk.Key) (*chunk.Chunk, error) {
	b, err := s.db.Get(dbKey(k), nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("world: leveldb get %v: %w", k, err)
	}
	return decodeChunk(k, b)
}

func (s *LevelDBStore) Save(c *chunk.Chunk) error {
	b, err := c.MarshalBinary()
	if err != nil {
		return err
	}
	if err := s.db.Put(dbKey(c.Key), b, nil); err != nil {
		return fmt.Errorf("world: leveldb put %v: %w", c.Key, err)
	}
	return nil
}

func (s *LevelDBStore) Delete(k chunk.Key) error {
	if err := s.db.Delete(dbKey(k), nil); err != nil {
		return fmt.Errorf("world: leveldb delete %v: %w", k, err)
	}
	return nil
}

func (s *LevelDBStore) Close() error { return s.db.Close() }

// dbKey is "c" followed by the big-endian chunk coordinates.
func dbKey(k chunk.Key) []byte {
	b := make([]byte, 9)
	b[0] = 'c'
	binary.BigEndian.PutUint32(b[1:], uint32(int32(k.X)))
	binary.BigEndian.PutUint32(b[5:], uint32(int32(k.Y)))
	return b
}

func decodeChunk(k chunk.Key, b []byte) (*chunk.Chunk, error) {
	c := &chunk.Chunk{}
	if err := c.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("world: decode %v: %w", k, err)
	}
	if c.Key != k {
		return nil, fmt.Errorf("world: decode %v: %w: stored key %v", k, chunk.ErrCorrupt, c.Key)
	}
	return c, nil
}
