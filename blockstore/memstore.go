package blockstore

import (
	"sync"

	"github.com/pkg/errors"
	. "github.com/stevegt/goadapt"
)

// MemStore is a BlockStore that keeps every block in memory.  It is safe
// for concurrent use; each operation on a key is atomic.
type MemStore struct {
	mu     sync.Mutex
	blocks map[Key][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{blocks: make(map[Key][]byte)}
}

func (store *MemStore) Create(data []byte) (*Block, error) {
	return create(store, data)
}

func (store *MemStore) TryCreate(key Key, data []byte) (block *Block, ok bool, err error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if _, exists := store.blocks[key]; exists {
		return nil, false, nil
	}
	store.blocks[key] = dup(data)
	return Block{}.New(store, key, dup(data)), true, nil
}

func (store *MemStore) Load(key Key) (block *Block, ok bool, err error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	data, exists := store.blocks[key]
	if !exists {
		return nil, false, nil
	}
	return Block{}.New(store, key, dup(data)), true, nil
}

func (store *MemStore) Store(block *Block) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	old, exists := store.blocks[block.Key()]
	if !exists {
		return errors.Wrapf(ErrBlockNotFound, "store %s", block.Key())
	}
	Assert(len(old) == block.Size(), "block %s changed size from %d to %d", block.Key(), len(old), block.Size())
	store.blocks[block.Key()] = dup(block.Data())
	return nil
}

func (store *MemStore) Remove(block *Block) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if _, exists := store.blocks[block.Key()]; !exists {
		return errors.Wrapf(ErrBlockNotFound, "remove %s", block.Key())
	}
	delete(store.blocks, block.Key())
	return nil
}

func (store *MemStore) NumBlocks() (uint64, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	return uint64(len(store.blocks)), nil
}

func dup(buf []byte) []byte {
	out := make([]byte, len(buf))
	copy(out, buf)
	return out
}
