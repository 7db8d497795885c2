package blockstore

import (
	"fmt"

	. "github.com/stevegt/goadapt"
)

// Block is a fixed-size byte buffer loaded from, or created in, a
// BlockStore.  A Block is a private copy of the stored bytes; changes
// reach the store on Flush.
type Block struct {
	key   Key
	data  []byte
	store BlockStore
	dirty bool
}

func (block Block) New(store BlockStore, key Key, data []byte) *Block {
	block.store = store
	block.key = key
	block.data = data
	return &block
}

func (block *Block) Key() Key {
	return block.key
}

// Size is the block size in bytes.  It never changes.
func (block *Block) Size() int {
	return len(block.data)
}

// Data returns the block's bytes.  Callers must not modify the
// returned slice; use Write.
func (block *Block) Data() []byte {
	return block.data
}

// Write copies buf into the block at offset.  Writes past the end of the
// block are a programmer error.
func (block *Block) Write(buf []byte, offset int) {
	Assert(offset >= 0 && offset+len(buf) <= len(block.data),
		"write of %d bytes at offset %d outside block of size %d", len(buf), offset, len(block.data))
	copy(block.data[offset:], buf)
	block.dirty = true
}

// Dirty reports whether the block has unflushed changes.
func (block *Block) Dirty() bool {
	return block.dirty
}

// Flush writes the block back to its store if it has changed.
func (block *Block) Flush() (err error) {
	if !block.dirty {
		return
	}
	err = block.store.Store(block)
	if err != nil {
		return
	}
	block.dirty = false
	return
}

func (block *Block) String() string {
	return fmt.Sprintf("block %s (%d bytes)", block.key, len(block.data))
}
