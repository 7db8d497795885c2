package blockstore

import (
	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"
)

// BlockStore keeps fixed-size blocks addressed by Key.
//
// Load reports a missing key with ok == false and a nil error; an error
// always means the store itself failed.
type BlockStore interface {
	// Create stores data under a fresh key.
	Create(data []byte) (*Block, error)
	// TryCreate stores data under key.  It returns ok == false without
	// touching the store if the key is already taken.
	TryCreate(key Key, data []byte) (block *Block, ok bool, err error)
	Load(key Key) (block *Block, ok bool, err error)
	// Store persists the current content of a block.
	Store(block *Block) error
	Remove(block *Block) error
	NumBlocks() (uint64, error)
}

// maxCreateAttempts bounds the retry loop in create.  A collision of
// random 128-bit keys means the random source is broken.
const maxCreateAttempts = 10

// create retries TryCreate with fresh keys until one is free.
func create(store BlockStore, data []byte) (block *Block, err error) {
	for i := 0; i < maxCreateAttempts; i++ {
		var ok bool
		block, ok, err = store.TryCreate(NewKey(), data)
		if err != nil {
			return nil, err
		}
		if ok {
			return block, nil
		}
		log.Debugf("key collision on create, attempt %d", i)
	}
	Assert(false, "no free key after %d attempts", maxCreateAttempts)
	return
}

// CopyToNewBlock creates a new block in store holding a byte-for-byte copy
// of source, header included.
func CopyToNewBlock(store BlockStore, source *Block) (*Block, error) {
	buf := make([]byte, source.Size())
	copy(buf, source.Data())
	return store.Create(buf)
}

// CopyTo overwrites target with the content of source and flushes target.
// Both blocks must have the same size.
func CopyTo(target *Block, source *Block) error {
	Assert(target.Size() == source.Size(),
		"block size mismatch: target %d source %d", target.Size(), source.Size())
	target.Write(source.Data(), 0)
	return target.Flush()
}
