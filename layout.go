package blocktree

import (
	"github.com/pkg/errors"
	"github.com/t7a/blocktree/blockstore"
)

// Node header layout.  Every node block starts with:
//
//	byte 0     depth (0 = leaf)
//	bytes 1-3  reserved, zero
//	bytes 4-7  size, little endian: payload bytes for a leaf,
//	           number of children for an inner node
//
// The payload follows the header.  An inner node's payload is an array
// of child keys.
const (
	HeaderSize     = 8
	depthOffset    = 0
	sizeOffset     = 4
	childEntrySize = blockstore.KeyLen

	// MaxDepth is the deepest valid node.  A larger depth field can only
	// come from a corrupted block.
	MaxDepth = 10
)

// Layout fixes the block size of a NodeStore and the capacities derived
// from it.
type Layout struct {
	blockSize int
}

// NewLayout fails unless a block of blockSize bytes holds the header and
// at least two child entries.
func NewLayout(blockSize int) (layout Layout, err error) {
	if blockSize < HeaderSize+2*childEntrySize {
		return layout, errors.Errorf("block size %d too small, need at least %d", blockSize, HeaderSize+2*childEntrySize)
	}
	layout.blockSize = blockSize
	return
}

func (layout Layout) BlockSize() int {
	return layout.blockSize
}

// DataSize is the number of payload bytes after the header.
func (layout Layout) DataSize() int {
	return layout.blockSize - HeaderSize
}

func (layout Layout) MaxBytesPerLeaf() int {
	return layout.DataSize()
}

func (layout Layout) MaxChildrenPerInnerNode() int {
	return layout.DataSize() / childEntrySize
}
