package blocktree

import (
	. "github.com/stevegt/goadapt"
)

// LeafNode is a depth 0 node.  Its payload holds NumBytes bytes of blob
// content; the rest of the payload is always zero.
type LeafNode struct {
	nodeBase
}

// newLeafData is the block content of an empty leaf.
func newLeafData(layout Layout) []byte {
	return newNodeData(layout, 0, 0)
}

func (leaf *LeafNode) NumBytes() int {
	return leaf.view.Size()
}

func (leaf *LeafNode) MaxStoreableBytes() int {
	return leaf.view.Layout().MaxBytesPerLeaf()
}

// Read copies len(buf) bytes starting at offset into buf.  The range
// must lie within NumBytes.
func (leaf *LeafNode) Read(buf []byte, offset int) {
	Assert(offset >= 0 && offset+len(buf) <= leaf.NumBytes(),
		"read of %d bytes at %d past leaf end %d", len(buf), offset, leaf.NumBytes())
	copy(buf, leaf.view.Data()[offset:])
}

// Bytes returns the leaf content.  The slice is only valid until the
// next change to the leaf.
func (leaf *LeafNode) Bytes() []byte {
	return leaf.view.Data()[:leaf.NumBytes()]
}

// Write copies buf into the leaf at offset, growing NumBytes if the
// write ends past it.  Any gap between the old end and offset reads as
// zeroes.
func (leaf *LeafNode) Write(buf []byte, offset int) {
	Assert(offset >= 0 && offset+len(buf) <= leaf.MaxStoreableBytes(),
		"write of %d bytes at %d exceeds leaf capacity %d", len(buf), offset, leaf.MaxStoreableBytes())
	leaf.view.write(buf, offset)
	if end := offset + len(buf); end > leaf.NumBytes() {
		leaf.view.setSize(end)
	}
}

// Resize sets NumBytes.  Growing exposes zeroes; shrinking zeroes the
// bytes that were cut off.
func (leaf *LeafNode) Resize(newSize int) {
	Assert(newSize >= 0 && newSize <= leaf.MaxStoreableBytes(),
		"leaf size %d exceeds capacity %d", newSize, leaf.MaxStoreableBytes())
	oldSize := leaf.NumBytes()
	if newSize < oldSize {
		leaf.view.write(make([]byte, oldSize-newSize), newSize)
	}
	if newSize != oldSize {
		leaf.view.setSize(newSize)
	}
}
