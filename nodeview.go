package blocktree

import (
	"encoding/binary"

	. "github.com/stevegt/goadapt"
	"github.com/t7a/blocktree/blockstore"
)

// NodeView reads and writes the header fields and payload of the block
// it owns.  It knows nothing about leaf or inner semantics beyond the
// depth field.
//
// The block can be taken back exactly once with ReleaseBlock; every
// later use of the view panics.
type NodeView struct {
	layout Layout
	block  *blockstore.Block
}

// newNodeData returns a zeroed block buffer with a node header stamped
// into it.
func newNodeData(layout Layout, depth, size int) []byte {
	Assert(depth >= 0 && depth <= MaxDepth, "depth %d out of range", depth)
	buf := make([]byte, layout.BlockSize())
	buf[depthOffset] = byte(depth)
	binary.LittleEndian.PutUint32(buf[sizeOffset:], uint32(size))
	return buf
}

func (view NodeView) New(layout Layout, block *blockstore.Block) *NodeView {
	Assert(block.Size() == layout.BlockSize(),
		"block %s is %d bytes, layout wants %d", block.Key(), block.Size(), layout.BlockSize())
	view.layout = layout
	view.block = block
	return &view
}

func (view *NodeView) owned() *blockstore.Block {
	Assert(view.block != nil, "node used after its block was released")
	return view.block
}

func (view *NodeView) Layout() Layout {
	return view.layout
}

func (view *NodeView) Key() blockstore.Key {
	return view.owned().Key()
}

// Block returns the owned block without giving up ownership.
func (view *NodeView) Block() *blockstore.Block {
	return view.owned()
}

// ReleaseBlock hands the block to the caller and invalidates the view.
func (view *NodeView) ReleaseBlock() (block *blockstore.Block) {
	block = view.owned()
	view.block = nil
	return
}

// Released reports whether ReleaseBlock has been called.
func (view *NodeView) Released() bool {
	return view.block == nil
}

func (view *NodeView) Depth() int {
	return int(view.owned().Data()[depthOffset])
}


// Size is the header's size field.
func (view *NodeView) Size() int {
	return int(binary.LittleEndian.Uint32(view.owned().Data()[sizeOffset:]))
}

func (view *NodeView) setSize(size int) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(size))
	view.owned().Write(buf[:], sizeOffset)
}

// Data is the payload region.  Callers must not modify it; use write.
func (view *NodeView) Data() []byte {
	return view.owned().Data()[HeaderSize:]
}

// write copies buf into the payload at offset.
func (view *NodeView) write(buf []byte, offset int) {
	Assert(offset >= 0 && offset+len(buf) <= view.layout.DataSize(),
		"payload write of %d bytes at %d exceeds %d", len(buf), offset, view.layout.DataSize())
	view.owned().Write(buf, HeaderSize+offset)
}

func (view *NodeView) Flush() error {
	return view.owned().Flush()
}
