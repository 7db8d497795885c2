package blocktree

import (
	. "github.com/stevegt/goadapt"
	"github.com/t7a/blocktree/blockstore"
)

// InnerNode is a node of depth 1..MaxDepth.  Its payload is an ordered
// array of child keys; every child has depth Depth()-1.  An inner node
// always has at least one child.
type InnerNode struct {
	nodeBase
}

// newInnerData is the block content of an inner node whose only child
// is firstChild.
func newInnerData(layout Layout, firstChild blockstore.Key, childDepth int) []byte {
	buf := newNodeData(layout, childDepth+1, 1)
	copy(buf[HeaderSize:], firstChild[:])
	return buf
}

func (inner *InnerNode) NumChildren() int {
	return inner.view.Size()
}

func (inner *InnerNode) MaxStoreableChildren() int {
	return inner.view.Layout().MaxChildrenPerInnerNode()
}

// Child returns the key of child i.
func (inner *InnerNode) Child(i int) blockstore.Key {
	Assert(i >= 0 && i < inner.NumChildren(), "child %d of %d", i, inner.NumChildren())
	offset := i * childEntrySize
	return blockstore.KeyFromBytes(inner.view.Data()[offset : offset+childEntrySize])
}

func (inner *InnerNode) LastChild() blockstore.Key {
	return inner.Child(inner.NumChildren() - 1)
}

// Children returns all child keys in stored order.
func (inner *InnerNode) Children() (keys []blockstore.Key) {
	for i := 0; i < inner.NumChildren(); i++ {
		keys = append(keys, inner.Child(i))
	}
	return
}

// AddChild appends child.  The node must have room and child must be
// one level below it.
func (inner *InnerNode) AddChild(child DataNode) {
	Assert(child.View().Layout() == inner.view.Layout(), "child from a store with a different layout")
	Assert(child.Depth() == inner.Depth()-1,
		"child depth %d under node of depth %d", child.Depth(), inner.Depth())
	inner.addChild(child.Key())
}

func (inner *InnerNode) addChild(key blockstore.Key) {
	n := inner.NumChildren()
	Assert(n < inner.MaxStoreableChildren(), "inner node %s is full", inner.Key())
	inner.view.write(key[:], n*childEntrySize)
	inner.view.setSize(n + 1)
}

// RemoveLastChild drops the last child entry.  It does not touch the
// child's block.  The node must keep at least one child.
func (inner *InnerNode) RemoveLastChild() {
	n := inner.NumChildren()
	Assert(n > 1, "cannot remove the only child of %s", inner.Key())
	inner.view.write(make([]byte, childEntrySize), (n-1)*childEntrySize)
	inner.view.setSize(n - 1)
}
