package blocktree

import (
	"fmt"

	. "github.com/stevegt/goadapt"
)

// Walk calls fn for root and then, depth first in stored child order,
// for every node below it.  Nodes are loaded through the store one key
// at a time.  A missing child stops the walk with a CorruptionError; an
// error from fn stops it with that error.
func (store *NodeStore) Walk(root DataNode, fn func(node DataNode) error) (err error) {
	err = fn(root)
	if err != nil {
		return
	}
	inner, ok := root.(*InnerNode)
	if !ok {
		return
	}
	for i := 0; i < inner.NumChildren(); i++ {
		child, err := store.loadChild(inner, i)
		if err != nil {
			return err
		}
		err = store.Walk(child, fn)
		if err != nil {
			return err
		}
	}
	return
}

// Verify checks the structure of the subtree under root: every child
// exists and sits exactly one level below its parent, and no size field
// exceeds the layout's capacity.
func (store *NodeStore) Verify(root DataNode) (err error) {
	switch node := root.(type) {
	case *LeafNode:
		if node.NumBytes() > node.MaxStoreableBytes() {
			return &CorruptionError{
				Key:    node.Key(),
				Reason: fmt.Sprintf("leaf size %d exceeds %d", node.NumBytes(), node.MaxStoreableBytes()),
			}
		}
	case *InnerNode:
		n := node.NumChildren()
		if n < 1 || n > node.MaxStoreableChildren() {
			return &CorruptionError{
				Key:    node.Key(),
				Reason: fmt.Sprintf("inner node has %d children, want 1..%d", n, node.MaxStoreableChildren()),
			}
		}
		for i := 0; i < n; i++ {
			child, err := store.loadChild(node, i)
			if err != nil {
				return err
			}
			if child.Depth() != node.Depth()-1 {
				return &CorruptionError{
					Key:    node.Key(),
					Reason: fmt.Sprintf("child %d (%s) has depth %d under depth %d", i, child.Key(), child.Depth(), node.Depth()),
				}
			}
			err = store.Verify(child)
			if err != nil {
				return err
			}
		}
	default:
		Assert(false, "unhandled node type %T", root)
	}
	return
}
