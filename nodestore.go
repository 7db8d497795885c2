package blocktree

import (
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"
	"github.com/t7a/blocktree/blockstore"
)

// NodeStore turns the blocks of a BlockStore into typed tree nodes.  It
// is the only way to get a DataNode.
//
// NodeStore does no locking of its own.  Concurrent work on one tree
// must be serialized by the caller or by the block store.
type NodeStore struct {
	blocks blockstore.BlockStore
	layout Layout
}

func NewNodeStore(blocks blockstore.BlockStore, blockSize int) (store *NodeStore, err error) {
	layout, err := NewLayout(blockSize)
	if err != nil {
		return
	}
	return &NodeStore{blocks: blocks, layout: layout}, nil
}

func (store *NodeStore) Layout() Layout {
	return store.layout
}

// NumNodes counts every block in the underlying block store, not just
// the blocks of one tree.
func (store *NodeStore) NumNodes() (uint64, error) {
	return store.blocks.NumBlocks()
}

// LoadBlock classifies block by its depth field.  A depth above MaxDepth,
// or a size field the layout cannot hold, yields a CorruptionError.
func (store *NodeStore) LoadBlock(block *blockstore.Block) (node DataNode, err error) {
	Assert(block.Size() == store.layout.BlockSize(),
		"block %s is %d bytes, store uses %d", block.Key(), block.Size(), store.layout.BlockSize())
	view := NodeView{}.New(store.layout, block)

	depth := view.Depth()
	size := view.Size()
	corrupt := func(format string, args ...interface{}) (DataNode, error) {
		return nil, &CorruptionError{Key: block.Key(), Reason: fmt.Sprintf(format, args...)}
	}
	switch {
	case depth > MaxDepth:
		return corrupt("depth %d exceeds max depth %d", depth, MaxDepth)
	case depth == 0:
		if size > store.layout.MaxBytesPerLeaf() {
			return corrupt("leaf size %d exceeds %d", size, store.layout.MaxBytesPerLeaf())
		}
		return &LeafNode{nodeBase{view}}, nil
	default:
		if size < 1 || size > store.layout.MaxChildrenPerInnerNode() {
			return corrupt("inner node has %d children, want 1..%d", size, store.layout.MaxChildrenPerInnerNode())
		}
		return &InnerNode{nodeBase{view}}, nil
	}
}

// Load returns ok == false, and no error, if there is no block for key.
func (store *NodeStore) Load(key blockstore.Key) (node DataNode, ok bool, err error) {
	block, ok, err := store.blocks.Load(key)
	if err != nil {
		return nil, false, errors.Wrapf(err, "load node %s", key)
	}
	if !ok {
		return nil, false, nil
	}
	node, err = store.LoadBlock(block)
	if err != nil {
		return nil, false, err
	}
	return node, true, nil
}

// CreateNewLeafNode stores an empty leaf.
func (store *NodeStore) CreateNewLeafNode() (leaf *LeafNode, err error) {
	block, err := store.blocks.Create(newLeafData(store.layout))
	if err != nil {
		return nil, errors.Wrap(err, "create leaf")
	}
	leaf = &LeafNode{nodeBase{NodeView{}.New(store.layout, block)}}
	log.Debugf("created leaf %s", leaf.Key())
	return
}

// CreateNewInnerNode stores an inner node one level above firstChild,
// with firstChild as its only child.
func (store *NodeStore) CreateNewInnerNode(firstChild DataNode) (inner *InnerNode, err error) {
	store.assertLayout(firstChild)
	return store.createInnerNode(firstChild.Key(), firstChild.Depth())
}

func (store *NodeStore) createInnerNode(firstChild blockstore.Key, childDepth int) (inner *InnerNode, err error) {
	if childDepth+1 > MaxDepth {
		return nil, ErrTreeTooDeep
	}
	block, err := store.blocks.Create(newInnerData(store.layout, firstChild, childDepth))
	if err != nil {
		return nil, errors.Wrap(err, "create inner node")
	}
	inner = &InnerNode{nodeBase{NodeView{}.New(store.layout, block)}}
	log.Debugf("created inner %s depth %d child %s", inner.Key(), inner.Depth(), firstChild)
	return
}

// CreateNewNodeAsCopyFrom stores a byte-for-byte copy of source under a
// new key.  Unflushed changes to source are part of the copy.
func (store *NodeStore) CreateNewNodeAsCopyFrom(source DataNode) (node DataNode, err error) {
	store.assertLayout(source)
	block, err := blockstore.CopyToNewBlock(store.blocks, source.View().Block())
	if err != nil {
		return nil, errors.Wrapf(err, "copy node %s", source.Key())
	}
	log.Debugf("copied node %s to %s", source.Key(), block.Key())
	return store.LoadBlock(block)
}

// OverwriteNodeWith replaces the content of target with the content of
// source and returns the reloaded node.  The key of target does not
// change.  target is released and must not be used afterwards.  target
// and source must be distinct nodes.
func (store *NodeStore) OverwriteNodeWith(target DataNode, source DataNode) (node DataNode, err error) {
	store.assertLayout(target)
	store.assertLayout(source)
	key := target.Key()
	Assert(target.View() != source.View(), "node %s overwritten with itself", key)

	// nothing may observe the block through target while it is rewritten
	block := target.ReleaseBlock()
	err = blockstore.CopyTo(block, source.View().Block())
	if err != nil {
		return nil, errors.Wrapf(err, "overwrite node %s", key)
	}

	node, ok, err := store.Load(key)
	if err != nil {
		return
	}
	Assert(ok, "node %s vanished while being overwritten", key)
	log.Debugf("overwrote node %s with %s", key, source.Key())
	return
}

// Remove deletes the block of node.  node is released and must not be
// used afterwards.
func (store *NodeStore) Remove(node DataNode) (err error) {
	block := node.ReleaseBlock()
	err = store.blocks.Remove(block)
	if err != nil {
		return errors.Wrapf(err, "remove node %s", block.Key())
	}
	log.Debugf("removed node %s", block.Key())
	return
}

// RemoveSubtree deletes node and everything below it, children before
// parents.  A child key without a block is a CorruptionError.  There is
// no rollback: on error, the nodes removed so far stay removed.
func (store *NodeStore) RemoveSubtree(node DataNode) (err error) {
	switch n := node.(type) {
	case *LeafNode:
	case *InnerNode:
		for i := 0; i < n.NumChildren(); i++ {
			child, err := store.loadChild(n, i)
			if err != nil {
				return err
			}
			err = store.RemoveSubtree(child)
			if err != nil {
				return err
			}
		}
	default:
		Assert(false, "unhandled node type %T", node)
	}
	return store.Remove(node)
}

// loadChild loads child i of inner, which must exist.
func (store *NodeStore) loadChild(inner *InnerNode, i int) (child DataNode, err error) {
	key := inner.Child(i)
	child, ok, err := store.Load(key)
	if err != nil {
		return
	}
	if !ok {
		return nil, &CorruptionError{
			Key:    inner.Key(),
			Reason: fmt.Sprintf("child %d (%s) has no block", i, key),
		}
	}
	return
}

func (store *NodeStore) assertLayout(node DataNode) {
	// a node from another NodeStore may have a different block size
	Assert(node.View().Layout() == store.layout,
		"node %s has block size %d, store uses %d",
		node.Key(), node.View().Layout().BlockSize(), store.layout.BlockSize())
}
