package blocktree

import (
	"github.com/t7a/blocktree/blockstore"
)

// DataNode is either a *LeafNode or an *InnerNode.  Only a NodeStore
// makes DataNodes; the set of variants is closed.
//
// A DataNode owns exactly one block.  After ReleaseBlock the node must
// not be used again.
type DataNode interface {
	Key() blockstore.Key
	Depth() int
	// View exposes the header and payload of the owned block.
	View() *NodeView
	// Flush writes pending changes to the block store.
	Flush() error
	ReleaseBlock() *blockstore.Block

	dataNode()
}

type nodeBase struct {
	view *NodeView
}

func (node *nodeBase) Key() blockstore.Key {
	return node.view.Key()
}

func (node *nodeBase) Depth() int {
	return node.view.Depth()
}

func (node *nodeBase) View() *NodeView {
	return node.view
}

func (node *nodeBase) Flush() error {
	return node.view.Flush()
}

func (node *nodeBase) ReleaseBlock() *blockstore.Block {
	return node.view.ReleaseBlock()
}

func (node *nodeBase) dataNode() {}
