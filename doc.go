/*

Package blocktree stores a blob of arbitrary length as a tree of
fixed-size blocks kept in a blockstore.BlockStore.

Vocabulary:

- block: fixed-size byte buffer identified by a key
- key: random 128-bit identity of a block; survives overwrites
- layout: block size and the node capacities derived from it
- depth: distance from a node to its leaves; 0 is a leaf
- leaf: depth 0 node; payload is blob content
- inner node: depth 1..MaxDepth node; payload is an ordered list of
  child keys, each child one level below
- subtree: a node and every node reachable through its child keys
- node store: the only place nodes are made; it classifies blocks by
  depth, creates, copies, overwrites and removes nodes

The depth byte doubles as the node type, so MaxDepth is the only guard
against a corrupted depth field.

*/

package blocktree
