package main

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/t7a/blocktree"
)

// demo builds a full binary tree of the given depth, checks it, round
// trips it through a dump, and removes both copies again.
func demo(depthArg string) (out string, err error) {
	depth, err := strconv.Atoi(depthArg)
	if err != nil || depth < 0 || depth > blocktree.MaxDepth {
		return "", &usageError{msg: fmt.Sprintf("depth must be 0..%d", blocktree.MaxDepth)}
	}
	store, err := openStore()
	if err != nil {
		return
	}
	var lines []string

	before, err := store.NumNodes()
	if err != nil {
		return
	}
	var seq int
	root, err := buildTree(store, depth, &seq)
	if err != nil {
		return
	}
	created, err := store.NumNodes()
	if err != nil {
		return
	}
	lines = append(lines, fmt.Sprintf("created %d nodes", created-before))

	err = store.Verify(root)
	if err != nil {
		return
	}
	lines = append(lines, "verified")

	var buf bytes.Buffer
	err = store.Dump(root, &buf)
	if err != nil {
		return
	}
	restored, err := store.Restore(&buf)
	if err != nil {
		return
	}
	withCopy, err := store.NumNodes()
	if err != nil {
		return
	}
	lines = append(lines, fmt.Sprintf("restored %d nodes", withCopy-created))

	err = store.RemoveSubtree(root)
	if err != nil {
		return
	}
	err = store.RemoveSubtree(restored)
	if err != nil {
		return
	}
	after, err := store.NumNodes()
	if err != nil {
		return
	}
	lines = append(lines, fmt.Sprintf("removed %d nodes", withCopy-after))
	return strings.Join(lines, "\n"), nil
}

func buildTree(store *blocktree.NodeStore, depth int, seq *int) (node blocktree.DataNode, err error) {
	if depth == 0 {
		leaf, err := store.CreateNewLeafNode()
		if err != nil {
			return nil, err
		}
		leaf.Write([]byte(fmt.Sprintf("leaf %d", *seq)), 0)
		*seq++
		return leaf, leaf.Flush()
	}
	first, err := buildTree(store, depth-1, seq)
	if err != nil {
		return
	}
	inner, err := store.CreateNewInnerNode(first)
	if err != nil {
		return
	}
	second, err := buildTree(store, depth-1, seq)
	if err != nil {
		return
	}
	inner.AddChild(second)
	return inner, inner.Flush()
}
