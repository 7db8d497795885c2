package blocktree

import (
	"io"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"
	"github.com/t7a/blocktree/blockstore"
	"github.com/vmihailenco/msgpack"
)

const dumpVersion = 1

type dumpHeader struct {
	Version   int `msgpack:"version"`
	BlockSize int `msgpack:"blocksize"`
}

// nodeRecord is one node of a dump.  Records come children first, so
// every child key named in a record has already been seen.  The last
// record is the root.
type nodeRecord struct {
	Key      []byte   `msgpack:"key"`
	Depth    int      `msgpack:"depth"`
	Data     []byte   `msgpack:"data,omitempty"`
	Children [][]byte `msgpack:"children,omitempty"`
	Root     bool     `msgpack:"root,omitempty"`
}

// Dump writes the subtree under root to w as a msgpack stream.
func (store *NodeStore) Dump(root DataNode, w io.Writer) (err error) {
	enc := msgpack.NewEncoder(w)
	err = enc.Encode(&dumpHeader{Version: dumpVersion, BlockSize: store.layout.BlockSize()})
	if err != nil {
		return errors.Wrap(err, "write dump header")
	}
	return store.dump(enc, root, true)
}

func (store *NodeStore) dump(enc *msgpack.Encoder, node DataNode, isRoot bool) (err error) {
	key := node.Key()
	rec := nodeRecord{Key: key[:], Depth: node.Depth(), Root: isRoot}
	switch n := node.(type) {
	case *LeafNode:
		rec.Data = n.Bytes()
	case *InnerNode:
		for i := 0; i < n.NumChildren(); i++ {
			child, err := store.loadChild(n, i)
			if err != nil {
				return err
			}
			err = store.dump(enc, child, false)
			if err != nil {
				return err
			}
			childKey := n.Child(i)
			rec.Children = append(rec.Children, childKey[:])
		}
	default:
		Assert(false, "unhandled node type %T", node)
	}
	err = enc.Encode(&rec)
	if err != nil {
		return errors.Wrapf(err, "write dump record %s", key)
	}
	return
}

// Restore reads a dump written by Dump and recreates its nodes under new
// keys.  It returns the new root.  A failed restore leaves the nodes
// created so far in the store.
func (store *NodeStore) Restore(r io.Reader) (root DataNode, err error) {
	dec := msgpack.NewDecoder(r)
	var header dumpHeader
	err = dec.Decode(&header)
	if err != nil {
		return nil, errors.Wrap(err, "read dump header")
	}
	if header.Version != dumpVersion {
		return nil, errors.Errorf("dump version %d, want %d", header.Version, dumpVersion)
	}
	if header.BlockSize != store.layout.BlockSize() {
		return nil, errors.Errorf("dump block size %d, store uses %d", header.BlockSize, store.layout.BlockSize())
	}

	type restored struct {
		key   blockstore.Key
		depth int
	}
	// old key -> new node
	seen := make(map[blockstore.Key]restored)
	for {
		var rec nodeRecord
		err = dec.Decode(&rec)
		if err != nil {
			return nil, errors.Wrap(err, "read dump record")
		}
		oldKey := blockstore.KeyFromBytes(rec.Key)

		var node DataNode
		switch {
		case rec.Depth == 0:
			if len(rec.Data) > store.layout.MaxBytesPerLeaf() {
				return nil, errors.Errorf("dump leaf %s has %d bytes, max %d", oldKey, len(rec.Data), store.layout.MaxBytesPerLeaf())
			}
			leaf, err := store.CreateNewLeafNode()
			if err != nil {
				return nil, err
			}
			leaf.Write(rec.Data, 0)
			node = leaf
		case rec.Depth > 0 && rec.Depth <= MaxDepth:
			if len(rec.Children) < 1 || len(rec.Children) > store.layout.MaxChildrenPerInnerNode() {
				return nil, errors.Errorf("dump node %s has %d children", oldKey, len(rec.Children))
			}
			var children []blockstore.Key
			for _, buf := range rec.Children {
				child, ok := seen[blockstore.KeyFromBytes(buf)]
				if !ok || child.depth != rec.Depth-1 {
					return nil, errors.Errorf("dump node %s refers to unknown child %x", oldKey, buf)
				}
				children = append(children, child.key)
			}
			inner, err := store.createInnerNode(children[0], rec.Depth-1)
			if err != nil {
				return nil, err
			}
			for _, key := range children[1:] {
				inner.addChild(key)
			}
			node = inner
		default:
			return nil, &CorruptionError{Key: oldKey, Reason: "dump record depth out of range"}
		}
		err = node.Flush()
		if err != nil {
			return nil, err
		}
		log.Debugf("restored node %s as %s", oldKey, node.Key())
		seen[oldKey] = restored{key: node.Key(), depth: rec.Depth}
		if rec.Root {
			return node, nil
		}
	}
}
