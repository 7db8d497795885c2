package blockstore

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/stevegt/goadapt"
)

func TestDiskStoreConfig(t *testing.T) {
	store := setup(t)
	tassert(t, store.BlockSize == testBlockSize, "BlockSize %d", store.BlockSize)
	tassert(t, store.Depth == 2, "Depth %d", store.Depth)

	// refuse to init over an existing store
	_, err := Init(store.Dir, Config{})
	_, ok := err.(*ExistsError)
	tassert(t, ok, "expected ExistsError, got %v", err)

	// refuse to open a dir without config
	_, err = Open(t.TempDir())
	_, ok = err.(*NotStoreError)
	tassert(t, ok, "expected NotStoreError, got %v", err)

	_, err = Init(t.TempDir(), Config{Depth: 11})
	tassert(t, err != nil, "expected error for depth 11")
}

func TestDiskStoreLayout(t *testing.T) {
	store := setup(t)
	key, err := ParseKey("d2c71afc5848aa2a33ff08621217f24d")
	Ck(err)
	path := Path{}.New(store, key)

	expect := filepath.Join(store.Dir, "block/d2c/71a/d2c71afc5848aa2a33ff08621217f24d")
	tassert(t, path.Abs == expect, "expected %s, got %s", expect, path.Abs)
	tassert(t, path.Canon == "block/d2c71afc5848aa2a33ff08621217f24d", "canon %s", path.Canon)

	for _, raw := range []string{path.Abs, path.Rel, path.Canon, key.String()} {
		got, err := PathFromString(store, raw)
		tassert(t, err == nil, "PathFromString(%q) err %v", raw, err)
		tassert(t, got.Key == key, "PathFromString(%q) key %s", raw, got.Key)
	}
	_, err = PathFromString(store, "tree/d2c71afc5848aa2a33ff08621217f24d")
	tassert(t, err != nil, "expected error for non-block path")

	_, ok, err := store.TryCreate(key, mkbuf("somedata"))
	tassert(t, err == nil && ok, "TryCreate ok %v err %v", ok, err)
	buf, err := os.ReadFile(path.Abs)
	Ck(err)
	tassert(t, string(buf[:6]) == "block\n", "header %q", buf[:6])
	tassert(t, len(buf) == 6+testBlockSize, "file size %d", len(buf))
}

func TestDiskStoreMalformed(t *testing.T) {
	store := setup(t)
	block, err := store.Create(mkbuf("somedata"))
	Ck(err)
	path := Path{}.New(store, block.Key())

	err = os.WriteFile(path.Abs, []byte("tree\nshort"), 0644)
	Ck(err)
	_, _, err = store.Load(block.Key())
	_, ok := err.(*MalformedBlockError)
	tassert(t, ok, "expected MalformedBlockError, got %v", err)

	err = os.WriteFile(path.Abs, []byte("block\nshort"), 0644)
	Ck(err)
	_, _, err = store.Load(block.Key())
	_, ok = err.(*MalformedBlockError)
	tassert(t, ok, "expected MalformedBlockError, got %v", err)
}

func TestDiskStoreWrongSize(t *testing.T) {
	store := setup(t)
	_, err := store.Create([]byte("too short"))
	tassert(t, err != nil, "expected error creating short block")
	n, err := store.NumBlocks()
	Ck(err)
	tassert(t, n == 0, "NumBlocks %d", n)
}
