package blockstore

import (
	"bytes"
	"fmt"
	"os"
	"testing"

	"github.com/hlubek/readercomp"
	"github.com/pkg/errors"
	. "github.com/stevegt/goadapt"
)

const testBlockSize = 64

// test boolean condition
func tassert(t *testing.T, cond bool, txt string, args ...interface{}) {
	t.Helper() // cause file:line info to show caller
	if !cond {
		t.Fatalf(txt, args...)
	}
}

func mkbuf(s string) []byte {
	buf := make([]byte, testBlockSize)
	copy(buf, s)
	return buf
}

func setup(t *testing.T) *DiskStore {
	var err error
	var dir string

	debug := os.Getenv("DEBUG")
	if debug == "1" {
		dir, err = os.MkdirTemp("", "blockstore")
		Ck(err)
		fmt.Println(dir)
		// no cleanup
	} else {
		dir = t.TempDir()
		// automatically cleaned up
	}
	_, err = Init(dir, Config{BlockSize: testBlockSize})
	Ck(err)
	store, err := Open(dir)
	Ck(err)
	tassert(t, store != nil, "store is nil")
	return store
}

func stores(t *testing.T) map[string]BlockStore {
	return map[string]BlockStore{
		"mem":  NewMemStore(),
		"disk": setup(t),
	}
}

func sameContent(a, b []byte) bool {
	ok, err := readercomp.Equal(bytes.NewReader(a), bytes.NewReader(b), 7)
	Ck(err)
	return ok
}

func TestCreateLoad(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			data := mkbuf("somedata")
			block, err := store.Create(data)
			tassert(t, err == nil, "Create err %v", err)
			tassert(t, !block.Key().IsZero(), "zero key")
			tassert(t, block.Size() == testBlockSize, "size %d", block.Size())

			// the block must not alias the caller's buffer
			data[0] = 'X'
			tassert(t, block.Data()[0] == 's', "block aliases input")

			got, ok, err := store.Load(block.Key())
			tassert(t, err == nil, "Load err %v", err)
			tassert(t, ok, "block %s not found", block.Key())
			tassert(t, sameContent(mkbuf("somedata"), got.Data()), "content mismatch %q", got.Data())

			n, err := store.NumBlocks()
			tassert(t, err == nil, "NumBlocks err %v", err)
			tassert(t, n == 1, "NumBlocks %d", n)
		})
	}
}

func TestLoadMissing(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			block, ok, err := store.Load(NewKey())
			tassert(t, err == nil, "Load err %v", err)
			tassert(t, !ok, "found block %v", block)
			tassert(t, block == nil, "block %v", block)
		})
	}
}

func TestTryCreateCollision(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			key := NewKey()
			_, ok, err := store.TryCreate(key, mkbuf("first"))
			tassert(t, err == nil && ok, "first TryCreate ok %v err %v", ok, err)
			_, ok, err = store.TryCreate(key, mkbuf("second"))
			tassert(t, err == nil, "second TryCreate err %v", err)
			tassert(t, !ok, "second TryCreate succeeded")

			got, ok, err := store.Load(key)
			tassert(t, err == nil && ok, "Load ok %v err %v", ok, err)
			tassert(t, sameContent(mkbuf("first"), got.Data()), "collision overwrote block")
		})
	}
}

func TestFlush(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			block, err := store.Create(mkbuf("before"))
			Ck(err)
			block.Write([]byte("after!"), 0)
			tassert(t, block.Dirty(), "block not dirty after write")

			// not visible until flushed
			got, _, err := store.Load(block.Key())
			Ck(err)
			tassert(t, sameContent(mkbuf("before"), got.Data()), "unflushed write visible")

			err = block.Flush()
			tassert(t, err == nil, "Flush err %v", err)
			tassert(t, !block.Dirty(), "block dirty after flush")
			got, _, err = store.Load(block.Key())
			Ck(err)
			tassert(t, sameContent(mkbuf("after!"), got.Data()), "flushed write not visible: %q", got.Data())
		})
	}
}

func TestRemove(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			a, err := store.Create(mkbuf("a"))
			Ck(err)
			_, err = store.Create(mkbuf("b"))
			Ck(err)

			err = store.Remove(a)
			tassert(t, err == nil, "Remove err %v", err)
			_, ok, err := store.Load(a.Key())
			tassert(t, err == nil && !ok, "removed block still loads: ok %v err %v", ok, err)
			n, err := store.NumBlocks()
			Ck(err)
			tassert(t, n == 1, "NumBlocks %d", n)

			err = store.Remove(a)
			tassert(t, errors.Is(err, ErrBlockNotFound), "second Remove err %v", err)
			err = store.Store(a)
			tassert(t, errors.Is(err, ErrBlockNotFound), "Store of removed block err %v", err)
		})
	}
}

func TestCopy(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			source, err := store.Create(mkbuf("source"))
			Ck(err)
			clone, err := CopyToNewBlock(store, source)
			tassert(t, err == nil, "CopyToNewBlock err %v", err)
			tassert(t, clone.Key() != source.Key(), "clone shares key %s", clone.Key())
			tassert(t, sameContent(source.Data(), clone.Data()), "clone content mismatch")

			target, err := store.Create(mkbuf("target"))
			Ck(err)
			err = CopyTo(target, source)
			tassert(t, err == nil, "CopyTo err %v", err)
			got, ok, err := store.Load(target.Key())
			tassert(t, err == nil && ok, "Load ok %v err %v", ok, err)
			tassert(t, sameContent(mkbuf("source"), got.Data()), "CopyTo content %q", got.Data())

			n, err := store.NumBlocks()
			Ck(err)
			tassert(t, n == 3, "NumBlocks %d", n)
		})
	}
}

func TestKey(t *testing.T) {
	key := NewKey()
	s := key.String()
	tassert(t, len(s) == 2*KeyLen, "key string %q", s)
	got, err := ParseKey(s)
	tassert(t, err == nil, "ParseKey err %v", err)
	tassert(t, got == key, "expected %s got %s", key, got)

	_, err = ParseKey("not-a-key")
	tassert(t, err != nil, "expected error, got none")

	tassert(t, KeyFromBytes(key[:]) == key, "KeyFromBytes mismatch")
	tassert(t, Key{}.IsZero(), "zero key not zero")
}
