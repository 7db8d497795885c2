package blockstore

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Path locates a block file inside a DiskStore.
type Path struct {
	Store *DiskStore
	Key   Key
	Abs   string // absolute
	Rel   string // relative to Store.Dir, including subdirs
	Canon string // canonical: relative, without subdirs
}

func (path Path) New(store *DiskStore, key Key) *Path {
	path.Store = store
	path.Key = key
	hex := key.String()

	// Rel uses the nesting depth described in the DiskStore comments.
	// The full key is kept in the last path component so the files can
	// be found with plain UNIX tools.
	var subpath string
	for i := 0; i < store.Depth; i++ {
		subdir := hex[(3 * i):((3 * i) + 3)]
		subpath = filepath.Join(subpath, subdir)
	}
	path.Rel = filepath.Join(blockClass, subpath, hex)
	path.Abs = filepath.Join(store.Dir, path.Rel)
	path.Canon = filepath.Join(blockClass, hex)
	return &path
}

// PathFromString parses an absolute, relative, or canonical block path,
// or a bare key.
func PathFromString(store *DiskStore, raw string) (path *Path, err error) {
	clean := filepath.Clean(raw)
	clean = strings.TrimPrefix(clean, store.Dir+"/")
	parts := strings.Split(clean, "/")
	if len(parts) > 1 && parts[0] != blockClass {
		return nil, errors.Errorf("malformed path: %s", raw)
	}
	key, err := ParseKey(parts[len(parts)-1])
	if err != nil {
		return
	}
	return Path{}.New(store, key), nil
}

func (path *Path) header() string {
	return blockClass + "\n"
}
