package blockstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"
)

const (
	blockClass = "block"
	configFile = "config.json"

	// a key is 32 hex chars, so at most 10 three-char subdirs
	maxSubdirDepth = 10

	// DefaultBlockSize is used by Init when BlockSize is zero.
	DefaultBlockSize = 4096
)

// Config is persisted as config.json in the store directory.
// Depth is the number of subdirectory levels in the block dir.  We use
// three-character hexadecimal names for the subdirectories, giving us
// a maximum of 4096 subdirs in a parent dir.
type Config struct {
	Depth     int // number of subdir levels in block dir
	BlockSize int // size of every block in bytes
}

// DiskStore is a BlockStore keeping one file per block under Dir.  Each
// block file starts with a one-line class header followed by exactly
// BlockSize bytes.
//
// Block files are replaced atomically, so a concurrent Load of a key
// sees either the old or the new content, never a mix.
type DiskStore struct {
	Dir string // base of tree
	Config

	mu sync.Mutex
}

// Open loads an existing store from dir.
func Open(dir string) (store *DiskStore, err error) {
	dir = filepath.Clean(dir)

	if !canstat(dir) {
		return nil, fmt.Errorf("cannot open: %s", dir)
	}

	buf, err := os.ReadFile(filepath.Join(dir, configFile))
	if err != nil {
		return nil, &NotStoreError{Dir: dir}
	}
	store = &DiskStore{Dir: dir}
	err = json.Unmarshal(buf, &store.Config)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", filepath.Join(dir, configFile))
	}
	if store.BlockSize <= 0 || store.Depth < 1 || store.Depth > maxSubdirDepth {
		return nil, &NotStoreError{Dir: dir}
	}
	return
}

// Init creates a store directory and its config.  Zero fields of cfg
// get defaults.
func Init(dir string, cfg Config) (store *DiskStore, err error) {
	defer Return(&err)

	dir = filepath.Clean(dir)

	// if directory exists, make sure it's empty
	if canstat(dir) {
		files, err := os.ReadDir(dir)
		Ck(err)
		if len(files) > 0 {
			return nil, &ExistsError{Dir: dir}
		}
	}

	// set nesting depth
	if cfg.Depth < 1 {
		cfg.Depth = 2
	}
	if cfg.BlockSize == 0 {
		cfg.BlockSize = DefaultBlockSize
	}
	if cfg.Depth > maxSubdirDepth || cfg.BlockSize < 0 {
		return nil, errors.Errorf("invalid config: depth %d blocksize %d", cfg.Depth, cfg.BlockSize)
	}

	err = mkdir(dir)
	Ck(err)
	err = mkdir(filepath.Join(dir, blockClass))
	Ck(err)

	buf, err := json.Marshal(cfg)
	Ck(err)
	err = os.WriteFile(filepath.Join(dir, configFile), buf, 0644)
	Ck(err)

	log.Debugf("created block store %s blocksize %d depth %d", dir, cfg.BlockSize, cfg.Depth)
	return &DiskStore{Dir: dir, Config: cfg}, nil
}

func (store *DiskStore) Create(data []byte) (*Block, error) {
	return create(store, data)
}

func (store *DiskStore) TryCreate(key Key, data []byte) (block *Block, ok bool, err error) {
	defer Return(&err)
	if len(data) != store.BlockSize {
		return nil, false, errors.Errorf("create: data is %d bytes, block size is %d", len(data), store.BlockSize)
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	path := Path{}.New(store, key)
	if exists(path.Abs) {
		return nil, false, nil
	}
	err = store.write(path, data)
	Ck(err)
	log.Debugf("created %s", path.Canon)
	return Block{}.New(store, key, dup(data)), true, nil
}

func (store *DiskStore) Load(key Key) (block *Block, ok bool, err error) {
	path := Path{}.New(store, key)
	buf, err := os.ReadFile(path.Abs)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "load %s", path.Canon)
	}
	header := path.header()
	if len(buf) < len(header) || string(buf[:len(header)]) != header {
		return nil, false, &MalformedBlockError{Path: path.Abs, Reason: "bad header"}
	}
	data := buf[len(header):]
	if len(data) != store.BlockSize {
		return nil, false, &MalformedBlockError{
			Path:   path.Abs,
			Reason: fmt.Sprintf("%d data bytes, want %d", len(data), store.BlockSize),
		}
	}
	return Block{}.New(store, key, data), true, nil
}

func (store *DiskStore) Store(block *Block) (err error) {
	if block.Size() != store.BlockSize {
		return errors.Errorf("store %s: block is %d bytes, block size is %d", block.Key(), block.Size(), store.BlockSize)
	}
	store.mu.Lock()
	defer store.mu.Unlock()

	path := Path{}.New(store, block.Key())
	if !exists(path.Abs) {
		return errors.Wrapf(ErrBlockNotFound, "store %s", path.Canon)
	}
	return store.write(path, block.Data())
}

func (store *DiskStore) Remove(block *Block) (err error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	path := Path{}.New(store, block.Key())
	err = os.Remove(path.Abs)
	if os.IsNotExist(err) {
		return errors.Wrapf(ErrBlockNotFound, "remove %s", path.Canon)
	}
	if err != nil {
		return errors.Wrapf(err, "remove %s", path.Canon)
	}
	log.Debugf("removed %s", path.Canon)
	return
}

// NumBlocks counts the block files under the block dir.
func (store *DiskStore) NumBlocks() (n uint64, err error) {
	root := filepath.Join(store.Dir, blockClass)
	err = filepath.Walk(root, func(abs string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		// renameio leaves dot-prefixed temp files while writing
		if _, err := ParseKey(info.Name()); err != nil {
			return nil
		}
		n++
		return nil
	})
	if err != nil {
		return 0, errors.Wrapf(err, "count blocks in %s", root)
	}
	return
}

// write replaces the file at path with header and data in one atomic
// rename.  The caller holds store.mu.
func (store *DiskStore) write(path *Path, data []byte) (err error) {
	dir, _ := filepath.Split(path.Abs)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return
	}
	buf := make([]byte, 0, len(path.header())+len(data))
	buf = append(buf, path.header()...)
	buf = append(buf, data...)
	return renameio.WriteFile(path.Abs, buf, 0644)
}

func canstat(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

func mkdir(dir string) (err error) {
	if canstat(dir) {
		return
	}
	return os.MkdirAll(dir, 0755)
}
