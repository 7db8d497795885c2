package main

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/docopt/docopt-go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/t7a/blocktree"
	"github.com/t7a/blocktree/blockstore"
)

// NODESTORE_DEBUG=1 turns on debug logging from the node and block
// stores.
func init() {
	if os.Getenv("NODESTORE_DEBUG") == "1" {
		log.SetLevel(log.DebugLevel)
	}
	log.SetReportCaller(true)
	log.SetFormatter(&log.TextFormatter{
		CallerPrettyfier: caller,
		TimestampFormat:  "15:04:05.999999999",
	})
}

// caller reports only file:line, relative to the working directory.
func caller(f *runtime.Frame) (function string, file string) {
	wd, _ := os.Getwd()
	return "", fmt.Sprintf("%s:%d", strings.TrimPrefix(f.File, wd), f.Line)
}

type Opts struct {
	Init      bool
	Count     bool
	Mkleaf    bool
	Mkinner   bool
	Show      bool
	Cp        bool
	Overwrite bool
	Rm        bool
	Rmtree    bool
	Verify    bool
	Dump      bool
	Restore   bool
	Demo      bool
	Blocksize string `docopt:"--blocksize"`
	Text      string
	Childkey  string
	Key       string
	Target    string
	Source    string
	Filename  string
	Depth     string
}

// exit codes
const (
	rcOK         = 0
	rcNotFound   = 1
	rcCorruption = 2
	rcIO         = 5
	rcUsage      = 22
)

func main() {
	// see https://github.com/google/go-cmdtest
	os.Exit(run())
}

func run() (rc int) {

	usage := `nodetool

Usage:
  nodetool init [--blocksize=<n>]
  nodetool count
  nodetool mkleaf [<text>]
  nodetool mkinner <childkey>
  nodetool show <key>
  nodetool cp <key>
  nodetool overwrite <target> <source>
  nodetool rm <key>
  nodetool rmtree <key>
  nodetool verify <key>
  nodetool dump <key> <filename>
  nodetool restore <filename>
  nodetool demo <depth>

Options:
  -h --help         Show this screen.
  --version         Show version.
  --blocksize=<n>   Block size in bytes [default: 4096].

The store lives in $NODESTORE or, if that is unset, the current directory.
Set NODESTORE_DEBUG=1 for debug logging.
`
	parser := &docopt.Parser{OptionsFirst: false, HelpHandler: docopt.PrintHelpOnly}
	o, err := parser.ParseArgs(usage, os.Args[1:], "0.0")
	if err != nil {
		log.Error(err)
		return rcUsage
	}
	var opts Opts
	err = o.Bind(&opts)
	if err != nil {
		log.Error(err)
		return rcUsage
	}
	log.Debug(opts)

	var out string
	switch true {
	case opts.Init:
		out, err = initStore(opts.Blocksize)
	case opts.Count:
		out, err = count()
	case opts.Mkleaf:
		out, err = mkleaf(opts.Text)
	case opts.Mkinner:
		out, err = mkinner(opts.Childkey)
	case opts.Show:
		out, err = show(opts.Key)
	case opts.Cp:
		out, err = cp(opts.Key)
	case opts.Overwrite:
		out, err = overwrite(opts.Target, opts.Source)
	case opts.Rm:
		err = rm(opts.Key, false)
	case opts.Rmtree:
		err = rm(opts.Key, true)
	case opts.Verify:
		out, err = verify(opts.Key)
	case opts.Dump:
		err = dump(opts.Key, opts.Filename)
	case opts.Restore:
		out, err = restore(opts.Filename)
	case opts.Demo:
		out, err = demo(opts.Depth)
	}
	if err != nil {
		log.Error(err)
		return exitCode(err)
	}
	if out != "" {
		fmt.Println(out)
	}
	return rcOK
}

type notFoundError struct {
	key blockstore.Key
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("no node %s", e.key)
}

type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func exitCode(err error) int {
	switch errors.Cause(err).(type) {
	case *notFoundError:
		return rcNotFound
	case *blocktree.CorruptionError:
		return rcCorruption
	case *usageError:
		return rcUsage
	}
	return rcIO
}

func storeDir() (dir string, err error) {
	dir = os.Getenv("NODESTORE")
	if dir == "" {
		dir, err = os.Getwd()
	}
	return
}

func openStore() (store *blocktree.NodeStore, err error) {
	dir, err := storeDir()
	if err != nil {
		return
	}
	blocks, err := blockstore.Open(dir)
	if err != nil {
		return
	}
	return blocktree.NewNodeStore(blocks, blocks.BlockSize)
}

// load opens the store and loads the node named by a key argument.
func load(arg string) (store *blocktree.NodeStore, node blocktree.DataNode, err error) {
	key, err := blockstore.ParseKey(arg)
	if err != nil {
		return nil, nil, &usageError{msg: err.Error()}
	}
	store, err = openStore()
	if err != nil {
		return
	}
	node, ok, err := store.Load(key)
	if err != nil {
		return
	}
	if !ok {
		return nil, nil, &notFoundError{key: key}
	}
	return
}

func initStore(blocksize string) (msg string, err error) {
	dir, err := storeDir()
	if err != nil {
		return
	}
	size, err := strconv.Atoi(blocksize)
	if err != nil {
		return "", &usageError{msg: fmt.Sprintf("bad block size %q", blocksize)}
	}
	// reject sizes the node layout can't use before touching the disk
	_, err = blocktree.NewLayout(size)
	if err != nil {
		return "", &usageError{msg: err.Error()}
	}
	blocks, err := blockstore.Init(dir, blockstore.Config{BlockSize: size})
	if err != nil {
		return
	}
	return fmt.Sprintf("Initialized empty block store, block size %d", blocks.BlockSize), nil
}

func count() (out string, err error) {
	store, err := openStore()
	if err != nil {
		return
	}
	n, err := store.NumNodes()
	if err != nil {
		return
	}
	return strconv.FormatUint(n, 10), nil
}

func mkleaf(text string) (out string, err error) {
	store, err := openStore()
	if err != nil {
		return
	}
	if len(text) > store.Layout().MaxBytesPerLeaf() {
		return "", &usageError{msg: fmt.Sprintf("text is %d bytes, a leaf holds %d", len(text), store.Layout().MaxBytesPerLeaf())}
	}
	leaf, err := store.CreateNewLeafNode()
	if err != nil {
		return
	}
	leaf.Write([]byte(text), 0)
	err = leaf.Flush()
	if err != nil {
		return
	}
	return leaf.Key().String(), nil
}

func mkinner(childkey string) (out string, err error) {
	store, child, err := load(childkey)
	if err != nil {
		return
	}
	inner, err := store.CreateNewInnerNode(child)
	if err != nil {
		return
	}
	return inner.Key().String(), nil
}

func show(key string) (out string, err error) {
	_, node, err := load(key)
	if err != nil {
		return
	}
	return describe(node), nil
}

func describe(node blocktree.DataNode) string {
	var lines []string
	switch n := node.(type) {
	case *blocktree.LeafNode:
		lines = append(lines, fmt.Sprintf("leaf %s bytes %d", n.Key(), n.NumBytes()))
		lines = append(lines, strconv.Quote(string(n.Bytes())))
	case *blocktree.InnerNode:
		lines = append(lines, fmt.Sprintf("inner %s depth %d children %d", n.Key(), n.Depth(), n.NumChildren()))
		for _, child := range n.Children() {
			lines = append(lines, child.String())
		}
	}
	return strings.Join(lines, "\n")
}

func cp(key string) (out string, err error) {
	store, node, err := load(key)
	if err != nil {
		return
	}
	copied, err := store.CreateNewNodeAsCopyFrom(node)
	if err != nil {
		return
	}
	return copied.Key().String(), nil
}

func overwrite(targetkey, sourcekey string) (out string, err error) {
	store, target, err := load(targetkey)
	if err != nil {
		return
	}
	_, source, err := load(sourcekey)
	if err != nil {
		return
	}
	node, err := store.OverwriteNodeWith(target, source)
	if err != nil {
		return
	}
	return node.Key().String(), nil
}

func rm(key string, subtree bool) (err error) {
	store, node, err := load(key)
	if err != nil {
		return
	}
	if subtree {
		return store.RemoveSubtree(node)
	}
	return store.Remove(node)
}

func verify(key string) (out string, err error) {
	store, node, err := load(key)
	if err != nil {
		return
	}
	err = store.Verify(node)
	if err != nil {
		return
	}
	return "ok", nil
}

func dump(key, filename string) (err error) {
	store, node, err := load(key)
	if err != nil {
		return
	}
	fh, err := os.Create(filename)
	if err != nil {
		return
	}
	err = store.Dump(node, fh)
	if err != nil {
		fh.Close()
		return
	}
	return fh.Close()
}

func restore(filename string) (out string, err error) {
	store, err := openStore()
	if err != nil {
		return
	}
	fh, err := os.Open(filename)
	if err != nil {
		return
	}
	defer fh.Close()
	root, err := store.Restore(fh)
	if err != nil {
		return
	}
	return root.Key().String(), nil
}
