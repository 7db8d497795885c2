package main

import (
	"encoding/binary"
	"flag"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmdtest"
	"github.com/pkg/errors"
	"github.com/t7a/blocktree"
	"github.com/t7a/blocktree/blockstore"
)

var update = flag.Bool("update", false, "update test files with results")

func TestCLI(t *testing.T) {
	ts, err := cmdtest.Read("testdata")
	if err != nil {
		t.Fatal(err)
	}
	ts.Commands["nodetool"] = cmdtest.InProcessProgram("nodetool", run)
	ts.Run(t, *update)
}

// test boolean condition
func tassert(t *testing.T, cond bool, txt string, args ...interface{}) {
	t.Helper() // cause file:line info to show caller
	if !cond {
		t.Fatalf(txt, args...)
	}
}

func TestExitCode(t *testing.T) {
	key := blockstore.NewKey()
	cases := []struct {
		err  error
		want int
	}{
		{&notFoundError{key: key}, rcNotFound},
		{errors.Wrap(&notFoundError{key: key}, "wrapped"), rcNotFound},
		{&blocktree.CorruptionError{Key: key, Reason: "test"}, rcCorruption},
		{&usageError{msg: "test"}, rcUsage},
		{errors.New("disk on fire"), rcIO},
	}
	for _, c := range cases {
		got := exitCode(c.err)
		tassert(t, got == c.want, "exitCode(%v) = %d, want %d", c.err, got, c.want)
	}
}

func TestCommands(t *testing.T) {
	t.Setenv("NODESTORE", t.TempDir())
	_, err := initStore("128")
	tassert(t, err == nil, "init err %v", err)

	leafkey, err := mkleaf("hello")
	tassert(t, err == nil, "mkleaf err %v", err)
	innerkey, err := mkinner(leafkey)
	tassert(t, err == nil, "mkinner err %v", err)

	out, err := show(innerkey)
	tassert(t, err == nil, "show err %v", err)
	want := "inner " + innerkey + " depth 1 children 1\n" + leafkey
	tassert(t, out == want, "show got %q want %q", out, want)

	copykey, err := cp(leafkey)
	tassert(t, err == nil, "cp err %v", err)
	tassert(t, copykey != leafkey, "cp returned the source key")

	other, err := mkleaf("other")
	tassert(t, err == nil, "mkleaf err %v", err)
	got, err := overwrite(copykey, other)
	tassert(t, err == nil, "overwrite err %v", err)
	tassert(t, got == copykey, "overwrite changed key to %s", got)
	out, err = show(copykey)
	tassert(t, err == nil, "show err %v", err)
	tassert(t, out == "leaf "+copykey+" bytes 5\n\"other\"", "show got %q", out)

	out, err = verify(innerkey)
	tassert(t, err == nil && out == "ok", "verify out %q err %v", out, err)

	n, err := count()
	tassert(t, err == nil && n == "4", "count %q err %v", n, err)
	err = rm(innerkey, true)
	tassert(t, err == nil, "rmtree err %v", err)
	err = rm(copykey, false)
	tassert(t, err == nil, "rm err %v", err)
	n, err = count()
	tassert(t, err == nil && n == "1", "count %q err %v", n, err)

	_, err = show(leafkey)
	tassert(t, exitCode(err) == rcNotFound, "show of removed node err %v", err)
	_, err = show("nonsense")
	tassert(t, exitCode(err) == rcUsage, "show of bad key err %v", err)

	// a size field past the leaf capacity is reported, not a crash
	dir, err := storeDir()
	tassert(t, err == nil, "storeDir err %v", err)
	blocks, err := blockstore.Open(dir)
	tassert(t, err == nil, "open err %v", err)
	buf := make([]byte, 128)
	binary.LittleEndian.PutUint32(buf[4:], 100000)
	bad, err := blocks.Create(buf)
	tassert(t, err == nil, "create err %v", err)
	_, err = show(bad.Key().String())
	tassert(t, exitCode(err) == rcCorruption, "show of corrupt leaf err %v", err)
}

func TestCaller(t *testing.T) {
	wd, err := os.Getwd()
	tassert(t, err == nil, "getwd err %v", err)
	function, file := caller(&runtime.Frame{File: filepath.Join(wd, "main.go"), Line: 42, Function: "main.run"})
	tassert(t, function == "", "function %q", function)
	tassert(t, file == "/main.go:42", "file %q", file)
}
