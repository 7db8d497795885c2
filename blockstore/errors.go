package blockstore

import (
	"errors"
	"fmt"
)

// ErrBlockNotFound is returned by Store and Remove when the block's key
// is no longer in the store.  Load never returns it.
var ErrBlockNotFound = errors.New("block not found")

type NotStoreError struct {
	Dir string
}

func (e *NotStoreError) Error() string {
	return fmt.Sprintf("not a block store: %s", e.Dir)
}

type ExistsError struct {
	Dir string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("directory not empty: %s", e.Dir)
}

// MalformedBlockError means a block file on disk does not carry the
// expected header or size.
type MalformedBlockError struct {
	Path   string
	Reason string
}

func (e *MalformedBlockError) Error() string {
	return fmt.Sprintf("malformed block %s: %s", e.Path, e.Reason)
}
