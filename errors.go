package blocktree

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/t7a/blocktree/blockstore"
)

// ErrTreeTooDeep is returned when a new inner node would exceed
// MaxDepth.
var ErrTreeTooDeep = errors.Errorf("tree would exceed max depth %d", MaxDepth)

// CorruptionError reports stored data that can not be valid: a depth
// field above MaxDepth, a child key with no block behind it, or a
// broken depth invariant.  It is never transient.
type CorruptionError struct {
	Key    blockstore.Key
	Reason string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("data corruption at node %s: %s", e.Key, e.Reason)
}

func IsCorruption(err error) bool {
	var cerr *CorruptionError
	return errors.As(err, &cerr)
}
