package blockstore

import (
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// KeyLen is the size of a key in bytes, both in memory and when stored
// as a child entry inside an inner node.
const KeyLen = 16

// Key is the stable identity of a block.  Keys are random; they say
// nothing about the block's content.
type Key [KeyLen]byte

// NewKey returns a fresh random key.
func NewKey() Key {
	return Key(uuid.New())
}

// ParseKey accepts the 32-character hex form returned by Key.String as
// well as the dashed uuid form.
func ParseKey(s string) (key Key, err error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return key, errors.Wrapf(err, "malformed key %q", s)
	}
	return Key(u), nil
}

// KeyFromBytes copies a key out of a child entry.
func KeyFromBytes(buf []byte) (key Key) {
	copy(key[:], buf)
	return
}

func (key Key) String() string {
	return hex.EncodeToString(key[:])
}

func (key Key) IsZero() bool {
	return key == Key{}
}
