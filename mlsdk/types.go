package mlsdk

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// Handle is an opaque reference to a connected tracker or stream. The zero
// of information is InvalidHandle, not 0; the vendor uses an all-ones
// sentinel and so do we.
type Handle uint64

// InvalidHandle marks a disconnected or never-connected handle.
const InvalidHandle Handle = 0xFFFFFFFFFFFFFFFF

// Valid reports whether h refers to a live object. A zero handle is also
// treated as invalid: it is what callers get from uninitialized borrows.
func (h Handle) Valid() bool { return h != InvalidHandle && h != 0 }

// CFUID is a 16-byte coordinate frame UID, used to look up a transform in a
// perception snapshot.
type CFUID [16]byte

// CFUIDFromUUID reinterprets a UUID as a coordinate frame UID.
func CFUIDFromUUID(id uuid.UUID) CFUID { return CFUID(id) }

// IsZero reports whether the UID is unset.
func (c CFUID) IsZero() bool { return c == CFUID{} }

func (c CFUID) String() string { return hex.EncodeToString(c[:]) }

// FrameBuffer is one image plane copied out of system-owned memory. Data is
// owned by the producer that allocated it; consumers must copy before the
// next fetch overwrites it.
type FrameBuffer struct {
	Width        int32
	Height       int32
	Stride       int32
	BytesPerUnit int32
	Data         []byte
}
