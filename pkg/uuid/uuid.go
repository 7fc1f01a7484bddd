// Package uuid generates UUID v7 identifiers for archive rows. The leading
// timestamp bits make primary-key order roughly follow insertion time, which
// keeps the transcript index append-friendly.
package uuid

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"time"
)

// UUID is a 16-byte UUID v7 identifier.
type UUID [16]byte

// NewV7 generates a UUID v7: 48 bits of Unix milliseconds, then the version
// nibble, then random bits with the RFC 4122 variant forced in.
// Ids from the same millisecond carry no ordering guarantee.
func NewV7() UUID {
	var u UUID

	ms := uint64(time.Now().UnixMilli())
	binary.BigEndian.PutUint64(u[:8], ms<<16)

	r := rand.Uint64()
	u[6] = byte(r >> 8)
	u[7] = byte(r)
	binary.BigEndian.PutUint64(u[8:], rand.Uint64())

	// Version nibble 0111 in byte 6, variant 10xxxxxx in byte 8.
	u[6] = 0x70 | u[6]&0x0f
	u[8] = 0x80 | u[8]&0x3f

	return u
}

// Time recovers the millisecond timestamp embedded in the id.
func (u UUID) Time() time.Time {
	ms := binary.BigEndian.Uint64(u[:8]) >> 16
	return time.UnixMilli(int64(ms))
}

// String returns the UUID in standard form: xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx
func (u UUID) String() string {
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		u[0:4],
		u[4:6],
		u[6:8],
		u[8:10],
		u[10:16],
	)
}
