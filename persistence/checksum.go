package persistence

import (
	"encoding/binary"
	"fmt"

	"github.com/dtaikl/treeverify/internal/hash"
)

// checksumFrame prepends a CRC32-Castagnoli checksum to payload, so a
// truncated or bit-flipped checkpoint is caught at read time rather than
// surfacing as a confusing codec.Unmarshal error.
func checksumFrame(payload []byte) []byte {
	framed := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(framed, hash.CRC32C(payload))
	copy(framed[4:], payload)
	return framed
}

// checksumUnframe validates and strips the checksum prepended by
// checksumFrame.
func checksumUnframe(framed []byte) ([]byte, error) {
	if len(framed) < 4 {
		return nil, fmt.Errorf("persistence: frame too short to hold a checksum (%d bytes)", len(framed))
	}
	want := binary.BigEndian.Uint32(framed[:4])
	payload := framed[4:]
	got := hash.CRC32C(payload)
	if got != want {
		return nil, fmt.Errorf("persistence: checksum mismatch: want %08x, got %08x", want, got)
	}
	return payload, nil
}
