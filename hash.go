package seafuse

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// HashSize is the width, in bytes, of a content identifier.
const HashSize = 20

// Hash is a 20-byte content identifier. Its canonical textual form is 40
// lowercase hexadecimal characters. The zero value is the sentinel "empty"
// hash (spec.md §3): a Dirent or root_id referencing it denotes an empty
// directory with no backing object.
//
// The underlying representation is stored as raw bytes in their natural
// order rather than as four-byte words with a reversed word order (an
// alternative the format also tolerates, per spec.md §9); either preserves
// the bit-exact parse/render round trip, and raw-byte storage is simpler.
type Hash [HashSize]byte

// EmptyHash is the sentinel hash denoting an empty directory without a
// stored fs object.
var EmptyHash Hash

// IsEmpty reports whether h is the sentinel empty hash.
func (h Hash) IsEmpty() bool {
	return h == EmptyHash
}

// String renders h as 40 lowercase hex characters.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// ParseHash parses a 40-character hex string into a Hash. It rejects any
// input that is not exactly 40 hexadecimal characters.
func ParseHash(s string) (Hash, error) {
	var h Hash

	if len(s) != HashSize*2 {
		return h, fmt.Errorf("invalid hash length %d, expected %d", len(s), HashSize*2)
	}

	buf, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("invalid hash encoding: %w", err)
	}

	copy(h[:], buf)
	return h, nil
}

// MarshalJSON renders the hash as a JSON hex string.
func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON parses a JSON hex string into the hash.
func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := ParseHash(s)
	if err != nil {
		return err
	}

	*h = parsed
	return nil
}
