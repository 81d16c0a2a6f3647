package binaryserialization

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// SerializeUint64 serializes n big endian, so that serialized keys sort
// in numeric order
func SerializeUint64(n uint64) []byte {
	var serialized [8]byte
	binary.BigEndian.PutUint64(serialized[:], n)
	return serialized[:]
}

// DeserializeUint64 is the inverse of SerializeUint64
func DeserializeUint64(serialized []byte) (uint64, error) {
	if len(serialized) != 8 {
		return 0, errors.Errorf("expected 8 bytes, got %d", len(serialized))
	}
	return binary.BigEndian.Uint64(serialized), nil
}
