// Package chash derives 32 character checksummed addresses from address
// definitions and other hashable values.
package chash

import (
	"bytes"
	"encoding/base32"

	"github.com/unitdag/unitd/domain/consensus/utils/hashes"
)

// Length is the length of an address
const Length = 32

const (
	bodySize     = 16
	checksumSize = 4
)

// FromDefinition returns the address bound to definition
func FromDefinition(definition []interface{}) (string, error) {
	writer := hashes.NewDefinitionHashWriter()
	err := writer.WriteCanonical(definition)
	if err != nil {
		return "", err
	}
	digest := writer.Finalize().ByteSlice()
	return encode(digest[:bodySize]), nil
}

func encode(body []byte) string {
	raw := make([]byte, 0, bodySize+checksumSize)
	raw = append(raw, body...)
	raw = append(raw, checksum(body)...)
	return base32.StdEncoding.EncodeToString(raw)
}

func checksum(body []byte) []byte {
	writer := hashes.NewDataHashWriter()
	writer.InfallibleWrite(body)
	return writer.Finalize().ByteSlice()[:checksumSize]
}

// IsValid returns whether address is well formed and its checksum matches
func IsValid(address string) bool {
	if len(address) != Length {
		return false
	}
	raw, err := base32.StdEncoding.DecodeString(address)
	if err != nil || len(raw) != bodySize+checksumSize {
		return false
	}
	return bytes.Equal(checksum(raw[:bodySize]), raw[bodySize:])
}
