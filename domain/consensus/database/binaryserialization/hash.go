package binaryserialization

import "github.com/unitdag/unitd/domain/consensus/model/externalapi"

// SerializeHash serializes hash to a slice of bytes
func SerializeHash(hash *externalapi.DomainHash) []byte {
	return hash.ByteSlice()
}

// DeserializeHash a slice of bytes to a hash
func DeserializeHash(hashBytes []byte) (*externalapi.DomainHash, error) {
	return externalapi.NewDomainHashFromByteSlice(hashBytes)
}

// SerializeHashes concatenates hashes
func SerializeHashes(hashes []*externalapi.DomainHash) []byte {
	serialized := make([]byte, 0, len(hashes)*externalapi.DomainHashSize)
	for _, hash := range hashes {
		serialized = append(serialized, hash.ByteSlice()...)
	}
	return serialized
}

// DeserializeHashes splits a concatenation of hashes
func DeserializeHashes(serialized []byte) ([]*externalapi.DomainHash, error) {
	count := len(serialized) / externalapi.DomainHashSize
	hashes := make([]*externalapi.DomainHash, count)
	for i := 0; i < count; i++ {
		hash, err := DeserializeHash(serialized[i*externalapi.DomainHashSize : (i+1)*externalapi.DomainHashSize])
		if err != nil {
			return nil, err
		}
		hashes[i] = hash
	}
	return hashes, nil
}
