package consensushashing

import (
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/utils/hashes"
	"github.com/unitdag/unitd/domain/consensus/utils/serialization"
)

// PayloadHash returns the hash of an encoded message payload
func PayloadHash(payload []byte) (*externalapi.DomainHash, error) {
	canonical, err := serialization.CanonicalizeJSON(payload)
	if err != nil {
		return nil, err
	}
	writer := hashes.NewPayloadHashWriter()
	writer.InfallibleWrite(canonical)
	return writer.Finalize(), nil
}

// PayloadHashOf encodes payload and returns its hash
func PayloadHashOf(payload interface{}) (*externalapi.DomainHash, error) {
	return hashCanonical(hashes.NewPayloadHashWriter(), payload)
}

// DataHash returns the hash of a string, such as a payload URI
func DataHash(data string) *externalapi.DomainHash {
	writer := hashes.NewDataHashWriter()
	writer.InfallibleWriteString(data)
	return writer.Finalize()
}
