package hashes

import (
	"hash"

	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/utils/serialization"
)

// HashWriter incrementally hashes data under one of the hash domains.
// It can only be created through the domain constructors.
type HashWriter struct {
	hash.Hash
}

// InfallibleWrite writes p. hash.Hash never returns write errors.
func (h HashWriter) InfallibleWrite(p []byte) {
	_, err := h.Write(p)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. hash.Hash interface promises to not return errors."))
	}
}

// InfallibleWriteString writes s
func (h HashWriter) InfallibleWriteString(s string) {
	h.InfallibleWrite([]byte(s))
}

// WriteCanonical writes the canonical JSON encoding of v
func (h HashWriter) WriteCanonical(v interface{}) error {
	canonical, err := serialization.Canonicalize(v)
	if err != nil {
		return err
	}
	h.InfallibleWrite(canonical)
	return nil
}

// Finalize returns the resulting hash
func (h HashWriter) Finalize() *externalapi.DomainHash {
	var sum [externalapi.DomainHashSize]byte
	copy(sum[:], h.Sum(nil))
	return externalapi.NewDomainHashFromByteArray(&sum)
}
