package hashes

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

const (
	unitHashDomain       = "UnitHash"
	contentHashDomain    = "UnitContentHash"
	proposalHashDomain   = "ProposalHash"
	ballHashDomain       = "BallHash"
	payloadHashDomain    = "PayloadHash"
	definitionHashDomain = "DefinitionHash"
	dataHashDomain       = "DataHash"
)

// NewUnitHashWriter Returns a new HashWriter used for unit hashes
func NewUnitHashWriter() HashWriter {
	return newDomainHashWriter(unitHashDomain)
}

// NewContentHashWriter Returns a new HashWriter used for the hash of a unit's content,
// which is also the hash the unit's authors sign
func NewContentHashWriter() HashWriter {
	return newDomainHashWriter(contentHashDomain)
}

// NewProposalHashWriter Returns a new HashWriter used for the hash coordinators sign
func NewProposalHashWriter() HashWriter {
	return newDomainHashWriter(proposalHashDomain)
}

// NewBallHashWriter Returns a new HashWriter used for ball hashes
func NewBallHashWriter() HashWriter {
	return newDomainHashWriter(ballHashDomain)
}

// NewPayloadHashWriter Returns a new HashWriter used for message payload hashes
func NewPayloadHashWriter() HashWriter {
	return newDomainHashWriter(payloadHashDomain)
}

// NewDefinitionHashWriter Returns a new HashWriter used for address definition hashes
func NewDefinitionHashWriter() HashWriter {
	return newDomainHashWriter(definitionHashDomain)
}

// NewDataHashWriter Returns a new HashWriter used for hashes of arbitrary data,
// such as payload URIs and spend proofs
func NewDataHashWriter() HashWriter {
	return newDomainHashWriter(dataHashDomain)
}

func newDomainHashWriter(domain string) HashWriter {
	blake, err := blake2b.New256([]byte(domain))
	if err != nil {
		panic(errors.Wrapf(err, "this should never happen. %s is less than 64 bytes", domain))
	}
	return HashWriter{blake}
}
