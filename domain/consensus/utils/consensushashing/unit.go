package consensushashing

import (
	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/utils/hashes"
)

// unitHeader holds the fields the unit hash commits to directly. Everything
// else is committed to through content_hash.
type unitHeader struct {
	Version      string                    `json:"version"`
	Alt          string                    `json:"alt"`
	Authors      []string                  `json:"authors"`
	ParentUnits  []*externalapi.DomainHash `json:"parent_units,omitempty"`
	LastBall     *externalapi.DomainHash   `json:"last_ball,omitempty"`
	LastBallUnit *externalapi.DomainHash   `json:"last_ball_unit,omitempty"`
	RoundIndex   uint64                    `json:"round_index,omitempty"`
	PowType      externalapi.PowType       `json:"pow_type,omitempty"`
	Timestamp    int64                     `json:"timestamp,omitempty"`
	ContentHash  *externalapi.DomainHash   `json:"content_hash"`
}

// UnitHash returns the identifier of the given unit. A stripped unit keeps
// the identifier it had before its content was removed.
func UnitHash(unit *externalapi.DomainUnit) (*externalapi.DomainHash, error) {
	contentHash := unit.ContentHash
	if contentHash == nil {
		var err error
		contentHash, err = ContentHash(unit)
		if err != nil {
			return nil, err
		}
	}

	header := &unitHeader{
		Version:      unit.Version,
		Alt:          unit.Alt,
		Authors:      unit.AuthorAddresses(),
		ParentUnits:  unit.ParentUnits,
		LastBall:     unit.LastBall,
		LastBallUnit: unit.LastBallUnit,
		RoundIndex:   unit.RoundIndex,
		PowType:      unit.PowType,
		Timestamp:    unit.Timestamp,
		ContentHash:  contentHash,
	}
	return hashCanonical(hashes.NewUnitHashWriter(), header)
}

// ContentHash returns the hash of the unit without its identifier and
// without the authors' authentifiers. Payloads are committed to through
// their payload hashes. Authors sign this hash.
func ContentHash(unit *externalapi.DomainUnit) (*externalapi.DomainHash, error) {
	if unit.ContentHash != nil {
		return nil, errors.Errorf("unit %s is stripped, its content is gone", unit.Hash)
	}
	return hashCanonical(hashes.NewContentHashWriter(), nakedUnit(unit, true))
}

// UnitHashToSign returns the hash the authors of unit sign
func UnitHashToSign(unit *externalapi.DomainUnit) (*externalapi.DomainHash, error) {
	return ContentHash(unit)
}

// ProposalHashToSign returns the hash the coordinators of a committee unit
// sign: the naked unit without the coordinators themselves
func ProposalHashToSign(unit *externalapi.DomainUnit) (*externalapi.DomainHash, error) {
	if unit.ContentHash != nil {
		return nil, errors.Errorf("unit %s is stripped, its content is gone", unit.Hash)
	}
	return hashCanonical(hashes.NewProposalHashWriter(), nakedUnit(unit, false))
}

// StrippedUnit returns a copy of unit with its content replaced by its content hash
func StrippedUnit(unit *externalapi.DomainUnit) (*externalapi.DomainUnit, error) {
	if unit.ContentHash != nil {
		return unit.Clone(), nil
	}
	contentHash, err := ContentHash(unit)
	if err != nil {
		return nil, err
	}
	authors := make([]*externalapi.Author, len(unit.Authors))
	for i, author := range unit.Authors {
		authors[i] = &externalapi.Author{Address: author.Address}
	}
	return &externalapi.DomainUnit{
		Hash:         unit.Hash,
		Version:      unit.Version,
		Alt:          unit.Alt,
		ParentUnits:  externalapi.CloneHashes(unit.ParentUnits),
		LastBall:     unit.LastBall,
		LastBallUnit: unit.LastBallUnit,
		Authors:      authors,
		RoundIndex:   unit.RoundIndex,
		PowType:      unit.PowType,
		Timestamp:    unit.Timestamp,
		ContentHash:  contentHash,
	}, nil
}

func nakedUnit(unit *externalapi.DomainUnit, withCoordinators bool) *externalapi.DomainUnit {
	naked := unit.Clone()
	naked.Hash = nil
	naked.ContentHash = nil
	for _, author := range naked.Authors {
		author.Authentifiers = nil
	}
	for _, message := range naked.Messages {
		message.Payload = nil
		message.PayloadURI = ""
	}
	if !withCoordinators {
		naked.Coordinators = nil
	}
	return naked
}

func hashCanonical(writer hashes.HashWriter, v interface{}) (*externalapi.DomainHash, error) {
	err := writer.WriteCanonical(v)
	if err != nil {
		return nil, err
	}
	return writer.Finalize(), nil
}
