package model

import "github.com/unitdag/unitd/domain/consensus/model/externalapi"

// KnownBadStore represents the units that failed validation with a unit error
// and the addresses that authored them
type KnownBadStore interface {
	Insert(dbContext DBWriter, unitHash *externalapi.DomainHash, authors []string, reason string) error
	Reason(dbContext DBReader, unitHash *externalapi.DomainHash) (string, bool, error)
	HasBadUnitsByAddress(dbContext DBReader, address string) (bool, error)
}
