package model

import "github.com/unitdag/unitd/domain/consensus/model/externalapi"

// FreeUnitStore represents the set of units no other unit references as a parent
type FreeUnitStore interface {
	Add(dbContext DBWriter, unitHash *externalapi.DomainHash) error
	Remove(dbContext DBWriter, unitHash *externalapi.DomainHash) error
	Has(dbContext DBReader, unitHash *externalapi.DomainHash) (bool, error)
	All(dbContext DBReader) ([]*externalapi.DomainHash, error)
}
