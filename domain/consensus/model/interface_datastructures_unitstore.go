package model

import "github.com/unitdag/unitd/domain/consensus/model/externalapi"

// UnitStore represents a store of joints
type UnitStore interface {
	Insert(dbContext DBWriter, joint *externalapi.DomainJoint) error
	Joint(dbContext DBReader, unitHash *externalapi.DomainHash) (*externalapi.DomainJoint, error)
	Unit(dbContext DBReader, unitHash *externalapi.DomainHash) (*externalapi.DomainUnit, error)
	Has(dbContext DBReader, unitHash *externalapi.DomainHash) (bool, error)
	Count(dbContext DBReader) (uint64, error)
}
