package model

import "github.com/unitdag/unitd/domain/consensus/model/externalapi"

// UnitPropsStore represents a store of UnitProps
type UnitPropsStore interface {
	Update(dbContext DBWriter, props *externalapi.UnitProps) error
	Get(dbContext DBReader, unitHash *externalapi.DomainHash) (*externalapi.UnitProps, error)
	Has(dbContext DBReader, unitHash *externalapi.DomainHash) (bool, error)
}
