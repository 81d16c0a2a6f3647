package model

import "github.com/unitdag/unitd/domain/consensus/model/externalapi"

// DefinitionStore represents a store of address definitions, the units
// revealing them and the definition changes of addresses
type DefinitionStore interface {
	InsertDefinition(dbContext DBWriter, definitionChash string, definition []interface{}) error
	Definition(dbContext DBReader, definitionChash string) ([]interface{}, error)

	InsertRevealer(dbContext DBWriter, address string, definitionChash string, unitHash *externalapi.DomainHash) error
	RevealersOfDefinition(dbContext DBReader, definitionChash string) ([]*externalapi.DomainHash, error)
	RevealersOfAddress(dbContext DBReader, address string) ([]*externalapi.DomainHash, error)

	InsertChange(dbContext DBWriter, change *DefinitionChange) error
	Changes(dbContext DBReader, address string) ([]*DefinitionChange, error)
}
