package model

// AddressDefinitionManager resolves which definition an address has as of a
// main chain index
type AddressDefinitionManager interface {
	DefinitionChashAt(dbContext DBReader, address string, mci uint64) (string, error)
	DefinitionAt(dbContext DBReader, address string, mci uint64) (definition []interface{}, definitionChash string, found bool, err error)
}
