package model

import "github.com/unitdag/unitd/domain/consensus/model/externalapi"

// OutputStore represents a store of payment outputs and the inputs spending them
type OutputStore interface {
	InsertOutput(dbContext DBWriter, output *OutputRecord) error
	Output(dbContext DBReader, unitHash *externalapi.DomainHash, messageIndex, outputIndex uint32) (*OutputRecord, error)
	MarkSpent(dbContext DBWriter, unitHash *externalapi.DomainHash, messageIndex, outputIndex uint32) error
	OutputsByAddress(dbContext DBReader, address string) ([]*OutputRecord, error)

	InsertSpender(dbContext DBWriter, key SpendKey, spender *Spender) error
	Spenders(dbContext DBReader, key SpendKey) ([]*Spender, error)
	SpendKeysOfUnit(dbContext DBReader, unitHash *externalapi.DomainHash) ([]SpendKey, error)
	SetSpenderUnique(dbContext DBWriter, key SpendKey, unitHash *externalapi.DomainHash, isUnique bool) error
}
