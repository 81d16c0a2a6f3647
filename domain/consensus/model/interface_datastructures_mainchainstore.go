package model

import "github.com/unitdag/unitd/domain/consensus/model/externalapi"

// MainChainStore represents the main chain and the units of every main chain index
type MainChainStore interface {
	SetMainChainUnit(dbContext DBWriter, mci uint64, unitHash *externalapi.DomainHash) error
	MainChainUnit(dbContext DBReader, mci uint64) (*externalapi.DomainHash, error)
	AddMember(dbContext DBWriter, mci uint64, unitHash *externalapi.DomainHash) error
	Members(dbContext DBReader, mci uint64) ([]*externalapi.DomainHash, error)
	SetLastStableMCI(dbContext DBWriter, mci uint64) error
	LastStableMCI(dbContext DBReader) (uint64, error)
}
