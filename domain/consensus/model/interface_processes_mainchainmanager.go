package model

import "github.com/unitdag/unitd/domain/consensus/model/externalapi"

// MainChainManager advances the main chain and the stability point when
// trustme units commit
type MainChainManager interface {
	UpdateMainChain(dbContext DBWriter, trustme *externalapi.DomainUnit) error
	LastStableMCI(dbContext DBReader) (uint64, error)
	MaxKnownMCI(dbContext DBReader) (uint64, error)
}
