package roundvalidator

import (
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/dagconfig"
)

// roundValidator checks the round bookkeeping of units: the witnessed level
// of proof-of-work and trustme units and the coordinators of trustme units
type roundValidator struct {
	params *dagconfig.Params

	roundService        model.RoundService
	dagTraversalManager model.DAGTraversalManager
	authorValidator     model.AuthorValidator

	roundStore     model.RoundStore
	mainChainStore model.MainChainStore
}

// New instantiates a new RoundValidator
func New(params *dagconfig.Params,
	roundService model.RoundService,
	dagTraversalManager model.DAGTraversalManager,
	authorValidator model.AuthorValidator,
	roundStore model.RoundStore,
	mainChainStore model.MainChainStore) model.RoundValidator {

	return &roundValidator{
		params:              params,
		roundService:        roundService,
		dagTraversalManager: dagTraversalManager,
		authorValidator:     authorValidator,
		roundStore:          roundStore,
		mainChainStore:      mainChainStore,
	}
}
