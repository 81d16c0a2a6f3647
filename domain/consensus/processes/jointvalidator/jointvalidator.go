package jointvalidator

import (
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/dagconfig"
)

// jointValidator checks that a joint is well formed and fits the DAG: its
// hash, ball, parents, last ball and skiplist
type jointValidator struct {
	params *dagconfig.Params

	dagTraversalManager model.DAGTraversalManager

	unitStore      model.UnitStore
	unitPropsStore model.UnitPropsStore
	ballStore      model.BallStore
	hashTreeStore  model.HashTreeStore
	knownBadStore  model.KnownBadStore
	mainChainStore model.MainChainStore
}

// New instantiates a new JointValidator
func New(params *dagconfig.Params,
	dagTraversalManager model.DAGTraversalManager,
	unitStore model.UnitStore,
	unitPropsStore model.UnitPropsStore,
	ballStore model.BallStore,
	hashTreeStore model.HashTreeStore,
	knownBadStore model.KnownBadStore,
	mainChainStore model.MainChainStore) model.JointValidator {

	return &jointValidator{
		params:              params,
		dagTraversalManager: dagTraversalManager,
		unitStore:           unitStore,
		unitPropsStore:      unitPropsStore,
		ballStore:           ballStore,
		hashTreeStore:       hashTreeStore,
		knownBadStore:       knownBadStore,
		mainChainStore:      mainChainStore,
	}
}
