package dagtraversalmanager

import (
	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
)

// dagTraversalManager exposes methods for traversing units
// in the DAG
type dagTraversalManager struct {
	majorityOfWitnesses int

	unitStore      model.UnitStore
	unitPropsStore model.UnitPropsStore
	roundService   model.RoundService
}

// New instantiates a new DAGTraversalManager
func New(
	majorityOfWitnesses int,
	unitStore model.UnitStore,
	unitPropsStore model.UnitPropsStore,
	roundService model.RoundService) model.DAGTraversalManager {

	return &dagTraversalManager{
		majorityOfWitnesses: majorityOfWitnesses,
		unitStore:           unitStore,
		unitPropsStore:      unitPropsStore,
		roundService:        roundService,
	}
}

// Level returns the level of a unit with the given parents: one above its
// highest parent
func (dtm *dagTraversalManager) Level(dbContext model.DBReader, parents []*externalapi.DomainHash) (uint64, error) {
	if len(parents) == 0 {
		return 0, nil
	}
	maxLevel := uint64(0)
	for _, parent := range parents {
		props, err := dtm.unitPropsStore.Get(dbContext, parent)
		if err != nil {
			return 0, errors.Wrapf(err, "failed reading the props of parent %s", parent)
		}
		if props.Level > maxLevel {
			maxLevel = props.Level
		}
	}
	return maxLevel + 1, nil
}

// BestParent picks the parent with the highest witnessed level. Ties are
// broken by the lowest distance between level and witnessed level, then by
// the lowest hash.
func (dtm *dagTraversalManager) BestParent(dbContext model.DBReader, parents []*externalapi.DomainHash) (*externalapi.DomainHash, error) {
	var best *externalapi.UnitProps
	for _, parent := range parents {
		props, err := dtm.unitPropsStore.Get(dbContext, parent)
		if err != nil {
			return nil, errors.Wrapf(err, "failed reading the props of parent %s", parent)
		}
		if best == nil || isBetterParent(props, best) {
			best = props
		}
	}
	if best == nil {
		return nil, nil
	}
	return best.Unit, nil
}

func isBetterParent(candidate, best *externalapi.UnitProps) bool {
	if candidate.WitnessedLevel != best.WitnessedLevel {
		return candidate.WitnessedLevel > best.WitnessedLevel
	}
	candidateDistance := candidate.Level - candidate.WitnessedLevel
	bestDistance := best.Level - best.WitnessedLevel
	if candidateDistance != bestDistance {
		return candidateDistance < bestDistance
	}
	return candidate.Unit.Less(best.Unit)
}

// LatestIncludedMCI returns the highest main chain index included by the
// given parents. A parent on the main chain contributes its own index, any
// other parent its latest included index. ok is false when no parent
// includes any main chain index yet.
func (dtm *dagTraversalManager) LatestIncludedMCI(dbContext model.DBReader, parents []*externalapi.DomainHash) (
	limci uint64, ok bool, err error) {

	for _, parent := range parents {
		props, err := dtm.unitPropsStore.Get(dbContext, parent)
		if err != nil {
			return 0, false, errors.Wrapf(err, "failed reading the props of parent %s", parent)
		}
		var parentMCI uint64
		switch {
		case props.IsOnMainChain && props.HasMainChainIndex:
			parentMCI = props.MainChainIndex
		case props.HasLatestIncludedMCI:
			parentMCI = props.LatestIncludedMCI
		default:
			continue
		}
		if !ok || parentMCI > limci {
			limci = parentMCI
			ok = true
		}
	}
	return limci, ok, nil
}
