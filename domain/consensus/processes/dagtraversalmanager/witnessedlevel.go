package dagtraversalmanager

import (
	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
)

// WitnessedLevel walks down the best parent chain starting at bestParent and
// collects the distinct witnesses of the unit's round that authored the
// visited units. The witnessed level is the level of the unit at which a
// majority of witnesses is collected, or of the first unit of the chain if
// the chain ends first.
func (dtm *dagTraversalManager) WitnessedLevel(dbContext model.DBReader, unit *externalapi.DomainUnit,
	bestParent *externalapi.DomainHash) (uint64, error) {

	if unit.IsGenesis() || bestParent == nil {
		return 0, nil
	}

	roundIndex := unit.RoundIndex
	if roundIndex == 0 {
		var err error
		roundIndex, err = dtm.roundService.CurrentRoundIndex(dbContext)
		if err != nil {
			return 0, err
		}
	}
	witnesses, err := dtm.roundService.WitnessesForRound(dbContext, roundIndex)
	if err != nil {
		return 0, err
	}
	isWitness := make(map[string]struct{}, len(witnesses))
	for _, witness := range witnesses {
		isWitness[witness] = struct{}{}
	}

	collected := make(map[string]struct{})
	current := bestParent
	for {
		props, err := dtm.unitPropsStore.Get(dbContext, current)
		if err != nil {
			return 0, errors.Wrapf(err, "failed reading the props of %s", current)
		}
		for _, author := range props.Authors {
			if _, ok := isWitness[author]; ok {
				collected[author] = struct{}{}
			}
		}
		if len(collected) >= dtm.majorityOfWitnesses || props.BestParentUnit == nil {
			return props.Level, nil
		}
		current = props.BestParentUnit
	}
}
