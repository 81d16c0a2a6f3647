package mainchainmanager

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/utils/consensushashing"
)

// sortByLevel orders units so that every unit comes after its parents
func sortByLevel(props []*externalapi.UnitProps) {
	sort.Slice(props, func(i, j int) bool {
		if props[i].Level != props[j].Level {
			return props[i].Level < props[j].Level
		}
		return props[i].Unit.Less(props[j].Unit)
	})
}

// addBall computes the ball of a newly stable unit. Units that arrived by
// catch-up already carry a checked ball.
func (mcm *mainChainManager) addBall(dbContext model.DBWriter, props *externalapi.UnitProps) error {
	hasBall, err := mcm.ballStore.HasBall(dbContext, props.Unit)
	if err != nil {
		return err
	}
	if hasBall {
		return nil
	}

	unit, err := mcm.unitStore.Unit(dbContext, props.Unit)
	if err != nil {
		return err
	}
	parentBalls := make([]*externalapi.DomainHash, len(unit.ParentUnits))
	for i, parent := range unit.ParentUnits {
		parentBalls[i], err = mcm.ballStore.Ball(dbContext, parent)
		if database.IsNotFoundError(err) {
			return errors.Errorf("parent %s of stable unit %s has no ball", parent, props.Unit)
		}
		if err != nil {
			return err
		}
	}

	var skiplistBalls []*externalapi.DomainHash
	if props.IsOnMainChain {
		skiplistUnits, err := mcm.skiplistUnits(dbContext, props.MainChainIndex)
		if err != nil {
			return err
		}
		if len(skiplistUnits) > 0 {
			err = mcm.ballStore.InsertSkiplist(dbContext, props.Unit, skiplistUnits)
			if err != nil {
				return err
			}
		}
		skiplistBalls = make([]*externalapi.DomainHash, len(skiplistUnits))
		for i, skiplistUnit := range skiplistUnits {
			skiplistBalls[i], err = mcm.ballStore.Ball(dbContext, skiplistUnit)
			if err != nil {
				return err
			}
		}
	}

	isNonserial := props.Sequence != externalapi.SequenceGood
	ball, err := consensushashing.BallHash(props.Unit, parentBalls, skiplistBalls, isNonserial)
	if err != nil {
		return err
	}
	log.Tracef("Ball of unit %s is %s", props.Unit, ball)
	return mcm.ballStore.Insert(dbContext, props.Unit, ball)
}

// skiplistUnits returns the main chain units a main chain unit at mci links
// back to: one for every power of the skiplist step that divides mci
func (mcm *mainChainManager) skiplistUnits(dbContext model.DBReader, mci uint64) ([]*externalapi.DomainHash, error) {
	step := mcm.params.SkiplistMCIStep
	if mci == 0 || step < 2 {
		return nil, nil
	}
	var units []*externalapi.DomainHash
	for divisor := step; divisor <= mci && mci%divisor == 0; divisor *= step {
		unit, err := mcm.mainChainStore.MainChainUnit(dbContext, mci-divisor)
		if err != nil {
			return nil, err
		}
		units = append(units, unit)
	}
	return units, nil
}
