package roundvalidator

import (
	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/ruleerrors"
)

// ValidateWitnessedLevel derives the level, best parent, witnessed level and
// limci of unit into state. For proof-of-work and trustme units it then
// checks the witnessed level against the bounds of the unit's round.
func (v *roundValidator) ValidateWitnessedLevel(dbContext model.DBReader, unit *externalapi.DomainUnit,
	state *model.ValidationState) error {

	if unit.IsGenesis() {
		state.Level = 0
		state.WitnessedLevel = 0
		return nil
	}

	err := v.deriveProps(dbContext, unit, state)
	if err != nil {
		return err
	}

	if unit.PowType == externalapi.PowTypeNone {
		return nil
	}

	if unit.PowType != externalapi.PowTypeTrustme {
		trustmeUnits, err := v.roundStore.TrustmeUnits(dbContext, unit.RoundIndex)
		if err != nil {
			return err
		}
		if len(trustmeUnits) == 0 {
			return errors.Wrapf(ruleerrors.ErrNoTrustmeInRound, "round %d has no trustme unit yet", unit.RoundIndex)
		}
	}

	info, err := v.roundService.MinMaxWitnessedLevel(dbContext, unit.RoundIndex)
	if err != nil {
		return err
	}

	if !info.HasMinWL {
		if unit.RoundIndex <= 1 {
			return nil
		}
		previousInfo, err := v.roundService.MinMaxWitnessedLevel(dbContext, unit.RoundIndex-1)
		if err != nil {
			return err
		}
		if !previousInfo.HasMinWL {
			return errors.Wrapf(ruleerrors.ErrPreviousRoundOpen, "round %d has no witnessed level bounds",
				unit.RoundIndex-1)
		}
		return nil
	}

	if state.WitnessedLevel < info.MinWL {
		return errors.Wrapf(ruleerrors.ErrWitnessedLevelOutOfRound, "witnessed level %d is below %d, "+
			"the minimum of round %d", state.WitnessedLevel, info.MinWL, unit.RoundIndex)
	}

	// The maximum keeps growing while the round is current
	currentRoundIndex, err := v.roundService.CurrentRoundIndex(dbContext)
	if err != nil {
		return err
	}
	if info.HasMaxWL && currentRoundIndex > unit.RoundIndex && state.WitnessedLevel > info.MaxWL {
		return errors.Wrapf(ruleerrors.ErrWitnessedLevelOutOfRound, "witnessed level %d is above %d, "+
			"the maximum of round %d", state.WitnessedLevel, info.MaxWL, unit.RoundIndex)
	}
	return nil
}

func (v *roundValidator) deriveProps(dbContext model.DBReader, unit *externalapi.DomainUnit,
	state *model.ValidationState) error {

	var err error
	state.Level, err = v.dagTraversalManager.Level(dbContext, unit.ParentUnits)
	if err != nil {
		return err
	}
	state.BestParent, err = v.dagTraversalManager.BestParent(dbContext, unit.ParentUnits)
	if err != nil {
		return err
	}
	state.WitnessedLevel, err = v.dagTraversalManager.WitnessedLevel(dbContext, unit, state.BestParent)
	if err != nil {
		return err
	}
	state.LIMCI, state.HasLIMCI, err = v.dagTraversalManager.LatestIncludedMCI(dbContext, unit.ParentUnits)
	if err != nil {
		return err
	}
	log.Tracef("Unit %s: level %d, witnessed level %d, best parent %s", unit.Hash, state.Level,
		state.WitnessedLevel, state.BestParent)
	return nil
}
