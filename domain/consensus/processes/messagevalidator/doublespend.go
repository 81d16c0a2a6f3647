package messagevalidator

import (
	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/ruleerrors"
)

// checkDoubleSpend resolves conflicts between the input at position and
// the stored inputs with the same spend key.
//
// A conflict the unit includes through its parents must be final-bad and
// before the last ball: spending it again reuses a voided output. Any
// other conflict is accepted and the unit is downgraded, to final-bad if
// a conflicting unit is already stable and to temp-bad otherwise. In the
// temp-bad case the unstable good conflicts are downgraded along with it.
func (v *messageValidator) checkDoubleSpend(dbContext model.DBReader, unit *externalapi.DomainUnit,
	key model.SpendKey, position model.InputPosition, state *model.ValidationState) error {

	spenders, err := v.outputStore.Spenders(dbContext, key)
	if err != nil {
		return err
	}

	var conflicts []*externalapi.UnitProps
	for _, spender := range spenders {
		if spender.Unit.Equal(unit.Hash) {
			continue
		}
		if !unit.HasAuthor(spender.Address) {
			return errors.Errorf("conflicting spend of %s by %s from %s, which is not an author of %s",
				key, spender.Unit, spender.Address, unit.Hash)
		}
		props, err := v.unitPropsStore.Get(dbContext, spender.Unit)
		if err != nil {
			return err
		}
		if props.IsStable && props.Sequence == externalapi.SequenceGood && props.MCIAtMost(state.LastBallMCI) {
			return errors.Wrapf(ruleerrors.ErrDoubleSpend, "%s is already spent by stable unit %s", key, spender.Unit)
		}

		included, err := v.dagTraversalManager.IsIncludedOrEqual(dbContext, spender.Unit, unit.ParentUnits)
		if err != nil {
			return err
		}
		if included {
			if !props.MCIAtMost(state.LastBallMCI) {
				return errors.Wrapf(ruleerrors.ErrDoubleSpend, "%s is spent by included unit %s above the last ball",
					key, spender.Unit)
			}
			switch props.Sequence {
			case externalapi.SequenceGood:
				return errors.Wrapf(ruleerrors.ErrDoubleSpend, "%s is spent by included unit %s", key, spender.Unit)
			case externalapi.SequenceFinalBad:
				continue
			}
			return errors.Errorf("included conflicting unit %s before the last ball is %s",
				spender.Unit, props.Sequence)
		}
		conflicts = append(conflicts, props)
	}
	if len(conflicts) == 0 {
		return nil
	}

	conflictsWithStable := false
	var unstableGoodConflicts []*externalapi.DomainHash
	for _, conflict := range conflicts {
		if conflict.IsStable {
			conflictsWithStable = true
			continue
		}
		if conflict.Sequence == externalapi.SequenceGood {
			unstableGoodConflicts = append(unstableGoodConflicts, conflict.Unit)
		}
	}
	if conflictsWithStable {
		state.Downgrade(externalapi.SequenceFinalBad)
	} else {
		state.Downgrade(externalapi.SequenceTempBad)
		state.DowngradeToTempBad = append(state.DowngradeToTempBad, unstableGoodConflicts...)
	}
	state.ClearUniqueness = append(state.ClearUniqueness, key)
	state.DoubleSpendInputs = append(state.DoubleSpendInputs, position)

	log.Debugf("Unit %s double spends %s against %d units, sequence %s",
		unit.Hash, key, len(conflicts), state.Sequence)
	return nil
}
