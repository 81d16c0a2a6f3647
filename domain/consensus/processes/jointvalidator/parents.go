package jointvalidator

import (
	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/ruleerrors"
)

func (v *jointValidator) validateParents(dbContext model.DBReader, joint *externalapi.DomainJoint,
	state *model.ValidationState) error {

	unit := joint.Unit
	if len(unit.ParentUnits) > v.params.MaxParentsPerUnit {
		return errors.Wrapf(ruleerrors.ErrTooManyParents, "unit has %d parents, the maximum is %d",
			len(unit.ParentUnits), v.params.MaxParentsPerUnit)
	}
	if !externalapi.HashesAreStrictlyAscending(unit.ParentUnits) {
		if joint.IsStable() {
			return errors.WithStack(ruleerrors.ErrBallParentsNotOrdered)
		}
		return errors.WithStack(ruleerrors.ErrParentsNotOrdered)
	}

	parentProps, err := v.parentProps(dbContext, unit.ParentUnits)
	if err != nil {
		return err
	}

	for i := range parentProps {
		for j := i + 1; j < len(parentProps); j++ {
			related, err := v.dagTraversalManager.AreRelated(dbContext, parentProps[i], parentProps[j])
			if err != nil {
				return err
			}
			if related {
				return errors.Wrapf(ruleerrors.ErrParentsRelated, "parents %s and %s are related",
					parentProps[i].Unit, parentProps[j].Unit)
			}
		}
	}

	state.MaxParentLIMCI, state.HasParentLIMCI, err = v.dagTraversalManager.LatestIncludedMCI(dbContext, unit.ParentUnits)
	if err != nil {
		return err
	}

	err = v.validateLastBall(dbContext, unit, state)
	if err != nil {
		return err
	}

	return v.checkLastBallDidNotRetreat(dbContext, parentProps, state)
}

// parentProps returns the props of every parent, or the missing parents as
// an ErrMissingParents. A parent that is known to be bad makes the unit bad.
func (v *jointValidator) parentProps(dbContext model.DBReader, parents []*externalapi.DomainHash) (
	[]*externalapi.UnitProps, error) {

	props := make([]*externalapi.UnitProps, 0, len(parents))
	var missingParents []*externalapi.DomainHash
	for _, parent := range parents {
		parentProps, err := v.unitPropsStore.Get(dbContext, parent)
		if database.IsNotFoundError(err) {
			missingParents = append(missingParents, parent)
			continue
		}
		if err != nil {
			return nil, err
		}
		props = append(props, parentProps)
	}
	if len(missingParents) == 0 {
		return props, nil
	}

	for _, missingParent := range missingParents {
		reason, isKnownBad, err := v.knownBadStore.Reason(dbContext, missingParent)
		if err != nil {
			return nil, err
		}
		if isKnownBad {
			return nil, errors.Wrapf(ruleerrors.ErrKnownBadParent, "parent %s is known to be bad: %s",
				missingParent, reason)
		}
	}
	return nil, ruleerrors.NewErrMissingParents(missingParents)
}

// validateLastBall checks that the last ball unit is a stable main chain
// unit whose ball matches, and that the parents include it
func (v *jointValidator) validateLastBall(dbContext model.DBReader, unit *externalapi.DomainUnit,
	state *model.ValidationState) error {

	lastBallProps, err := v.unitPropsStore.Get(dbContext, unit.LastBallUnit)
	if database.IsNotFoundError(err) {
		return errors.Wrapf(ruleerrors.ErrLastBallUnitNotFound, "last ball unit %s", unit.LastBallUnit)
	}
	if err != nil {
		return err
	}
	if !lastBallProps.IsStable {
		return ruleerrors.NewTransientError(errors.Wrapf(ruleerrors.ErrLastBallNotStable,
			"last ball unit %s", unit.LastBallUnit))
	}
	if !lastBallProps.IsOnMainChain {
		return errors.Wrapf(ruleerrors.ErrLastBallNotOnMainChain, "last ball unit %s", unit.LastBallUnit)
	}
	lastBall, err := v.ballStore.Ball(dbContext, unit.LastBallUnit)
	if err != nil {
		return err
	}
	if !lastBall.Equal(unit.LastBall) {
		return errors.Wrapf(ruleerrors.ErrLastBallMismatch, "last ball %s, the ball of %s is %s",
			unit.LastBall, unit.LastBallUnit, lastBall)
	}

	state.LastBallMCI = lastBallProps.MainChainIndex
	if !state.HasParentLIMCI || state.MaxParentLIMCI < state.LastBallMCI {
		return errors.Wrapf(ruleerrors.ErrLastBallNotIncluded, "last ball mci %d is above the parents' limci %d",
			state.LastBallMCI, state.MaxParentLIMCI)
	}

	state.MaxKnownMCI, err = v.mainChainStore.LastStableMCI(dbContext)
	return err
}

func (v *jointValidator) checkLastBallDidNotRetreat(dbContext model.DBReader, parentProps []*externalapi.UnitProps,
	state *model.ValidationState) error {

	for _, props := range parentProps {
		if props.LastBallUnit == nil {
			continue
		}
		parentLastBallProps, err := v.unitPropsStore.Get(dbContext, props.LastBallUnit)
		if err != nil {
			return err
		}
		if parentLastBallProps.MainChainIndex > state.LastBallMCI {
			return errors.Wrapf(ruleerrors.ErrLastBallRetreated, "parent %s has last ball mci %d, the unit has %d",
				props.Unit, parentLastBallProps.MainChainIndex, state.LastBallMCI)
		}
	}
	return nil
}
