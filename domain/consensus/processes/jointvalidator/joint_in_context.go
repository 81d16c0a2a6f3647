package jointvalidator

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/ruleerrors"
	"github.com/unitdag/unitd/domain/consensus/utils/consensushashing"
	"github.com/unitdag/unitd/infrastructure/logger"
)

// ValidateJointInContext validates a joint against the DAG: the unit must
// be new, its ball must agree with the hash tree, and its parents, last
// ball and skiplist must be consistent with the stored units. It fills the
// last ball fields of state.
func (v *jointValidator) ValidateJointInContext(dbContext model.DBReader, joint *externalapi.DomainJoint,
	state *model.ValidationState) error {

	onEnd := logger.LogAndMeasureExecutionTime(log, "ValidateJointInContext")
	defer onEnd()

	unit := joint.Unit
	exists, err := v.unitStore.Has(dbContext, unit.Hash)
	if err != nil {
		return err
	}
	if exists {
		return errors.Wrapf(ruleerrors.ErrDuplicateUnit, "unit %s already exists", unit.Hash)
	}

	if unit.IsGenesis() {
		return nil
	}

	if joint.IsStable() {
		err = v.validateHashTree(dbContext, joint, state)
		if err != nil {
			return err
		}
	}

	err = v.validateParents(dbContext, joint, state)
	if err != nil {
		return err
	}

	if joint.SkiplistUnits != nil {
		err = v.validateSkiplist(dbContext, joint.SkiplistUnits)
		if err != nil {
			return err
		}
	}

	log.Debug(logger.NewLogClosure(func() string {
		return fmt.Sprintf("unit %s: last ball mci %d, max parent limci %d",
			unit.Hash, state.LastBallMCI, state.MaxParentLIMCI)
	}))
	return nil
}

// validateHashTree checks the ball of a stable joint against the hash tree
// received during catch-up
func (v *jointValidator) validateHashTree(dbContext model.DBReader, joint *externalapi.DomainJoint,
	state *model.ValidationState) error {

	unit := joint.Unit
	unitOfBall, err := v.hashTreeStore.UnitByBall(dbContext, joint.Ball)
	if database.IsNotFoundError(err) {
		return errors.Wrapf(ruleerrors.ErrNeedHashTree, "ball %s is not known in the hash tree", joint.Ball)
	}
	if err != nil {
		return err
	}
	if !unitOfBall.Equal(unit.Hash) {
		return errors.Wrapf(ruleerrors.ErrBallContradictsHashTree, "ball %s of unit %s belongs to unit %s in the hash tree",
			joint.Ball, unit.Hash, unitOfBall)
	}

	parentBalls, found, err := v.ballsOf(dbContext, unit.ParentUnits)
	if err != nil {
		return err
	}
	if !found {
		return errors.Wrapf(ruleerrors.ErrParentBallsNotFound, "some parents of %s are in neither the balls nor the hash tree",
			unit.Hash)
	}

	if joint.SkiplistUnits != nil {
		skiplistBalls, found, err := v.ballsOf(dbContext, joint.SkiplistUnits)
		if err != nil {
			return err
		}
		if !found {
			return errors.Wrapf(ruleerrors.ErrSkiplistBallsNotFound, "some skiplist balls of %s are not found", unit.Hash)
		}
		state.SkiplistBalls = skiplistBalls
	}

	expectedBall, err := consensushashing.BallHash(unit.Hash, parentBalls, state.SkiplistBalls, unit.IsStripped())
	if err != nil {
		return err
	}
	if !expectedBall.Equal(joint.Ball) {
		return errors.Wrapf(ruleerrors.ErrWrongBallHash, "ball %s, expected %s", joint.Ball, expectedBall)
	}
	return nil
}

// ballsOf returns the balls of units, looking first in the hash tree and
// then among the stored balls. found is false if any of them is missing.
func (v *jointValidator) ballsOf(dbContext model.DBReader, units []*externalapi.DomainHash) (
	balls []*externalapi.DomainHash, found bool, err error) {

	balls = make([]*externalapi.DomainHash, 0, len(units))
	for _, unitHash := range units {
		ball, err := v.hashTreeStore.BallByUnit(dbContext, unitHash)
		if database.IsNotFoundError(err) {
			ball, err = v.ballStore.Ball(dbContext, unitHash)
		}
		if database.IsNotFoundError(err) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		balls = append(balls, ball)
	}
	return balls, true, nil
}

// validateSkiplist checks that skiplist units are known. A skiplist unit
// that is already stable must sit on the main chain at a skiplist index.
// An unstable one can't be checked yet: a wrong choice shows up as a ball
// mismatch once the unit stabilizes.
func (v *jointValidator) validateSkiplist(dbContext model.DBReader, skiplistUnits []*externalapi.DomainHash) error {
	if !externalapi.HashesAreStrictlyAscending(skiplistUnits) {
		return errors.WithStack(ruleerrors.ErrSkiplistNotOrdered)
	}
	for _, skiplistUnit := range skiplistUnits {
		props, err := v.unitPropsStore.Get(dbContext, skiplistUnit)
		if database.IsNotFoundError(err) {
			return errors.Wrapf(ruleerrors.ErrSkiplistUnitNotFound, "skiplist unit %s", skiplistUnit)
		}
		if err != nil {
			return err
		}
		if !props.IsStable {
			continue
		}
		if !props.IsOnMainChain {
			return errors.Wrapf(ruleerrors.ErrSkiplistUnitNotOnMainChain, "skiplist unit %s", skiplistUnit)
		}
		if props.MainChainIndex%v.params.SkiplistMCIStep != 0 {
			return errors.Wrapf(ruleerrors.ErrSkiplistUnitBadMCI, "skiplist unit %s has mci %d",
				skiplistUnit, props.MainChainIndex)
		}
	}
	return nil
}
