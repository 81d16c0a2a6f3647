package unitprocessor

import (
	"context"
	"fmt"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/ruleerrors"
	"github.com/unitdag/unitd/infrastructure/logger"
	"github.com/unitdag/unitd/util/locks"
)

// ValidateAndInsertJoint validates joint and, unless it is unsigned,
// commits it
func (up *unitProcessor) ValidateAndInsertJoint(ctx context.Context, joint *externalapi.DomainJoint) (
	*externalapi.ValidationResult, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "ValidateAndInsertJoint")
	defer onEnd()

	start := time.Now()
	result, err := up.validateAndInsertJoint(ctx, joint)
	if err != nil {
		return nil, err
	}
	up.observer.ObserveResult(result.Kind, time.Since(start))
	log.Debugf("Joint %s: %s", joint.Unit.Hash, result)
	if result.Kind == externalapi.ResultOK {
		up.notifier.NotifyUnitAccepted(joint)
	}
	return result, nil
}

func (up *unitProcessor) validateAndInsertJoint(ctx context.Context, joint *externalapi.DomainJoint) (
	*externalapi.ValidationResult, error) {

	if up.IsHalted() {
		return nil, errors.WithStack(ruleerrors.ErrConsensusHalted)
	}
	unit := joint.Unit

	err := up.jointValidator.ValidateJointInIsolation(joint)
	if err != nil {
		return up.reject(joint, err), nil
	}

	reason, isKnownBad, err := up.knownBadStore.Reason(up.databaseContext, unit.Hash)
	if err != nil {
		return classify(err), nil
	}
	if isKnownBad {
		return classify(errors.Wrapf(ruleerrors.ErrKnownBadUnit, "%s", reason)), nil
	}

	unlock, err := up.lockRegistry.Lock(ctx, locks.AddressSetKeys(unit.AuthorAddresses())...)
	if err != nil {
		return classify(ruleerrors.NewTransientError(err)), nil
	}
	defer unlock()

	state, err := up.validate(joint)
	if err != nil {
		return up.reject(joint, err), nil
	}
	if joint.Unsigned {
		return &externalapi.ValidationResult{Kind: externalapi.ResultOKUnsigned, Sequence: state.Sequence}, nil
	}

	unlockWrite, err := up.lockRegistry.Lock(ctx, locks.Write)
	if err != nil {
		return classify(ruleerrors.NewTransientError(err)), nil
	}
	defer unlockWrite()

	err = up.commit(joint, state)
	if err != nil {
		up.halt(err)
		return nil, err
	}
	return &externalapi.ValidationResult{Kind: externalapi.ResultOK, Sequence: state.Sequence}, nil
}

// validate runs every contextual check in a transaction that is always
// rolled back. Nothing is written during validation.
func (up *unitProcessor) validate(joint *externalapi.DomainJoint) (*model.ValidationState, error) {
	dbTx, err := up.databaseContext.Begin()
	if err != nil {
		return nil, err
	}
	defer dbTx.RollbackUnlessClosed()

	unit := joint.Unit
	state := model.NewValidationState(joint.Unsigned)
	err = up.jointValidator.ValidateJointInContext(dbTx, joint, state)
	if err != nil {
		return nil, err
	}
	err = up.roundValidator.ValidateWitnessedLevel(dbTx, unit, state)
	if err != nil {
		return nil, err
	}
	err = up.authorValidator.ValidateAuthors(dbTx, unit, state)
	if err != nil {
		return nil, err
	}
	err = up.roundValidator.ValidateCoordinators(dbTx, unit, state)
	if err != nil {
		return nil, err
	}
	err = up.messageValidator.ValidateMessages(dbTx, unit, state)
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (up *unitProcessor) commit(joint *externalapi.DomainJoint, state *model.ValidationState) error {
	dbTx, err := up.databaseContext.Begin()
	if err != nil {
		return err
	}
	defer dbTx.RollbackUnlessClosed()

	err = up.unitWriter.WriteJoint(dbTx, joint, state)
	if err != nil {
		return errors.Wrapf(err, "failed to write unit %s", joint.Unit.Hash)
	}
	if joint.Ball != nil {
		err = up.hashTreeStore.Delete(dbTx, joint.Ball)
		if err != nil {
			return err
		}
	}
	err = dbTx.Commit()
	if err != nil {
		return err
	}

	if joint.Unit.PowType == externalapi.PowTypeTrustme {
		lastStableMCI, err := up.mainChainManager.LastStableMCI(up.databaseContext)
		if err != nil {
			return err
		}
		up.observer.ObserveLastStableMCI(lastStableMCI)
	}
	return nil
}

// reject classifies a validation failure. Units failing with a unit error
// are remembered as known bad.
func (up *unitProcessor) reject(joint *externalapi.DomainJoint, validationErr error) *externalapi.ValidationResult {
	result := classify(validationErr)
	log.Debug(logger.NewLogClosure(func() string {
		return fmt.Sprintf("Rejected joint %s: %s", spew.Sdump(joint), result)
	}))
	if result.Kind != externalapi.ResultUnitError {
		return result
	}

	unit := joint.Unit
	err := up.knownBadStore.Insert(up.databaseContext, unit.Hash, unit.AuthorAddresses(), validationErr.Error())
	if err != nil {
		log.Warnf("Failed to remember unit %s as known bad: %s", unit.Hash, err)
	}
	return result
}
