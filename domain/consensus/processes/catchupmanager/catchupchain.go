package catchupmanager

import (
	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/ruleerrors"
	"github.com/unitdag/unitd/domain/consensus/utils/consensushashing"
	"github.com/unitdag/unitd/infrastructure/logger"
)

func currentChain() *externalapi.CatchupChain {
	return &externalapi.CatchupChain{Status: externalapi.CatchupStatusCurrent}
}

// PrepareCatchupChain answers a catch-up request with the stable main chain
// joints from the requester's last stable index up to ours, one every
// CatchupMCIInterval indexes
func (cm *catchupManager) PrepareCatchupChain(dbContext model.DBReader, request *externalapi.CatchupRequest) (
	*externalapi.CatchupChain, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "PrepareCatchupChain")
	defer onEnd()

	isCurrent, err := cm.isRequesterCurrent(dbContext, request)
	if err != nil {
		return nil, err
	}
	if isCurrent {
		return currentChain(), nil
	}

	lastStableMCI, err := cm.mainChainStore.LastStableMCI(dbContext)
	if err != nil {
		return nil, err
	}
	if request.LastStableMCI > lastStableMCI {
		return currentChain(), nil
	}
	currentRound, err := cm.roundService.CurrentRoundIndex(dbContext)
	if err != nil {
		return nil, err
	}
	chain := &externalapi.CatchupChain{
		LastRoundIndex:     currentRound,
		LastMainChainIndex: lastStableMCI,
	}

	mci := request.LastStableMCI
	for len(chain.StableLastBallJoints) < cm.params.CatchupMaxChainBalls {
		joint, err := cm.stableJointAt(dbContext, mci)
		if err != nil {
			return nil, err
		}
		chain.StableLastBallJoints = append(chain.StableLastBallJoints, joint)
		if mci == lastStableMCI {
			break
		}
		mci += cm.params.CatchupMCIInterval
		if mci > lastStableMCI {
			mci = lastStableMCI
		}
	}
	log.Debugf("Prepared a catch-up chain of %d joints from main chain index %d",
		len(chain.StableLastBallJoints), request.LastStableMCI)
	return chain, nil
}

// isRequesterCurrent returns whether the main chain unit at the requester's
// last known index is missing or unstable here, in which case we have
// nothing stable to offer
func (cm *catchupManager) isRequesterCurrent(dbContext model.DBReader, request *externalapi.CatchupRequest) (
	bool, error) {

	unitHash, err := cm.mainChainStore.MainChainUnit(dbContext, request.LastKnownMCI)
	if database.IsNotFoundError(err) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	props, err := cm.unitPropsStore.Get(dbContext, unitHash)
	if err != nil {
		return false, err
	}
	return !props.IsStable, nil
}

// stableJointAt returns the main chain joint at mci with its ball and skiplist
func (cm *catchupManager) stableJointAt(dbContext model.DBReader, mci uint64) (*externalapi.DomainJoint, error) {
	unitHash, err := cm.mainChainStore.MainChainUnit(dbContext, mci)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read the main chain unit at %d", mci)
	}
	joint, err := cm.unitStore.Joint(dbContext, unitHash)
	if err != nil {
		return nil, err
	}
	joint = joint.Clone()
	joint.Unsigned = false
	joint.Ball, err = cm.ballStore.Ball(dbContext, unitHash)
	if err != nil {
		return nil, errors.Wrapf(err, "stable unit %s has no ball", unitHash)
	}
	joint.SkiplistUnits, err = cm.ballStore.Skiplist(dbContext, unitHash)
	if err != nil {
		return nil, err
	}
	return joint, nil
}

// ProcessCatchupChain checks a catch-up chain received from a peer and
// stores its balls, from which hash trees are then requested. The first
// ball is moved up to our last stable main chain ball so that nothing we
// have is requested again.
func (cm *catchupManager) ProcessCatchupChain(dbContext model.DBWriter, chain *externalapi.CatchupChain) error {
	if chain.IsCurrent() {
		return nil
	}
	if len(chain.StableLastBallJoints) == 0 {
		return errors.Wrapf(ruleerrors.ErrInvalidCatchupChain, "no stable joints")
	}
	cm.peerState.Update(chain.LastRoundIndex, chain.LastMainChainIndex)

	balls := make([]*externalapi.DomainHash, len(chain.StableLastBallJoints))
	for i, joint := range chain.StableLastBallJoints {
		if joint == nil || joint.Unit == nil {
			return errors.Wrapf(ruleerrors.ErrInvalidCatchupChain, "joint %d is empty", i)
		}
		if joint.Ball == nil {
			return errors.Wrapf(ruleerrors.ErrInvalidCatchupChain, "stable joint %s has no ball", joint.Unit.Hash)
		}
		unitHash, err := consensushashing.UnitHash(joint.Unit)
		if err != nil {
			return errors.Wrapf(ruleerrors.ErrInvalidCatchupChain, "joint %d: %s", i, err)
		}
		if !unitHash.Equal(joint.Unit.Hash) {
			return errors.Wrapf(ruleerrors.ErrInvalidCatchupChain, "joint %d has a wrong unit hash", i)
		}
		balls[i] = joint.Ball
	}

	hasChain, err := cm.catchupChainStore.Has(dbContext)
	if err != nil {
		return err
	}
	if hasChain {
		return errors.WithStack(ruleerrors.ErrCatchupChainInProgress)
	}

	err = cm.adjustFirstBall(dbContext, balls)
	if err != nil {
		return err
	}
	log.Infof("Catching up through %d main chain balls", len(balls))
	return cm.catchupChainStore.Append(dbContext, balls)
}

func (cm *catchupManager) adjustFirstBall(dbContext model.DBReader, balls []*externalapi.DomainHash) error {
	if balls[0].Equal(cm.params.GenesisJoint.Ball) {
		return nil
	}
	firstProps, err := cm.stableMainChainProps(dbContext, balls[0], ruleerrors.ErrInvalidCatchupChain)
	if err != nil {
		return err
	}
	lastStableMCI, err := cm.mainChainStore.LastStableMCI(dbContext)
	if err != nil {
		return err
	}
	if firstProps.MainChainIndex > lastStableMCI {
		return errors.Wrapf(ruleerrors.ErrInvalidCatchupChain, "first chain ball %s is above the last stable index",
			balls[0])
	}
	if firstProps.MainChainIndex == lastStableMCI {
		return nil
	}

	lastStableUnit, err := cm.mainChainStore.MainChainUnit(dbContext, lastStableMCI)
	if err != nil {
		return err
	}
	balls[0], err = cm.ballStore.Ball(dbContext, lastStableUnit)
	if err != nil {
		return err
	}
	if len(balls) < 2 {
		return nil
	}
	// Balls are only assigned to stable units
	_, err = cm.ballStore.UnitByBall(dbContext, balls[1])
	if database.IsNotFoundError(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return errors.Wrapf(ruleerrors.ErrInvalidCatchupChain, "second chain ball %s must not be stable", balls[1])
}
