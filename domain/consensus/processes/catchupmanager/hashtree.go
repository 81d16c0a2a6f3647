package catchupmanager

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/ruleerrors"
	"github.com/unitdag/unitd/domain/consensus/utils/consensushashing"
)

// ReadHashTree returns the balls of every unit stabilized after the main
// chain index of FromBall and up to that of ToBall, ordered by level. A
// tree starting at the genesis includes it.
func (cm *catchupManager) ReadHashTree(dbContext model.DBReader, request *externalapi.HashTreeRequest) (
	[]*externalapi.HashTreeBall, error) {

	if request.FromBall == nil || request.ToBall == nil {
		return nil, errors.Wrapf(ruleerrors.ErrInvalidCatchupRequest, "missing from_ball or to_ball")
	}
	fromProps, err := cm.stableMainChainProps(dbContext, request.FromBall, ruleerrors.ErrInvalidCatchupRequest)
	if err != nil {
		return nil, err
	}
	toProps, err := cm.stableMainChainProps(dbContext, request.ToBall, ruleerrors.ErrInvalidCatchupRequest)
	if err != nil {
		return nil, err
	}
	fromMCI, toMCI := fromProps.MainChainIndex, toProps.MainChainIndex
	if fromMCI >= toMCI {
		return nil, errors.Wrapf(ruleerrors.ErrInvalidCatchupRequest, "from index %d is not before to index %d",
			fromMCI, toMCI)
	}

	firstMCI := fromMCI + 1
	if fromMCI == 0 {
		firstMCI = 0
	}
	var members []*externalapi.UnitProps
	for mci := firstMCI; mci <= toMCI; mci++ {
		units, err := cm.mainChainStore.Members(dbContext, mci)
		if err != nil {
			return nil, err
		}
		for _, unitHash := range units {
			props, err := cm.unitPropsStore.Get(dbContext, unitHash)
			if err != nil {
				return nil, err
			}
			members = append(members, props)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Level != members[j].Level {
			return members[i].Level < members[j].Level
		}
		return members[i].Unit.Less(members[j].Unit)
	})

	tree := make([]*externalapi.HashTreeBall, len(members))
	for i, props := range members {
		tree[i], err = cm.hashTreeBall(dbContext, props)
		if err != nil {
			return nil, err
		}
	}
	return tree, nil
}

func (cm *catchupManager) hashTreeBall(dbContext model.DBReader, props *externalapi.UnitProps) (
	*externalapi.HashTreeBall, error) {

	ball, err := cm.ballStore.Ball(dbContext, props.Unit)
	if err != nil {
		return nil, errors.Wrapf(err, "stable unit %s has no ball", props.Unit)
	}
	unit, err := cm.unitStore.Unit(dbContext, props.Unit)
	if err != nil {
		return nil, err
	}
	parentBalls, err := cm.ballsOf(dbContext, unit.ParentUnits)
	if err != nil {
		return nil, err
	}
	skiplistUnits, err := cm.ballStore.Skiplist(dbContext, props.Unit)
	if err != nil {
		return nil, err
	}
	skiplistBalls, err := cm.ballsOf(dbContext, skiplistUnits)
	if err != nil {
		return nil, err
	}
	return &externalapi.HashTreeBall{
		Unit:          props.Unit,
		Ball:          ball,
		ParentBalls:   parentBalls,
		SkiplistBalls: skiplistBalls,
		IsNonserial:   props.Sequence != externalapi.SequenceGood,
	}, nil
}

func (cm *catchupManager) ballsOf(dbContext model.DBReader, units []*externalapi.DomainHash) (
	[]*externalapi.DomainHash, error) {

	if len(units) == 0 {
		return nil, nil
	}
	balls := make([]*externalapi.DomainHash, len(units))
	for i, unitHash := range units {
		ball, err := cm.ballStore.Ball(dbContext, unitHash)
		if err != nil {
			return nil, errors.Wrapf(err, "unit %s has no ball", unitHash)
		}
		balls[i] = ball
	}
	return consensushashing.SortedHashes(balls), nil
}

// ProcessHashTree checks a hash tree received from a peer and stages its
// balls, so that the stable joints they stand for can be validated. The
// tree must end at the second ball of the catch-up chain, which then
// becomes its first.
func (cm *catchupManager) ProcessHashTree(dbContext model.DBWriter, balls []*externalapi.HashTreeBall) error {
	if len(balls) == 0 {
		return errors.Wrapf(ruleerrors.ErrInvalidHashTree, "empty hash tree")
	}
	for _, treeBall := range balls {
		err := cm.stageHashTreeBall(dbContext, treeBall)
		if err != nil {
			return err
		}
	}

	chainBalls, err := cm.catchupChainStore.Balls(dbContext)
	if err != nil {
		return err
	}
	if len(chainBalls) < 2 {
		return errors.Wrapf(ruleerrors.ErrInvalidHashTree, "expected at least 2 balls in the catch-up chain, found %d",
			len(chainBalls))
	}
	if !chainBalls[1].Equal(balls[len(balls)-1].Ball) {
		return errors.Wrapf(ruleerrors.ErrInvalidHashTree, "tree root %s doesn't match the catch-up chain ball %s",
			balls[len(balls)-1].Ball, chainBalls[1])
	}
	err = cm.catchupChainStore.Delete(dbContext, chainBalls[0])
	if err != nil {
		return err
	}
	log.Debugf("Staged a hash tree of %d balls", len(balls))
	return cm.PurgeHandledBallsFromHashTree(dbContext)
}

func (cm *catchupManager) stageHashTreeBall(dbContext model.DBWriter, treeBall *externalapi.HashTreeBall) error {
	if treeBall == nil || treeBall.Ball == nil || treeBall.Unit == nil {
		return errors.Wrapf(ruleerrors.ErrInvalidHashTree, "ball without ball or unit hash")
	}
	if cm.params.IsGenesisUnit(treeBall.Unit) {
		if len(treeBall.ParentBalls) > 0 {
			return errors.Wrapf(ruleerrors.ErrInvalidHashTree, "genesis with parents")
		}
	} else if len(treeBall.ParentBalls) == 0 {
		return errors.Wrapf(ruleerrors.ErrInvalidHashTree, "ball %s has no parents", treeBall.Ball)
	}

	expectedBall, err := consensushashing.BallHash(treeBall.Unit, treeBall.ParentBalls, treeBall.SkiplistBalls,
		treeBall.IsNonserial)
	if err != nil {
		return err
	}
	if !expectedBall.Equal(treeBall.Ball) {
		return errors.Wrapf(ruleerrors.ErrInvalidHashTree, "wrong ball hash, ball %s, unit %s",
			treeBall.Ball, treeBall.Unit)
	}

	for _, parentBall := range treeBall.ParentBalls {
		known, err := cm.knownBall(dbContext, parentBall)
		if err != nil {
			return err
		}
		if !known {
			return errors.Wrapf(ruleerrors.ErrInvalidHashTree, "parent ball %s of unit %s not found",
				parentBall, treeBall.Unit)
		}
	}
	for _, skiplistBall := range treeBall.SkiplistBalls {
		known, err := cm.knownBall(dbContext, skiplistBall)
		if err != nil {
			return err
		}
		if !known {
			return errors.Wrapf(ruleerrors.ErrInvalidHashTree, "skiplist ball %s of unit %s not found",
				skiplistBall, treeBall.Unit)
		}
	}
	return cm.hashTreeStore.Insert(dbContext, treeBall.Ball, treeBall.Unit)
}

// PurgeHandledBallsFromHashTree removes the staged balls whose units are
// already stored with their balls
func (cm *catchupManager) PurgeHandledBallsFromHashTree(dbContext model.DBWriter) error {
	staged, err := cm.hashTreeStore.Balls(dbContext)
	if err != nil {
		return err
	}
	purged := 0
	for _, ball := range staged {
		unitHash, err := cm.hashTreeStore.UnitByBall(dbContext, ball)
		if err != nil {
			return err
		}
		hasBall, err := cm.ballStore.HasBall(dbContext, unitHash)
		if err != nil {
			return err
		}
		if !hasBall {
			continue
		}
		err = cm.hashTreeStore.Delete(dbContext, ball)
		if err != nil {
			return err
		}
		purged++
	}
	if purged > 0 {
		log.Debugf("Purged %d handled balls from the hash tree", purged)
	}
	return nil
}
