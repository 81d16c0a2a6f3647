package catchupmanager

import (
	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/dagconfig"
)

// catchupManager serves catch-up chains and hash trees to lagging peers and
// stages the ones received from peers
type catchupManager struct {
	params       *dagconfig.Params
	roundService model.RoundService
	peerState    model.PeerState

	unitStore         model.UnitStore
	unitPropsStore    model.UnitPropsStore
	mainChainStore    model.MainChainStore
	ballStore         model.BallStore
	hashTreeStore     model.HashTreeStore
	catchupChainStore model.CatchupChainStore
}

// New instantiates a new CatchupManager
func New(params *dagconfig.Params,
	roundService model.RoundService,
	peerState model.PeerState,
	unitStore model.UnitStore,
	unitPropsStore model.UnitPropsStore,
	mainChainStore model.MainChainStore,
	ballStore model.BallStore,
	hashTreeStore model.HashTreeStore,
	catchupChainStore model.CatchupChainStore) model.CatchupManager {

	return &catchupManager{
		params:            params,
		roundService:      roundService,
		peerState:         peerState,
		unitStore:         unitStore,
		unitPropsStore:    unitPropsStore,
		mainChainStore:    mainChainStore,
		ballStore:         ballStore,
		hashTreeStore:     hashTreeStore,
		catchupChainStore: catchupChainStore,
	}
}

// stableMainChainProps returns the props of the unit of ball, which must
// be stable and on the main chain
func (cm *catchupManager) stableMainChainProps(dbContext model.DBReader, ball *externalapi.DomainHash,
	sentinel error) (*externalapi.UnitProps, error) {

	unitHash, err := cm.ballStore.UnitByBall(dbContext, ball)
	if database.IsNotFoundError(err) {
		return nil, errors.Wrapf(sentinel, "ball %s is not known", ball)
	}
	if err != nil {
		return nil, err
	}
	props, err := cm.unitPropsStore.Get(dbContext, unitHash)
	if err != nil {
		return nil, err
	}
	if !props.IsStable {
		return nil, errors.Wrapf(sentinel, "ball %s is not stable", ball)
	}
	if !props.IsOnMainChain {
		return nil, errors.Wrapf(sentinel, "ball %s is not on the main chain", ball)
	}
	return props, nil
}

// knownBall returns whether ball is stored or staged in the hash tree
func (cm *catchupManager) knownBall(dbContext model.DBReader, ball *externalapi.DomainHash) (bool, error) {
	_, err := cm.hashTreeStore.UnitByBall(dbContext, ball)
	if err == nil {
		return true, nil
	}
	if !database.IsNotFoundError(err) {
		return false, err
	}
	_, err = cm.ballStore.UnitByBall(dbContext, ball)
	if database.IsNotFoundError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
