package consensus

import (
	"context"

	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/notifications"
	"github.com/unitdag/unitd/domain/consensus/ruleerrors"
	"github.com/unitdag/unitd/util/locks"
)

// Consensus maintains the DAG ledger of the node
type Consensus interface {
	ValidateAndInsertJoint(ctx context.Context, joint *externalapi.DomainJoint) (*externalapi.ValidationResult, error)
	ValidateAndInsertJoints(ctx context.Context, joints []*externalapi.DomainJoint) ([]*externalapi.ValidationResult, error)
	ValidateAndInsertPrivatePayment(ctx context.Context, unitHash *externalapi.DomainHash, messageIndex uint32,
		payment *externalapi.Payment) (*externalapi.ValidationResult, error)

	GetJoint(unitHash *externalapi.DomainHash) (*externalapi.DomainJoint, error)
	GetUnitProps(unitHash *externalapi.DomainHash) (*externalapi.UnitProps, error)
	HasUnit(unitHash *externalapi.DomainHash) (bool, error)
	LastStableMCI() (uint64, error)

	PrepareCatchupChain(request *externalapi.CatchupRequest) (*externalapi.CatchupChain, error)
	ProcessCatchupChain(ctx context.Context, chain *externalapi.CatchupChain) error
	ReadHashTree(request *externalapi.HashTreeRequest) ([]*externalapi.HashTreeBall, error)
	ProcessHashTree(ctx context.Context, balls []*externalapi.HashTreeBall) error

	PeerRoundIndex() (*externalapi.PeerRoundIndex, bool)
	SubscribePeerRoundIndex() (<-chan *externalapi.PeerRoundIndex, func())

	NotificationManager() *notifications.NotificationManager
	WaitForUnit(ctx context.Context, unitHash *externalapi.DomainHash) error
	IsHalted() bool
}

type consensus struct {
	databaseContext model.DBManager
	lockRegistry    *locks.Registry

	unitProcessor       model.UnitProcessor
	mainChainManager    model.MainChainManager
	catchupManager      model.CatchupManager
	peerState           model.PeerState
	notificationManager *notifications.NotificationManager

	unitStore      model.UnitStore
	unitPropsStore model.UnitPropsStore
}

// ValidateAndInsertJoint validates the given joint and, if valid, commits it
func (s *consensus) ValidateAndInsertJoint(ctx context.Context, joint *externalapi.DomainJoint) (
	*externalapi.ValidationResult, error) {

	return s.unitProcessor.ValidateAndInsertJoint(ctx, joint)
}

// ValidateAndInsertJoints processes a batch of joints, such as the ones
// received while catching up. Joints waiting for parents from the same
// batch are retried once those parents commit.
func (s *consensus) ValidateAndInsertJoints(ctx context.Context, joints []*externalapi.DomainJoint) (
	[]*externalapi.ValidationResult, error) {

	return s.unitProcessor.ValidateAndInsertJoints(ctx, joints)
}

func (s *consensus) ValidateAndInsertPrivatePayment(ctx context.Context, unitHash *externalapi.DomainHash,
	messageIndex uint32, payment *externalapi.Payment) (*externalapi.ValidationResult, error) {

	return s.unitProcessor.ValidateAndInsertPrivatePayment(ctx, unitHash, messageIndex, payment)
}

func (s *consensus) GetJoint(unitHash *externalapi.DomainHash) (*externalapi.DomainJoint, error) {
	return s.unitStore.Joint(s.databaseContext, unitHash)
}

func (s *consensus) GetUnitProps(unitHash *externalapi.DomainHash) (*externalapi.UnitProps, error) {
	return s.unitPropsStore.Get(s.databaseContext, unitHash)
}

func (s *consensus) HasUnit(unitHash *externalapi.DomainHash) (bool, error) {
	return s.unitStore.Has(s.databaseContext, unitHash)
}

func (s *consensus) LastStableMCI() (uint64, error) {
	return s.mainChainManager.LastStableMCI(s.databaseContext)
}

// PrepareCatchupChain answers the catch-up request of a peer
func (s *consensus) PrepareCatchupChain(request *externalapi.CatchupRequest) (*externalapi.CatchupChain, error) {
	return s.catchupManager.PrepareCatchupChain(s.databaseContext, request)
}

// ProcessCatchupChain checks a catch-up chain received from a peer and
// stores its balls for the hash trees that follow
func (s *consensus) ProcessCatchupChain(ctx context.Context, chain *externalapi.CatchupChain) error {
	unlock, err := s.lockRegistry.Lock(ctx, locks.CatchupChain)
	if err != nil {
		return ruleerrors.NewTransientError(err)
	}
	defer unlock()

	return s.inTransaction(func(dbTx model.DBTransaction) error {
		return s.catchupManager.ProcessCatchupChain(dbTx, chain)
	})
}

func (s *consensus) ReadHashTree(request *externalapi.HashTreeRequest) ([]*externalapi.HashTreeBall, error) {
	return s.catchupManager.ReadHashTree(s.databaseContext, request)
}

// ProcessHashTree stages the balls of a hash tree received from a peer,
// ahead of the joints they belong to
func (s *consensus) ProcessHashTree(ctx context.Context, balls []*externalapi.HashTreeBall) error {
	unlock, err := s.lockRegistry.Lock(ctx, locks.HashTree, locks.CatchupChain)
	if err != nil {
		return ruleerrors.NewTransientError(err)
	}
	defer unlock()

	return s.inTransaction(func(dbTx model.DBTransaction) error {
		return s.catchupManager.ProcessHashTree(dbTx, balls)
	})
}

func (s *consensus) inTransaction(do func(dbTx model.DBTransaction) error) error {
	dbTx, err := s.databaseContext.Begin()
	if err != nil {
		return err
	}
	defer dbTx.RollbackUnlessClosed()

	err = do(dbTx)
	if err != nil {
		return err
	}
	return dbTx.Commit()
}

func (s *consensus) PeerRoundIndex() (*externalapi.PeerRoundIndex, bool) {
	return s.peerState.Get()
}

// SubscribePeerRoundIndex returns a channel receiving the latest peer round
// index whenever it advances, and a function cancelling the subscription
func (s *consensus) SubscribePeerRoundIndex() (<-chan *externalapi.PeerRoundIndex, func()) {
	return s.peerState.Subscribe()
}

func (s *consensus) NotificationManager() *notifications.NotificationManager {
	return s.notificationManager
}

// WaitForUnit blocks until the given unit is committed or ctx is done
func (s *consensus) WaitForUnit(ctx context.Context, unitHash *externalapi.DomainHash) error {
	return s.notificationManager.WaitForUnit(ctx, unitHash, func() (bool, error) {
		return s.unitStore.Has(s.databaseContext, unitHash)
	})
}

func (s *consensus) IsHalted() bool {
	return s.unitProcessor.IsHalted()
}

