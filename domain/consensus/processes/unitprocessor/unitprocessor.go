package unitprocessor

import (
	"sync/atomic"
	"time"

	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/util/locks"
)

// unitProcessor validates joints concurrently, one author set at a time,
// and commits them one at a time under the write lock
type unitProcessor struct {
	databaseContext model.DBManager
	lockRegistry    *locks.Registry
	workers         int
	halted          atomic.Bool

	jointValidator   model.JointValidator
	authorValidator  model.AuthorValidator
	roundValidator   model.RoundValidator
	messageValidator model.MessageValidator
	unitWriter       model.UnitWriter
	mainChainManager model.MainChainManager

	unitStore     model.UnitStore
	knownBadStore model.KnownBadStore
	hashTreeStore model.HashTreeStore

	observer model.ProcessingObserver
	notifier model.UnitAcceptedNotifier
}

// New instantiates a new UnitProcessor. observer and notifier may be nil.
func New(
	databaseContext model.DBManager,
	lockRegistry *locks.Registry,
	workers int,
	jointValidator model.JointValidator,
	authorValidator model.AuthorValidator,
	roundValidator model.RoundValidator,
	messageValidator model.MessageValidator,
	unitWriter model.UnitWriter,
	mainChainManager model.MainChainManager,
	unitStore model.UnitStore,
	knownBadStore model.KnownBadStore,
	hashTreeStore model.HashTreeStore,
	observer model.ProcessingObserver,
	notifier model.UnitAcceptedNotifier) model.UnitProcessor {

	if workers < 1 {
		workers = 1
	}
	if observer == nil {
		observer = noopObserver{}
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &unitProcessor{
		databaseContext:  databaseContext,
		lockRegistry:     lockRegistry,
		workers:          workers,
		jointValidator:   jointValidator,
		authorValidator:  authorValidator,
		roundValidator:   roundValidator,
		messageValidator: messageValidator,
		unitWriter:       unitWriter,
		mainChainManager: mainChainManager,
		unitStore:        unitStore,
		knownBadStore:    knownBadStore,
		hashTreeStore:    hashTreeStore,
		observer:         observer,
		notifier:         notifier,
	}
}

// IsHalted returns whether a fatal commit error stopped the processor
func (up *unitProcessor) IsHalted() bool {
	return up.halted.Load()
}

func (up *unitProcessor) halt(err error) {
	if up.halted.Swap(true) {
		return
	}
	log.Criticalf("Refusing further writes: %+v", err)
}

type noopObserver struct{}

func (noopObserver) ObserveResult(externalapi.ResultKind, time.Duration) {}
func (noopObserver) ObserveLastStableMCI(uint64)                          {}

type noopNotifier struct{}

func (noopNotifier) NotifyUnitAccepted(*externalapi.DomainJoint) {}
