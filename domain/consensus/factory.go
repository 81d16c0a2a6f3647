package consensus

import (
	"github.com/pkg/errors"
	consensusdatabase "github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/datastructures/assetstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/ballstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/catchupchainstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/datafeedstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/definitionstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/freeunitstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/hashtreestore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/knownbadstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/mainchainstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/outputstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/pollstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/roundstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/unitpropsstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/unitstore"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/notifications"
	"github.com/unitdag/unitd/domain/consensus/processes/addressdefinitionmanager"
	"github.com/unitdag/unitd/domain/consensus/processes/authorvalidator"
	"github.com/unitdag/unitd/domain/consensus/processes/catchupmanager"
	"github.com/unitdag/unitd/domain/consensus/processes/dagtraversalmanager"
	"github.com/unitdag/unitd/domain/consensus/processes/definitionevaluator"
	"github.com/unitdag/unitd/domain/consensus/processes/depositservice"
	"github.com/unitdag/unitd/domain/consensus/processes/jointvalidator"
	"github.com/unitdag/unitd/domain/consensus/processes/mainchainmanager"
	"github.com/unitdag/unitd/domain/consensus/processes/messagevalidator"
	"github.com/unitdag/unitd/domain/consensus/processes/peerstate"
	"github.com/unitdag/unitd/domain/consensus/processes/roundservice"
	"github.com/unitdag/unitd/domain/consensus/processes/roundvalidator"
	"github.com/unitdag/unitd/domain/consensus/processes/unitprocessor"
	"github.com/unitdag/unitd/domain/consensus/processes/unitwriter"
	"github.com/unitdag/unitd/domain/dagconfig"
	"github.com/unitdag/unitd/infrastructure/db/database"
	"github.com/unitdag/unitd/util/locks"
)

const defaultUnitPropsCacheSize = 10_000

// Config is what a Consensus is built from
type Config struct {
	Params *dagconfig.Params

	// UnitPropsCacheSize bounds the in-memory cache of unit properties
	UnitPropsCacheSize int

	// ValidationWorkers bounds how many joints of a batch are validated at once
	ValidationWorkers int

	ProcessingObserver model.ProcessingObserver
	LockWaitObserver   locks.WaitObserver
}

// Factory instantiates new Consensuses
type Factory interface {
	NewConsensus(config *Config, db database.Database) (Consensus, error)
}

type factory struct{}

// NewFactory creates a new Consensus factory
func NewFactory() Factory {
	return &factory{}
}

// NewConsensus instantiates a new Consensus over db. The genesis is written
// if db is empty.
func (f *factory) NewConsensus(config *Config, db database.Database) (Consensus, error) {
	if config.Params == nil {
		return nil, errors.New("no network params")
	}
	params := config.Params
	cacheSize := config.UnitPropsCacheSize
	if cacheSize <= 0 {
		cacheSize = defaultUnitPropsCacheSize
	}
	databaseContext := consensusdatabase.New(db)

	// Data Structures
	unitStore := unitstore.New()
	unitPropsStore, err := unitpropsstore.New(cacheSize)
	if err != nil {
		return nil, err
	}
	mainChainStore := mainchainstore.New()
	ballStore := ballstore.New()
	outputStore := outputstore.New()
	roundStore := roundstore.New()
	assetStore := assetstore.New()
	pollStore := pollstore.New()
	dataFeedStore := datafeedstore.New()
	definitionStore := definitionstore.New()
	freeUnitStore := freeunitstore.New()
	knownBadStore := knownbadstore.New()
	hashTreeStore := hashtreestore.New()
	catchupChainStore := catchupchainstore.New()

	// Processes
	roundService := roundservice.New(
		params.Name,
		params.GenesisAuthors,
		params.MCIsPerRound,
		params.CoinbaseReward,
		params.PowDifficultyBits,
		mainChainStore,
		roundStore)
	dagTraversalManager := dagtraversalmanager.New(
		params.MajorityOfWitnesses,
		unitStore,
		unitPropsStore,
		roundService)
	addressDefinitionManager := addressdefinitionmanager.New(
		definitionStore,
		unitPropsStore)
	definitionEvaluator := definitionevaluator.New(
		params.MaxDefinitionComplexity,
		addressDefinitionManager,
		dataFeedStore,
		unitPropsStore)
	depositService := depositservice.New(
		params.Supernodes,
		knownBadStore,
		outputStore)
	jointValidator := jointvalidator.New(
		params,
		dagTraversalManager,
		unitStore,
		unitPropsStore,
		ballStore,
		hashTreeStore,
		knownBadStore,
		mainChainStore)
	authorValidator := authorvalidator.New(
		params,
		definitionEvaluator,
		roundService,
		addressDefinitionManager,
		dagTraversalManager,
		unitStore,
		unitPropsStore,
		definitionStore,
		mainChainStore)
	roundValidator := roundvalidator.New(
		params,
		roundService,
		dagTraversalManager,
		authorValidator,
		roundStore,
		mainChainStore)
	messageValidator := messagevalidator.New(
		params,
		definitionEvaluator,
		roundService,
		depositService,
		dagTraversalManager,
		unitStore,
		unitPropsStore,
		outputStore,
		assetStore,
		pollStore,
		roundStore)
	mainChainManager := mainchainmanager.New(
		params,
		unitStore,
		unitPropsStore,
		mainChainStore,
		ballStore,
		outputStore,
		roundStore)
	unitWriter := unitwriter.New(
		params,
		mainChainManager,
		unitStore,
		unitPropsStore,
		ballStore,
		mainChainStore,
		freeUnitStore,
		outputStore,
		assetStore,
		pollStore,
		dataFeedStore,
		definitionStore,
		roundStore)
	peerState := peerstate.New()
	catchupManager := catchupmanager.New(
		params,
		roundService,
		peerState,
		unitStore,
		unitPropsStore,
		mainChainStore,
		ballStore,
		hashTreeStore,
		catchupChainStore)

	notificationManager := notifications.NewNotificationManager()
	lockRegistry := locks.NewRegistry(config.LockWaitObserver)
	unitProcessor := unitprocessor.New(
		databaseContext,
		lockRegistry,
		config.ValidationWorkers,
		jointValidator,
		authorValidator,
		roundValidator,
		messageValidator,
		unitWriter,
		mainChainManager,
		unitStore,
		knownBadStore,
		hashTreeStore,
		config.ProcessingObserver,
		notificationManager)

	err = writeGenesisIfMissing(databaseContext, params, unitStore, unitWriter)
	if err != nil {
		return nil, err
	}

	return &consensus{
		databaseContext:     databaseContext,
		lockRegistry:        lockRegistry,
		unitProcessor:       unitProcessor,
		mainChainManager:    mainChainManager,
		catchupManager:      catchupManager,
		peerState:           peerState,
		notificationManager: notificationManager,
		unitStore:           unitStore,
		unitPropsStore:      unitPropsStore,
	}, nil
}

// writeGenesisIfMissing stores the genesis without validating it. Nothing
// precedes it to validate against.
func writeGenesisIfMissing(databaseContext model.DBManager, params *dagconfig.Params,
	unitStore model.UnitStore, unitWriter model.UnitWriter) error {

	hasGenesis, err := unitStore.Has(databaseContext, params.GenesisUnit)
	if err != nil {
		return err
	}
	if hasGenesis {
		return nil
	}

	dbTx, err := databaseContext.Begin()
	if err != nil {
		return err
	}
	defer dbTx.RollbackUnlessClosed()

	err = unitWriter.WriteJoint(dbTx, params.GenesisJoint, model.NewValidationState(false))
	if err != nil {
		return errors.Wrapf(err, "failed to write the genesis of %s", params.Name)
	}
	err = dbTx.Commit()
	if err != nil {
		return err
	}
	log.Infof("Wrote the genesis unit %s of %s", params.GenesisUnit, params.Name)
	return nil
}
