package mainchainmanager

import (
	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/processes/roundservice"
	"github.com/unitdag/unitd/domain/dagconfig"
	"github.com/unitdag/unitd/infrastructure/logger"
)

// mainChainManager extends the main chain by one index each time a trustme
// unit commits. The trustme unit and every ancestor without a main chain
// index become stable at that index.
type mainChainManager struct {
	params *dagconfig.Params

	unitStore      model.UnitStore
	unitPropsStore model.UnitPropsStore
	mainChainStore model.MainChainStore
	ballStore      model.BallStore
	outputStore    model.OutputStore
	roundStore     model.RoundStore
}

// New instantiates a new MainChainManager
func New(params *dagconfig.Params,
	unitStore model.UnitStore,
	unitPropsStore model.UnitPropsStore,
	mainChainStore model.MainChainStore,
	ballStore model.BallStore,
	outputStore model.OutputStore,
	roundStore model.RoundStore) model.MainChainManager {

	return &mainChainManager{
		params:         params,
		unitStore:      unitStore,
		unitPropsStore: unitPropsStore,
		mainChainStore: mainChainStore,
		ballStore:      ballStore,
		outputStore:    outputStore,
		roundStore:     roundStore,
	}
}

// LastStableMCI returns the highest stable main chain index
func (mcm *mainChainManager) LastStableMCI(dbContext model.DBReader) (uint64, error) {
	return mcm.mainChainStore.LastStableMCI(dbContext)
}

// MaxKnownMCI returns the highest assigned main chain index. Indexes are only
// assigned on stabilization, so it equals the last stable one.
func (mcm *mainChainManager) MaxKnownMCI(dbContext model.DBReader) (uint64, error) {
	return mcm.mainChainStore.LastStableMCI(dbContext)
}

// UpdateMainChain puts trustme on the main chain at the next index and
// stabilizes everything it includes. The props of trustme must already be
// stored.
func (mcm *mainChainManager) UpdateMainChain(dbContext model.DBWriter, trustme *externalapi.DomainUnit) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "UpdateMainChain")
	defer onEnd()

	lastStableMCI, err := mcm.mainChainStore.LastStableMCI(dbContext)
	if err != nil {
		return err
	}
	mci := lastStableMCI + 1
	if trustme.HP != 0 && trustme.HP != mci {
		return errors.Errorf("trustme unit %s proposes height %d while the next index is %d",
			trustme.Hash, trustme.HP, mci)
	}
	_, err = mcm.mainChainStore.MainChainUnit(dbContext, mci)
	if err == nil {
		return errors.Errorf("main chain index %d is already taken", mci)
	}
	if !database.IsNotFoundError(err) {
		return err
	}

	trustmeProps, err := mcm.unitPropsStore.Get(dbContext, trustme.Hash)
	if err != nil {
		return err
	}
	trustmeProps.IsOnMainChain = true
	err = mcm.mainChainStore.SetMainChainUnit(dbContext, mci, trustme.Hash)
	if err != nil {
		return err
	}

	newlyStable, err := mcm.collectUnstable(dbContext, trustmeProps)
	if err != nil {
		return err
	}
	sortByLevel(newlyStable)

	for _, props := range newlyStable {
		props.MainChainIndex = mci
		props.HasMainChainIndex = true
		props.IsStable = true
		if props.Sequence == externalapi.SequenceTempBad {
			err = mcm.resolveTempBad(dbContext, props)
			if err != nil {
				return err
			}
		}
		err = mcm.unitPropsStore.Update(dbContext, props)
		if err != nil {
			return err
		}
		err = mcm.mainChainStore.AddMember(dbContext, mci, props.Unit)
		if err != nil {
			return err
		}
	}

	for _, props := range newlyStable {
		err = mcm.addBall(dbContext, props)
		if err != nil {
			return err
		}
	}

	err = mcm.mainChainStore.SetLastStableMCI(dbContext, mci)
	if err != nil {
		return err
	}
	err = mcm.updateRoundInfo(dbContext, mci, trustmeProps.WitnessedLevel)
	if err != nil {
		return err
	}

	log.Debugf("Main chain index %d is stable with %d units, main chain unit %s",
		mci, len(newlyStable), trustme.Hash)
	return nil
}

// collectUnstable walks the past of props and returns every unit that has
// no main chain index yet, props included
func (mcm *mainChainManager) collectUnstable(dbContext model.DBReader,
	props *externalapi.UnitProps) ([]*externalapi.UnitProps, error) {

	collected := []*externalapi.UnitProps{props}
	visited := map[externalapi.DomainHash]struct{}{*props.Unit: {}}
	queue := []*externalapi.DomainHash{props.Unit}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		unit, err := mcm.unitStore.Unit(dbContext, current)
		if err != nil {
			return nil, err
		}
		for _, parent := range unit.ParentUnits {
			if _, ok := visited[*parent]; ok {
				continue
			}
			visited[*parent] = struct{}{}

			parentProps, err := mcm.unitPropsStore.Get(dbContext, parent)
			if err != nil {
				return nil, err
			}
			if parentProps.HasMainChainIndex {
				continue
			}
			collected = append(collected, parentProps)
			queue = append(queue, parent)
		}
	}
	return collected, nil
}

func (mcm *mainChainManager) updateRoundInfo(dbContext model.DBWriter, mci uint64, witnessedLevel uint64) error {
	roundIndex := roundservice.RoundOfMCI(mci, mcm.params.MCIsPerRound)
	info, err := mcm.roundStore.RoundInfo(dbContext, roundIndex)
	if err != nil {
		return err
	}
	info.RoundIndex = roundIndex
	if !info.HasMinWL || witnessedLevel < info.MinWL {
		info.MinWL = witnessedLevel
		info.HasMinWL = true
	}
	if !info.HasMaxWL || witnessedLevel > info.MaxWL {
		info.MaxWL = witnessedLevel
		info.HasMaxWL = true
	}
	return mcm.roundStore.UpdateRoundInfo(dbContext, info)
}
