package unitwriter

import (
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/dagconfig"
	"github.com/unitdag/unitd/infrastructure/logger"
)

// unitWriter persists validated joints. It never validates: whatever
// validation deferred to it is carried by the ValidationState.
type unitWriter struct {
	params *dagconfig.Params

	mainChainManager model.MainChainManager

	unitStore       model.UnitStore
	unitPropsStore  model.UnitPropsStore
	ballStore       model.BallStore
	mainChainStore  model.MainChainStore
	freeUnitStore   model.FreeUnitStore
	outputStore     model.OutputStore
	assetStore      model.AssetStore
	pollStore       model.PollStore
	dataFeedStore   model.DataFeedStore
	definitionStore model.DefinitionStore
	roundStore      model.RoundStore
}

// New instantiates a new UnitWriter
func New(params *dagconfig.Params,
	mainChainManager model.MainChainManager,
	unitStore model.UnitStore,
	unitPropsStore model.UnitPropsStore,
	ballStore model.BallStore,
	mainChainStore model.MainChainStore,
	freeUnitStore model.FreeUnitStore,
	outputStore model.OutputStore,
	assetStore model.AssetStore,
	pollStore model.PollStore,
	dataFeedStore model.DataFeedStore,
	definitionStore model.DefinitionStore,
	roundStore model.RoundStore) model.UnitWriter {

	return &unitWriter{
		params:           params,
		mainChainManager: mainChainManager,
		unitStore:        unitStore,
		unitPropsStore:   unitPropsStore,
		ballStore:        ballStore,
		mainChainStore:   mainChainStore,
		freeUnitStore:    freeUnitStore,
		outputStore:      outputStore,
		assetStore:       assetStore,
		pollStore:        pollStore,
		dataFeedStore:    dataFeedStore,
		definitionStore:  definitionStore,
		roundStore:       roundStore,
	}
}

// WriteJoint stores joint with everything derived from it. A trustme unit
// then advances the main chain.
func (w *unitWriter) WriteJoint(dbContext model.DBWriter, joint *externalapi.DomainJoint,
	state *model.ValidationState) error {

	onEnd := logger.LogAndMeasureExecutionTime(log, "WriteJoint")
	defer onEnd()

	unit := joint.Unit
	err := w.unitStore.Insert(dbContext, joint)
	if err != nil {
		return err
	}

	isGenesis := w.params.IsGenesisUnit(unit.Hash)
	err = w.unitPropsStore.Update(dbContext, newProps(unit, state, isGenesis))
	if err != nil {
		return err
	}
	if isGenesis {
		err = w.writeGenesisMainChain(dbContext, joint)
		if err != nil {
			return err
		}
	} else if joint.Ball != nil {
		err = w.writeBall(dbContext, joint)
		if err != nil {
			return err
		}
	}

	err = w.applyDowngrades(dbContext, unit.Hash, state)
	if err != nil {
		return err
	}
	err = w.updateFreeUnits(dbContext, unit)
	if err != nil {
		return err
	}
	err = w.writeDefinitions(dbContext, unit)
	if err != nil {
		return err
	}
	if !unit.IsStripped() {
		err = w.writeMessages(dbContext, unit, state)
		if err != nil {
			return err
		}
	}

	if unit.PowType == externalapi.PowTypeTrustme {
		err = w.roundStore.InsertPow(dbContext, &model.PowRecord{
			Unit:       unit.Hash,
			RoundIndex: unit.RoundIndex,
			Address:    unit.Authors[0].Address,
			PowType:    externalapi.PowTypeTrustme,
		})
		if err != nil {
			return err
		}
		err = w.mainChainManager.UpdateMainChain(dbContext, unit)
		if err != nil {
			return err
		}
	}

	log.Debugf("Wrote unit %s, sequence %s, level %d", unit.Hash, state.Sequence, state.Level)
	return nil
}

func newProps(unit *externalapi.DomainUnit, state *model.ValidationState, isGenesis bool) *externalapi.UnitProps {
	props := &externalapi.UnitProps{
		Unit:                 unit.Hash,
		Level:                state.Level,
		WitnessedLevel:       state.WitnessedLevel,
		BestParentUnit:       state.BestParent,
		LatestIncludedMCI:    state.LIMCI,
		HasLatestIncludedMCI: state.HasLIMCI,
		Sequence:             state.Sequence,
		RoundIndex:           unit.RoundIndex,
		PowType:              unit.PowType,
		Timestamp:            unit.Timestamp,
		LastBallUnit:         unit.LastBallUnit,
		Authors:              unit.AuthorAddresses(),
		IsStripped:           unit.IsStripped(),
	}
	if isGenesis {
		props.Level = 0
		props.WitnessedLevel = 0
		props.MainChainIndex = 0
		props.HasMainChainIndex = true
		props.IsOnMainChain = true
		props.IsStable = true
		props.Sequence = externalapi.SequenceGood
	}
	return props
}

func (w *unitWriter) writeGenesisMainChain(dbContext model.DBWriter, joint *externalapi.DomainJoint) error {
	err := w.ballStore.Insert(dbContext, joint.Unit.Hash, joint.Ball)
	if err != nil {
		return err
	}
	err = w.mainChainStore.SetMainChainUnit(dbContext, 0, joint.Unit.Hash)
	if err != nil {
		return err
	}
	err = w.mainChainStore.AddMember(dbContext, 0, joint.Unit.Hash)
	if err != nil {
		return err
	}
	err = w.mainChainStore.SetLastStableMCI(dbContext, 0)
	if err != nil {
		return err
	}
	return w.roundStore.UpdateRoundInfo(dbContext, &model.RoundInfo{
		RoundIndex: 1,
		MinWL:      0,
		HasMinWL:   true,
		MaxWL:      0,
		HasMaxWL:   true,
	})
}

// writeBall stores the ball a caught-up joint arrived with. The main chain
// manager keeps it instead of computing its own.
func (w *unitWriter) writeBall(dbContext model.DBWriter, joint *externalapi.DomainJoint) error {
	err := w.ballStore.Insert(dbContext, joint.Unit.Hash, joint.Ball)
	if err != nil {
		return err
	}
	if len(joint.SkiplistUnits) == 0 {
		return nil
	}
	return w.ballStore.InsertSkiplist(dbContext, joint.Unit.Hash, joint.SkiplistUnits)
}

// applyDowngrades carries out the sequence changes validation deferred. An
// unstable good conflict becomes temp-bad and conflicting spends lose
// their uniqueness.
func (w *unitWriter) applyDowngrades(dbContext model.DBWriter, unitHash *externalapi.DomainHash,
	state *model.ValidationState) error {

	for _, conflict := range state.DowngradeToTempBad {
		props, err := w.unitPropsStore.Get(dbContext, conflict)
		if err != nil {
			return err
		}
		if props.IsStable || props.Sequence != externalapi.SequenceGood {
			continue
		}
		props.Sequence = externalapi.SequenceTempBad
		err = w.unitPropsStore.Update(dbContext, props)
		if err != nil {
			return err
		}
		log.Debugf("Unit %s is temp-bad, conflicting with %s", conflict, unitHash)
	}

	for _, key := range state.ClearUniqueness {
		spenders, err := w.outputStore.Spenders(dbContext, key)
		if err != nil {
			return err
		}
		for _, spender := range spenders {
			if !spender.IsUnique {
				continue
			}
			err = w.outputStore.SetSpenderUnique(dbContext, key, spender.Unit, false)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *unitWriter) updateFreeUnits(dbContext model.DBWriter, unit *externalapi.DomainUnit) error {
	for _, parent := range unit.ParentUnits {
		err := w.freeUnitStore.Remove(dbContext, parent)
		if err != nil {
			return err
		}
	}
	return w.freeUnitStore.Add(dbContext, unit.Hash)
}
