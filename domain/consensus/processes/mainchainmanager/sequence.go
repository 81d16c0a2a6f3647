package mainchainmanager

import (
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
)

// resolveTempBad settles the sequence of a temp-bad unit that is becoming
// stable. It turns final-bad when one of its spends is also spent by a
// stable good unit, otherwise it is good and its spends become unique.
func (mcm *mainChainManager) resolveTempBad(dbContext model.DBWriter, props *externalapi.UnitProps) error {
	keys, err := mcm.outputStore.SpendKeysOfUnit(dbContext, props.Unit)
	if err != nil {
		return err
	}

	for _, key := range keys {
		conflicting, err := mcm.hasStableGoodConflict(dbContext, key, props.Unit)
		if err != nil {
			return err
		}
		if conflicting {
			props.Sequence = externalapi.SequenceFinalBad
			log.Debugf("Unit %s is final-bad, %s is spent by a stable unit", props.Unit, key)
			return nil
		}
	}

	props.Sequence = externalapi.SequenceGood
	for _, key := range keys {
		err = mcm.outputStore.SetSpenderUnique(dbContext, key, props.Unit, true)
		if err != nil {
			return err
		}
	}
	log.Debugf("Temp-bad unit %s turned good", props.Unit)
	return nil
}

func (mcm *mainChainManager) hasStableGoodConflict(dbContext model.DBReader, key model.SpendKey,
	unitHash *externalapi.DomainHash) (bool, error) {

	spenders, err := mcm.outputStore.Spenders(dbContext, key)
	if err != nil {
		return false, err
	}
	for _, spender := range spenders {
		if spender.Unit.Equal(unitHash) {
			continue
		}
		props, err := mcm.unitPropsStore.Get(dbContext, spender.Unit)
		if err != nil {
			return false, err
		}
		if props.IsStable && props.Sequence == externalapi.SequenceGood {
			return true, nil
		}
	}
	return false, nil
}
