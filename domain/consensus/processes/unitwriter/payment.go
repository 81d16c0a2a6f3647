package unitwriter

import (
	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/infrastructure/logger"
)

// writePayment stores the outputs of a payment and the spends of its
// inputs. Spends found conflicting during validation are stored as not
// unique.
func (w *unitWriter) writePayment(dbContext model.DBWriter, unit *externalapi.DomainUnit, messageIndex uint32,
	payment *externalapi.Payment, state *model.ValidationState) error {

	for i, output := range payment.Outputs {
		err := w.outputStore.InsertOutput(dbContext, &model.OutputRecord{
			Unit:         unit.Hash,
			MessageIndex: messageIndex,
			OutputIndex:  uint32(i),
			Asset:        payment.Asset,
			Denomination: payment.Denomination,
			Address:      output.Address,
			Amount:       output.Amount,
			Blinding:     output.Blinding,
			OutputHash:   output.OutputHash,
		})
		if err != nil {
			return err
		}
	}

	for _, spend := range state.InputSpends {
		if spend.Position.MessageIndex != messageIndex {
			continue
		}
		err := w.outputStore.InsertSpender(dbContext, spend.Key, &model.Spender{
			Unit:         unit.Hash,
			MessageIndex: spend.Position.MessageIndex,
			InputIndex:   spend.Position.InputIndex,
			Address:      spend.Address,
			IsUnique:     !state.IsDoubleSpendInput(spend.Position.MessageIndex, spend.Position.InputIndex),
		})
		if err != nil {
			return err
		}

		input := payment.Inputs[spend.Position.InputIndex]
		switch input.TypeOrDefault() {
		case externalapi.InputTypeTransfer:
			err = w.outputStore.MarkSpent(dbContext, input.Unit, *input.MessageIndex, *input.OutputIndex)
		case externalapi.InputTypeCoinbase:
			err = w.roundStore.InsertPow(dbContext, &model.PowRecord{
				Unit:       unit.Hash,
				RoundIndex: unit.RoundIndex,
				Address:    spend.Address,
				PowType:    externalapi.PowTypeCoinbase,
			})
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// WritePrivatePayment stores a private payment that was validated against
// the unit carrying its spend proofs. Writing the same payment twice is a
// no-op.
func (w *unitWriter) WritePrivatePayment(dbContext model.DBWriter, unitHash *externalapi.DomainHash,
	messageIndex uint32, payment *externalapi.Payment, state *model.ValidationState) error {

	onEnd := logger.LogAndMeasureExecutionTime(log, "WritePrivatePayment")
	defer onEnd()

	_, err := w.outputStore.Output(dbContext, unitHash, messageIndex, 0)
	if err == nil {
		log.Debugf("Private payment %d of unit %s is already stored", messageIndex, unitHash)
		return nil
	}
	if !database.IsNotFoundError(err) {
		return err
	}

	unit, err := w.unitStore.Unit(dbContext, unitHash)
	if err != nil {
		return err
	}
	err = w.applyDowngrades(dbContext, unitHash, state)
	if err != nil {
		return err
	}
	if state.Sequence != externalapi.SequenceGood {
		props, err := w.unitPropsStore.Get(dbContext, unitHash)
		if err != nil {
			return err
		}
		if !props.IsStable && props.Sequence == externalapi.SequenceGood {
			props.Sequence = state.Sequence
			err = w.unitPropsStore.Update(dbContext, props)
			if err != nil {
				return err
			}
		}
	}

	err = w.writePayment(dbContext, unit, messageIndex, payment, state)
	if err != nil {
		return err
	}
	log.Debugf("Wrote private payment %d of unit %s", messageIndex, unitHash)
	return nil
}
