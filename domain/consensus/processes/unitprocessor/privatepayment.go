package unitprocessor

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/ruleerrors"
	"github.com/unitdag/unitd/infrastructure/logger"
	"github.com/unitdag/unitd/util/locks"
)

// ValidateAndInsertPrivatePayment validates the payload of a private
// payment against the stored unit carrying its spend proofs, and stores it
func (up *unitProcessor) ValidateAndInsertPrivatePayment(ctx context.Context, unitHash *externalapi.DomainHash,
	messageIndex uint32, payment *externalapi.Payment) (*externalapi.ValidationResult, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "ValidateAndInsertPrivatePayment")
	defer onEnd()

	if up.IsHalted() {
		return nil, errors.WithStack(ruleerrors.ErrConsensusHalted)
	}
	start := time.Now()

	hasUnit, err := up.unitStore.Has(up.databaseContext, unitHash)
	if err != nil {
		return classify(err), nil
	}
	if !hasUnit {
		return classify(ruleerrors.NewErrMissingParents([]*externalapi.DomainHash{unitHash})), nil
	}

	unlock, err := up.lockRegistry.Lock(ctx, locks.PrivateWrite, locks.Write)
	if err != nil {
		return classify(ruleerrors.NewTransientError(err)), nil
	}
	defer unlock()

	dbTx, err := up.databaseContext.Begin()
	if err != nil {
		return classify(err), nil
	}
	defer dbTx.RollbackUnlessClosed()

	state, err := up.messageValidator.ValidatePrivatePayment(dbTx, unitHash, messageIndex, payment)
	if err != nil {
		result := classify(err)
		log.Debugf("Private payment %d of unit %s: %s", messageIndex, unitHash, result)
		return result, nil
	}

	err = up.unitWriter.WritePrivatePayment(dbTx, unitHash, messageIndex, payment, state)
	if err == nil {
		err = dbTx.Commit()
	}
	if err != nil {
		err = errors.Wrapf(err, "failed to write private payment %d of unit %s", messageIndex, unitHash)
		up.halt(err)
		return nil, err
	}

	result := &externalapi.ValidationResult{Kind: externalapi.ResultOK, Sequence: state.Sequence}
	up.observer.ObserveResult(result.Kind, time.Since(start))
	return result, nil
}
