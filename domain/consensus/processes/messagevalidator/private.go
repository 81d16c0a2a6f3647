package messagevalidator

import (
	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/ruleerrors"
	"github.com/unitdag/unitd/domain/consensus/utils/consensushashing"
)

// ValidatePrivatePayment validates a private payment against the stored
// unit that carries its spend proofs. The unit may still be unstable.
func (v *messageValidator) ValidatePrivatePayment(dbContext model.DBReader, unitHash *externalapi.DomainHash,
	messageIndex uint32, payment *externalapi.Payment) (*model.ValidationState, error) {

	unit, err := v.unitStore.Unit(dbContext, unitHash)
	if err != nil {
		return nil, err
	}
	if int(messageIndex) >= len(unit.Messages) {
		return nil, errors.Wrapf(ruleerrors.ErrPrivatePaymentMismatch, "unit %s has no message %d",
			unitHash, messageIndex)
	}
	message := unit.Messages[messageIndex]
	if message.App != externalapi.AppPayment || message.PayloadLocation != externalapi.PayloadLocationNone {
		return nil, errors.Wrapf(ruleerrors.ErrPrivatePaymentMismatch, "message %d of %s is not a private payment",
			messageIndex, unitHash)
	}
	if payment.IsBase() {
		return nil, errors.Wrapf(ruleerrors.ErrPrivatePaymentMismatch, "the base currency can't be paid privately")
	}
	payloadHash, err := consensushashing.PayloadHashOf(payment)
	if err != nil {
		return nil, err
	}
	if !payloadHash.Equal(message.PayloadHash) {
		return nil, errors.Wrapf(ruleerrors.ErrPrivatePaymentMismatch, "payment hashes to %s, message says %s",
			payloadHash, message.PayloadHash)
	}

	props, err := v.unitPropsStore.Get(dbContext, unitHash)
	if err != nil {
		return nil, err
	}
	if props.IsStable && props.Sequence != externalapi.SequenceGood {
		return nil, errors.Wrapf(ruleerrors.ErrPrivatePaymentMismatch, "unit %s is final %s", unitHash, props.Sequence)
	}
	if unit.LastBallUnit == nil {
		return nil, errors.Wrapf(ruleerrors.ErrPrivatePaymentMismatch, "unit %s has no last ball", unitHash)
	}
	lastBallProps, err := v.unitPropsStore.Get(dbContext, unit.LastBallUnit)
	if err != nil {
		return nil, err
	}

	state := model.NewValidationState(false)
	state.Private = true
	state.LastBallMCI = lastBallProps.MainChainIndex
	err = v.validatePayment(dbContext, unit, messageIndex, payment, state)
	if err != nil {
		return nil, err
	}
	return state, nil
}
