package messagevalidator

import (
	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/ruleerrors"
	"github.com/unitdag/unitd/domain/consensus/utils/consensushashing"
	"github.com/unitdag/unitd/domain/consensus/utils/serialization"
)

var inlineOnlyApps = map[string]struct{}{
	externalapi.AppAddressDefinitionChange: {},
	externalapi.AppDataFeed:                {},
	externalapi.AppPowEquihash:             {},
	externalapi.AppDefinitionTemplate:      {},
	externalapi.AppAsset:                   {},
	externalapi.AppAssetAttestors:          {},
	externalapi.AppAttestation:             {},
	externalapi.AppPoll:                    {},
	externalapi.AppVote:                    {},
	externalapi.AppTrustme:                 {},
}

func (v *messageValidator) validateMessage(dbContext model.DBReader, unit *externalapi.DomainUnit,
	messageIndex uint32, message *externalapi.Message, state *model.ValidationState) error {

	if message.App == "" {
		return errors.Wrapf(ruleerrors.ErrBadMessage, "no app")
	}
	if message.PayloadHash == nil {
		return errors.Wrapf(ruleerrors.ErrBadMessage, "no payload hash")
	}

	switch message.PayloadLocation {
	case externalapi.PayloadLocationInline, externalapi.PayloadLocationURI, externalapi.PayloadLocationNone:
	default:
		return errors.Wrapf(ruleerrors.ErrBadMessage, "wrong payload location %q", message.PayloadLocation)
	}

	if message.PayloadLocation == externalapi.PayloadLocationNone &&
		(message.HasPayload() || message.PayloadURI != "" || message.PayloadURIHash != nil) {
		return errors.Wrapf(ruleerrors.ErrBadMessage, "a message with no payload carries one")
	}
	if message.PayloadLocation == externalapi.PayloadLocationURI {
		err := v.validatePayloadURI(message)
		if err != nil {
			return err
		}
	} else if message.PayloadURI != "" || message.PayloadURIHash != nil {
		return errors.Wrapf(ruleerrors.ErrBadMessage, "payload uri in a message of location %s",
			message.PayloadLocation)
	}

	if message.App == externalapi.AppPayment {
		err := v.validatePaymentLocation(unit, message, state)
		if err != nil {
			return err
		}
	} else if len(message.SpendProofs) > 0 {
		return errors.Wrapf(ruleerrors.ErrBadMessage, "spend proofs in a %s message", message.App)
	}

	if _, ok := inlineOnlyApps[message.App]; ok && message.PayloadLocation != externalapi.PayloadLocationInline {
		return errors.Wrapf(ruleerrors.ErrBadMessage, "%s must be inline", message.App)
	}

	if message.PayloadLocation != externalapi.PayloadLocationInline {
		return nil
	}
	if !message.HasPayload() {
		return errors.Wrapf(ruleerrors.ErrBadMessage, "inline message without payload")
	}
	payloadHash, err := consensushashing.PayloadHash(message.Payload)
	if err != nil {
		return errors.Wrapf(ruleerrors.ErrBadPayload, "undecodable payload: %s", err)
	}
	if !payloadHash.Equal(message.PayloadHash) {
		return errors.Wrapf(ruleerrors.ErrWrongPayloadHash, "payload hashes to %s, message says %s",
			payloadHash, message.PayloadHash)
	}
	return v.validateInlinePayload(dbContext, unit, messageIndex, message, state)
}

func (v *messageValidator) validatePayloadURI(message *externalapi.Message) error {
	if message.HasPayload() {
		return errors.Wrapf(ruleerrors.ErrBadMessage, "a uri message carries an inline payload")
	}
	if message.PayloadURI == "" || message.PayloadURIHash == nil {
		return errors.Wrapf(ruleerrors.ErrBadMessage, "no payload uri")
	}
	if len(message.PayloadURI) > v.params.MaxPayloadURILength {
		return errors.Wrapf(ruleerrors.ErrBadMessage, "payload uri is longer than %d", v.params.MaxPayloadURILength)
	}
	if !consensushashing.DataHash(message.PayloadURI).Equal(message.PayloadURIHash) {
		return errors.WithStack(ruleerrors.ErrWrongPayloadURIHash)
	}
	return nil
}

// validatePaymentLocation checks the placement of a payment. A private
// payment is kept off the unit and replaced by spend proofs.
func (v *messageValidator) validatePaymentLocation(unit *externalapi.DomainUnit, message *externalapi.Message,
	state *model.ValidationState) error {

	switch message.PayloadLocation {
	case externalapi.PayloadLocationInline:
		if len(message.SpendProofs) > 0 {
			return errors.Wrapf(ruleerrors.ErrBadMessage, "spend proofs in a public payment")
		}
		return nil
	case externalapi.PayloadLocationNone:
	default:
		return errors.Wrapf(ruleerrors.ErrBadMessage, "payment location must be inline or none")
	}

	if len(message.SpendProofs) == 0 {
		return errors.Wrapf(ruleerrors.ErrBadMessage, "private payment without spend proofs")
	}
	if len(message.SpendProofs) > v.params.MaxSpendProofsPerMessage {
		return errors.Wrapf(ruleerrors.ErrBadMessage, "%d spend proofs, the maximum is %d",
			len(message.SpendProofs), v.params.MaxSpendProofsPerMessage)
	}
	for _, spendProof := range message.SpendProofs {
		if spendProof.SpendProof == "" {
			return errors.Wrapf(ruleerrors.ErrBadMessage, "empty spend proof")
		}
		if len(unit.Authors) == 1 {
			if spendProof.Address != "" {
				return errors.Wrapf(ruleerrors.ErrBadMessage, "spend proof of a single authored unit has an address")
			}
		} else if !unit.HasAuthor(spendProof.Address) {
			return errors.Wrapf(ruleerrors.ErrBadMessage, "spend proof address %s is not an author", spendProof.Address)
		}
		if !state.UseInputKey("spend-proof-" + spendProof.SpendProof) {
			return errors.Wrapf(ruleerrors.ErrInputAlreadyUsed, "spend proof %s", spendProof.SpendProof)
		}
	}
	return nil
}

func (v *messageValidator) validateInlinePayload(dbContext model.DBReader, unit *externalapi.DomainUnit,
	messageIndex uint32, message *externalapi.Message, state *model.ValidationState) error {

	switch message.App {
	case externalapi.AppText:
		return validateText(message.Payload)
	case externalapi.AppData:
		return validateData(message.Payload)
	case externalapi.AppProfile:
		return validateProfile(unit, message.Payload, state)
	case externalapi.AppDataFeed:
		return v.validateDataFeed(message.Payload, state)
	case externalapi.AppDefinitionTemplate:
		return validateDefinitionTemplate(message.Payload, state)
	case externalapi.AppAddressDefinitionChange:
		return validateAddressDefinitionChange(unit, message.Payload, state)
	case externalapi.AppAttestation:
		return validateAttestation(unit, message.Payload)
	case externalapi.AppPoll:
		return v.validatePoll(message.Payload, state)
	case externalapi.AppVote:
		return v.validateVote(dbContext, message.Payload, state)
	case externalapi.AppAsset:
		return v.validateAssetDefinition(dbContext, unit, message.Payload, state)
	case externalapi.AppAssetAttestors:
		return v.validateAssetAttestors(dbContext, unit, message.Payload, state)
	case externalapi.AppPowEquihash:
		return v.validatePowEquihash(dbContext, unit, message.Payload, state)
	case externalapi.AppTrustme:
		return validateTrustme(unit, messageIndex, message.Payload)
	case externalapi.AppPayment:
		payment := &externalapi.Payment{}
		err := decodePayload(message.Payload, payment)
		if err != nil {
			return err
		}
		return v.validatePayment(dbContext, unit, messageIndex, payment, state)
	}
	return errors.Wrapf(ruleerrors.ErrUnknownApp, "app %q", message.App)
}

// decodePayload decodes a typed payload, rejecting fields the type doesn't know
func decodePayload(payload []byte, v interface{}) error {
	err := serialization.UnmarshalStrict(payload, v)
	if err != nil {
		return errors.Wrapf(ruleerrors.ErrBadPayload, "%s", err)
	}
	return nil
}
