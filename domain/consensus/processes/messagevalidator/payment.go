package messagevalidator

import (
	"math/bits"

	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/ruleerrors"
	"github.com/unitdag/unitd/domain/consensus/utils/chash"
)

// paymentTotals accumulates what the inputs and outputs of one payment move
type paymentTotals struct {
	input           uint64
	output          uint64
	inputAddresses  []string
	outputAddresses []string
	isIssue         bool
}

func appendUnique(addresses []string, address string) []string {
	for _, existing := range addresses {
		if existing == address {
			return addresses
		}
	}
	return append(addresses, address)
}

func addAmount(total *uint64, amount uint64) error {
	sum, carry := bits.Add64(*total, amount, 0)
	if carry != 0 {
		return errors.Wrapf(ruleerrors.ErrBadPayment, "amounts overflow")
	}
	*total = sum
	return nil
}

// validatePayment validates a base or asset payment. It is shared by the
// inline payments of a unit and by private payments.
func (v *messageValidator) validatePayment(dbContext model.DBReader, unit *externalapi.DomainUnit,
	messageIndex uint32, payment *externalapi.Payment, state *model.ValidationState) error {

	if payment.IsBase() {
		if payment.Denomination != 0 {
			return errors.Wrapf(ruleerrors.ErrBadPayment, "denomination in a base payment")
		}
		if state.HasBasePayment {
			return errors.Wrapf(ruleerrors.ErrDuplicateApp, "more than one base payment")
		}
		state.HasBasePayment = true
		return v.validateInputsAndOutputs(dbContext, unit, messageIndex, payment, nil, state)
	}

	authors := unit.AuthorAddresses()
	asset, err := v.loadAsset(dbContext, payment.Asset, state.LastBallMCI, authors)
	if err != nil {
		return err
	}
	if len(payment.Inputs) == 0 || len(payment.Outputs) == 0 {
		return errors.Wrapf(ruleerrors.ErrBadPayment, "asset payment without inputs or outputs")
	}
	if asset.fixedDenominations() != (payment.Denomination != 0) {
		return errors.Wrapf(ruleerrors.ErrBadPayment, "denomination must be set exactly for fixed-denomination assets")
	}
	if asset.isPrivate() != state.Private {
		return errors.Wrapf(ruleerrors.ErrAssetRuleViolated, "privacy of asset %s doesn't match the payment", asset.hash)
	}

	firstInput := payment.Inputs[0]
	isIssue := firstInput.TypeOrDefault() == externalapi.InputTypeIssue
	issuer := ""
	if isIssue {
		if len(authors) == 1 {
			issuer = authors[0]
		} else {
			issuer = firstInput.Address
			if !unit.HasAuthor(issuer) {
				return errors.Wrapf(ruleerrors.ErrInvalidIssue, "issuer %s is not an author", issuer)
			}
		}
		if asset.issuedByDefinerOnly() && issuer != asset.definerAddress {
			return errors.Wrapf(ruleerrors.ErrInvalidIssue, "only %s may issue asset %s", asset.definerAddress, asset.hash)
		}
	}
	if asset.cosignedByDefiner() && !unit.HasAuthor(asset.definerAddress) {
		return errors.Wrapf(ruleerrors.ErrAssetRuleViolated, "asset %s must be cosigned by its definer", asset.hash)
	}
	if asset.spenderAttested() {
		if len(asset.attestedAddresses) == 0 {
			return errors.Wrapf(ruleerrors.ErrAssetRuleViolated, "none of the authors is attested for %s", asset.hash)
		}
		if isIssue && !asset.isAttested(issuer) {
			return errors.Wrapf(ruleerrors.ErrAssetRuleViolated, "issuer %s is not attested", issuer)
		}
	}
	return v.validateInputsAndOutputs(dbContext, unit, messageIndex, payment, asset, state)
}

func (v *messageValidator) validateInputsAndOutputs(dbContext model.DBReader, unit *externalapi.DomainUnit,
	messageIndex uint32, payment *externalapi.Payment, asset *assetInfo, state *model.ValidationState) error {

	if len(payment.Inputs) > v.params.MaxInputsPerPaymentMessage {
		return errors.Wrapf(ruleerrors.ErrTooManyInputs, "%d inputs", len(payment.Inputs))
	}
	if len(payment.Outputs) > v.params.MaxOutputsPerPaymentMessage {
		return errors.Wrapf(ruleerrors.ErrTooManyOutputs, "%d outputs", len(payment.Outputs))
	}
	if asset != nil && asset.fixedDenominations() && len(payment.Inputs) != 1 {
		return errors.Wrapf(ruleerrors.ErrBadPayment, "a fixed-denomination payment must have exactly one input")
	}

	totals := &paymentTotals{}
	err := v.validateOutputs(payment, asset, totals)
	if err != nil {
		return err
	}

	for i, input := range payment.Inputs {
		position := model.InputPosition{MessageIndex: messageIndex, InputIndex: uint32(i)}
		if asset != nil && input.TypeOrDefault() == externalapi.InputTypeCoinbase {
			return errors.Wrapf(ruleerrors.ErrBadPayment, "asset input %d is a coinbase", i)
		}
		switch input.TypeOrDefault() {
		case externalapi.InputTypeIssue:
			err = v.validateIssue(dbContext, unit, position, input, payment, asset, state, totals)
		case externalapi.InputTypeCoinbase:
			err = v.validateCoinbase(dbContext, unit, position, input, payment, state, totals)
		case externalapi.InputTypeTransfer:
			err = v.validateTransfer(dbContext, unit, position, input, payment, asset, state, totals)
		default:
			err = errors.Wrapf(ruleerrors.ErrBadPayment, "unknown input type %q", input.Type)
		}
		if err != nil {
			return errors.Wrapf(err, "input %d", i)
		}
	}

	if asset == nil {
		expectedInput := totals.output
		err = addAmount(&expectedInput, unit.HeadersCommission)
		if err != nil {
			return err
		}
		err = addAmount(&expectedInput, unit.PayloadCommission)
		if err != nil {
			return err
		}
		if totals.input != expectedInput {
			return errors.Wrapf(ruleerrors.ErrUnbalancedPayment, "inputs %d, outputs %d, commissions %d",
				totals.input, totals.output, unit.HeadersCommission+unit.PayloadCommission)
		}
		return nil
	}

	if totals.input != totals.output {
		return errors.Wrapf(ruleerrors.ErrUnbalancedPayment, "inputs %d, outputs %d", totals.input, totals.output)
	}
	if !asset.isTransferrable() && !isTransferToOrFromDefiner(asset, totals) {
		return errors.Wrapf(ruleerrors.ErrAssetRuleViolated, "asset %s is not transferrable", asset.hash)
	}
	condition := asset.definition.TransferCondition
	if totals.isIssue {
		condition = asset.definition.IssueCondition
	}
	if condition == nil {
		return nil
	}
	satisfied, err := v.definitionEvaluator.EvaluateAssetCondition(dbContext, asset.hash, condition, unit, state)
	if err != nil {
		return err
	}
	if !satisfied {
		return errors.Wrapf(ruleerrors.ErrAssetConditionNotSatisfied, "asset %s", asset.hash)
	}
	return nil
}

// isTransferToOrFromDefiner returns whether a payment of a non-transferrable
// asset is allowed: it must come from or go to the definer, possibly with
// change back to the payer
func isTransferToOrFromDefiner(asset *assetInfo, totals *paymentTotals) bool {
	definer := asset.definerAddress
	if len(totals.inputAddresses) == 1 && totals.inputAddresses[0] == definer {
		return true
	}
	if len(totals.outputAddresses) == 1 && totals.outputAddresses[0] == definer {
		return true
	}
	if asset.fixedDenominations() && asset.isPrivate() {
		return false
	}
	if len(totals.inputAddresses) != 1 || len(totals.outputAddresses) != 2 {
		return false
	}
	payer := totals.inputAddresses[0]
	return (totals.outputAddresses[0] == definer && totals.outputAddresses[1] == payer) ||
		(totals.outputAddresses[1] == definer && totals.outputAddresses[0] == payer)
}

// validateOutputs checks the outputs of a payment. Public outputs are
// sorted by address then amount. Private outputs hide their owner, except
// for the one open output the payee can see.
func (v *messageValidator) validateOutputs(payment *externalapi.Payment, asset *assetInfo,
	totals *paymentTotals) error {

	denomination := payment.DenominationOrDefault()
	isPrivate := asset != nil && asset.isPrivate()
	previousAddress := ""
	var previousAmount uint64
	openOutputs := 0
	for i, output := range payment.Outputs {
		if output.Amount == 0 {
			return errors.Wrapf(ruleerrors.ErrBadPayment, "output %d has no amount", i)
		}
		if asset != nil && asset.fixedDenominations() && output.Amount%denomination != 0 {
			return errors.Wrapf(ruleerrors.ErrBadPayment, "output %d is not a multiple of denomination %d",
				i, denomination)
		}

		if isPrivate {
			if (output.OutputHash != nil) != asset.fixedDenominations() {
				return errors.Wrapf(ruleerrors.ErrBadPayment,
					"output %d: output_hash must be present with fixed denominations only", i)
			}
			if !asset.fixedDenominations() && (output.Blinding == "" || output.Address == "") {
				return errors.Wrapf(ruleerrors.ErrBadPayment, "output %d has no blinding or address", i)
			}
			if output.Blinding != "" && len(output.Blinding) != blindingLength {
				return errors.Wrapf(ruleerrors.ErrBadPayment, "output %d has a bad blinding", i)
			}
			if (output.Blinding == "") != (output.Address == "") {
				return errors.Wrapf(ruleerrors.ErrBadPayment, "output %d: address and blinding come together", i)
			}
			if output.Address != "" {
				if !chash.IsValid(output.Address) {
					return errors.Wrapf(ruleerrors.ErrBadPayment, "output %d address %q is invalid", i, output.Address)
				}
				openOutputs++
			}
		} else {
			if output.Blinding != "" || output.OutputHash != nil {
				return errors.Wrapf(ruleerrors.ErrBadPayment, "public output %d has blinding or output_hash", i)
			}
			if !chash.IsValid(output.Address) {
				return errors.Wrapf(ruleerrors.ErrBadPayment, "output %d address %q is invalid", i, output.Address)
			}
			if output.Address < previousAddress ||
				(output.Address == previousAddress && output.Amount < previousAmount) {
				return errors.Wrapf(ruleerrors.ErrBadPayment, "outputs are not sorted")
			}
			previousAddress = output.Address
			previousAmount = output.Amount
		}

		if output.Address != "" {
			totals.outputAddresses = appendUnique(totals.outputAddresses, output.Address)
		}
		err := addAmount(&totals.output, output.Amount)
		if err != nil {
			return err
		}
	}
	if isPrivate && openOutputs != 1 {
		return errors.Wrapf(ruleerrors.ErrBadPayment, "found %d open outputs, expected 1", openOutputs)
	}
	return nil
}

const blindingLength = 16
