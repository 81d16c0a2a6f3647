package messagevalidator

import (
	"math"

	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/ruleerrors"
)

// validateIssue checks an input that creates coins. Only the genesis issues
// the base currency.
func (v *messageValidator) validateIssue(dbContext model.DBReader, unit *externalapi.DomainUnit,
	position model.InputPosition, input *externalapi.Input, payment *externalapi.Payment, asset *assetInfo,
	state *model.ValidationState, totals *paymentTotals) error {

	if position.InputIndex != 0 {
		return errors.Wrapf(ruleerrors.ErrInvalidIssue, "issue must come first")
	}
	if input.Unit != nil || input.MessageIndex != nil || input.OutputIndex != nil {
		return errors.Wrapf(ruleerrors.ErrBadPayment, "issue input refers to an output")
	}
	if input.Amount == 0 || input.SerialNumber == 0 {
		return errors.Wrapf(ruleerrors.ErrInvalidIssue, "amount and serial number must be positive")
	}
	if (asset == nil || asset.definition.Cap > 0) && input.SerialNumber != 1 {
		return errors.Wrapf(ruleerrors.ErrInvalidIssue, "serial number of a capped issue must be 1")
	}
	totals.isIssue = true

	address := input.Address
	if len(unit.Authors) == 1 {
		if address != "" {
			return errors.Wrapf(ruleerrors.ErrInvalidIssue, "single-authored issue names an address")
		}
		address = unit.Authors[0].Address
	} else if !unit.HasAuthor(address) {
		return errors.Wrapf(ruleerrors.ErrInvalidIssue, "issue address %q is not an author", address)
	}
	totals.inputAddresses = []string{address}

	var key model.SpendKey
	if asset == nil {
		if !v.params.IsGenesisUnit(unit.Hash) {
			return errors.Wrapf(ruleerrors.ErrInvalidIssue, "only the genesis issues the base currency")
		}
		if input.Amount != v.params.TotalWhitebytes {
			return errors.Wrapf(ruleerrors.ErrInvalidIssue, "genesis issues %d, expected %d",
				input.Amount, v.params.TotalWhitebytes)
		}
		key = model.IssueSpendKey(nil, 0, "", 1)
	} else {
		err := validateAssetIssueAmount(input, payment, asset)
		if err != nil {
			return err
		}
		var denomination uint64
		if asset.fixedDenominations() {
			denomination = payment.Denomination
		}
		keyAddress := ""
		if !asset.issuedByDefinerOnly() {
			keyAddress = address
		}
		key = model.IssueSpendKey(payment.Asset, denomination, keyAddress, input.SerialNumber)
	}

	err := addAmount(&totals.input, input.Amount)
	if err != nil {
		return err
	}
	if !state.UseInputKey(string(key)) {
		return errors.Wrapf(ruleerrors.ErrInputAlreadyUsed, "%s", key)
	}
	err = v.checkDoubleSpend(dbContext, unit, key, position, state)
	if err != nil {
		return err
	}
	state.AddInputSpend(key, position, address)
	return nil
}

func validateAssetIssueAmount(input *externalapi.Input, payment *externalapi.Payment, asset *assetInfo) error {
	if !asset.fixedDenominations() {
		if asset.definition.Cap > 0 && input.Amount != asset.definition.Cap {
			return errors.Wrapf(ruleerrors.ErrInvalidIssue, "issue of %d must equal the cap %d",
				input.Amount, asset.definition.Cap)
		}
		return nil
	}
	countCoins, found := asset.countCoins(payment.Denomination)
	if !found {
		return errors.Wrapf(ruleerrors.ErrInvalidIssue, "asset %s has no denomination %d",
			asset.hash, payment.Denomination)
	}
	if countCoins == nil {
		if input.Amount%payment.Denomination != 0 {
			return errors.Wrapf(ruleerrors.ErrInvalidIssue, "issue must be a multiple of denomination %d",
				payment.Denomination)
		}
		return nil
	}
	issueSize := payment.Denomination * *countCoins
	if input.Amount != issueSize {
		return errors.Wrapf(ruleerrors.ErrInvalidIssue, "wrong size of issue of denomination %d",
			payment.Denomination)
	}
	return nil
}

// validateCoinbase checks the claim of a witness to its reward for the
// previous round. A coinbase unit pays a fixed share to the foundation and
// the rest to one other output.
func (v *messageValidator) validateCoinbase(dbContext model.DBReader, unit *externalapi.DomainUnit,
	position model.InputPosition, input *externalapi.Input, payment *externalapi.Payment,
	state *model.ValidationState, totals *paymentTotals) error {

	if position.InputIndex != 0 {
		return errors.Wrapf(ruleerrors.ErrInvalidCoinbase, "coinbase must come first")
	}
	if input.Unit != nil || input.MessageIndex != nil || input.OutputIndex != nil || input.SerialNumber != 0 {
		return errors.Wrapf(ruleerrors.ErrBadPayment, "coinbase input has foreign fields")
	}
	if input.Amount == 0 {
		return errors.Wrapf(ruleerrors.ErrInvalidCoinbase, "amount must be positive")
	}
	if state.HasCoinbase {
		return errors.Wrapf(ruleerrors.ErrInvalidCoinbase, "more than one coinbase")
	}
	state.HasCoinbase = true
	if unit.PowType != externalapi.PowTypeCoinbase {
		return errors.Wrapf(ruleerrors.ErrInvalidCoinbase, "coinbase in a unit of type %s", unit.PowType)
	}
	if len(unit.Authors) != 1 {
		return errors.Wrapf(ruleerrors.ErrInvalidCoinbase, "coinbase must be single-authored")
	}
	address := unit.Authors[0].Address
	if input.Address != "" && input.Address != address {
		return errors.Wrapf(ruleerrors.ErrInvalidCoinbase, "coinbase address %s is not the author", input.Address)
	}
	if unit.RoundIndex <= 1 {
		return errors.Wrapf(ruleerrors.ErrInvalidCoinbase, "no coinbase in round %d", unit.RoundIndex)
	}
	previousRound := unit.RoundIndex - 1

	witnesses, err := v.roundService.WitnessesForRound(dbContext, previousRound)
	if err != nil {
		return err
	}
	isWitness := false
	for _, witness := range witnesses {
		if witness == address {
			isWitness = true
			break
		}
	}
	if !isWitness {
		return errors.Wrapf(ruleerrors.ErrInvalidCoinbase, "%s was not a witness of round %d", address, previousRound)
	}

	hasCoinbase, err := v.roundStore.HasPow(dbContext, externalapi.PowTypeCoinbase, unit.RoundIndex, address)
	if err != nil {
		return err
	}
	if hasCoinbase {
		return errors.Wrapf(ruleerrors.ErrInvalidCoinbase, "%s already claimed its coinbase in round %d",
			address, unit.RoundIndex)
	}

	commission, err := v.roundService.CoinbaseCommission(dbContext, previousRound, address)
	if err != nil {
		return err
	}
	if input.Amount != commission {
		return errors.Wrapf(ruleerrors.ErrInvalidCoinbase, "coinbase of %d, expected %d", input.Amount, commission)
	}
	if len(unit.Messages) != 1 {
		return errors.Wrapf(ruleerrors.ErrInvalidCoinbase, "a coinbase unit carries a single message")
	}
	if len(payment.Outputs) != 2 {
		return errors.Wrapf(ruleerrors.ErrInvalidCoinbase, "a coinbase has exactly two outputs")
	}
	var foundationOutputs []*externalapi.Output
	for _, output := range payment.Outputs {
		if output.Address == v.params.FoundationAddress {
			foundationOutputs = append(foundationOutputs, output)
		}
	}
	if len(foundationOutputs) != 1 {
		return errors.Wrapf(ruleerrors.ErrInvalidCoinbase, "a coinbase has exactly one foundation output")
	}
	foundationShare := uint64(math.Floor(float64(input.Amount) * v.params.FoundationRatio))
	if foundationOutputs[0].Amount != foundationShare {
		return errors.Wrapf(ruleerrors.ErrInvalidCoinbase, "foundation share is %d, expected %d",
			foundationOutputs[0].Amount, foundationShare)
	}

	key := model.CoinbaseSpendKey(unit.RoundIndex, address)
	if !state.UseInputKey(string(key)) {
		return errors.Wrapf(ruleerrors.ErrInputAlreadyUsed, "%s", key)
	}
	totals.inputAddresses = appendUnique(totals.inputAddresses, address)
	err = addAmount(&totals.input, input.Amount)
	if err != nil {
		return err
	}
	state.AddInputSpend(key, position, address)
	return nil
}

// validateTransfer checks an input spending an output. A public payment
// may only spend outputs before its last ball.
func (v *messageValidator) validateTransfer(dbContext model.DBReader, unit *externalapi.DomainUnit,
	position model.InputPosition, input *externalapi.Input, payment *externalapi.Payment, asset *assetInfo,
	state *model.ValidationState, totals *paymentTotals) error {

	if input.Amount != 0 || input.SerialNumber != 0 || input.Address != "" {
		return errors.Wrapf(ruleerrors.ErrBadPayment, "transfer input has foreign fields")
	}
	if input.Unit == nil || input.MessageIndex == nil || input.OutputIndex == nil {
		return errors.Wrapf(ruleerrors.ErrBadPayment, "transfer input doesn't locate an output")
	}

	key := model.TransferSpendKey(payment.Asset, input.Unit, *input.MessageIndex, *input.OutputIndex)
	if !state.UseInputKey(string(key)) {
		return errors.Wrapf(ruleerrors.ErrInputAlreadyUsed, "%s", key)
	}

	source, err := v.outputStore.Output(dbContext, input.Unit, *input.MessageIndex, *input.OutputIndex)
	if database.IsNotFoundError(err) {
		return errors.Wrapf(ruleerrors.ErrSourceOutputNotFound, "output %d of message %d of %s",
			*input.OutputIndex, *input.MessageIndex, input.Unit)
	}
	if err != nil {
		return err
	}
	if !source.Asset.Equal(payment.Asset) {
		return errors.Wrapf(ruleerrors.ErrAssetMismatch, "spending an output of asset %v", source.Asset)
	}

	isPrivate := asset != nil && asset.isPrivate()
	sourceProps, err := v.unitPropsStore.Get(dbContext, source.Unit)
	if err != nil {
		return err
	}
	if !isPrivate && !sourceProps.MCIAtMost(state.LastBallMCI) {
		return errors.Wrapf(ruleerrors.ErrSourceOutputNotStable, "source %s is not before the last ball", source.Unit)
	}
	if sourceProps.Sequence != externalapi.SequenceGood {
		return errors.Wrapf(ruleerrors.ErrSourceOutputNotSerial, "source %s is %s", source.Unit, sourceProps.Sequence)
	}

	owner := source.Address
	if !unit.HasAuthor(owner) {
		return errors.Wrapf(ruleerrors.ErrOutputOwnerNotAuthor, "owner %s", owner)
	}
	sourceDenomination := source.Denomination
	if sourceDenomination == 0 {
		sourceDenomination = 1
	}
	if payment.DenominationOrDefault() != sourceDenomination {
		return errors.Wrapf(ruleerrors.ErrDenominationMismatch, "spending denomination %d as %d",
			sourceDenomination, payment.DenominationOrDefault())
	}
	if asset != nil && asset.autoDestroy() && owner == asset.definerAddress {
		return errors.Wrapf(ruleerrors.ErrAssetRuleViolated, "output was destroyed by sending it to the definer")
	}
	if asset != nil && asset.spenderAttested() && !asset.isAttested(owner) {
		return errors.Wrapf(ruleerrors.ErrAssetRuleViolated, "owner %s is not attested", owner)
	}
	totals.inputAddresses = appendUnique(totals.inputAddresses, owner)
	err = addAmount(&totals.input, source.Amount)
	if err != nil {
		return err
	}

	if isPrivate {
		included, err := v.dagTraversalManager.IsIncluded(dbContext, source.Unit, []*externalapi.DomainHash{unit.Hash})
		if err != nil {
			return err
		}
		if !included {
			return errors.Wrapf(ruleerrors.ErrSourceOutputNotFound, "source %s is not included by %s",
				source.Unit, unit.Hash)
		}
	}

	err = v.checkDoubleSpend(dbContext, unit, key, position, state)
	if err != nil {
		return err
	}
	err = v.checkDepositSpend(dbContext, unit, owner)
	if err != nil {
		return err
	}
	state.AddInputSpend(key, position, owner)
	return nil
}

// checkDepositSpend restricts spending from the deposit address of a
// supernode. The deposit must be co-signed either by the supernode's safe
// address, once the supernode stopped mining long enough, or by the
// foundation safe address, once the supernode is known to have misbehaved.
func (v *messageValidator) checkDepositSpend(dbContext model.DBReader, unit *externalapi.DomainUnit,
	owner string) error {

	supernode, isDeposit, err := v.depositService.SupernodeOfDepositAddress(dbContext, owner)
	if err != nil {
		return err
	}
	if !isDeposit {
		return nil
	}
	if len(unit.Authors) != 2 {
		return errors.Wrapf(ruleerrors.ErrDepositSpend, "deposit %s must be spent together with a safe address", owner)
	}
	coAuthor := unit.Authors[0].Address
	if coAuthor == owner {
		coAuthor = unit.Authors[1].Address
	}

	hasInvalidUnits, err := v.depositService.HasInvalidUnitsFromHistory(dbContext, supernode.Address)
	if err != nil {
		return err
	}
	lastCoinbaseRound, err := v.roundStore.LastCoinbaseRound(dbContext, supernode.Address)
	if err != nil {
		return err
	}
	currentRound, err := v.roundService.CurrentRoundIndex(dbContext)
	if err != nil {
		return err
	}
	var roundsSinceCoinbase uint64
	if currentRound > lastCoinbaseRound {
		roundsSinceCoinbase = currentRound - lastCoinbaseRound
	}

	switch coAuthor {
	case v.params.FoundationSafeAddress:
		if !hasInvalidUnits {
			return errors.Wrapf(ruleerrors.ErrDepositSpend, "supernode %s has no invalid units", supernode.Address)
		}
		if lastCoinbaseRound == 0 {
			return errors.Wrapf(ruleerrors.ErrDepositSpend, "supernode %s never claimed a coinbase", supernode.Address)
		}
		if roundsSinceCoinbase < v.params.CountRoundsForFoundationDepositSpend {
			return errors.Wrapf(ruleerrors.ErrDepositSpend, "foundation may spend deposit %s from round %d",
				owner, lastCoinbaseRound+v.params.CountRoundsForFoundationDepositSpend)
		}
		return nil
	case supernode.SafeAddress:
		if lastCoinbaseRound == 0 {
			return nil
		}
		if hasInvalidUnits {
			return errors.Wrapf(ruleerrors.ErrDepositSpend, "supernode %s authored invalid units", supernode.Address)
		}
		if roundsSinceCoinbase < v.params.CountRoundsForDepositSpend {
			return errors.Wrapf(ruleerrors.ErrDepositSpend, "supernode may spend deposit %s from round %d",
				owner, lastCoinbaseRound+v.params.CountRoundsForDepositSpend)
		}
		return nil
	}
	return errors.Wrapf(ruleerrors.ErrDepositSpend, "%s may not spend deposit %s", coAuthor, owner)
}
