package messagevalidator

import (
	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/ruleerrors"
	"github.com/unitdag/unitd/domain/consensus/utils/chash"
)

// assetInfo is an asset as seen from a last ball, together with which
// authors of the validated unit are attested for it
type assetInfo struct {
	hash              *externalapi.DomainHash
	definerAddress    string
	definition        *externalapi.AssetDefinition
	attestedAddresses map[string]struct{}
}

func isSet(flag *bool) bool {
	return flag != nil && *flag
}

func (info *assetInfo) isPrivate() bool           { return isSet(info.definition.IsPrivate) }
func (info *assetInfo) isTransferrable() bool     { return isSet(info.definition.IsTransferrable) }
func (info *assetInfo) autoDestroy() bool         { return isSet(info.definition.AutoDestroy) }
func (info *assetInfo) fixedDenominations() bool  { return isSet(info.definition.FixedDenominations) }
func (info *assetInfo) issuedByDefinerOnly() bool { return isSet(info.definition.IssuedByDefinerOnly) }
func (info *assetInfo) cosignedByDefiner() bool   { return isSet(info.definition.CosignedByDefiner) }
func (info *assetInfo) spenderAttested() bool     { return isSet(info.definition.SpenderAttested) }

func (info *assetInfo) isAttested(address string) bool {
	_, ok := info.attestedAddresses[address]
	return ok
}

func (info *assetInfo) countCoins(denomination uint64) (countCoins *uint64, found bool) {
	for _, denominationInfo := range info.definition.Denominations {
		if denominationInfo.Denomination == denomination {
			return denominationInfo.CountCoins, true
		}
	}
	return nil, false
}

func (v *messageValidator) validateAssetDefinition(dbContext model.DBReader, unit *externalapi.DomainUnit,
	payload []byte, state *model.ValidationState) error {

	if state.HasAssetDefinition {
		return errors.Wrapf(ruleerrors.ErrDuplicateApp, "more than one asset definition")
	}
	state.HasAssetDefinition = true

	if len(unit.Authors) != 1 {
		return errors.Wrapf(ruleerrors.ErrInvalidAsset, "asset definition must be single-authored")
	}
	definition := &externalapi.AssetDefinition{}
	err := decodePayload(payload, definition)
	if err != nil {
		return err
	}
	flags := []*bool{definition.IsPrivate, definition.IsTransferrable, definition.AutoDestroy,
		definition.FixedDenominations, definition.IssuedByDefinerOnly, definition.CosignedByDefiner,
		definition.SpenderAttested}
	for _, flag := range flags {
		if flag == nil {
			return errors.Wrapf(ruleerrors.ErrInvalidAsset, "some required flags are missing")
		}
	}
	if definition.Cap > v.params.MaxCap {
		return errors.Wrapf(ruleerrors.ErrInvalidAsset, "cap %d is above %d", definition.Cap, v.params.MaxCap)
	}

	if *definition.SpenderAttested {
		err = v.checkAttestorList(definition.Attestors)
		if err != nil {
			return err
		}
	}

	err = v.validateDenominations(definition)
	if err != nil {
		return err
	}

	isPrivate := *definition.IsPrivate
	isTransferrable := *definition.IsTransferrable
	fixedDenominations := *definition.FixedDenominations
	if isPrivate && isTransferrable && !fixedDenominations {
		return errors.Wrapf(ruleerrors.ErrInvalidAsset, "a private transferrable asset must have fixed denominations")
	}
	if isPrivate && !fixedDenominations && !(*definition.AutoDestroy && !isTransferrable) {
		return errors.Wrapf(ruleerrors.ErrInvalidAsset,
			"a private divisible asset must be auto-destroy and non-transferrable")
	}
	if definition.Cap > 0 && !*definition.IssuedByDefinerOnly {
		return errors.Wrapf(ruleerrors.ErrInvalidAsset, "a capped asset must be issued by its definer only")
	}
	state.DefiningPrivateAsset = isPrivate

	for _, condition := range [][]interface{}{definition.IssueCondition, definition.TransferCondition} {
		if condition == nil {
			continue
		}
		err = v.definitionEvaluator.ValidateDefinition(dbContext, condition, unit, state, true)
		if err != nil {
			return err
		}
	}
	return nil
}

// validateDenominations checks that denominations are sorted and either all
// capped, summing to the cap, or all uncapped
func (v *messageValidator) validateDenominations(definition *externalapi.AssetDefinition) error {
	if *definition.FixedDenominations && len(definition.Denominations) == 0 {
		return errors.Wrapf(ruleerrors.ErrInvalidAsset, "denominations not defined")
	}
	if len(definition.Denominations) == 0 {
		return nil
	}
	if len(definition.Denominations) > v.params.MaxDenominationsPerAssetDefinition {
		return errors.Wrapf(ruleerrors.ErrInvalidAsset, "%d denominations, the maximum is %d",
			len(definition.Denominations), v.params.MaxDenominationsPerAssetDefinition)
	}

	var totalCap uint64
	hasUncapped := false
	var previous uint64
	for _, denomination := range definition.Denominations {
		if denomination.Denomination <= previous {
			return errors.Wrapf(ruleerrors.ErrInvalidAsset, "denominations are not sorted")
		}
		previous = denomination.Denomination
		if denomination.CountCoins == nil {
			hasUncapped = true
			continue
		}
		if *denomination.CountCoins == 0 {
			return errors.Wrapf(ruleerrors.ErrInvalidAsset, "zero count_coins of denomination %d",
				denomination.Denomination)
		}
		totalCap += *denomination.CountCoins * denomination.Denomination
	}

	switch {
	case hasUncapped && totalCap > 0:
		return errors.Wrapf(ruleerrors.ErrInvalidAsset, "some denominations are capped, some uncapped")
	case hasUncapped && definition.Cap > 0:
		return errors.Wrapf(ruleerrors.ErrInvalidAsset, "capped asset with uncapped denominations")
	case totalCap > 0 && totalCap != definition.Cap:
		return errors.Wrapf(ruleerrors.ErrInvalidAsset, "cap %d doesn't match the denominations total %d",
			definition.Cap, totalCap)
	}
	return nil
}

func (v *messageValidator) checkAttestorList(attestors []string) error {
	if len(attestors) == 0 {
		return errors.Wrapf(ruleerrors.ErrInvalidAttestorList, "attestors not defined")
	}
	if len(attestors) > v.params.MaxAttestorsPerAsset {
		return errors.Wrapf(ruleerrors.ErrInvalidAttestorList, "%d attestors, the maximum is %d",
			len(attestors), v.params.MaxAttestorsPerAsset)
	}
	previous := ""
	for _, attestor := range attestors {
		if attestor <= previous {
			return errors.Wrapf(ruleerrors.ErrInvalidAttestorList, "attestors are not sorted")
		}
		if !chash.IsValid(attestor) {
			return errors.Wrapf(ruleerrors.ErrInvalidAttestorList, "invalid attestor %q", attestor)
		}
		previous = attestor
	}
	return nil
}

// validateAssetAttestors lets the definer of a spender-attested asset
// replace its attestor list
func (v *messageValidator) validateAssetAttestors(dbContext model.DBReader, unit *externalapi.DomainUnit,
	payload []byte, state *model.ValidationState) error {

	if len(unit.Authors) != 1 {
		return errors.Wrapf(ruleerrors.ErrInvalidAttestorList, "attestor list must be single-authored")
	}
	attestors := &externalapi.AssetAttestors{}
	err := decodePayload(payload, attestors)
	if err != nil {
		return err
	}
	if attestors.Asset == nil {
		return errors.Wrapf(ruleerrors.ErrBadPayload, "attestor list without asset")
	}
	if _, ok := state.AssetAttestorsFlags[*attestors.Asset]; ok {
		return errors.Wrapf(ruleerrors.ErrDuplicateApp, "more than one attestor list of asset %s", attestors.Asset)
	}
	state.AssetAttestorsFlags[*attestors.Asset] = struct{}{}

	asset, err := v.loadAsset(dbContext, attestors.Asset, state.LastBallMCI, nil)
	if err != nil {
		return err
	}
	if !asset.spenderAttested() {
		return errors.Wrapf(ruleerrors.ErrInvalidAttestorList, "asset %s does not require attestors", asset.hash)
	}
	if unit.Authors[0].Address != asset.definerAddress {
		return errors.Wrapf(ruleerrors.ErrInvalidAttestorList, "only the definer may edit the attestors of %s",
			asset.hash)
	}
	return v.checkAttestorList(attestors.Attestors)
}

// loadAsset reads an asset defined before lastBallMCI. When the asset
// requires attested spenders, the authors attested by its latest attestor
// list as of lastBallMCI are collected.
func (v *messageValidator) loadAsset(dbContext model.DBReader, assetHash *externalapi.DomainHash,
	lastBallMCI uint64, authors []string) (*assetInfo, error) {

	record, err := v.assetStore.Asset(dbContext, assetHash)
	if database.IsNotFoundError(err) {
		return nil, errors.Wrapf(ruleerrors.ErrAssetNotFound, "asset %s", assetHash)
	}
	if err != nil {
		return nil, err
	}
	props, err := v.unitPropsStore.Get(dbContext, assetHash)
	if err != nil {
		return nil, err
	}
	if !props.MCIAtMost(lastBallMCI) {
		return nil, errors.Wrapf(ruleerrors.ErrAssetNotFound, "asset %s is defined after the last ball", assetHash)
	}
	if props.Sequence != externalapi.SequenceGood {
		return nil, errors.Wrapf(ruleerrors.ErrAssetNotFound, "asset definition %s is %s", assetHash, props.Sequence)
	}

	info := &assetInfo{
		hash:              assetHash,
		definerAddress:    record.DefinerAddress,
		definition:        record.Definition,
		attestedAddresses: make(map[string]struct{}),
	}
	if !info.spenderAttested() || len(authors) == 0 {
		return info, nil
	}

	attestors, err := v.latestAttestors(dbContext, info, lastBallMCI)
	if err != nil {
		return nil, err
	}
	for _, author := range authors {
		for _, attestor := range attestors {
			attested, err := v.isAttestedBy(dbContext, author, attestor, lastBallMCI)
			if err != nil {
				return nil, err
			}
			if attested {
				info.attestedAddresses[author] = struct{}{}
				break
			}
		}
	}
	return info, nil
}

func (v *messageValidator) latestAttestors(dbContext model.DBReader, info *assetInfo,
	lastBallMCI uint64) ([]string, error) {

	records, err := v.assetStore.Attestors(dbContext, info.hash)
	if err != nil {
		return nil, err
	}
	latest := info.definition.Attestors
	var latestMCI uint64
	for _, record := range records {
		props, err := v.unitPropsStore.Get(dbContext, record.Unit)
		if err != nil {
			return nil, err
		}
		if !props.MCIAtMost(lastBallMCI) || props.Sequence != externalapi.SequenceGood {
			continue
		}
		if props.MainChainIndex >= latestMCI {
			latest = record.Attestors
			latestMCI = props.MainChainIndex
		}
	}
	return latest, nil
}

func (v *messageValidator) isAttestedBy(dbContext model.DBReader, address string, attestor string,
	lastBallMCI uint64) (bool, error) {

	attestations, err := v.assetStore.Attestations(dbContext, attestor, address)
	if err != nil {
		return false, err
	}
	for _, attestation := range attestations {
		props, err := v.unitPropsStore.Get(dbContext, attestation.Unit)
		if err != nil {
			return false, err
		}
		if props.MCIAtMost(lastBallMCI) && props.Sequence == externalapi.SequenceGood {
			return true, nil
		}
	}
	return false, nil
}
