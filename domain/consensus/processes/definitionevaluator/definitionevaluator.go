// Package definitionevaluator implements the address definition language:
//
//	["sig", {"pubkey": "<base64 ed25519 key>"}]
//	["and", [<definition>, ...]]
//	["or", [<definition>, ...]]
//	["r of set", {"required": <n>, "set": [<definition>, ...]}]
//	["address", "<address>"]
//	["cosigned by", "<address>"]
//	["in data feed", [["<oracle>", ...], "<feed name>", "<op>", <value>]]
//	["has", {"what": "output", "asset": "<asset>", "address": "<address>", "amount_at_least": <n>, "amount_at_most": <n>}]
//
// The authentifier of a "sig" is looked up by its path: "r" for the root and
// "<parent path>.<index>" for the members of "and", "or" and "r of set". An
// "address" definition is evaluated in place of its parent, at the same path.
package definitionevaluator

import (
	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/ruleerrors"
	"github.com/unitdag/unitd/domain/consensus/utils/signing"
)

// maxDepth bounds the nesting of definitions, including the definitions
// reached through "address"
const maxDepth = 100

type definitionEvaluator struct {
	maxComplexity int

	addressDefinitionManager model.AddressDefinitionManager
	dataFeedStore            model.DataFeedStore
	unitPropsStore           model.UnitPropsStore
}

// New instantiates a new DefinitionEvaluator
func New(maxComplexity int,
	addressDefinitionManager model.AddressDefinitionManager,
	dataFeedStore model.DataFeedStore,
	unitPropsStore model.UnitPropsStore) model.DefinitionEvaluator {

	return &definitionEvaluator{
		maxComplexity:            maxComplexity,
		addressDefinitionManager: addressDefinitionManager,
		dataFeedStore:            dataFeedStore,
		unitPropsStore:           unitPropsStore,
	}
}

// ValidateDefinition checks the structure of definition. Signatures are
// not allowed in asset conditions.
func (de *definitionEvaluator) ValidateDefinition(_ model.DBReader, definition []interface{},
	_ *externalapi.DomainUnit, _ *model.ValidationState, isAssetCondition bool) error {

	complexity := 0
	return de.validate(definition, 0, &complexity, isAssetCondition)
}

// ValidateAuthentifiers evaluates definition for address against the given
// authentifiers. Every authentifier must be consumed by a satisfied "sig".
func (de *definitionEvaluator) ValidateAuthentifiers(dbContext model.DBReader, address string, definition []interface{},
	unit *externalapi.DomainUnit, state *model.ValidationState, authentifiers map[string]string,
	hashToSign *externalapi.DomainHash) (bool, error) {

	err := de.ValidateDefinition(dbContext, definition, unit, state, false)
	if err != nil {
		return false, err
	}

	evaluation := &evaluation{
		evaluator:     de,
		dbContext:     dbContext,
		unit:          unit,
		state:         state,
		address:       address,
		authentifiers: authentifiers,
		hashToSign:    hashToSign,
		usedPaths:     make(map[string]struct{}),
	}
	ok, err := evaluation.evaluate(definition, signing.DefaultPath, 0)
	if err != nil || !ok {
		return false, err
	}
	for path := range authentifiers {
		if _, ok := evaluation.usedPaths[path]; !ok {
			return false, nil
		}
	}
	return true, nil
}

// EvaluateAssetCondition evaluates an issue or transfer condition of asset
// against unit
func (de *definitionEvaluator) EvaluateAssetCondition(dbContext model.DBReader, asset *externalapi.DomainHash,
	condition []interface{}, unit *externalapi.DomainUnit, state *model.ValidationState) (bool, error) {

	err := de.ValidateDefinition(dbContext, condition, unit, state, true)
	if err != nil {
		return false, err
	}
	evaluation := &evaluation{
		evaluator: de,
		dbContext: dbContext,
		unit:      unit,
		state:     state,
		asset:     asset,
		usedPaths: make(map[string]struct{}),
	}
	return evaluation.evaluate(condition, signing.DefaultPath, 0)
}

func invalidDefinition(format string, args ...interface{}) error {
	return errors.Wrapf(ruleerrors.ErrInvalidDefinition, format, args...)
}
