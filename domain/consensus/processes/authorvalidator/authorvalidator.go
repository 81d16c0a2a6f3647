package authorvalidator

import (
	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/ruleerrors"
	"github.com/unitdag/unitd/domain/consensus/utils/consensushashing"
	"github.com/unitdag/unitd/domain/dagconfig"
)

// authorValidator resolves the definitions of the authors of a unit and
// verifies their authentifiers
type authorValidator struct {
	params *dagconfig.Params

	definitionEvaluator      model.DefinitionEvaluator
	roundService             model.RoundService
	addressDefinitionManager model.AddressDefinitionManager
	dagTraversalManager      model.DAGTraversalManager

	unitStore       model.UnitStore
	unitPropsStore  model.UnitPropsStore
	definitionStore model.DefinitionStore
	mainChainStore  model.MainChainStore
}

// New instantiates a new AuthorValidator
func New(params *dagconfig.Params,
	definitionEvaluator model.DefinitionEvaluator,
	roundService model.RoundService,
	addressDefinitionManager model.AddressDefinitionManager,
	dagTraversalManager model.DAGTraversalManager,
	unitStore model.UnitStore,
	unitPropsStore model.UnitPropsStore,
	definitionStore model.DefinitionStore,
	mainChainStore model.MainChainStore) model.AuthorValidator {

	return &authorValidator{
		params:                   params,
		definitionEvaluator:      definitionEvaluator,
		roundService:             roundService,
		addressDefinitionManager: addressDefinitionManager,
		dagTraversalManager:      dagTraversalManager,
		unitStore:                unitStore,
		unitPropsStore:           unitPropsStore,
		definitionStore:          definitionStore,
		mainChainStore:           mainChainStore,
	}
}

// ValidateAuthors checks the author list of unit and every author in it.
// The authors of a trustme unit must be the elected proposer, or the
// genesis authors when the committee recovers.
func (v *authorValidator) ValidateAuthors(dbContext model.DBReader, unit *externalapi.DomainUnit,
	state *model.ValidationState) error {

	if len(unit.Authors) > v.params.MaxAuthorsPerUnit {
		return errors.Wrapf(ruleerrors.ErrTooManyAuthors, "unit has %d authors, the maximum is %d",
			len(unit.Authors), v.params.MaxAuthorsPerUnit)
	}
	previousAddress := ""
	for _, author := range unit.Authors {
		if author.Address <= previousAddress {
			return errors.WithStack(ruleerrors.ErrAuthorsNotSorted)
		}
		previousAddress = author.Address
	}

	hashToSign, err := consensushashing.UnitHashToSign(unit)
	if err != nil {
		return err
	}
	state.UnitHashToSign = hashToSign

	if unit.PowType == externalapi.PowTypeTrustme {
		err = v.validateTrustmeAuthors(dbContext, unit, state)
		if err != nil {
			return err
		}
	}

	for _, author := range unit.Authors {
		err = v.ValidateAuthor(dbContext, author, unit, state, hashToSign)
		if err != nil {
			return err
		}
	}
	return nil
}
