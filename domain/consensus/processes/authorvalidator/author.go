package authorvalidator

import (
	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/ruleerrors"
	"github.com/unitdag/unitd/domain/consensus/utils/chash"
)

// ValidateAuthor verifies the authentifiers of author over hashToSign
// against the definition the address has as of the last ball. Coordinators
// of a trustme unit are validated the same way over the proposal hash.
func (v *authorValidator) ValidateAuthor(dbContext model.DBReader, author *externalapi.Author,
	unit *externalapi.DomainUnit, state *model.ValidationState, hashToSign *externalapi.DomainHash) error {

	if len(author.Address) != chash.Length {
		return errors.Wrapf(ruleerrors.ErrWrongAddressLength, "address %s", author.Address)
	}
	if len(author.Authentifiers) == 0 && !unit.IsStripped() {
		return errors.Wrapf(ruleerrors.ErrNoAuthentifiers, "author %s", author.Address)
	}
	for path, authentifier := range author.Authentifiers {
		if authentifier == "" {
			return errors.Wrapf(ruleerrors.ErrBadAuthentifier, "empty authentifier at %s of %s", path, author.Address)
		}
		if len(authentifier) > v.params.MaxAuthentifierLength {
			return errors.Wrapf(ruleerrors.ErrBadAuthentifier, "authentifier at %s of %s is too long",
				path, author.Address)
		}
	}

	definition := author.Definition
	if len(definition) == 0 {
		if !chash.IsValid(author.Address) {
			return errors.Wrapf(ruleerrors.ErrInvalidAddressChecksum, "address %s", author.Address)
		}
		// Signatures of a stripped unit are gone
		if unit.IsStripped() {
			state.Downgrade(externalapi.SequenceFinalBad)
			return nil
		}
		storedDefinition, definitionChash, found, err := v.addressDefinitionManager.DefinitionAt(
			dbContext, author.Address, state.LastBallMCI)
		if err != nil {
			return err
		}
		if !found {
			return errors.Wrapf(ruleerrors.ErrDefinitionNotFound, "definition %s bound to address %s is not defined",
				definitionChash, author.Address)
		}
		definition = storedDefinition
	}

	ok, err := v.definitionEvaluator.ValidateAuthentifiers(dbContext, author.Address, definition, unit, state,
		author.Authentifiers, hashToSign)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(ruleerrors.ErrAuthentifierVerificationFailed, "author %s", author.Address)
	}

	err = v.checkNoPendingDefinitionChange(dbContext, author.Address, unit, state)
	if err != nil {
		return err
	}
	err = v.checkNoPendingDefinition(dbContext, author.Address, unit, state)
	if err != nil {
		return err
	}

	if len(author.Definition) > 0 {
		return v.validateRevealedDefinition(dbContext, author, state)
	}
	return nil
}

// checkNoPendingDefinitionChange rejects units that include a definition
// change of the address that isn't stable as of the last ball: the unit
// would be signed against a definition that may still change.
func (v *authorValidator) checkNoPendingDefinitionChange(dbContext model.DBReader, address string,
	unit *externalapi.DomainUnit, state *model.ValidationState) error {

	changes, err := v.definitionStore.Changes(dbContext, address)
	if err != nil {
		return err
	}
	for _, change := range changes {
		props, err := v.unitPropsStore.Get(dbContext, change.Unit)
		if err != nil {
			return err
		}
		if props.IsStable && props.MCIAtMost(state.LastBallMCI) {
			continue
		}
		included, err := v.dagTraversalManager.IsIncludedOrEqual(dbContext, change.Unit, unit.ParentUnits)
		if err != nil {
			return err
		}
		if included {
			return errors.Wrapf(ruleerrors.ErrPendingDefinitionChange, "definition change %s of %s is included "+
				"but not stable before the last ball", change.Unit, address)
		}
	}
	return nil
}

// checkNoPendingDefinition rejects units that include a unit revealing the
// definition of the address above the last ball
func (v *authorValidator) checkNoPendingDefinition(dbContext model.DBReader, address string,
	unit *externalapi.DomainUnit, state *model.ValidationState) error {

	revealers, err := v.definitionStore.RevealersOfAddress(dbContext, address)
	if err != nil {
		return err
	}
	for _, revealer := range revealers {
		props, err := v.unitPropsStore.Get(dbContext, revealer)
		if err != nil {
			return err
		}
		if props.MCIAtMost(state.LastBallMCI) {
			continue
		}
		included, err := v.dagTraversalManager.IsIncludedOrEqual(dbContext, revealer, unit.ParentUnits)
		if err != nil {
			return err
		}
		if included {
			return errors.Wrapf(ruleerrors.ErrPendingDefinition, "definition of %s revealed by %s is included "+
				"but not before the last ball", address, revealer)
		}
	}
	return nil
}

// validateRevealedDefinition checks an inline definition. On first use it
// must hash to the chash the address is bound to. If the definition is
// already known it must be the same one.
func (v *authorValidator) validateRevealedDefinition(dbContext model.DBReader, author *externalapi.Author,
	state *model.ValidationState) error {

	revealedChash, err := chash.FromDefinition(author.Definition)
	if err != nil {
		return errors.Wrapf(ruleerrors.ErrInvalidDefinition, "failed to hash the definition of %s: %s",
			author.Address, err)
	}
	storedDefinition, definitionChash, found, err := v.addressDefinitionManager.DefinitionAt(
		dbContext, author.Address, state.LastBallMCI)
	if err != nil {
		return err
	}
	if !found {
		if revealedChash != definitionChash {
			return errors.Wrapf(ruleerrors.ErrWrongDefinition, "definition of %s hashes to %s, expected %s",
				author.Address, revealedChash, definitionChash)
		}
		return nil
	}

	storedChash, err := chash.FromDefinition(storedDefinition)
	if err != nil {
		return err
	}
	if storedChash != revealedChash {
		return errors.Wrapf(ruleerrors.ErrDefinitionMismatch, "definition of %s differs from the stored one",
			author.Address)
	}
	return nil
}
