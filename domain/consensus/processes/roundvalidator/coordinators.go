package roundvalidator

import (
	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/ruleerrors"
	"github.com/unitdag/unitd/domain/consensus/utils/consensushashing"
)

// ValidateCoordinators checks that a trustme unit proposes the next main
// chain index and that at least 2f+1 witnesses of its round signed the
// proposal. Recovery units carry no coordinators. Other units are not
// checked.
func (v *roundValidator) ValidateCoordinators(dbContext model.DBReader, unit *externalapi.DomainUnit,
	state *model.ValidationState) error {

	if unit.PowType != externalapi.PowTypeTrustme {
		return nil
	}
	if v.params.IsRecoveryUnit(unit) {
		return nil
	}

	lastStableMCI, err := v.mainChainStore.LastStableMCI(dbContext)
	if err != nil {
		return err
	}
	_, err = v.mainChainStore.MainChainUnit(dbContext, unit.HP)
	if err == nil {
		return errors.Wrapf(ruleerrors.ErrDuplicateTrustmeMCI, "mci %d already has a trustme unit", unit.HP)
	}
	if !database.IsNotFoundError(err) {
		return err
	}
	if unit.HP != lastStableMCI+1 {
		return errors.Wrapf(ruleerrors.ErrUnexpectedHP, "hp %d, the next main chain index is %d",
			unit.HP, lastStableMCI+1)
	}

	if len(unit.Coordinators) < v.params.MinCoordinators() {
		return errors.Wrapf(ruleerrors.ErrNotEnoughCoordinators, "%d coordinators, at least %d are needed",
			len(unit.Coordinators), v.params.MinCoordinators())
	}
	if len(unit.Coordinators) > v.params.TotalCoordinators {
		return errors.Wrapf(ruleerrors.ErrTooManyCoordinators, "%d coordinators, at most %d are allowed",
			len(unit.Coordinators), v.params.TotalCoordinators)
	}
	previousAddress := ""
	for _, coordinator := range unit.Coordinators {
		if coordinator.Address <= previousAddress {
			return errors.WithStack(ruleerrors.ErrCoordinatorsNotSorted)
		}
		previousAddress = coordinator.Address
	}

	witnesses, err := v.roundService.WitnessesForRound(dbContext, unit.RoundIndex)
	if err != nil {
		return err
	}
	isWitness := make(map[string]struct{}, len(witnesses))
	for _, witness := range witnesses {
		isWitness[witness] = struct{}{}
	}

	proposalHash, err := consensushashing.ProposalHashToSign(unit)
	if err != nil {
		return err
	}
	state.ProposalHash = proposalHash
	for _, coordinator := range unit.Coordinators {
		if _, ok := isWitness[coordinator.Address]; !ok {
			return errors.Wrapf(ruleerrors.ErrCoordinatorNotWitness, "coordinator %s is not a witness of round %d",
				coordinator.Address, unit.RoundIndex)
		}
		err = v.authorValidator.ValidateAuthor(dbContext, coordinator, unit, state, proposalHash)
		if err != nil {
			return err
		}
	}
	return nil
}
