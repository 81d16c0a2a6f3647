package messagevalidator

import (
	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/ruleerrors"
)

// validatePowEquihash checks the proof of work a supernode posts to take
// part in a round. The supernode must have a funded deposit and a clean
// history, and may post one proof per round.
func (v *messageValidator) validatePowEquihash(dbContext model.DBReader, unit *externalapi.DomainUnit,
	payload []byte, state *model.ValidationState) error {

	if state.HasPowEquihash {
		return errors.Wrapf(ruleerrors.ErrDuplicateApp, "more than one %s", externalapi.AppPowEquihash)
	}
	state.HasPowEquihash = true

	pow := &externalapi.PowEquihash{}
	err := decodePayload(payload, pow)
	if err != nil {
		return err
	}
	if unit.PowType != externalapi.PowTypeEquihash {
		return errors.Wrapf(ruleerrors.ErrInvalidPoW, "proof of work in a unit of type %s", unit.PowType)
	}
	if len(unit.Authors) != 1 {
		return errors.Wrapf(ruleerrors.ErrInvalidPoW, "proof of work must be single-authored")
	}
	address := unit.Authors[0].Address

	hasInvalidUnits, err := v.depositService.HasInvalidUnitsFromHistory(dbContext, address)
	if err != nil {
		return err
	}
	if hasInvalidUnits {
		return errors.Wrapf(ruleerrors.ErrInvalidPoW, "supernode %s authored invalid units", address)
	}

	depositAddress, isSupernode, err := v.depositService.DepositAddressOfSupernode(dbContext, address)
	if err != nil {
		return err
	}
	if !isSupernode {
		return errors.Wrapf(ruleerrors.ErrInvalidPoW, "%s is not a supernode", address)
	}
	if pow.Deposit != depositAddress {
		return errors.Wrapf(ruleerrors.ErrInvalidPoW, "deposit %s, expected %s", pow.Deposit, depositAddress)
	}
	balance, err := v.depositService.DepositBalance(dbContext, depositAddress)
	if err != nil {
		return err
	}
	if balance == 0 {
		return errors.Wrapf(ruleerrors.ErrInvalidPoW, "deposit %s is empty", depositAddress)
	}

	hasPow, err := v.roundStore.HasPow(dbContext, externalapi.PowTypeEquihash, unit.RoundIndex, address)
	if err != nil {
		return err
	}
	if hasPow {
		return errors.Wrapf(ruleerrors.ErrInvalidPoW, "%s already posted a proof of work in round %d",
			address, unit.RoundIndex)
	}

	valid, err := v.roundService.CheckProofOfWork(dbContext, unit.RoundIndex, address, pow)
	if err != nil {
		return err
	}
	if !valid {
		return errors.Wrapf(ruleerrors.ErrInvalidPoW, "wrong proof of work for round %d", unit.RoundIndex)
	}
	return nil
}
