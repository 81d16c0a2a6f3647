package authorvalidator

import (
	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/ruleerrors"
	"github.com/unitdag/unitd/domain/consensus/utils/serialization"
)

// validateTrustmeAuthors checks who may author a trustme unit and when. A
// regular trustme unit is authored by the proposer of (hp, phase) and
// follows the previous one within the timestamp tolerance. A recovery unit
// is authored by all the genesis authors, and only after the committee has
// been silent for longer than the tolerance.
func (v *authorValidator) validateTrustmeAuthors(dbContext model.DBReader, unit *externalapi.DomainUnit,
	state *model.ValidationState) error {

	timestamp, err := TrustmeTimestamp(unit)
	if err != nil {
		return err
	}
	lastTimestamp, err := v.lastTrustmeTimestamp(dbContext)
	if err != nil {
		return err
	}
	state.LastMCTimestamp = lastTimestamp

	diff := timestamp - lastTimestamp
	if diff < 0 {
		diff = -diff
	}

	proposer, roundIndex, _, err := v.roundService.CoordinatorsForProposal(dbContext, unit.HP, unit.Phase)
	if err != nil {
		return err
	}

	switch {
	case len(unit.Authors) == 1:
		if lastTimestamp > 0 && diff > v.params.TrustmeTimestampTolerance {
			return errors.Wrapf(ruleerrors.ErrTrustmeTimestamp, "%d seconds passed since the last trustme unit, "+
				"the tolerance is %d", diff, v.params.TrustmeTimestampTolerance)
		}
		if unit.Authors[0].Address != proposer {
			return errors.Wrapf(ruleerrors.ErrWrongProposer, "expected proposer %s, got %s",
				proposer, unit.Authors[0].Address)
		}

	case v.params.IsRecoveryUnit(unit):
		if lastTimestamp > 0 && diff < v.params.TrustmeTimestampTolerance {
			return errors.Wrapf(ruleerrors.ErrTrustmeTimestamp, "a recovery unit came %d seconds after the last "+
				"trustme unit, sooner than %d", diff, v.params.TrustmeTimestampTolerance)
		}

	case len(unit.Authors) == len(v.params.GenesisAuthors):
		return errors.Wrapf(ruleerrors.ErrWrongRecoveryAuthors, "recovery unit %s is not authored by the genesis authors",
			unit.Hash)

	default:
		return errors.Wrapf(ruleerrors.ErrTrustmeAuthorCount, "trustme unit has %d authors", len(unit.Authors))
	}

	if roundIndex != unit.RoundIndex {
		return errors.Wrapf(ruleerrors.ErrWrongProposalRound, "proposal of hp %d is in round %d, the unit says %d",
			unit.HP, roundIndex, unit.RoundIndex)
	}
	return nil
}

// lastTrustmeTimestamp returns the timestamp carried by the trustme unit of
// the last stable main chain index, or 0 if that unit is the genesis
func (v *authorValidator) lastTrustmeTimestamp(dbContext model.DBReader) (int64, error) {
	lastStableMCI, err := v.mainChainStore.LastStableMCI(dbContext)
	if database.IsNotFoundError(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	lastUnitHash, err := v.mainChainStore.MainChainUnit(dbContext, lastStableMCI)
	if err != nil {
		return 0, err
	}
	lastUnit, err := v.unitStore.Unit(dbContext, lastUnitHash)
	if err != nil {
		return 0, err
	}
	if lastUnit.PowType != externalapi.PowTypeTrustme {
		return 0, nil
	}
	return TrustmeTimestamp(lastUnit)
}

// TrustmeTimestamp returns the timestamp of the trustme message a trustme
// unit carries first
func TrustmeTimestamp(unit *externalapi.DomainUnit) (int64, error) {
	if len(unit.Messages) == 0 || unit.Messages[0].App != externalapi.AppTrustme {
		return 0, errors.Wrapf(ruleerrors.ErrInvalidTrustme, "unit %s doesn't start with a trustme message", unit.Hash)
	}
	trustme := &externalapi.Trustme{}
	err := serialization.Unmarshal(unit.Messages[0].Payload, trustme)
	if err != nil {
		return 0, errors.Wrapf(ruleerrors.ErrInvalidTrustme, "bad trustme payload: %s", err)
	}
	return trustme.Timestamp, nil
}
