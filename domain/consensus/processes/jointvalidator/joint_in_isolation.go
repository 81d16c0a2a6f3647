package jointvalidator

import (
	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/ruleerrors"
	"github.com/unitdag/unitd/domain/consensus/utils/consensushashing"
	"github.com/unitdag/unitd/domain/consensus/utils/objectlength"
)

// ValidateJointInIsolation validates a joint without looking at the DAG.
// Until the unit hash is verified every failure is a joint error: nothing
// can be blamed on the unit before its identity is known.
func (v *jointValidator) ValidateJointInIsolation(joint *externalapi.DomainJoint) error {
	unit := joint.Unit
	if unit == nil || unit.Hash == nil {
		return errors.Wrapf(ruleerrors.ErrUnexpectedJointFields, "joint has no unit")
	}

	err := checkUnitHash(unit)
	if err != nil {
		return err
	}

	err = checkJointFields(joint)
	if err != nil {
		return err
	}

	err = v.checkRound(unit)
	if err != nil {
		return err
	}

	if unit.IsStripped() {
		err = checkStrippedUnit(unit)
	} else {
		err = v.checkMessagesAndCommissions(unit)
	}
	if err != nil {
		return err
	}

	err = v.checkHeader(unit)
	if err != nil {
		return err
	}

	if unit.Timestamp < 0 {
		return errors.Wrapf(ruleerrors.ErrBadTimestamp, "negative timestamp %d", unit.Timestamp)
	}
	return nil
}

func checkUnitHash(unit *externalapi.DomainUnit) error {
	expectedHash, err := consensushashing.UnitHash(unit)
	if err != nil {
		return errors.Wrapf(ruleerrors.ErrWrongUnitHash, "failed to hash unit: %s", err)
	}
	if !expectedHash.Equal(unit.Hash) {
		return errors.Wrapf(ruleerrors.ErrWrongUnitHash, "wrong unit hash: %s != %s", expectedHash, unit.Hash)
	}
	return nil
}

// checkJointFields checks the fields allowed by the finality state of the
// joint: an unsigned joint has neither ball nor skiplist, and a skiplist
// comes only with a ball
func checkJointFields(joint *externalapi.DomainJoint) error {
	if joint.Unsigned && joint.IsStable() {
		return errors.Wrapf(ruleerrors.ErrUnexpectedJointFields, "unsigned joint with a ball")
	}
	if joint.SkiplistUnits != nil {
		if !joint.IsStable() {
			return errors.Wrapf(ruleerrors.ErrUnexpectedJointFields, "skiplist without a ball")
		}
		if len(joint.SkiplistUnits) == 0 {
			return errors.WithStack(ruleerrors.ErrEmptySkiplist)
		}
	}
	if joint.Unit.IsStripped() && !joint.IsStable() {
		return errors.Wrapf(ruleerrors.ErrContentHashWithoutBall, "unit %s", joint.Unit.Hash)
	}
	return nil
}

func (v *jointValidator) checkRound(unit *externalapi.DomainUnit) error {
	if unit.PowType == externalapi.PowTypeNone {
		return nil
	}
	if unit.PowType > externalapi.PowTypeCoinbase {
		return errors.Wrapf(ruleerrors.ErrInvalidPowType, "pow type %d", unit.PowType)
	}
	if unit.RoundIndex == 0 {
		return errors.Wrapf(ruleerrors.ErrMissingRoundIndex, "%s unit has no round index", unit.PowType)
	}
	if unit.RoundIndex > v.params.MaxRoundIndex {
		return errors.Wrapf(ruleerrors.ErrInvalidRoundIndex, "round index %d is above %d",
			unit.RoundIndex, v.params.MaxRoundIndex)
	}
	return nil
}

// checkStrippedUnit checks that a unit whose content was replaced by its
// content hash carries nothing but its header
func checkStrippedUnit(unit *externalapi.DomainUnit) error {
	if len(unit.Messages) > 0 || len(unit.Coordinators) > 0 ||
		unit.HeadersCommission != 0 || unit.PayloadCommission != 0 {
		return errors.Wrapf(ruleerrors.ErrUnexpectedNonserialData, "stripped unit %s has content", unit.Hash)
	}
	return nil
}

func (v *jointValidator) checkMessagesAndCommissions(unit *externalapi.DomainUnit) error {
	if len(unit.Messages) == 0 {
		return errors.WithStack(ruleerrors.ErrMissingMessages)
	}
	if len(unit.Messages) > v.params.MaxMessagesPerUnit {
		return errors.Wrapf(ruleerrors.ErrTooManyMessages, "unit has %d messages, the maximum is %d",
			len(unit.Messages), v.params.MaxMessagesPerUnit)
	}

	if unit.PowType == externalapi.PowTypeTrustme {
		return nil
	}
	if len(unit.Coordinators) > 0 || unit.HP != 0 || unit.Phase != 0 {
		return errors.Wrapf(ruleerrors.ErrUnexpectedCoordinators, "%s unit carries proposal fields", unit.PowType)
	}
	headersSize, err := objectlength.HeadersSize(unit)
	if err != nil {
		return err
	}
	if headersSize != unit.HeadersCommission {
		return errors.Wrapf(ruleerrors.ErrWrongHeadersCommission, "headers commission is %d, expected %d",
			unit.HeadersCommission, headersSize)
	}
	payloadSize, err := objectlength.PayloadSize(unit)
	if err != nil {
		return err
	}
	if payloadSize != unit.PayloadCommission {
		return errors.Wrapf(ruleerrors.ErrWrongPayloadCommission, "payload commission is %d, expected %d",
			unit.PayloadCommission, payloadSize)
	}
	return nil
}

func (v *jointValidator) checkHeader(unit *externalapi.DomainUnit) error {
	if len(unit.Authors) == 0 {
		return errors.WithStack(ruleerrors.ErrMissingAuthors)
	}
	if unit.Version != v.params.Version {
		return errors.Wrapf(ruleerrors.ErrWrongVersion, "version %s, expected %s", unit.Version, v.params.Version)
	}
	if unit.Alt != v.params.Alt {
		return errors.Wrapf(ruleerrors.ErrWrongAlt, "alt %s, expected %s", unit.Alt, v.params.Alt)
	}
	if v.params.IsGenesisUnit(unit.Hash) {
		return nil
	}
	if len(unit.ParentUnits) == 0 {
		return errors.WithStack(ruleerrors.ErrMissingParentUnits)
	}
	if unit.LastBall == nil || unit.LastBallUnit == nil {
		return errors.WithStack(ruleerrors.ErrMissingLastBall)
	}
	return nil
}
