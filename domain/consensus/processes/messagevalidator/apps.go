package messagevalidator

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/ruleerrors"
	"github.com/unitdag/unitd/domain/consensus/utils/chash"
	"github.com/unitdag/unitd/domain/consensus/utils/serialization"
)

func decodeGeneric(payload []byte) (interface{}, error) {
	generic, err := serialization.GenericFromJSON(payload)
	if err != nil {
		return nil, errors.Wrapf(ruleerrors.ErrBadPayload, "%s", err)
	}
	return generic, nil
}

func validateText(payload []byte) error {
	generic, err := decodeGeneric(payload)
	if err != nil {
		return err
	}
	if _, ok := generic.(string); !ok {
		return errors.Wrapf(ruleerrors.ErrBadPayload, "text must be a string")
	}
	return nil
}

func validateData(payload []byte) error {
	generic, err := decodeGeneric(payload)
	if err != nil {
		return err
	}
	if _, ok := generic.(map[string]interface{}); !ok {
		return errors.Wrapf(ruleerrors.ErrBadPayload, "data must be an object")
	}
	return nil
}

func validateProfile(unit *externalapi.DomainUnit, payload []byte, state *model.ValidationState) error {
	if len(unit.Authors) != 1 {
		return errors.Wrapf(ruleerrors.ErrBadPayload, "profile must be single-authored")
	}
	if state.HasProfile {
		return errors.Wrapf(ruleerrors.ErrDuplicateApp, "more than one profile")
	}
	state.HasProfile = true
	return validateData(payload)
}

// validateDataFeed accepts string values and integers. Fractional numbers
// are rejected: they have no exact comparison.
func (v *messageValidator) validateDataFeed(payload []byte, state *model.ValidationState) error {
	if state.HasDataFeed {
		return errors.Wrapf(ruleerrors.ErrDuplicateApp, "more than one data feed")
	}
	state.HasDataFeed = true

	generic, err := decodeGeneric(payload)
	if err != nil {
		return err
	}
	feeds, ok := generic.(map[string]interface{})
	if !ok || len(feeds) == 0 {
		return errors.Wrapf(ruleerrors.ErrBadPayload, "data feed must be a non-empty object")
	}
	for name, value := range feeds {
		if name == "" || len(name) > v.params.MaxDataFeedNameLength {
			return errors.Wrapf(ruleerrors.ErrBadPayload, "bad feed name %q", name)
		}
		switch typedValue := value.(type) {
		case string:
			if typedValue == "" || len(typedValue) > v.params.MaxDataFeedValueLength {
				return errors.Wrapf(ruleerrors.ErrBadPayload, "bad value of feed %s", name)
			}
		case json.Number:
			_, err := strconv.ParseInt(string(typedValue), 10, 64)
			if err != nil {
				return errors.Wrapf(ruleerrors.ErrBadPayload, "value of feed %s is not an integer", name)
			}
		default:
			return errors.Wrapf(ruleerrors.ErrBadPayload, "value of feed %s must be a string or an integer", name)
		}
	}
	return nil
}

func validateDefinitionTemplate(payload []byte, state *model.ValidationState) error {
	if state.HasDefinitionTemplate {
		return errors.Wrapf(ruleerrors.ErrDuplicateApp, "more than one definition template")
	}
	state.HasDefinitionTemplate = true

	generic, err := decodeGeneric(payload)
	if err != nil {
		return err
	}
	template, ok := generic.([]interface{})
	if !ok || len(template) != 2 {
		return errors.Wrapf(ruleerrors.ErrBadPayload, "definition template must be an array of two")
	}
	return nil
}

// validateAddressDefinitionChange names the changed address only when the
// unit has several authors
func validateAddressDefinitionChange(unit *externalapi.DomainUnit, payload []byte,
	state *model.ValidationState) error {

	change := &externalapi.AddressDefinitionChange{}
	err := decodePayload(payload, change)
	if err != nil {
		return err
	}

	address := change.Address
	if len(unit.Authors) == 1 {
		if address != "" {
			return errors.Wrapf(ruleerrors.ErrBadPayload, "single-authored definition change names an address")
		}
		address = unit.Authors[0].Address
	} else if !unit.HasAuthor(address) {
		return errors.Wrapf(ruleerrors.ErrBadPayload, "definition change of %s, which is not an author", address)
	}

	if _, ok := state.DefinitionChangeFlags[address]; ok {
		return errors.Wrapf(ruleerrors.ErrDuplicateApp, "more than one definition change of %s", address)
	}
	state.DefinitionChangeFlags[address] = struct{}{}

	if !chash.IsValid(change.DefinitionChash) {
		return errors.Wrapf(ruleerrors.ErrBadPayload, "bad definition chash %q", change.DefinitionChash)
	}
	return nil
}

func validateAttestation(unit *externalapi.DomainUnit, payload []byte) error {
	if len(unit.Authors) != 1 {
		return errors.Wrapf(ruleerrors.ErrBadPayload, "attestation must be single-authored")
	}
	attestation := &externalapi.Attestation{}
	err := decodePayload(payload, attestation)
	if err != nil {
		return err
	}
	if !chash.IsValid(attestation.Address) {
		return errors.Wrapf(ruleerrors.ErrBadPayload, "attested address %q is invalid", attestation.Address)
	}
	if attestation.Profile == nil {
		return errors.Wrapf(ruleerrors.ErrBadPayload, "attestation without profile")
	}
	return nil
}

func (v *messageValidator) validatePoll(payload []byte, state *model.ValidationState) error {
	if state.HasPoll {
		return errors.Wrapf(ruleerrors.ErrDuplicateApp, "more than one poll")
	}
	state.HasPoll = true

	poll := &externalapi.Poll{}
	err := decodePayload(payload, poll)
	if err != nil {
		return err
	}
	if poll.Question == nil {
		return errors.Wrapf(ruleerrors.ErrBadPayload, "poll without question")
	}
	if len(poll.Choices) == 0 || len(poll.Choices) > v.params.MaxChoicesPerPoll {
		return errors.Wrapf(ruleerrors.ErrBadPayload, "poll must have 1 to %d choices, found %d",
			v.params.MaxChoicesPerPoll, len(poll.Choices))
	}
	return nil
}

// validateVote accepts votes for polls that are serial and before the last ball
func (v *messageValidator) validateVote(dbContext model.DBReader, payload []byte, state *model.ValidationState) error {
	vote := &externalapi.Vote{}
	err := decodePayload(payload, vote)
	if err != nil {
		return err
	}
	if vote.Unit == nil || vote.Choice == nil {
		return errors.Wrapf(ruleerrors.ErrBadPayload, "vote must name a poll and a choice")
	}

	poll, err := v.pollStore.Poll(dbContext, vote.Unit)
	if database.IsNotFoundError(err) {
		return errors.Wrapf(ruleerrors.ErrInvalidVote, "poll %s not found", vote.Unit)
	}
	if err != nil {
		return err
	}
	hasChoice := false
	for _, choice := range poll.Choices {
		if choice == *vote.Choice {
			hasChoice = true
			break
		}
	}
	if !hasChoice {
		return errors.Wrapf(ruleerrors.ErrInvalidVote, "poll %s has no choice %q", vote.Unit, *vote.Choice)
	}

	props, err := v.unitPropsStore.Get(dbContext, vote.Unit)
	if err != nil {
		return err
	}
	if !props.MCIAtMost(state.LastBallMCI) {
		return errors.Wrapf(ruleerrors.ErrInvalidVote, "poll %s is not before the last ball", vote.Unit)
	}
	if props.Sequence != externalapi.SequenceGood {
		return errors.Wrapf(ruleerrors.ErrInvalidVote, "poll %s is %s", vote.Unit, props.Sequence)
	}
	return nil
}

// validateTrustme checks the timestamp message of a committee unit
func validateTrustme(unit *externalapi.DomainUnit, messageIndex uint32, payload []byte) error {
	if unit.PowType != externalapi.PowTypeTrustme || messageIndex != 0 {
		return errors.Wrapf(ruleerrors.ErrInvalidTrustme, "trustme message outside of a trustme unit")
	}
	trustme := &externalapi.Trustme{}
	err := decodePayload(payload, trustme)
	if err != nil {
		return err
	}
	if trustme.Timestamp <= 0 {
		return errors.Wrapf(ruleerrors.ErrInvalidTrustme, "timestamp %d", trustme.Timestamp)
	}
	return nil
}
