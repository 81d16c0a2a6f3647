package unitwriter

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/utils/chash"
	"github.com/unitdag/unitd/domain/consensus/utils/serialization"
)

// writeDefinitions stores the definitions the authors reveal
func (w *unitWriter) writeDefinitions(dbContext model.DBWriter, unit *externalapi.DomainUnit) error {
	for _, author := range unit.Authors {
		if author.Definition == nil {
			continue
		}
		definitionChash, err := chash.FromDefinition(author.Definition)
		if err != nil {
			return err
		}
		err = w.definitionStore.InsertDefinition(dbContext, definitionChash, author.Definition)
		if err != nil {
			return err
		}
		err = w.definitionStore.InsertRevealer(dbContext, author.Address, definitionChash, unit.Hash)
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *unitWriter) writeMessages(dbContext model.DBWriter, unit *externalapi.DomainUnit,
	state *model.ValidationState) error {

	for i, message := range unit.Messages {
		if message.PayloadLocation != externalapi.PayloadLocationInline {
			continue
		}
		err := w.writeMessage(dbContext, unit, uint32(i), message, state)
		if err != nil {
			return errors.Wrapf(err, "message %d of unit %s", i, unit.Hash)
		}
	}
	return nil
}

func (w *unitWriter) writeMessage(dbContext model.DBWriter, unit *externalapi.DomainUnit, messageIndex uint32,
	message *externalapi.Message, state *model.ValidationState) error {

	switch message.App {
	case externalapi.AppPayment:
		payment := &externalapi.Payment{}
		err := serialization.Unmarshal(message.Payload, payment)
		if err != nil {
			return err
		}
		return w.writePayment(dbContext, unit, messageIndex, payment, state)

	case externalapi.AppAsset:
		definition := &externalapi.AssetDefinition{}
		err := serialization.Unmarshal(message.Payload, definition)
		if err != nil {
			return err
		}
		err = w.assetStore.InsertAsset(dbContext, &model.AssetRecord{
			Unit:           unit.Hash,
			DefinerAddress: unit.Authors[0].Address,
			Definition:     definition,
		})
		if err != nil {
			return err
		}
		if len(definition.Attestors) == 0 {
			return nil
		}
		return w.assetStore.InsertAttestors(dbContext, &model.AssetAttestorsRecord{
			Unit:      unit.Hash,
			Asset:     unit.Hash,
			Attestors: definition.Attestors,
		})

	case externalapi.AppAssetAttestors:
		attestors := &externalapi.AssetAttestors{}
		err := serialization.Unmarshal(message.Payload, attestors)
		if err != nil {
			return err
		}
		return w.assetStore.InsertAttestors(dbContext, &model.AssetAttestorsRecord{
			Unit:      unit.Hash,
			Asset:     attestors.Asset,
			Attestors: attestors.Attestors,
		})

	case externalapi.AppAttestation:
		attestation := &externalapi.Attestation{}
		err := serialization.Unmarshal(message.Payload, attestation)
		if err != nil {
			return err
		}
		return w.assetStore.InsertAttestation(dbContext, &model.AttestationRecord{
			Unit:     unit.Hash,
			Attestor: unit.Authors[0].Address,
			Address:  attestation.Address,
		})

	case externalapi.AppPoll:
		poll := &externalapi.Poll{}
		err := serialization.Unmarshal(message.Payload, poll)
		if err != nil {
			return err
		}
		return w.pollStore.InsertPoll(dbContext, &model.PollRecord{
			Unit:     unit.Hash,
			Question: *poll.Question,
			Choices:  poll.Choices,
		})

	case externalapi.AppVote:
		vote := &externalapi.Vote{}
		err := serialization.Unmarshal(message.Payload, vote)
		if err != nil {
			return err
		}
		return w.pollStore.InsertVote(dbContext, &model.VoteRecord{
			Unit:     unit.Hash,
			PollUnit: vote.Unit,
			Choice:   *vote.Choice,
		})

	case externalapi.AppDataFeed:
		return w.writeDataFeed(dbContext, unit, message.Payload)

	case externalapi.AppAddressDefinitionChange:
		change := &externalapi.AddressDefinitionChange{}
		err := serialization.Unmarshal(message.Payload, change)
		if err != nil {
			return err
		}
		address := change.Address
		if address == "" {
			address = unit.Authors[0].Address
		}
		return w.definitionStore.InsertChange(dbContext, &model.DefinitionChange{
			Unit:            unit.Hash,
			Address:         address,
			DefinitionChash: change.DefinitionChash,
		})

	case externalapi.AppPowEquihash:
		return w.roundStore.InsertPow(dbContext, &model.PowRecord{
			Unit:       unit.Hash,
			RoundIndex: unit.RoundIndex,
			Address:    unit.Authors[0].Address,
			PowType:    externalapi.PowTypeEquihash,
		})
	}
	return nil
}

// writeDataFeed stores one row per feed, in feed name order
func (w *unitWriter) writeDataFeed(dbContext model.DBWriter, unit *externalapi.DomainUnit, payload []byte) error {
	generic, err := serialization.GenericFromJSON(payload)
	if err != nil {
		return err
	}
	feeds, ok := generic.(map[string]interface{})
	if !ok {
		return errors.Errorf("data feed is not an object")
	}
	names := make([]string, 0, len(feeds))
	for name := range feeds {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		record := &model.DataFeedRecord{
			Unit:     unit.Hash,
			Address:  unit.Authors[0].Address,
			FeedName: name,
		}
		switch value := feeds[name].(type) {
		case string:
			record.Value = value
		case json.Number:
			record.IntValue, err = strconv.ParseInt(string(value), 10, 64)
			if err != nil {
				return errors.Wrapf(err, "value of feed %s", name)
			}
			record.IsIntValue = true
		default:
			return errors.Errorf("value of feed %s has unexpected type %T", name, value)
		}
		err = w.dataFeedStore.Insert(dbContext, record)
		if err != nil {
			return err
		}
	}
	return nil
}
