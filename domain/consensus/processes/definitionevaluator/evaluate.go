package definitionevaluator

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/utils/signing"
	"github.com/unitdag/unitd/domain/consensus/utils/serialization"
)

// evaluation holds what a single definition evaluation is evaluated against
type evaluation struct {
	evaluator *definitionEvaluator
	dbContext model.DBReader
	unit      *externalapi.DomainUnit
	state     *model.ValidationState

	// address and authentifiers are empty when evaluating an asset condition
	address       string
	authentifiers map[string]string
	hashToSign    *externalapi.DomainHash
	usedPaths     map[string]struct{}

	// asset is set when evaluating an asset condition
	asset *externalapi.DomainHash
}

func (ev *evaluation) evaluate(definition []interface{}, path string, depth int) (bool, error) {
	if depth > maxDepth {
		return false, invalidDefinition("definition is nested too deep")
	}
	op := definition[0].(string)
	args := definition[1]

	switch op {
	case opSig:
		return ev.evaluateSig(args.(map[string]interface{}), path)

	case opAnd:
		for i, member := range args.([]interface{}) {
			ok, err := ev.evaluate(member.([]interface{}), memberPath(path, i), depth+1)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil

	case opOr:
		// Every member is evaluated so that all the authentifiers a
		// satisfied member consumes are accounted for
		satisfied := false
		for i, member := range args.([]interface{}) {
			ok, err := ev.evaluate(member.([]interface{}), memberPath(path, i), depth+1)
			if err != nil {
				return false, err
			}
			satisfied = satisfied || ok
		}
		return satisfied, nil

	case opROfSet:
		argsMap := args.(map[string]interface{})
		required, _ := toUint64(argsMap["required"])
		var count uint64
		for i, member := range argsMap["set"].([]interface{}) {
			ok, err := ev.evaluate(member.([]interface{}), memberPath(path, i), depth+1)
			if err != nil {
				return false, err
			}
			if ok {
				count++
			}
		}
		return count >= required, nil

	case opAddress:
		return ev.evaluateAddress(args.(string), path, depth)

	case opCosignedBy:
		return ev.unit.HasAuthor(args.(string)), nil

	case opInDataFeed:
		return ev.evaluateInDataFeed(args.([]interface{}))

	case opHas:
		return ev.evaluateHas(args.(map[string]interface{}))
	}
	return false, invalidDefinition("unknown op %s", op)
}

func memberPath(path string, index int) string {
	return path + "." + strconv.Itoa(index)
}

func (ev *evaluation) evaluateSig(args map[string]interface{}, path string) (bool, error) {
	authentifier, ok := ev.authentifiers[path]
	if !ok {
		return false, nil
	}
	verified, err := signing.Verify(args["pubkey"].(string), ev.hashToSign, authentifier)
	if err != nil {
		return false, invalidDefinition("%s", err)
	}
	if verified {
		ev.usedPaths[path] = struct{}{}
	}
	return verified, nil
}

// evaluateAddress evaluates the definition address had as of the last ball.
// An address that has not revealed its definition yet may do so as a
// co-author of the same unit.
func (ev *evaluation) evaluateAddress(address string, path string, depth int) (bool, error) {
	if address == thisAddress {
		address = ev.address
	}

	definition, _, found, err := ev.evaluator.addressDefinitionManager.DefinitionAt(
		ev.dbContext, address, ev.state.LastBallMCI)
	if err != nil {
		return false, err
	}
	if !found {
		for _, author := range ev.unit.Authors {
			if author.Address == address && author.Definition != nil {
				definition, found = author.Definition, true
				break
			}
		}
	}
	if !found {
		return false, nil
	}

	complexity := 0
	err = ev.evaluator.validate(definition, depth+1, &complexity, ev.asset != nil)
	if err != nil {
		return false, err
	}
	return ev.evaluate(definition, path, depth+1)
}

// evaluateInDataFeed looks for a value posted by one of the oracles in a
// stable good unit at or before the last ball
func (ev *evaluation) evaluateInDataFeed(args []interface{}) (bool, error) {
	feedName := args[1].(string)
	operator := args[2].(string)
	expected := args[3]

	for _, oracle := range args[0].([]interface{}) {
		records, err := ev.evaluator.dataFeedStore.Values(ev.dbContext, oracle.(string), feedName)
		if err != nil {
			return false, err
		}
		for _, record := range records {
			props, err := ev.evaluator.unitPropsStore.Get(ev.dbContext, record.Unit)
			if err != nil {
				return false, err
			}
			if !props.IsStable || props.Sequence != externalapi.SequenceGood || !props.MCIAtMost(ev.state.LastBallMCI) {
				continue
			}
			if compareFeedValue(record, operator, expected) {
				return true, nil
			}
		}
	}
	return false, nil
}

func compareFeedValue(record *model.DataFeedRecord, operator string, expected interface{}) bool {
	var comparison int
	if expectedString, ok := expected.(string); ok {
		if record.IsIntValue {
			return operator == "!="
		}
		switch {
		case record.Value < expectedString:
			comparison = -1
		case record.Value > expectedString:
			comparison = 1
		}
	} else {
		expectedInt, _ := toInt64(expected)
		if !record.IsIntValue {
			return operator == "!="
		}
		switch {
		case record.IntValue < expectedInt:
			comparison = -1
		case record.IntValue > expectedInt:
			comparison = 1
		}
	}

	switch operator {
	case "=":
		return comparison == 0
	case "!=":
		return comparison != 0
	case ">":
		return comparison > 0
	case ">=":
		return comparison >= 0
	case "<":
		return comparison < 0
	case "<=":
		return comparison <= 0
	}
	return false
}

// evaluateHas sums the matching outputs of the unit's inline payments
func (ev *evaluation) evaluateHas(args map[string]interface{}) (bool, error) {
	var asset *externalapi.DomainHash
	assetFilter, filterByAsset := args["asset"].(string)
	if filterByAsset {
		switch assetFilter {
		case baseAsset:
		case thisAsset:
			asset = ev.asset
		default:
			var err error
			asset, err = externalapi.NewDomainHashFromString(assetFilter)
			if err != nil {
				return false, errors.WithStack(err)
			}
		}
	}
	address, filterByAddress := args["address"].(string)
	if address == thisAddress {
		address = ev.address
	}

	var total uint64
	found := false
	for _, message := range ev.unit.Messages {
		if message.App != externalapi.AppPayment || !message.HasPayload() {
			continue
		}
		payment := &externalapi.Payment{}
		err := serialization.Unmarshal(message.Payload, payment)
		if err != nil {
			return false, err
		}
		if filterByAsset && !payment.Asset.Equal(asset) {
			continue
		}
		for _, output := range payment.Outputs {
			if filterByAddress && output.Address != address {
				continue
			}
			found = true
			total += output.Amount
		}
	}
	if !found {
		return false, nil
	}
	if atLeast, ok := toUint64(args["amount_at_least"]); ok && total < atLeast {
		return false, nil
	}
	if atMost, ok := toUint64(args["amount_at_most"]); ok && total > atMost {
		return false, nil
	}
	return true, nil
}
