package definitionevaluator

import (
	"crypto/ed25519"
	"encoding/base64"

	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/utils/chash"
)

const (
	opSig        = "sig"
	opAnd        = "and"
	opOr         = "or"
	opROfSet     = "r of set"
	opAddress    = "address"
	opCosignedBy = "cosigned by"
	opInDataFeed = "in data feed"
	opHas        = "has"
)

const (
	thisAddress = "this address"
	thisAsset   = "this asset"
	baseAsset   = "base"
)

var pubkeyLength = base64.StdEncoding.EncodedLen(ed25519.PublicKeySize)

var dataFeedOperators = map[string]struct{}{
	"=": {}, "!=": {}, ">": {}, ">=": {}, "<": {}, "<=": {},
}

func (de *definitionEvaluator) validate(definition []interface{}, depth int, complexity *int, isAssetCondition bool) error {
	if depth > maxDepth {
		return invalidDefinition("definition is nested too deep")
	}
	*complexity++
	if *complexity > de.maxComplexity {
		return invalidDefinition("definition complexity exceeds %d", de.maxComplexity)
	}
	if len(definition) != 2 {
		return invalidDefinition("definition must have 2 elements, got %d", len(definition))
	}
	op, ok := definition[0].(string)
	if !ok {
		return invalidDefinition("definition op must be a string")
	}
	args := definition[1]

	switch op {
	case opSig:
		if isAssetCondition {
			return invalidDefinition("sig is not allowed in asset conditions")
		}
		argsMap, ok := args.(map[string]interface{})
		if !ok {
			return invalidDefinition("sig args must be an object")
		}
		pubkey, ok := argsMap["pubkey"].(string)
		if !ok || len(pubkey) != pubkeyLength {
			return invalidDefinition("sig pubkey must be a %d character string", pubkeyLength)
		}
		return nil

	case opAnd, opOr:
		members, ok := args.([]interface{})
		if !ok || len(members) < 2 {
			return invalidDefinition("%s needs at least 2 members", op)
		}
		return de.validateMembers(members, depth, complexity, isAssetCondition)

	case opROfSet:
		argsMap, ok := args.(map[string]interface{})
		if !ok {
			return invalidDefinition("r of set args must be an object")
		}
		set, ok := argsMap["set"].([]interface{})
		if !ok || len(set) < 2 {
			return invalidDefinition("r of set needs a set of at least 2 members")
		}
		required, ok := toUint64(argsMap["required"])
		if !ok || required == 0 || required > uint64(len(set)) {
			return invalidDefinition("r of set requires between 1 and %d members", len(set))
		}
		return de.validateMembers(set, depth, complexity, isAssetCondition)

	case opAddress, opCosignedBy:
		address, ok := args.(string)
		if !ok || !(chash.IsValid(address) || (op == opAddress && address == thisAddress && !isAssetCondition)) {
			return invalidDefinition("%s needs a valid address", op)
		}
		return nil

	case opInDataFeed:
		return validateInDataFeed(args)

	case opHas:
		return validateHas(args, isAssetCondition)
	}
	return invalidDefinition("unknown op %s", op)
}

func (de *definitionEvaluator) validateMembers(members []interface{}, depth int, complexity *int, isAssetCondition bool) error {
	for _, member := range members {
		memberDefinition, ok := member.([]interface{})
		if !ok {
			return invalidDefinition("member must be a definition")
		}
		err := de.validate(memberDefinition, depth+1, complexity, isAssetCondition)
		if err != nil {
			return err
		}
	}
	return nil
}

func validateInDataFeed(args interface{}) error {
	argsList, ok := args.([]interface{})
	if !ok || len(argsList) != 4 {
		return invalidDefinition("in data feed needs oracles, feed name, operator and value")
	}
	oracles, ok := argsList[0].([]interface{})
	if !ok || len(oracles) == 0 {
		return invalidDefinition("in data feed needs oracles")
	}
	for _, oracle := range oracles {
		oracleAddress, ok := oracle.(string)
		if !ok || !chash.IsValid(oracleAddress) {
			return invalidDefinition("invalid oracle %v", oracle)
		}
	}
	feedName, ok := argsList[1].(string)
	if !ok || feedName == "" {
		return invalidDefinition("in data feed needs a feed name")
	}
	operator, ok := argsList[2].(string)
	if !ok {
		return invalidDefinition("in data feed operator must be a string")
	}
	if _, ok := dataFeedOperators[operator]; !ok {
		return invalidDefinition("unknown data feed operator %s", operator)
	}
	if _, isString := argsList[3].(string); isString {
		return nil
	}
	if _, isInt := toInt64(argsList[3]); !isInt {
		return invalidDefinition("data feed value must be a string or an integer")
	}
	return nil
}

func validateHas(args interface{}, isAssetCondition bool) error {
	argsMap, ok := args.(map[string]interface{})
	if !ok {
		return invalidDefinition("has args must be an object")
	}
	if argsMap["what"] != "output" {
		return invalidDefinition("has only looks at outputs")
	}
	if asset, ok := argsMap["asset"]; ok {
		assetString, ok := asset.(string)
		if !ok {
			return invalidDefinition("has asset must be a string")
		}
		if assetString == thisAsset && !isAssetCondition {
			return invalidDefinition("%s is only meaningful in asset conditions", thisAsset)
		}
		if assetString != baseAsset && assetString != thisAsset {
			_, err := externalapi.NewDomainHashFromString(assetString)
			if err != nil {
				return invalidDefinition("has asset: %s", err)
			}
		}
	}
	if address, ok := argsMap["address"]; ok {
		addressString, ok := address.(string)
		if !ok || !(chash.IsValid(addressString) || (addressString == thisAddress && !isAssetCondition)) {
			return invalidDefinition("has needs a valid address")
		}
	}
	for _, field := range []string{"amount_at_least", "amount_at_most"} {
		if amount, ok := argsMap[field]; ok {
			if _, ok := toUint64(amount); !ok {
				return invalidDefinition("has %s must be a positive integer", field)
			}
		}
	}
	return nil
}
