package model

import (
	"fmt"

	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
)

const baseAsset = "base"

// SpendKey identifies what an input consumes. Two inputs with the same
// SpendKey are a double spend.
type SpendKey string

// TransferSpendKey is the key of an input spending an output
func TransferSpendKey(asset *externalapi.DomainHash, srcUnit *externalapi.DomainHash,
	messageIndex, outputIndex uint32) SpendKey {

	return SpendKey(fmt.Sprintf("%s-transfer-%s-%d-%d", assetString(asset), srcUnit, messageIndex, outputIndex))
}

// IssueSpendKey is the key of an input issuing an asset. The address is
// empty for assets issued by their definer only, and the denomination is
// zero for divisible assets.
func IssueSpendKey(asset *externalapi.DomainHash, denomination uint64, address string, serialNumber uint64) SpendKey {
	return SpendKey(fmt.Sprintf("%s-issue-%d-%s-%d", assetString(asset), denomination, address, serialNumber))
}

// CoinbaseSpendKey is the key of the coinbase input of address in a round
func CoinbaseSpendKey(roundIndex uint64, address string) SpendKey {
	return SpendKey(fmt.Sprintf("%s-coinbase-%d-%s", baseAsset, roundIndex, address))
}

func assetString(asset *externalapi.DomainHash) string {
	if asset == nil {
		return baseAsset
	}
	return asset.String()
}
