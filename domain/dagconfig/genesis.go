package dagconfig

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/utils/chash"
	"github.com/unitdag/unitd/domain/consensus/utils/consensushashing"
	"github.com/unitdag/unitd/domain/consensus/utils/serialization"
	"github.com/unitdag/unitd/domain/consensus/utils/signing"
	"github.com/unitdag/unitd/domain/consensus/utils/unitcomposer"
)

// WitnessSeed returns the key seed of the i-th witness of a network
func WitnessSeed(network string, i int) string {
	return fmt.Sprintf("%s-witness-%d", network, i)
}

// SafeSeed returns the key seed of the safe address of the i-th witness
func SafeSeed(network string, i int) string {
	return fmt.Sprintf("%s-safe-%d", network, i)
}

// FoundationSeed returns the key seed of the foundation of a network
func FoundationSeed(network string) string {
	return network + "-foundation"
}

// FoundationSafeSeed returns the key seed of the foundation safe address
func FoundationSafeSeed(network string) string {
	return network + "-foundation-safe"
}

// WitnessSigners returns the signers of the witnesses of params, sorted by address
func WitnessSigners(params *Params) []*signing.Signer {
	signers := make([]*signing.Signer, len(params.GenesisAuthors))
	for i := range signers {
		signers[i] = signing.NewSignerFromSeed(WitnessSeed(params.Name, i))
	}
	sort.Slice(signers, func(i, j int) bool { return signers[i].Address < signers[j].Address })
	return signers
}

// DepositDefinition returns the definition of the deposit contract of a
// supernode: it is spendable together with either its safe address or the
// foundation safe address
func DepositDefinition(safeAddress string, foundationSafeAddress string) []interface{} {
	return []interface{}{"or", []interface{}{
		[]interface{}{"address", safeAddress},
		[]interface{}{"address", foundationSafeAddress},
	}}
}

func mustBuildGenesis(params *Params, witnessCount int) {
	err := buildGenesis(params, witnessCount)
	if err != nil {
		panic(errors.Wrapf(err, "failed to build the %s genesis", params.Name))
	}
}

func buildGenesis(params *Params, witnessCount int) error {
	params.FoundationAddress = signing.NewSignerFromSeed(FoundationSeed(params.Name)).Address
	params.FoundationSafeAddress = signing.NewSignerFromSeed(FoundationSafeSeed(params.Name)).Address

	witnesses := make([]*signing.Signer, witnessCount)
	params.Supernodes = make([]*model.Supernode, witnessCount)
	for i := range witnesses {
		witnesses[i] = signing.NewSignerFromSeed(WitnessSeed(params.Name, i))
		safe := signing.NewSignerFromSeed(SafeSeed(params.Name, i))
		depositAddress, err := chash.FromDefinition(DepositDefinition(safe.Address, params.FoundationSafeAddress))
		if err != nil {
			return err
		}
		params.Supernodes[i] = &model.Supernode{
			Address:        witnesses[i].Address,
			DepositAddress: depositAddress,
			SafeAddress:    safe.Address,
		}
	}
	sort.Slice(witnesses, func(i, j int) bool { return witnesses[i].Address < witnesses[j].Address })

	authors := make([]*externalapi.Author, witnessCount)
	params.GenesisAuthors = make([]string, witnessCount)
	outputs := make([]*externalapi.Output, witnessCount)
	share := params.TotalWhitebytes / uint64(witnessCount+1)
	for i, witness := range witnesses {
		authors[i] = &externalapi.Author{Address: witness.Address, Definition: witness.Definition}
		params.GenesisAuthors[i] = witness.Address
		outputs[i] = &externalapi.Output{Address: witness.Address, Amount: share}
	}

	payment := &externalapi.Payment{
		Inputs: []*externalapi.Input{{
			Type:         externalapi.InputTypeIssue,
			Amount:       params.TotalWhitebytes,
			SerialNumber: 1,
			Address:      witnesses[0].Address,
		}},
		Outputs: outputs,
	}
	payload, err := serialization.Marshal(payment)
	if err != nil {
		return err
	}

	unit := &externalapi.DomainUnit{
		Version:   params.Version,
		Alt:       params.Alt,
		Authors:   authors,
		Timestamp: params.GenesisTimestamp,
		Messages: []*externalapi.Message{{
			App:             externalapi.AppPayment,
			PayloadLocation: externalapi.PayloadLocationInline,
			Payload:         payload,
		}},
	}
	err = unitcomposer.Compose(unit, witnesses, nil, &unitcomposer.Change{
		MessageIndex: 0,
		OutputIndex:  witnessCount - 1,
		InputTotal:   params.TotalWhitebytes,
	})
	if err != nil {
		return err
	}

	ball, err := consensushashing.BallHash(unit.Hash, nil, nil, false)
	if err != nil {
		return err
	}
	params.GenesisUnit = unit.Hash
	params.GenesisJoint = &externalapi.DomainJoint{Unit: unit, Ball: ball}
	return nil
}
