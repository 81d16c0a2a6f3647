package dagconfig

import (
	"os"

	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/utils/chash"
	"gopkg.in/yaml.v3"
)

// paramsOverrides holds the parameters a params file may override. Genesis
// identities are derived from the network name and can't be overridden.
type paramsOverrides struct {
	MaxAuthorsPerUnit                    *int               `yaml:"max_authors_per_unit"`
	MaxParentsPerUnit                    *int               `yaml:"max_parents_per_unit"`
	MaxMessagesPerUnit                   *int               `yaml:"max_messages_per_unit"`
	MaxInputsPerPaymentMessage           *int               `yaml:"max_inputs_per_payment_message"`
	MaxOutputsPerPaymentMessage          *int               `yaml:"max_outputs_per_payment_message"`
	MaxChoicesPerPoll                    *int               `yaml:"max_choices_per_poll"`
	MaxDataFeedNameLength                *int               `yaml:"max_data_feed_name_length"`
	MaxDataFeedValueLength               *int               `yaml:"max_data_feed_value_length"`
	MaxAuthentifierLength                *int               `yaml:"max_authentifier_length"`
	MaxCap                               *uint64            `yaml:"max_cap"`
	TrustmeTimestampTolerance            *int64             `yaml:"trustme_timestamp_tolerance"`
	FoundationRatio                      *float64           `yaml:"foundation_ratio"`
	FoundationAddress                    *string            `yaml:"foundation_address"`
	FoundationSafeAddress                *string            `yaml:"foundation_safe_address"`
	CountRoundsForDepositSpend           *uint64            `yaml:"count_rounds_for_deposit_spend"`
	CountRoundsForFoundationDepositSpend *uint64            `yaml:"count_rounds_for_foundation_deposit_spend"`
	CatchupMCIInterval                   *uint64            `yaml:"catchup_mci_interval"`
	CatchupMaxChainBalls                 *int               `yaml:"catchup_max_chain_balls"`
	Supernodes                           []*model.Supernode `yaml:"supernodes"`
}

// LoadParamsFile returns a copy of base with the values of the YAML file at
// path applied on top
func LoadParamsFile(path string, base *Params) (*Params, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read params file %s", path)
	}
	return ApplyParamsYAML(content, base)
}

// ApplyParamsYAML returns a copy of base with the given YAML document applied on top
func ApplyParamsYAML(content []byte, base *Params) (*Params, error) {
	overrides := &paramsOverrides{}
	err := yaml.Unmarshal(content, overrides)
	if err != nil {
		return nil, errors.Wrapf(err, "malformed params file")
	}

	params := base.Clone()
	setInt(&params.MaxAuthorsPerUnit, overrides.MaxAuthorsPerUnit)
	setInt(&params.MaxParentsPerUnit, overrides.MaxParentsPerUnit)
	setInt(&params.MaxMessagesPerUnit, overrides.MaxMessagesPerUnit)
	setInt(&params.MaxInputsPerPaymentMessage, overrides.MaxInputsPerPaymentMessage)
	setInt(&params.MaxOutputsPerPaymentMessage, overrides.MaxOutputsPerPaymentMessage)
	setInt(&params.MaxChoicesPerPoll, overrides.MaxChoicesPerPoll)
	setInt(&params.MaxDataFeedNameLength, overrides.MaxDataFeedNameLength)
	setInt(&params.MaxDataFeedValueLength, overrides.MaxDataFeedValueLength)
	setInt(&params.MaxAuthentifierLength, overrides.MaxAuthentifierLength)
	setInt(&params.CatchupMaxChainBalls, overrides.CatchupMaxChainBalls)
	setUint64(&params.MaxCap, overrides.MaxCap)
	setUint64(&params.CountRoundsForDepositSpend, overrides.CountRoundsForDepositSpend)
	setUint64(&params.CountRoundsForFoundationDepositSpend, overrides.CountRoundsForFoundationDepositSpend)
	setUint64(&params.CatchupMCIInterval, overrides.CatchupMCIInterval)
	if overrides.TrustmeTimestampTolerance != nil {
		params.TrustmeTimestampTolerance = *overrides.TrustmeTimestampTolerance
	}
	if overrides.FoundationRatio != nil {
		params.FoundationRatio = *overrides.FoundationRatio
	}
	if overrides.FoundationAddress != nil {
		params.FoundationAddress = *overrides.FoundationAddress
	}
	if overrides.FoundationSafeAddress != nil {
		params.FoundationSafeAddress = *overrides.FoundationSafeAddress
	}
	if overrides.Supernodes != nil {
		params.Supernodes = overrides.Supernodes
	}

	err = validateParams(params)
	if err != nil {
		return nil, err
	}
	return params, nil
}

func setInt(target *int, value *int) {
	if value != nil {
		*target = *value
	}
}

func setUint64(target *uint64, value *uint64) {
	if value != nil {
		*target = *value
	}
}

func validateParams(params *Params) error {
	if params.FoundationRatio < 0 || params.FoundationRatio > 1 {
		return errors.Errorf("foundation_ratio must be between 0 and 1, got %f", params.FoundationRatio)
	}
	if params.CatchupMCIInterval == 0 {
		return errors.New("catchup_mci_interval must be positive")
	}
	if params.MaxCap > 9e15 {
		return errors.Errorf("max_cap %d exceeds 9e15", params.MaxCap)
	}
	addresses := []string{params.FoundationAddress, params.FoundationSafeAddress}
	for _, supernode := range params.Supernodes {
		addresses = append(addresses, supernode.Address, supernode.DepositAddress, supernode.SafeAddress)
	}
	for _, address := range addresses {
		if !chash.IsValid(address) {
			return errors.Errorf("invalid address %s", address)
		}
	}
	return nil
}
