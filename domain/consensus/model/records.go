package model

import (
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
)

// OutputRecord is a stored payment output
type OutputRecord struct {
	Unit         *externalapi.DomainHash `json:"unit"`
	MessageIndex uint32                  `json:"message_index"`
	OutputIndex  uint32                  `json:"output_index"`
	Asset        *externalapi.DomainHash `json:"asset,omitempty"`
	Denomination uint64                  `json:"denomination"`
	Address      string                  `json:"address,omitempty"`
	Amount       uint64                  `json:"amount"`
	Blinding     string                  `json:"blinding,omitempty"`
	OutputHash   *externalapi.DomainHash `json:"output_hash,omitempty"`
	IsSpent      bool                    `json:"is_spent"`
}

// Spender is a stored input together with the key it spends
type Spender struct {
	Unit         *externalapi.DomainHash `json:"unit"`
	MessageIndex uint32                  `json:"message_index"`
	InputIndex   uint32                  `json:"input_index"`
	Address      string                  `json:"address"`
	IsUnique     bool                    `json:"is_unique"`
}

// DefinitionChange is a stored address_definition_change
type DefinitionChange struct {
	Unit            *externalapi.DomainHash `json:"unit"`
	Address         string                  `json:"address"`
	DefinitionChash string                  `json:"definition_chash"`
}

// AssetRecord is a stored asset definition
type AssetRecord struct {
	Unit           *externalapi.DomainHash      `json:"unit"`
	DefinerAddress string                       `json:"definer_address"`
	Definition     *externalapi.AssetDefinition `json:"definition"`
}

// AssetAttestorsRecord is one stored attestor list of an asset
type AssetAttestorsRecord struct {
	Unit      *externalapi.DomainHash `json:"unit"`
	Asset     *externalapi.DomainHash `json:"asset"`
	Attestors []string                `json:"attestors"`
}

// AttestationRecord is a stored attestation
type AttestationRecord struct {
	Unit     *externalapi.DomainHash `json:"unit"`
	Attestor string                  `json:"attestor"`
	Address  string                  `json:"address"`
}

// PollRecord is a stored poll
type PollRecord struct {
	Unit     *externalapi.DomainHash `json:"unit"`
	Question string                  `json:"question"`
	Choices  []string                `json:"choices"`
}

// VoteRecord is a stored vote
type VoteRecord struct {
	Unit     *externalapi.DomainHash `json:"unit"`
	PollUnit *externalapi.DomainHash `json:"poll_unit"`
	Choice   string                  `json:"choice"`
}

// DataFeedRecord is one stored data feed value
type DataFeedRecord struct {
	Unit       *externalapi.DomainHash `json:"unit"`
	Address    string                  `json:"address"`
	FeedName   string                  `json:"feed_name"`
	Value      string                  `json:"value,omitempty"`
	IntValue   int64                   `json:"int_value,omitempty"`
	IsIntValue bool                    `json:"is_int_value,omitempty"`
}

// PowRecord is a stored proof-of-work or coinbase unit of a round
type PowRecord struct {
	Unit       *externalapi.DomainHash `json:"unit"`
	RoundIndex uint64                  `json:"round_index"`
	Address    string                  `json:"address"`
	PowType    externalapi.PowType     `json:"pow_type"`
}

// RoundInfo holds the witnessed level bounds of a round
type RoundInfo struct {
	RoundIndex uint64 `json:"round_index"`
	MinWL      uint64 `json:"min_wl"`
	HasMinWL   bool   `json:"has_min_wl"`
	MaxWL      uint64 `json:"max_wl"`
	HasMaxWL   bool   `json:"has_max_wl"`
}

// Supernode describes the owner of a deposit address
type Supernode struct {
	Address        string `json:"address" yaml:"address"`
	DepositAddress string `json:"deposit_address" yaml:"deposit_address"`
	SafeAddress    string `json:"safe_address" yaml:"safe_address"`
}
