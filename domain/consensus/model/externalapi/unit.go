package externalapi

import (
	jsoniter "github.com/json-iterator/go"
)

// PowType tags units that take part in round bookkeeping
type PowType uint8

// PowType values. A zero PowType marks an ordinary unit.
const (
	PowTypeNone     PowType = 0
	PowTypeEquihash PowType = 1
	PowTypeTrustme  PowType = 2
	PowTypeCoinbase PowType = 3
)

func (pt PowType) String() string {
	switch pt {
	case PowTypeNone:
		return "none"
	case PowTypeEquihash:
		return "pow_equihash"
	case PowTypeTrustme:
		return "trustme"
	case PowTypeCoinbase:
		return "coinbase"
	}
	return "unknown"
}

// PayloadLocation tells where the payload of a message is kept
type PayloadLocation string

// Payload locations
const (
	PayloadLocationInline PayloadLocation = "inline"
	PayloadLocationURI    PayloadLocation = "uri"
	PayloadLocationNone   PayloadLocation = "none"
)

// Message apps
const (
	AppPayment                 = "payment"
	AppText                    = "text"
	AppData                    = "data"
	AppDataFeed                = "data_feed"
	AppProfile                 = "profile"
	AppPoll                    = "poll"
	AppVote                    = "vote"
	AppAsset                   = "asset"
	AppAssetAttestors          = "asset_attestors"
	AppAttestation             = "attestation"
	AppAddressDefinitionChange = "address_definition_change"
	AppDefinitionTemplate      = "definition_template"
	AppPowEquihash             = "pow_equihash"
	AppTrustme                 = "trustme"
)

// DomainUnit is a single vertex of the DAG. Every field except Hash,
// the commissions of a stripped unit and the authentifiers is committed
// to by Hash.
type DomainUnit struct {
	Hash              *DomainHash   `json:"unit"`
	Version           string        `json:"version"`
	Alt               string        `json:"alt"`
	ParentUnits       []*DomainHash `json:"parent_units,omitempty"`
	LastBall          *DomainHash   `json:"last_ball,omitempty"`
	LastBallUnit      *DomainHash   `json:"last_ball_unit,omitempty"`
	Authors           []*Author     `json:"authors"`
	Messages          []*Message    `json:"messages,omitempty"`
	HeadersCommission uint64        `json:"headers_commission,omitempty"`
	PayloadCommission uint64        `json:"payload_commission,omitempty"`
	RoundIndex        uint64        `json:"round_index,omitempty"`
	PowType           PowType       `json:"pow_type,omitempty"`
	Timestamp         int64         `json:"timestamp,omitempty"`
	ContentHash       *DomainHash   `json:"content_hash,omitempty"`

	// HP and Phase identify the proposal a trustme unit was agreed on
	HP           uint64    `json:"hp,omitempty"`
	Phase        uint64    `json:"phase,omitempty"`
	Coordinators []*Author `json:"coordinators,omitempty"`
}

// IsGenesis returns whether the unit has no parents
func (unit *DomainUnit) IsGenesis() bool {
	return len(unit.ParentUnits) == 0
}

// IsStripped returns whether the unit content was replaced by a content hash
func (unit *DomainUnit) IsStripped() bool {
	return unit.ContentHash != nil
}

// AuthorAddresses returns the addresses of the unit's authors in unit order
func (unit *DomainUnit) AuthorAddresses() []string {
	addresses := make([]string, len(unit.Authors))
	for i, author := range unit.Authors {
		addresses[i] = author.Address
	}
	return addresses
}

// HasAuthor returns whether address is one of the unit's authors
func (unit *DomainUnit) HasAuthor(address string) bool {
	for _, author := range unit.Authors {
		if author.Address == address {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the unit
func (unit *DomainUnit) Clone() *DomainUnit {
	if unit == nil {
		return nil
	}
	clone := *unit
	clone.ParentUnits = CloneHashes(unit.ParentUnits)
	clone.Authors = cloneAuthors(unit.Authors)
	clone.Coordinators = cloneAuthors(unit.Coordinators)
	if unit.Messages != nil {
		clone.Messages = make([]*Message, len(unit.Messages))
		for i, message := range unit.Messages {
			clone.Messages[i] = message.Clone()
		}
	}
	return &clone
}

// Author is an address signing a unit, optionally revealing its definition
type Author struct {
	Address       string            `json:"address"`
	Definition    []interface{}     `json:"definition,omitempty"`
	Authentifiers map[string]string `json:"authentifiers,omitempty"`
}

// Clone returns a copy of the author. The definition is shared since it
// is never mutated after decoding.
func (author *Author) Clone() *Author {
	clone := *author
	if author.Authentifiers != nil {
		clone.Authentifiers = make(map[string]string, len(author.Authentifiers))
		for path, authentifier := range author.Authentifiers {
			clone.Authentifiers[path] = authentifier
		}
	}
	return &clone
}

func cloneAuthors(authors []*Author) []*Author {
	if authors == nil {
		return nil
	}
	clone := make([]*Author, len(authors))
	for i, author := range authors {
		clone[i] = author.Clone()
	}
	return clone
}

// SpendProof replaces an input of a private payment in the public unit
type SpendProof struct {
	SpendProof string `json:"spend_proof"`
	Address    string `json:"address,omitempty"`
}

// Message is one operation inside a unit
type Message struct {
	App             string              `json:"app"`
	PayloadLocation PayloadLocation     `json:"payload_location"`
	PayloadHash     *DomainHash         `json:"payload_hash"`
	Payload         jsoniter.RawMessage `json:"payload,omitempty"`
	PayloadURI      string              `json:"payload_uri,omitempty"`
	PayloadURIHash  *DomainHash         `json:"payload_uri_hash,omitempty"`
	SpendProofs     []*SpendProof       `json:"spend_proofs,omitempty"`
}

// HasPayload returns whether the message carries its payload inline
func (message *Message) HasPayload() bool {
	return len(message.Payload) > 0
}

// Clone returns a deep copy of the message
func (message *Message) Clone() *Message {
	clone := *message
	if message.Payload != nil {
		clone.Payload = append(jsoniter.RawMessage(nil), message.Payload...)
	}
	if message.SpendProofs != nil {
		clone.SpendProofs = make([]*SpendProof, len(message.SpendProofs))
		for i, spendProof := range message.SpendProofs {
			spendProofClone := *spendProof
			clone.SpendProofs[i] = &spendProofClone
		}
	}
	return &clone
}
