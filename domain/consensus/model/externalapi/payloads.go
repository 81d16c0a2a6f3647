package externalapi

// InputType is the kind of a payment input
type InputType string

// Input types. An input with no type is a transfer.
const (
	InputTypeTransfer InputType = "transfer"
	InputTypeIssue    InputType = "issue"
	InputTypeCoinbase InputType = "coinbase"
)

// Payment is the payload of a payment message
type Payment struct {
	Asset        *DomainHash `json:"asset,omitempty"`
	Denomination uint64      `json:"denomination,omitempty"`
	Inputs       []*Input    `json:"inputs"`
	Outputs      []*Output   `json:"outputs"`
}

// IsBase returns whether the payment moves the base currency
func (payment *Payment) IsBase() bool {
	return payment.Asset == nil
}

// DenominationOrDefault returns the payment denomination, 1 when unset
func (payment *Payment) DenominationOrDefault() uint64 {
	if payment.Denomination == 0 {
		return 1
	}
	return payment.Denomination
}

// Input spends an output, issues an asset or claims a coinbase
type Input struct {
	Type         InputType   `json:"type,omitempty"`
	Unit         *DomainHash `json:"unit,omitempty"`
	MessageIndex *uint32     `json:"message_index,omitempty"`
	OutputIndex  *uint32     `json:"output_index,omitempty"`
	Amount       uint64      `json:"amount,omitempty"`
	SerialNumber uint64      `json:"serial_number,omitempty"`
	Address      string      `json:"address,omitempty"`
}

// TypeOrDefault returns the input type, transfer when unset
func (input *Input) TypeOrDefault() InputType {
	if input.Type == "" {
		return InputTypeTransfer
	}
	return input.Type
}

// Output is a payment output
type Output struct {
	Address    string      `json:"address,omitempty"`
	Amount     uint64      `json:"amount"`
	Blinding   string      `json:"blinding,omitempty"`
	OutputHash *DomainHash `json:"output_hash,omitempty"`
}

// Poll is the payload of a poll message
type Poll struct {
	Question *string  `json:"question"`
	Choices  []string `json:"choices"`
}

// Vote is the payload of a vote message
type Vote struct {
	Unit   *DomainHash `json:"unit"`
	Choice *string     `json:"choice"`
}

// Denomination is one coin size of a fixed-denomination asset. A nil
// CountCoins marks an uncapped denomination.
type Denomination struct {
	Denomination uint64  `json:"denomination"`
	CountCoins   *uint64 `json:"count_coins,omitempty"`
}

// AssetDefinition is the payload of an asset message
type AssetDefinition struct {
	Cap                 uint64          `json:"cap,omitempty"`
	IsPrivate           *bool           `json:"is_private"`
	IsTransferrable     *bool           `json:"is_transferrable"`
	AutoDestroy         *bool           `json:"auto_destroy"`
	FixedDenominations  *bool           `json:"fixed_denominations"`
	IssuedByDefinerOnly *bool           `json:"issued_by_definer_only"`
	CosignedByDefiner   *bool           `json:"cosigned_by_definer"`
	SpenderAttested     *bool           `json:"spender_attested"`
	IssueCondition      []interface{}   `json:"issue_condition,omitempty"`
	TransferCondition   []interface{}   `json:"transfer_condition,omitempty"`
	Attestors           []string        `json:"attestors,omitempty"`
	Denominations       []*Denomination `json:"denominations,omitempty"`
}

// AssetAttestors is the payload of an asset_attestors message
type AssetAttestors struct {
	Asset     *DomainHash `json:"asset"`
	Attestors []string    `json:"attestors"`
}

// Attestation is the payload of an attestation message
type Attestation struct {
	Address string                 `json:"address"`
	Profile map[string]interface{} `json:"profile"`
}

// AddressDefinitionChange is the payload of an address_definition_change message
type AddressDefinitionChange struct {
	DefinitionChash string `json:"definition_chash"`
	Address         string `json:"address,omitempty"`
}

// PowSolution is the proof found by a miner
type PowSolution struct {
	Hash  string `json:"hash"`
	Nonce uint64 `json:"nonce"`
}

// PowEquihash is the payload of a pow_equihash message
type PowEquihash struct {
	Seed     string       `json:"seed"`
	Deposit  string       `json:"deposit"`
	Solution *PowSolution `json:"solution"`
}

// Trustme is the payload of the message a committee unit carries
type Trustme struct {
	Timestamp int64 `json:"timestamp"`
}
