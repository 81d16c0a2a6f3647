package model

import (
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
)

// InputPosition locates an input inside a unit
type InputPosition struct {
	MessageIndex uint32
	InputIndex   uint32
}

// InputSpend is a validated input and the key it spends
type InputSpend struct {
	Key      SpendKey
	Position InputPosition
	Address  string
}

// ValidationState accumulates what one validation attempt learns about a
// unit. It is never persisted: the writer consumes it and drops it.
type ValidationState struct {
	Sequence externalapi.Sequence
	Unsigned bool
	Private  bool

	// Set while validating parents
	LastBallMCI     uint64
	MaxParentLIMCI  uint64
	HasParentLIMCI  bool
	MaxKnownMCI     uint64
	SkiplistBalls   []*externalapi.DomainHash
	UnitHashToSign  *externalapi.DomainHash
	ProposalHash    *externalapi.DomainHash
	LastMCTimestamp int64

	// Derived DAG properties, set by the witnessed level check
	Level          uint64
	WitnessedLevel uint64
	LIMCI          uint64
	HasLIMCI       bool
	BestParent     *externalapi.DomainHash

	// Deferred writes. Validation never writes, the unit writer applies these
	// after re-checking that their conditions still hold.
	DowngradeToTempBad []*externalapi.DomainHash
	ClearUniqueness    []SpendKey

	// Inputs that conflict with other units; they are stored as non-unique
	DoubleSpendInputs []InputPosition
	InputKeys         map[string]struct{}
	InputSpends       []*InputSpend

	// Message counters and flags
	HasBasePayment        bool
	HasPoll               bool
	HasDataFeed           bool
	HasProfile            bool
	HasAssetDefinition    bool
	HasDefinitionTemplate bool
	HasPowEquihash        bool
	HasCoinbase           bool
	DefiningPrivateAsset  bool
	DefinitionChangeFlags map[string]struct{}
	AssetAttestorsFlags   map[externalapi.DomainHash]struct{}
}

// NewValidationState returns a state for a fresh validation attempt
func NewValidationState(unsigned bool) *ValidationState {
	return &ValidationState{
		Sequence:              externalapi.SequenceGood,
		Unsigned:              unsigned,
		InputKeys:             make(map[string]struct{}),
		DefinitionChangeFlags: make(map[string]struct{}),
		AssetAttestorsFlags:   make(map[externalapi.DomainHash]struct{}),
	}
}

// UseInputKey records key as spent by the unit. It returns false if the
// unit already spent it.
func (vs *ValidationState) UseInputKey(key string) bool {
	if _, ok := vs.InputKeys[key]; ok {
		return false
	}
	vs.InputKeys[key] = struct{}{}
	return true
}

// AddInputSpend records a validated input for the writer
func (vs *ValidationState) AddInputSpend(key SpendKey, position InputPosition, address string) {
	vs.InputSpends = append(vs.InputSpends, &InputSpend{Key: key, Position: position, Address: address})
}

// Downgrade lowers the sequence of the unit. A final-bad unit stays final-bad.
func (vs *ValidationState) Downgrade(sequence externalapi.Sequence) {
	if vs.Sequence == externalapi.SequenceFinalBad {
		return
	}
	vs.Sequence = sequence
}

// IsDoubleSpendInput returns whether the input at the given position conflicts with another unit
func (vs *ValidationState) IsDoubleSpendInput(messageIndex, inputIndex uint32) bool {
	for _, position := range vs.DoubleSpendInputs {
		if position.MessageIndex == messageIndex && position.InputIndex == inputIndex {
			return true
		}
	}
	return false
}
