package model

import "github.com/unitdag/unitd/domain/consensus/model/externalapi"

// DefinitionEvaluator decides whether address definitions and asset
// conditions are satisfied. It never writes.
type DefinitionEvaluator interface {
	// ValidateDefinition checks that definition is well formed
	ValidateDefinition(dbContext DBReader, definition []interface{}, unit *externalapi.DomainUnit,
		state *ValidationState, isAssetCondition bool) error

	// ValidateAuthentifiers returns an error if the definition itself is
	// invalid, and false if the authentifiers don't satisfy it
	ValidateAuthentifiers(dbContext DBReader, address string, definition []interface{}, unit *externalapi.DomainUnit,
		state *ValidationState, authentifiers map[string]string, hashToSign *externalapi.DomainHash) (bool, error)

	EvaluateAssetCondition(dbContext DBReader, asset *externalapi.DomainHash, condition []interface{},
		unit *externalapi.DomainUnit, state *ValidationState) (bool, error)
}

// RoundService knows the witnesses, coordinators and rewards of every round
type RoundService interface {
	CurrentRoundIndex(dbContext DBReader) (uint64, error)
	MinMaxWitnessedLevel(dbContext DBReader, roundIndex uint64) (*RoundInfo, error)
	WitnessesForRound(dbContext DBReader, roundIndex uint64) ([]string, error)
	CoordinatorsForProposal(dbContext DBReader, hp uint64, phase uint64) (proposer string, roundIndex uint64, witnesses []string, err error)
	CoinbaseCommission(dbContext DBReader, roundIndex uint64, address string) (uint64, error)
	RoundSeed(dbContext DBReader, roundIndex uint64) (string, error)
	CheckProofOfWork(dbContext DBReader, roundIndex uint64, address string, pow *externalapi.PowEquihash) (bool, error)
}

// DepositService knows which addresses are supernode deposits and their state
type DepositService interface {
	DepositAddressOfSupernode(dbContext DBReader, supernodeAddress string) (string, bool, error)
	SupernodeOfDepositAddress(dbContext DBReader, depositAddress string) (*Supernode, bool, error)
	HasInvalidUnitsFromHistory(dbContext DBReader, supernodeAddress string) (bool, error)
	DepositBalance(dbContext DBReader, depositAddress string) (uint64, error)
}
