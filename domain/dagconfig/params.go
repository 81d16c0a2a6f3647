package dagconfig

import (
	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
)

// Params defines a network by its protocol constants. Every node of a network
// must use the same Params.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// Version and Alt tag every unit of the network
	Version string
	Alt     string

	// GenesisJoint is the first, already stable, joint of the DAG
	GenesisJoint *externalapi.DomainJoint

	// GenesisUnit is the hash of the genesis unit
	GenesisUnit *externalapi.DomainHash

	// GenesisAuthors are the sorted authors of the genesis unit. They are the
	// witnesses of every round and the authors of recovery trustme units.
	GenesisAuthors []string

	GenesisTimestamp int64

	// Anti-spam limits
	MaxAuthorsPerUnit                  int
	MaxParentsPerUnit                  int
	MaxMessagesPerUnit                 int
	MaxSpendProofsPerMessage           int
	MaxInputsPerPaymentMessage         int
	MaxOutputsPerPaymentMessage        int
	MaxChoicesPerPoll                  int
	MaxDenominationsPerAssetDefinition int
	MaxAttestorsPerAsset               int
	MaxDataFeedNameLength              int
	MaxDataFeedValueLength             int
	MaxAuthentifierLength              int
	MaxPayloadURILength                int
	MaxDefinitionComplexity            int

	// MaxCap is the largest cap an asset may declare
	MaxCap uint64

	// TotalWhitebytes is the amount of base currency issued by the genesis unit
	TotalWhitebytes uint64

	// TotalCoordinators is the largest number of coordinators a trustme unit
	// may carry, TotalByzantine the number of faulty coordinators tolerated
	TotalCoordinators int
	TotalByzantine    int

	// MajorityOfWitnesses is the number of distinct committee authors whose
	// units define the witnessed level
	MajorityOfWitnesses int

	MaxRoundIndex uint64

	// MCIsPerRound is the number of main chain indexes in a round
	MCIsPerRound uint64

	// TrustmeTimestampTolerance bounds, in seconds, the distance between the
	// timestamps of consecutive trustme units
	TrustmeTimestampTolerance int64

	// CoinbaseReward is what every witness of a round may claim in the next one
	CoinbaseReward uint64

	// FoundationRatio is the share of each coinbase paid to FoundationAddress
	FoundationRatio       float64
	FoundationAddress     string
	FoundationSafeAddress string

	// Supernodes are the deposit contracts of the witnesses
	Supernodes []*model.Supernode

	CountRoundsForDepositSpend           uint64
	CountRoundsForFoundationDepositSpend uint64

	// PowDifficultyBits is the number of leading zero bits a proof-of-work
	// solution must have
	PowDifficultyBits int

	// Catch-up chains pick a stable joint every CatchupMCIInterval indexes and
	// carry at most CatchupMaxChainBalls of them
	CatchupMCIInterval   uint64
	CatchupMaxChainBalls int

	// SkiplistMCIStep is the main chain index step between skiplist units
	SkiplistMCIStep uint64
}

// MinCoordinators is the least number of coordinators a trustme unit must carry
func (p *Params) MinCoordinators() int {
	return 2*p.TotalByzantine + 1
}

// IsGenesisUnit returns whether unitHash is the genesis unit of the network
func (p *Params) IsGenesisUnit(unitHash *externalapi.DomainHash) bool {
	return p.GenesisUnit.Equal(unitHash)
}

// IsRecoveryUnit returns whether unit is authored by exactly the genesis
// authors, the way a recovery trustme unit is
func (p *Params) IsRecoveryUnit(unit *externalapi.DomainUnit) bool {
	if len(unit.Authors) != len(p.GenesisAuthors) {
		return false
	}
	for i, author := range unit.Authors {
		if author.Address != p.GenesisAuthors[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of p, sharing only the immutable genesis joint
func (p *Params) Clone() *Params {
	clone := *p
	clone.GenesisAuthors = append([]string(nil), p.GenesisAuthors...)
	clone.Supernodes = make([]*model.Supernode, len(p.Supernodes))
	for i, supernode := range p.Supernodes {
		supernodeClone := *supernode
		clone.Supernodes[i] = &supernodeClone
	}
	return &clone
}

var defaultLimits = Params{
	MaxAuthorsPerUnit:                  16,
	MaxParentsPerUnit:                  16,
	MaxMessagesPerUnit:                 128,
	MaxSpendProofsPerMessage:           128,
	MaxInputsPerPaymentMessage:         128,
	MaxOutputsPerPaymentMessage:        128,
	MaxChoicesPerPoll:                  128,
	MaxDenominationsPerAssetDefinition: 64,
	MaxAttestorsPerAsset:               64,
	MaxDataFeedNameLength:              64,
	MaxDataFeedValueLength:             64,
	MaxAuthentifierLength:              4096,
	MaxPayloadURILength:                500,
	MaxDefinitionComplexity:            100,
	MaxCap:                             9e15,
	TotalWhitebytes:                    5e14,
	MaxRoundIndex:                      4204800,
	SkiplistMCIStep:                    10,
	FoundationRatio:                    0.1,
}

// MainnetParams defines the network parameters for the main network.
var MainnetParams = withLimits(Params{
	Name:                                 "mainnet",
	Version:                              "1.0",
	Alt:                                  "1",
	GenesisTimestamp:                     1561000000,
	TotalCoordinators:                    7,
	TotalByzantine:                       2,
	MajorityOfWitnesses:                  5,
	MCIsPerRound:                         100,
	TrustmeTimestampTolerance:            300,
	CoinbaseReward:                       1e9,
	CountRoundsForDepositSpend:           50,
	CountRoundsForFoundationDepositSpend: 100,
	PowDifficultyBits:                    16,
	CatchupMCIInterval:                   100,
	CatchupMaxChainBalls:                 1000,
}, 7)

// TestnetParams defines the network parameters for the test network.
var TestnetParams = withLimits(Params{
	Name:                                 "testnet",
	Version:                              "1.0t",
	Alt:                                  "2",
	GenesisTimestamp:                     1561000000,
	TotalCoordinators:                    7,
	TotalByzantine:                       2,
	MajorityOfWitnesses:                  5,
	MCIsPerRound:                         50,
	TrustmeTimestampTolerance:            300,
	CoinbaseReward:                       1e9,
	CountRoundsForDepositSpend:           20,
	CountRoundsForFoundationDepositSpend: 40,
	PowDifficultyBits:                    12,
	CatchupMCIInterval:                   50,
	CatchupMaxChainBalls:                 1000,
}, 7)

// DevnetParams defines the network parameters for the development network.
// Its witnesses can be impersonated with WitnessSeed.
var DevnetParams = withLimits(Params{
	Name:                                 "devnet",
	Version:                              "1.0dev",
	Alt:                                  "3",
	GenesisTimestamp:                     1561000000,
	TotalCoordinators:                    4,
	TotalByzantine:                       1,
	MajorityOfWitnesses:                  3,
	MCIsPerRound:                         10,
	TrustmeTimestampTolerance:            600,
	CoinbaseReward:                       1e6,
	CountRoundsForDepositSpend:           2,
	CountRoundsForFoundationDepositSpend: 4,
	PowDifficultyBits:                    4,
	CatchupMCIInterval:                   2,
	CatchupMaxChainBalls:                 100,
}, 4)

func withLimits(params Params, witnessCount int) *Params {
	merged := defaultLimits
	merged.Name = params.Name
	merged.Version = params.Version
	merged.Alt = params.Alt
	merged.GenesisTimestamp = params.GenesisTimestamp
	merged.TotalCoordinators = params.TotalCoordinators
	merged.TotalByzantine = params.TotalByzantine
	merged.MajorityOfWitnesses = params.MajorityOfWitnesses
	merged.MCIsPerRound = params.MCIsPerRound
	merged.TrustmeTimestampTolerance = params.TrustmeTimestampTolerance
	merged.CoinbaseReward = params.CoinbaseReward
	merged.CountRoundsForDepositSpend = params.CountRoundsForDepositSpend
	merged.CountRoundsForFoundationDepositSpend = params.CountRoundsForFoundationDepositSpend
	merged.PowDifficultyBits = params.PowDifficultyBits
	merged.CatchupMCIInterval = params.CatchupMCIInterval
	merged.CatchupMaxChainBalls = params.CatchupMaxChainBalls
	mustBuildGenesis(&merged, witnessCount)
	return &merged
}

var (
	// ErrUnknownNetwork is returned by ParamsByName for unregistered networks
	ErrUnknownNetwork = errors.New("unknown network")

	registeredNets = map[string]*Params{
		MainnetParams.Name: MainnetParams,
		TestnetParams.Name: TestnetParams,
		DevnetParams.Name:  DevnetParams,
	}
)

// ParamsByName returns the parameters of a registered network
func ParamsByName(name string) (*Params, error) {
	params, ok := registeredNets[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownNetwork, "network %s", name)
	}
	return params, nil
}
