// Package roundservice implements a RoundService with a fixed committee: the
// genesis authors are the witnesses of every round and proposers rotate by
// proposal height and phase.
package roundservice

import (
	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/utils/consensushashing"
)

type roundService struct {
	networkName    string
	witnesses      []string
	mcisPerRound   uint64
	coinbaseReward uint64
	difficultyBits int

	mainChainStore model.MainChainStore
	roundStore     model.RoundStore
}

// New instantiates a new RoundService. witnesses must be sorted.
func New(
	networkName string,
	witnesses []string,
	mcisPerRound uint64,
	coinbaseReward uint64,
	difficultyBits int,
	mainChainStore model.MainChainStore,
	roundStore model.RoundStore) model.RoundService {

	return &roundService{
		networkName:    networkName,
		witnesses:      append([]string(nil), witnesses...),
		mcisPerRound:   mcisPerRound,
		coinbaseReward: coinbaseReward,
		difficultyBits: difficultyBits,
		mainChainStore: mainChainStore,
		roundStore:     roundStore,
	}
}

// RoundOfMCI returns the round a main chain index belongs to. Round r spans
// the indexes (r-1)*mcisPerRound+1 to r*mcisPerRound, the genesis belongs to
// the first round.
func RoundOfMCI(mci uint64, mcisPerRound uint64) uint64 {
	if mci == 0 {
		return 1
	}
	return (mci + mcisPerRound - 1) / mcisPerRound
}

// IsLastMCIOfRound returns whether mci closes its round
func IsLastMCIOfRound(mci uint64, mcisPerRound uint64) bool {
	return mci > 0 && mci%mcisPerRound == 0
}

// CurrentRoundIndex returns the round of the next main chain index to stabilize
func (rs *roundService) CurrentRoundIndex(dbContext model.DBReader) (uint64, error) {
	lastStableMCI, err := rs.mainChainStore.LastStableMCI(dbContext)
	if database.IsNotFoundError(err) {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return RoundOfMCI(lastStableMCI+1, rs.mcisPerRound), nil
}

func (rs *roundService) MinMaxWitnessedLevel(dbContext model.DBReader, roundIndex uint64) (*model.RoundInfo, error) {
	return rs.roundStore.RoundInfo(dbContext, roundIndex)
}

func (rs *roundService) WitnessesForRound(model.DBReader, uint64) ([]string, error) {
	return append([]string(nil), rs.witnesses...), nil
}

// CoordinatorsForProposal returns who proposes at height hp in the given
// phase, and the round and witnesses the proposal belongs to
func (rs *roundService) CoordinatorsForProposal(dbContext model.DBReader, hp uint64, phase uint64) (
	proposer string, roundIndex uint64, witnesses []string, err error) {

	roundIndex = RoundOfMCI(hp, rs.mcisPerRound)
	witnesses, err = rs.WitnessesForRound(dbContext, roundIndex)
	if err != nil {
		return "", 0, nil, err
	}
	proposer = witnesses[(hp+phase)%uint64(len(witnesses))]
	return proposer, roundIndex, witnesses, nil
}

// CoinbaseCommission returns what address earned by witnessing roundIndex
func (rs *roundService) CoinbaseCommission(dbContext model.DBReader, roundIndex uint64, address string) (uint64, error) {
	witnesses, err := rs.WitnessesForRound(dbContext, roundIndex)
	if err != nil {
		return 0, err
	}
	for _, witness := range witnesses {
		if witness == address {
			return rs.coinbaseReward, nil
		}
	}
	return 0, nil
}

func (rs *roundService) RoundSeed(_ model.DBReader, roundIndex uint64) (string, error) {
	return Seed(rs.networkName, roundIndex), nil
}

func (rs *roundService) CheckProofOfWork(dbContext model.DBReader, roundIndex uint64, address string,
	pow *externalapi.PowEquihash) (bool, error) {

	if pow.Solution == nil {
		return false, nil
	}
	seed, err := rs.RoundSeed(dbContext, roundIndex)
	if err != nil {
		return false, err
	}
	if pow.Seed != seed {
		return false, nil
	}
	return VerifySolution(seed, address, pow.Solution, rs.difficultyBits), nil
}

// Seed returns the public seed of a round
func Seed(networkName string, roundIndex uint64) string {
	return consensushashing.DataHash(networkName + "-round-" + uint64String(roundIndex)).String()
}
