package roundservice

import (
	"testing"

	"github.com/unitdag/unitd/domain/consensus/datastructures/mainchainstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/roundstore"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/utils/testutils"
)

func TestRoundOfMCI(t *testing.T) {
	tests := []struct {
		mci           uint64
		expectedRound uint64
		closesRound   bool
	}{
		{mci: 0, expectedRound: 1},
		{mci: 1, expectedRound: 1},
		{mci: 10, expectedRound: 1, closesRound: true},
		{mci: 11, expectedRound: 2},
		{mci: 20, expectedRound: 2, closesRound: true},
	}
	for _, test := range tests {
		round := RoundOfMCI(test.mci, 10)
		if round != test.expectedRound {
			t.Fatalf("mci %d: expected round %d, got %d", test.mci, test.expectedRound, round)
		}
		if IsLastMCIOfRound(test.mci, 10) != test.closesRound {
			t.Fatalf("mci %d: expected closing %t", test.mci, test.closesRound)
		}
	}
}

func TestCurrentRoundAndProposers(t *testing.T) {
	db := testutils.NewTestDB(t)
	mainChainStore := mainchainstore.New()
	witnesses := []string{"W1", "W2", "W3", "W4"}
	service := New("devnet", witnesses, 10, 1000, 4, mainChainStore, roundstore.New())

	round, err := service.CurrentRoundIndex(db)
	if err != nil {
		t.Fatalf("CurrentRoundIndex: %+v", err)
	}
	if round != 1 {
		t.Fatalf("expected round 1 on an empty DAG, got %d", round)
	}

	err = mainChainStore.SetLastStableMCI(db, 10)
	if err != nil {
		t.Fatalf("SetLastStableMCI: %+v", err)
	}
	round, err = service.CurrentRoundIndex(db)
	if err != nil {
		t.Fatalf("CurrentRoundIndex: %+v", err)
	}
	if round != 2 {
		t.Fatalf("expected round 2 once the first round stabilized, got %d", round)
	}

	proposer, proposalRound, _, err := service.CoordinatorsForProposal(db, 11, 1)
	if err != nil {
		t.Fatalf("CoordinatorsForProposal: %+v", err)
	}
	if proposer != "W1" || proposalRound != 2 {
		t.Fatalf("unexpected proposer %s of round %d", proposer, proposalRound)
	}

	commission, err := service.CoinbaseCommission(db, 1, "W3")
	if err != nil {
		t.Fatalf("CoinbaseCommission: %+v", err)
	}
	if commission != 1000 {
		t.Fatalf("expected a witness to earn the reward, got %d", commission)
	}
	commission, err = service.CoinbaseCommission(db, 1, "USER")
	if err != nil {
		t.Fatalf("CoinbaseCommission: %+v", err)
	}
	if commission != 0 {
		t.Fatalf("expected a non-witness to earn nothing, got %d", commission)
	}
}

func TestCheckProofOfWork(t *testing.T) {
	db := testutils.NewTestDB(t)
	service := New("devnet", []string{"W1"}, 10, 1000, 6, mainchainstore.New(), roundstore.New())

	seed := Seed("devnet", 3)
	solution := Solve(seed, "W1", 6)
	ok, err := service.CheckProofOfWork(db, 3, "W1", &externalapi.PowEquihash{Seed: seed, Solution: solution})
	if err != nil {
		t.Fatalf("CheckProofOfWork: %+v", err)
	}
	if !ok {
		t.Fatalf("expected the solution to be accepted")
	}

	ok, err = service.CheckProofOfWork(db, 3, "W2", &externalapi.PowEquihash{Seed: seed, Solution: solution})
	if err != nil {
		t.Fatalf("CheckProofOfWork: %+v", err)
	}
	if ok {
		t.Fatalf("expected a solution found by another address to be rejected")
	}

	ok, err = service.CheckProofOfWork(db, 4, "W1", &externalapi.PowEquihash{Seed: seed, Solution: solution})
	if err != nil {
		t.Fatalf("CheckProofOfWork: %+v", err)
	}
	if ok {
		t.Fatalf("expected a solution of another round to be rejected")
	}
}
