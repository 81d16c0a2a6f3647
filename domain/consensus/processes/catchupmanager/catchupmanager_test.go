package catchupmanager

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/datastructures/ballstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/catchupchainstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/hashtreestore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/mainchainstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/outputstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/roundstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/unitpropsstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/unitstore"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/processes/mainchainmanager"
	"github.com/unitdag/unitd/domain/consensus/processes/peerstate"
	"github.com/unitdag/unitd/domain/consensus/processes/roundservice"
	"github.com/unitdag/unitd/domain/consensus/ruleerrors"
	"github.com/unitdag/unitd/domain/consensus/utils/consensushashing"
	"github.com/unitdag/unitd/domain/consensus/utils/testutils"
	"github.com/unitdag/unitd/domain/dagconfig"
)

type testNode struct {
	t                 *testing.T
	params            *dagconfig.Params
	db                model.DBManager
	unitStore         model.UnitStore
	unitPropsStore    model.UnitPropsStore
	mainChainStore    model.MainChainStore
	ballStore         model.BallStore
	hashTreeStore     model.HashTreeStore
	catchupChainStore model.CatchupChainStore
	mainChainManager  model.MainChainManager
	peerState         model.PeerState
	manager           model.CatchupManager
}

func testParams() *dagconfig.Params {
	params := *dagconfig.DevnetParams
	params.CatchupMCIInterval = 5
	params.CatchupMaxChainBalls = 10
	return &params
}

// newTestNode returns a node that knows only the genesis
func newTestNode(t *testing.T, params *dagconfig.Params) *testNode {
	unitPropsStore, err := unitpropsstore.New(10)
	if err != nil {
		t.Fatalf("unitpropsstore.New: %+v", err)
	}
	node := &testNode{
		t:                 t,
		params:            params,
		db:                testutils.NewTestDB(t),
		unitStore:         unitstore.New(),
		unitPropsStore:    unitPropsStore,
		mainChainStore:    mainchainstore.New(),
		ballStore:         ballstore.New(),
		hashTreeStore:     hashtreestore.New(),
		catchupChainStore: catchupchainstore.New(),
		peerState:         peerstate.New(),
	}
	roundStore := roundstore.New()
	node.mainChainManager = mainchainmanager.New(params, node.unitStore, unitPropsStore, node.mainChainStore,
		node.ballStore, outputstore.New(), roundStore)
	roundService := roundservice.New(params.Name, params.GenesisAuthors, params.MCIsPerRound, params.CoinbaseReward,
		params.PowDifficultyBits, node.mainChainStore, roundStore)
	node.manager = New(params, roundService, node.peerState, node.unitStore, unitPropsStore, node.mainChainStore,
		node.ballStore, node.hashTreeStore, node.catchupChainStore)

	err = node.unitStore.Insert(node.db, params.GenesisJoint)
	if err != nil {
		t.Fatalf("Insert: %+v", err)
	}
	err = unitPropsStore.Update(node.db, &externalapi.UnitProps{
		Unit:              params.GenesisUnit,
		HasMainChainIndex: true,
		IsOnMainChain:     true,
		IsStable:          true,
		Sequence:          externalapi.SequenceGood,
	})
	if err != nil {
		t.Fatalf("Update: %+v", err)
	}
	err = node.ballStore.Insert(node.db, params.GenesisUnit, params.GenesisJoint.Ball)
	if err != nil {
		t.Fatalf("Insert ball: %+v", err)
	}
	err = node.mainChainStore.SetMainChainUnit(node.db, 0, params.GenesisUnit)
	if err != nil {
		t.Fatalf("SetMainChainUnit: %+v", err)
	}
	err = node.mainChainStore.AddMember(node.db, 0, params.GenesisUnit)
	if err != nil {
		t.Fatalf("AddMember: %+v", err)
	}
	err = node.mainChainStore.SetLastStableMCI(node.db, 0)
	if err != nil {
		t.Fatalf("SetLastStableMCI: %+v", err)
	}
	return node
}

// extendMainChain stabilizes a chain of count trustme units on top of the
// current last stable unit
func (n *testNode) extendMainChain(count int) {
	lastStableMCI, err := n.mainChainStore.LastStableMCI(n.db)
	if err != nil {
		n.t.Fatalf("LastStableMCI: %+v", err)
	}
	parent, err := n.mainChainStore.MainChainUnit(n.db, lastStableMCI)
	if err != nil {
		n.t.Fatalf("MainChainUnit: %+v", err)
	}
	for i := 0; i < count; i++ {
		mci := lastStableMCI + uint64(i) + 1
		unit := &externalapi.DomainUnit{
			Version:     n.params.Version,
			Alt:         n.params.Alt,
			ParentUnits: []*externalapi.DomainHash{parent},
			Authors:     []*externalapi.Author{{Address: n.params.GenesisAuthors[0]}},
			PowType:     externalapi.PowTypeTrustme,
			Timestamp:   int64(mci),
			HP:          mci,
		}
		unit.Hash, err = consensushashing.UnitHash(unit)
		if err != nil {
			n.t.Fatalf("UnitHash: %+v", err)
		}
		err = n.unitStore.Insert(n.db, &externalapi.DomainJoint{Unit: unit})
		if err != nil {
			n.t.Fatalf("Insert: %+v", err)
		}
		err = n.unitPropsStore.Update(n.db, &externalapi.UnitProps{
			Unit:           unit.Hash,
			Level:          mci,
			WitnessedLevel: mci - 1,
			Sequence:       externalapi.SequenceGood,
			PowType:        externalapi.PowTypeTrustme,
		})
		if err != nil {
			n.t.Fatalf("Update: %+v", err)
		}
		err = n.mainChainManager.UpdateMainChain(n.db, unit)
		if err != nil {
			n.t.Fatalf("UpdateMainChain: %+v", err)
		}
		parent = unit.Hash
	}
}

func (n *testNode) ballAt(mci uint64) *externalapi.DomainHash {
	unitHash, err := n.mainChainStore.MainChainUnit(n.db, mci)
	if err != nil {
		n.t.Fatalf("MainChainUnit: %+v", err)
	}
	ball, err := n.ballStore.Ball(n.db, unitHash)
	if err != nil {
		n.t.Fatalf("Ball: %+v", err)
	}
	return ball
}

func TestPrepareCatchupChain(t *testing.T) {
	node := newTestNode(t, testParams())
	node.extendMainChain(12)

	tests := []struct {
		name              string
		request           *externalapi.CatchupRequest
		maxChainBalls     int
		expectedCurrent   bool
		expectedChainMCIs []uint64
	}{
		{name: "stride", request: &externalapi.CatchupRequest{LastStableMCI: 2, LastKnownMCI: 2},
			expectedChainMCIs: []uint64{2, 7, 12}},
		{name: "from genesis", request: &externalapi.CatchupRequest{LastStableMCI: 0, LastKnownMCI: 0},
			expectedChainMCIs: []uint64{0, 5, 10, 12}},
		{name: "capped", request: &externalapi.CatchupRequest{LastStableMCI: 0, LastKnownMCI: 0}, maxChainBalls: 2,
			expectedChainMCIs: []uint64{0, 5}},
		{name: "last known is not on our main chain", request: &externalapi.CatchupRequest{LastStableMCI: 10,
			LastKnownMCI: 20}, expectedCurrent: true},
		{name: "requester is ahead", request: &externalapi.CatchupRequest{LastStableMCI: 100, LastKnownMCI: 9},
			expectedCurrent: true},
	}
	for _, test := range tests {
		node.params.CatchupMaxChainBalls = 10
		if test.maxChainBalls > 0 {
			node.params.CatchupMaxChainBalls = test.maxChainBalls
		}
		chain, err := node.manager.PrepareCatchupChain(node.db, test.request)
		if err != nil {
			t.Fatalf("%s: PrepareCatchupChain: %+v", test.name, err)
		}
		if chain.IsCurrent() != test.expectedCurrent {
			t.Fatalf("%s: expected current %t, got %+v", test.name, test.expectedCurrent, chain)
		}
		if test.expectedCurrent {
			continue
		}
		if chain.LastMainChainIndex != 12 || chain.LastRoundIndex != 2 {
			t.Fatalf("%s: unexpected last indexes %d/%d", test.name, chain.LastRoundIndex, chain.LastMainChainIndex)
		}
		if len(chain.StableLastBallJoints) != len(test.expectedChainMCIs) {
			t.Fatalf("%s: expected %d joints, got %d", test.name, len(test.expectedChainMCIs),
				len(chain.StableLastBallJoints))
		}
		for i, mci := range test.expectedChainMCIs {
			joint := chain.StableLastBallJoints[i]
			if !joint.Ball.Equal(node.ballAt(mci)) {
				t.Fatalf("%s: joint %d is not the main chain joint at %d", test.name, i, mci)
			}
		}
	}
}

func TestReadHashTree(t *testing.T) {
	node := newTestNode(t, testParams())
	node.extendMainChain(6)

	tree, err := node.manager.ReadHashTree(node.db, &externalapi.HashTreeRequest{
		FromBall: node.ballAt(0),
		ToBall:   node.ballAt(3),
	})
	if err != nil {
		t.Fatalf("ReadHashTree: %+v", err)
	}
	if len(tree) != 4 {
		t.Fatalf("expected the genesis and 3 balls, got %d", len(tree))
	}
	for i, treeBall := range tree {
		if !treeBall.Ball.Equal(node.ballAt(uint64(i))) {
			t.Fatalf("ball %d is out of order", i)
		}
		if i > 0 && (len(treeBall.ParentBalls) != 1 || !treeBall.ParentBalls[0].Equal(tree[i-1].Ball)) {
			t.Fatalf("ball %d has wrong parent balls", i)
		}
	}

	tree, err = node.manager.ReadHashTree(node.db, &externalapi.HashTreeRequest{
		FromBall: node.ballAt(3),
		ToBall:   node.ballAt(6),
	})
	if err != nil {
		t.Fatalf("ReadHashTree: %+v", err)
	}
	if len(tree) != 3 || !tree[0].Ball.Equal(node.ballAt(4)) {
		t.Fatalf("expected balls 4 to 6, got %d balls", len(tree))
	}

	badRequests := []*externalapi.HashTreeRequest{
		{FromBall: node.ballAt(4), ToBall: node.ballAt(4)},
		{FromBall: node.ballAt(5), ToBall: node.ballAt(2)},
		{FromBall: node.ballAt(0), ToBall: testutils.HashOf(1)},
		{FromBall: node.ballAt(0)},
	}
	for i, request := range badRequests {
		_, err := node.manager.ReadHashTree(node.db, request)
		if !errors.Is(err, ruleerrors.ErrInvalidCatchupRequest) {
			t.Fatalf("request %d: expected ErrInvalidCatchupRequest, got %+v", i, err)
		}
	}
}

func TestCatchup(t *testing.T) {
	params := testParams()
	server := newTestNode(t, params)
	server.extendMainChain(12)
	client := newTestNode(t, params)

	chain, err := server.manager.PrepareCatchupChain(server.db, &externalapi.CatchupRequest{})
	if err != nil {
		t.Fatalf("PrepareCatchupChain: %+v", err)
	}
	err = client.manager.ProcessCatchupChain(client.db, chain)
	if err != nil {
		t.Fatalf("ProcessCatchupChain: %+v", err)
	}
	index, ok := client.peerState.Get()
	if !ok || index.RoundIndex != 2 || index.MainChainIndex != 12 {
		t.Fatalf("expected the peer index to be 2/12, got %+v", index)
	}
	err = client.manager.ProcessCatchupChain(client.db, chain)
	if !errors.Is(err, ruleerrors.ErrCatchupChainInProgress) {
		t.Fatalf("expected ErrCatchupChainInProgress, got %+v", err)
	}

	chainBalls, err := client.catchupChainStore.Balls(client.db)
	if err != nil {
		t.Fatalf("Balls: %+v", err)
	}
	if len(chainBalls) != 4 {
		t.Fatalf("expected 4 chain balls, got %d", len(chainBalls))
	}

	tree, err := server.manager.ReadHashTree(server.db, &externalapi.HashTreeRequest{
		FromBall: chainBalls[0],
		ToBall:   chainBalls[1],
	})
	if err != nil {
		t.Fatalf("ReadHashTree: %+v", err)
	}

	tampered := make([]*externalapi.HashTreeBall, len(tree))
	copy(tampered, tree)
	forged := *tree[2]
	forged.IsNonserial = true
	tampered[2] = &forged
	dbTx, err := client.db.Begin()
	if err != nil {
		t.Fatalf("Begin: %+v", err)
	}
	err = client.manager.ProcessHashTree(dbTx, tampered)
	if !errors.Is(err, ruleerrors.ErrInvalidHashTree) {
		t.Fatalf("expected ErrInvalidHashTree, got %+v", err)
	}
	err = dbTx.Rollback()
	if err != nil {
		t.Fatalf("Rollback: %+v", err)
	}

	err = client.manager.ProcessHashTree(client.db, tree)
	if err != nil {
		t.Fatalf("ProcessHashTree: %+v", err)
	}
	staged, err := client.hashTreeStore.Balls(client.db)
	if err != nil {
		t.Fatalf("Balls: %+v", err)
	}
	if len(staged) != 5 {
		t.Fatalf("expected 5 staged balls without the genesis, got %d", len(staged))
	}
	unitHash, err := client.hashTreeStore.UnitByBall(client.db, server.ballAt(5))
	if err != nil {
		t.Fatalf("UnitByBall: %+v", err)
	}
	serverUnit, err := server.mainChainStore.MainChainUnit(server.db, 5)
	if err != nil {
		t.Fatalf("MainChainUnit: %+v", err)
	}
	if !unitHash.Equal(serverUnit) {
		t.Fatalf("staged ball 5 points to %s, expected %s", unitHash, serverUnit)
	}
	first, err := client.catchupChainStore.First(client.db)
	if err != nil {
		t.Fatalf("First: %+v", err)
	}
	if !first.Equal(chainBalls[1]) {
		t.Fatalf("expected the chain to advance to its second ball")
	}

	// A tree whose root is not the next chain ball is refused
	tree, err = server.manager.ReadHashTree(server.db, &externalapi.HashTreeRequest{
		FromBall: server.ballAt(5),
		ToBall:   server.ballAt(9),
	})
	if err != nil {
		t.Fatalf("ReadHashTree: %+v", err)
	}
	err = client.manager.ProcessHashTree(client.db, tree)
	if !errors.Is(err, ruleerrors.ErrInvalidHashTree) {
		t.Fatalf("expected ErrInvalidHashTree, got %+v", err)
	}
}

func TestPurgeHandledBallsFromHashTree(t *testing.T) {
	node := newTestNode(t, testParams())
	node.extendMainChain(2)

	handledUnit, err := node.mainChainStore.MainChainUnit(node.db, 1)
	if err != nil {
		t.Fatalf("MainChainUnit: %+v", err)
	}
	err = node.hashTreeStore.Insert(node.db, node.ballAt(1), handledUnit)
	if err != nil {
		t.Fatalf("Insert: %+v", err)
	}
	err = node.hashTreeStore.Insert(node.db, testutils.HashOf(7), testutils.HashOf(8))
	if err != nil {
		t.Fatalf("Insert: %+v", err)
	}

	err = node.manager.PurgeHandledBallsFromHashTree(node.db)
	if err != nil {
		t.Fatalf("PurgeHandledBallsFromHashTree: %+v", err)
	}
	staged, err := node.hashTreeStore.Balls(node.db)
	if err != nil {
		t.Fatalf("Balls: %+v", err)
	}
	if len(staged) != 1 || !staged[0].Equal(testutils.HashOf(7)) {
		t.Fatalf("expected only the unhandled ball to remain, got %v", staged)
	}
}
