package mainchainmanager

import (
	"testing"

	"github.com/unitdag/unitd/domain/consensus/datastructures/ballstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/mainchainstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/outputstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/roundstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/unitpropsstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/unitstore"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/utils/consensushashing"
	"github.com/unitdag/unitd/domain/consensus/utils/testutils"
	"github.com/unitdag/unitd/domain/dagconfig"
)

type testSetup struct {
	t              *testing.T
	params         *dagconfig.Params
	db             model.DBManager
	unitStore      model.UnitStore
	unitPropsStore model.UnitPropsStore
	mainChainStore model.MainChainStore
	ballStore      model.BallStore
	outputStore    model.OutputStore
	roundStore     model.RoundStore
	manager        model.MainChainManager
}

func newTestSetup(t *testing.T) *testSetup {
	params := dagconfig.DevnetParams
	unitPropsStore, err := unitpropsstore.New(10)
	if err != nil {
		t.Fatalf("unitpropsstore.New: %+v", err)
	}
	setup := &testSetup{
		t:              t,
		params:         params,
		db:             testutils.NewTestDB(t),
		unitStore:      unitstore.New(),
		unitPropsStore: unitPropsStore,
		mainChainStore: mainchainstore.New(),
		ballStore:      ballstore.New(),
		outputStore:    outputstore.New(),
		roundStore:     roundstore.New(),
	}
	setup.manager = New(params, setup.unitStore, unitPropsStore, setup.mainChainStore, setup.ballStore,
		setup.outputStore, setup.roundStore)

	err = setup.unitStore.Insert(setup.db, params.GenesisJoint)
	if err != nil {
		t.Fatalf("Insert: %+v", err)
	}
	err = unitPropsStore.Update(setup.db, &externalapi.UnitProps{
		Unit:              params.GenesisUnit,
		MainChainIndex:    0,
		HasMainChainIndex: true,
		IsOnMainChain:     true,
		IsStable:          true,
		Sequence:          externalapi.SequenceGood,
	})
	if err != nil {
		t.Fatalf("Update: %+v", err)
	}
	err = setup.ballStore.Insert(setup.db, params.GenesisUnit, params.GenesisJoint.Ball)
	if err != nil {
		t.Fatalf("Insert ball: %+v", err)
	}
	err = setup.mainChainStore.SetMainChainUnit(setup.db, 0, params.GenesisUnit)
	if err != nil {
		t.Fatalf("SetMainChainUnit: %+v", err)
	}
	err = setup.mainChainStore.SetLastStableMCI(setup.db, 0)
	if err != nil {
		t.Fatalf("SetLastStableMCI: %+v", err)
	}
	return setup
}

// storeUnit stores an unstable unit with the given parents
func (s *testSetup) storeUnit(hash *externalapi.DomainHash, level uint64, sequence externalapi.Sequence,
	parents ...*externalapi.DomainHash) *externalapi.DomainUnit {

	unit := &externalapi.DomainUnit{
		Hash:        hash,
		ParentUnits: parents,
		Authors:     []*externalapi.Author{{Address: s.params.GenesisAuthors[0]}},
	}
	err := s.unitStore.Insert(s.db, &externalapi.DomainJoint{Unit: unit})
	if err != nil {
		s.t.Fatalf("Insert: %+v", err)
	}
	err = s.unitPropsStore.Update(s.db, &externalapi.UnitProps{
		Unit:     hash,
		Level:    level,
		Sequence: sequence,
	})
	if err != nil {
		s.t.Fatalf("Update: %+v", err)
	}
	return unit
}

func (s *testSetup) storeTrustme(hash *externalapi.DomainHash, level uint64, hp uint64, witnessedLevel uint64,
	parents ...*externalapi.DomainHash) *externalapi.DomainUnit {

	unit := s.storeUnit(hash, level, externalapi.SequenceGood, parents...)
	unit.PowType = externalapi.PowTypeTrustme
	unit.HP = hp
	props, err := s.unitPropsStore.Get(s.db, hash)
	if err != nil {
		s.t.Fatalf("Get: %+v", err)
	}
	props.PowType = externalapi.PowTypeTrustme
	props.WitnessedLevel = witnessedLevel
	err = s.unitPropsStore.Update(s.db, props)
	if err != nil {
		s.t.Fatalf("Update: %+v", err)
	}
	return unit
}

func (s *testSetup) spend(key model.SpendKey, unitHash *externalapi.DomainHash, isUnique bool) {
	err := s.outputStore.InsertSpender(s.db, key, &model.Spender{Unit: unitHash, IsUnique: isUnique})
	if err != nil {
		s.t.Fatalf("InsertSpender: %+v", err)
	}
}

func (s *testSetup) props(unitHash *externalapi.DomainHash) *externalapi.UnitProps {
	props, err := s.unitPropsStore.Get(s.db, unitHash)
	if err != nil {
		s.t.Fatalf("Get: %+v", err)
	}
	return props
}

func (s *testSetup) ball(unitHash *externalapi.DomainHash) *externalapi.DomainHash {
	ball, err := s.ballStore.Ball(s.db, unitHash)
	if err != nil {
		s.t.Fatalf("Ball of %s: %+v", unitHash, err)
	}
	return ball
}

func ballHash(t *testing.T, unitHash *externalapi.DomainHash, parentBalls []*externalapi.DomainHash,
	skiplistBalls []*externalapi.DomainHash, isNonserial bool) *externalapi.DomainHash {

	ball, err := consensushashing.BallHash(unitHash, parentBalls, skiplistBalls, isNonserial)
	if err != nil {
		t.Fatalf("BallHash: %+v", err)
	}
	return ball
}

func TestUpdateMainChain(t *testing.T) {
	setup := newTestSetup(t)
	genesis := setup.params.GenesisUnit

	good := testutils.HashOf(1)
	conflicting := testutils.HashOf(2)
	tempBad := testutils.HashOf(3)
	outside := testutils.HashOf(4)
	setup.storeUnit(good, 1, externalapi.SequenceGood, genesis)
	setup.storeUnit(conflicting, 1, externalapi.SequenceTempBad, genesis)
	setup.storeUnit(tempBad, 1, externalapi.SequenceTempBad, genesis)
	setup.storeUnit(outside, 1, externalapi.SequenceTempBad, genesis)

	sharedKey := model.CoinbaseSpendKey(1, "SHARED")
	setup.spend(sharedKey, good, false)
	setup.spend(sharedKey, conflicting, false)
	otherKey := model.CoinbaseSpendKey(1, "OTHER")
	setup.spend(otherKey, tempBad, false)
	setup.spend(otherKey, outside, false)

	trustmeHash := testutils.HashOf(5)
	trustme := setup.storeTrustme(trustmeHash, 2, 1, 7, good, conflicting, tempBad)

	err := setup.manager.UpdateMainChain(setup.db, trustme)
	if err != nil {
		t.Fatalf("UpdateMainChain: %+v", err)
	}

	lastStableMCI, err := setup.manager.LastStableMCI(setup.db)
	if err != nil {
		t.Fatalf("LastStableMCI: %+v", err)
	}
	if lastStableMCI != 1 {
		t.Fatalf("expected last stable index 1, got %d", lastStableMCI)
	}
	mainChainUnit, err := setup.mainChainStore.MainChainUnit(setup.db, 1)
	if err != nil {
		t.Fatalf("MainChainUnit: %+v", err)
	}
	if !mainChainUnit.Equal(trustmeHash) {
		t.Fatalf("expected %s on the main chain, got %s", trustmeHash, mainChainUnit)
	}

	expectedSequences := map[*externalapi.DomainHash]externalapi.Sequence{
		trustmeHash: externalapi.SequenceGood,
		good:        externalapi.SequenceGood,
		conflicting: externalapi.SequenceFinalBad,
		tempBad:     externalapi.SequenceGood,
	}
	for unitHash, expectedSequence := range expectedSequences {
		props := setup.props(unitHash)
		if !props.IsStable || !props.HasMainChainIndex || props.MainChainIndex != 1 {
			t.Fatalf("unit %s: expected stable at index 1, got %+v", unitHash, props)
		}
		if props.Sequence != expectedSequence {
			t.Fatalf("unit %s: expected sequence %s, got %s", unitHash, expectedSequence, props.Sequence)
		}
		if props.IsOnMainChain != unitHash.Equal(trustmeHash) {
			t.Fatalf("unit %s: unexpected IsOnMainChain %t", unitHash, props.IsOnMainChain)
		}
	}
	outsideProps := setup.props(outside)
	if outsideProps.IsStable || outsideProps.HasMainChainIndex {
		t.Fatalf("unit %s is not included by the trustme unit but became stable", outside)
	}

	members, err := setup.mainChainStore.Members(setup.db, 1)
	if err != nil {
		t.Fatalf("Members: %+v", err)
	}
	if len(members) != 4 {
		t.Fatalf("expected 4 members of index 1, got %d", len(members))
	}

	spenders, err := setup.outputStore.Spenders(setup.db, otherKey)
	if err != nil {
		t.Fatalf("Spenders: %+v", err)
	}
	for _, spender := range spenders {
		if spender.IsUnique != spender.Unit.Equal(tempBad) {
			t.Fatalf("spender %s: unexpected IsUnique %t", spender.Unit, spender.IsUnique)
		}
	}

	genesisBall := setup.params.GenesisJoint.Ball
	expectedBall := ballHash(t, conflicting, []*externalapi.DomainHash{genesisBall}, nil, true)
	if !setup.ball(conflicting).Equal(expectedBall) {
		t.Fatalf("unexpected ball of the final-bad unit")
	}
	expectedBall = ballHash(t, trustmeHash,
		[]*externalapi.DomainHash{setup.ball(good), setup.ball(conflicting), setup.ball(tempBad)}, nil, false)
	if !setup.ball(trustmeHash).Equal(expectedBall) {
		t.Fatalf("unexpected ball of the main chain unit")
	}

	info, err := setup.roundStore.RoundInfo(setup.db, 1)
	if err != nil {
		t.Fatalf("RoundInfo: %+v", err)
	}
	if !info.HasMinWL || !info.HasMaxWL || info.MinWL != 7 || info.MaxWL != 7 {
		t.Fatalf("unexpected round info: %+v", info)
	}
}

func TestUpdateMainChainSkiplist(t *testing.T) {
	setup := newTestSetup(t)

	parent := setup.params.GenesisUnit
	step := setup.params.SkiplistMCIStep
	for mci := uint64(1); mci <= step; mci++ {
		trustme := setup.storeTrustme(testutils.HashOf(byte(mci)), mci, mci, mci, parent)
		err := setup.manager.UpdateMainChain(setup.db, trustme)
		if err != nil {
			t.Fatalf("UpdateMainChain at %d: %+v", mci, err)
		}
		parent = trustme.Hash
	}

	skiplist, err := setup.ballStore.Skiplist(setup.db, parent)
	if err != nil {
		t.Fatalf("Skiplist: %+v", err)
	}
	if len(skiplist) != 1 || !skiplist[0].Equal(setup.params.GenesisUnit) {
		t.Fatalf("expected the genesis as the only skiplist unit, got %v", skiplist)
	}
	previous := testutils.HashOf(byte(step - 1))
	expectedBall := ballHash(t, parent, []*externalapi.DomainHash{setup.ball(previous)},
		[]*externalapi.DomainHash{setup.params.GenesisJoint.Ball}, false)
	if !setup.ball(parent).Equal(expectedBall) {
		t.Fatalf("unexpected ball of the skiplist unit")
	}

	skiplist, err = setup.ballStore.Skiplist(setup.db, previous)
	if err != nil {
		t.Fatalf("Skiplist: %+v", err)
	}
	if len(skiplist) != 0 {
		t.Fatalf("expected no skiplist at index %d, got %v", step-1, skiplist)
	}

	info, err := setup.roundStore.RoundInfo(setup.db, 1)
	if err != nil {
		t.Fatalf("RoundInfo: %+v", err)
	}
	if info.MinWL != 1 || info.MaxWL != step {
		t.Fatalf("expected witnessed levels 1 to %d in the first round, got %+v", step, info)
	}
}

func TestUpdateMainChainWrongHeight(t *testing.T) {
	setup := newTestSetup(t)
	trustme := setup.storeTrustme(testutils.HashOf(1), 1, 2, 1, setup.params.GenesisUnit)
	err := setup.manager.UpdateMainChain(setup.db, trustme)
	if err == nil {
		t.Fatalf("UpdateMainChain: expected an error for height 2 with last stable index 0")
	}
}
