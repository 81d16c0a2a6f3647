package unitwriter

import (
	"testing"

	"github.com/unitdag/unitd/domain/consensus/datastructures/assetstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/ballstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/datafeedstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/definitionstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/freeunitstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/mainchainstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/outputstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/pollstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/roundstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/unitpropsstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/unitstore"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/processes/mainchainmanager"
	"github.com/unitdag/unitd/domain/consensus/utils/chash"
	"github.com/unitdag/unitd/domain/consensus/utils/consensushashing"
	"github.com/unitdag/unitd/domain/consensus/utils/serialization"
	"github.com/unitdag/unitd/domain/consensus/utils/testutils"
	"github.com/unitdag/unitd/domain/dagconfig"
)

type testSetup struct {
	t               *testing.T
	params          *dagconfig.Params
	db              model.DBManager
	unitPropsStore  model.UnitPropsStore
	mainChainStore  model.MainChainStore
	ballStore       model.BallStore
	freeUnitStore   model.FreeUnitStore
	outputStore     model.OutputStore
	assetStore      model.AssetStore
	pollStore       model.PollStore
	dataFeedStore   model.DataFeedStore
	definitionStore model.DefinitionStore
	roundStore      model.RoundStore
	writer          model.UnitWriter
}

// newTestSetup writes the genesis through the writer under test
func newTestSetup(t *testing.T) *testSetup {
	params := dagconfig.DevnetParams
	unitPropsStore, err := unitpropsstore.New(10)
	if err != nil {
		t.Fatalf("unitpropsstore.New: %+v", err)
	}
	setup := &testSetup{
		t:               t,
		params:          params,
		db:              testutils.NewTestDB(t),
		unitPropsStore:  unitPropsStore,
		mainChainStore:  mainchainstore.New(),
		ballStore:       ballstore.New(),
		freeUnitStore:   freeunitstore.New(),
		outputStore:     outputstore.New(),
		assetStore:      assetstore.New(),
		pollStore:       pollstore.New(),
		dataFeedStore:   datafeedstore.New(),
		definitionStore: definitionstore.New(),
		roundStore:      roundstore.New(),
	}
	unitStore := unitstore.New()
	mainChainManager := mainchainmanager.New(params, unitStore, unitPropsStore, setup.mainChainStore,
		setup.ballStore, setup.outputStore, setup.roundStore)
	setup.writer = New(params, mainChainManager, unitStore, unitPropsStore, setup.ballStore,
		setup.mainChainStore, setup.freeUnitStore, setup.outputStore, setup.assetStore, setup.pollStore,
		setup.dataFeedStore, setup.definitionStore, setup.roundStore)

	err = setup.writer.WriteJoint(setup.db, params.GenesisJoint, model.NewValidationState(false))
	if err != nil {
		t.Fatalf("WriteJoint: genesis: %+v", err)
	}
	return setup
}

func inlineMessage(t *testing.T, app string, payload interface{}) *externalapi.Message {
	raw, err := serialization.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal: %+v", err)
	}
	payloadHash, err := consensushashing.PayloadHash(raw)
	if err != nil {
		t.Fatalf("PayloadHash: %+v", err)
	}
	return &externalapi.Message{
		App:             app,
		PayloadLocation: externalapi.PayloadLocationInline,
		PayloadHash:     payloadHash,
		Payload:         raw,
	}
}

func uint32Pointer(n uint32) *uint32 {
	return &n
}

func stringPointer(s string) *string {
	return &s
}

func (s *testSetup) newUnit(hash *externalapi.DomainHash, messages ...*externalapi.Message) *externalapi.DomainUnit {
	return &externalapi.DomainUnit{
		Hash:         hash,
		ParentUnits:  []*externalapi.DomainHash{s.params.GenesisUnit},
		LastBall:     s.params.GenesisJoint.Ball,
		LastBallUnit: s.params.GenesisUnit,
		Authors:      []*externalapi.Author{{Address: s.params.GenesisAuthors[0]}},
		Messages:     messages,
		RoundIndex:   1,
	}
}

func (s *testSetup) props(unitHash *externalapi.DomainHash) *externalapi.UnitProps {
	props, err := s.unitPropsStore.Get(s.db, unitHash)
	if err != nil {
		s.t.Fatalf("Get: %+v", err)
	}
	return props
}

func TestWriteGenesis(t *testing.T) {
	setup := newTestSetup(t)
	genesis := setup.params.GenesisUnit

	props := setup.props(genesis)
	if !props.IsStable || !props.IsOnMainChain || !props.HasMainChainIndex || props.MainChainIndex != 0 {
		t.Fatalf("expected a stable genesis on the main chain, got %+v", props)
	}
	ball, err := setup.ballStore.Ball(setup.db, genesis)
	if err != nil {
		t.Fatalf("Ball: %+v", err)
	}
	if !ball.Equal(setup.params.GenesisJoint.Ball) {
		t.Fatalf("unexpected genesis ball %s", ball)
	}
	lastStableMCI, err := setup.mainChainStore.LastStableMCI(setup.db)
	if err != nil {
		t.Fatalf("LastStableMCI: %+v", err)
	}
	if lastStableMCI != 0 {
		t.Fatalf("expected last stable index 0, got %d", lastStableMCI)
	}

	outputs, err := setup.outputStore.OutputsByAddress(setup.db, setup.params.GenesisAuthors[0])
	if err != nil {
		t.Fatalf("OutputsByAddress: %+v", err)
	}
	if len(outputs) != 1 || !outputs[0].Unit.Equal(genesis) {
		t.Fatalf("expected one genesis output of the first witness, got %d", len(outputs))
	}

	for _, author := range setup.params.GenesisJoint.Unit.Authors {
		revealers, err := setup.definitionStore.RevealersOfAddress(setup.db, author.Address)
		if err != nil {
			t.Fatalf("RevealersOfAddress: %+v", err)
		}
		if len(revealers) != 1 || !revealers[0].Equal(genesis) {
			t.Fatalf("expected the genesis to reveal the definition of %s", author.Address)
		}
	}

	free, err := setup.freeUnitStore.All(setup.db)
	if err != nil {
		t.Fatalf("All: %+v", err)
	}
	if len(free) != 1 || !free[0].Equal(genesis) {
		t.Fatalf("expected the genesis to be the only free unit, got %v", free)
	}
}

func TestWriteJointDoubleSpend(t *testing.T) {
	setup := newTestSetup(t)
	genesis := setup.params.GenesisUnit
	owner := setup.params.GenesisAuthors[0]
	key := model.TransferSpendKey(nil, genesis, 0, 0)

	payment := &externalapi.Payment{
		Inputs:  []*externalapi.Input{{Unit: genesis, MessageIndex: uint32Pointer(0), OutputIndex: uint32Pointer(0)}},
		Outputs: []*externalapi.Output{{Address: owner, Amount: 1000}},
	}
	first := setup.newUnit(testutils.HashOf(1), inlineMessage(t, externalapi.AppPayment, payment))
	firstState := model.NewValidationState(false)
	firstState.Level = 1
	firstState.AddInputSpend(key, model.InputPosition{}, owner)
	err := setup.writer.WriteJoint(setup.db, &externalapi.DomainJoint{Unit: first}, firstState)
	if err != nil {
		t.Fatalf("WriteJoint: %+v", err)
	}

	second := setup.newUnit(testutils.HashOf(2), inlineMessage(t, externalapi.AppPayment, payment))
	secondState := model.NewValidationState(false)
	secondState.Level = 1
	secondState.Downgrade(externalapi.SequenceTempBad)
	secondState.DowngradeToTempBad = []*externalapi.DomainHash{first.Hash}
	secondState.ClearUniqueness = []model.SpendKey{key}
	secondState.DoubleSpendInputs = []model.InputPosition{{}}
	secondState.AddInputSpend(key, model.InputPosition{}, owner)
	err = setup.writer.WriteJoint(setup.db, &externalapi.DomainJoint{Unit: second}, secondState)
	if err != nil {
		t.Fatalf("WriteJoint: %+v", err)
	}

	for _, unitHash := range []*externalapi.DomainHash{first.Hash, second.Hash} {
		if setup.props(unitHash).Sequence != externalapi.SequenceTempBad {
			t.Fatalf("expected unit %s to be temp-bad", unitHash)
		}
	}
	spenders, err := setup.outputStore.Spenders(setup.db, key)
	if err != nil {
		t.Fatalf("Spenders: %+v", err)
	}
	if len(spenders) != 2 {
		t.Fatalf("expected 2 spenders, got %d", len(spenders))
	}
	for _, spender := range spenders {
		if spender.IsUnique {
			t.Fatalf("spender %s should not be unique", spender.Unit)
		}
	}
	source, err := setup.outputStore.Output(setup.db, genesis, 0, 0)
	if err != nil {
		t.Fatalf("Output: %+v", err)
	}
	if !source.IsSpent {
		t.Fatalf("expected the genesis output to be spent")
	}

	free, err := setup.freeUnitStore.All(setup.db)
	if err != nil {
		t.Fatalf("All: %+v", err)
	}
	if len(free) != 2 || externalapi.HashesContain(free, genesis) {
		t.Fatalf("expected the two spending units to be free, got %v", free)
	}
}

func TestWriteTrustme(t *testing.T) {
	setup := newTestSetup(t)

	trustme := setup.newUnit(testutils.HashOf(1),
		inlineMessage(t, externalapi.AppTrustme, &externalapi.Trustme{Timestamp: 1}))
	trustme.PowType = externalapi.PowTypeTrustme
	trustme.HP = 1
	state := model.NewValidationState(false)
	state.Level = 1
	state.WitnessedLevel = 1
	err := setup.writer.WriteJoint(setup.db, &externalapi.DomainJoint{Unit: trustme}, state)
	if err != nil {
		t.Fatalf("WriteJoint: %+v", err)
	}

	lastStableMCI, err := setup.mainChainStore.LastStableMCI(setup.db)
	if err != nil {
		t.Fatalf("LastStableMCI: %+v", err)
	}
	if lastStableMCI != 1 {
		t.Fatalf("expected last stable index 1, got %d", lastStableMCI)
	}
	trustmeUnits, err := setup.roundStore.TrustmeUnits(setup.db, 1)
	if err != nil {
		t.Fatalf("TrustmeUnits: %+v", err)
	}
	if len(trustmeUnits) != 1 || !trustmeUnits[0].Equal(trustme.Hash) {
		t.Fatalf("expected %s as the trustme unit of round 1, got %v", trustme.Hash, trustmeUnits)
	}
	hasBall, err := setup.ballStore.HasBall(setup.db, trustme.Hash)
	if err != nil {
		t.Fatalf("HasBall: %+v", err)
	}
	if !hasBall {
		t.Fatalf("expected the stable trustme unit to have a ball")
	}
}

func TestWriteMessages(t *testing.T) {
	setup := newTestSetup(t)
	author := setup.params.GenesisAuthors[0]
	newDefinition := []interface{}{"sig", map[string]interface{}{"pubkey": "A2pBRmWzqw9tqfDQfBymnEgnpJq3jkNdqKkRQZ9ruTbz"}}
	newChash, err := chash.FromDefinition(newDefinition)
	if err != nil {
		t.Fatalf("FromDefinition: %+v", err)
	}

	unit := setup.newUnit(testutils.HashOf(1),
		inlineMessage(t, externalapi.AppPoll, &externalapi.Poll{
			Question: stringPointer("color"),
			Choices:  []string{"red", "blue"},
		}),
		inlineMessage(t, externalapi.AppDataFeed, map[string]interface{}{"price": 42, "name": "unit"}),
		inlineMessage(t, externalapi.AppAttestation, &externalapi.Attestation{
			Address: setup.params.GenesisAuthors[1],
			Profile: map[string]interface{}{"verified": "yes"},
		}),
		inlineMessage(t, externalapi.AppAddressDefinitionChange, &externalapi.AddressDefinitionChange{
			DefinitionChash: newChash,
		}))
	err = setup.writer.WriteJoint(setup.db, &externalapi.DomainJoint{Unit: unit}, model.NewValidationState(false))
	if err != nil {
		t.Fatalf("WriteJoint: %+v", err)
	}

	poll, err := setup.pollStore.Poll(setup.db, unit.Hash)
	if err != nil {
		t.Fatalf("Poll: %+v", err)
	}
	if poll.Question != "color" || len(poll.Choices) != 2 {
		t.Fatalf("unexpected poll %+v", poll)
	}

	prices, err := setup.dataFeedStore.Values(setup.db, author, "price")
	if err != nil {
		t.Fatalf("Values: %+v", err)
	}
	if len(prices) != 1 || !prices[0].IsIntValue || prices[0].IntValue != 42 {
		t.Fatalf("unexpected price feed %+v", prices)
	}
	names, err := setup.dataFeedStore.Values(setup.db, author, "name")
	if err != nil {
		t.Fatalf("Values: %+v", err)
	}
	if len(names) != 1 || names[0].IsIntValue || names[0].Value != "unit" {
		t.Fatalf("unexpected name feed %+v", names)
	}

	attestations, err := setup.assetStore.Attestations(setup.db, author, setup.params.GenesisAuthors[1])
	if err != nil {
		t.Fatalf("Attestations: %+v", err)
	}
	if len(attestations) != 1 || !attestations[0].Unit.Equal(unit.Hash) {
		t.Fatalf("expected one attestation by %s", author)
	}

	changes, err := setup.definitionStore.Changes(setup.db, author)
	if err != nil {
		t.Fatalf("Changes: %+v", err)
	}
	if len(changes) != 1 || changes[0].DefinitionChash != newChash {
		t.Fatalf("unexpected definition changes %+v", changes)
	}
}

func TestWritePrivatePayment(t *testing.T) {
	setup := newTestSetup(t)
	asset := testutils.HashOf(0xee)
	owner := setup.params.GenesisAuthors[0]

	source := testutils.HashOf(0xdd)
	err := setup.outputStore.InsertOutput(setup.db, &model.OutputRecord{
		Unit:         source,
		Asset:        asset,
		Denomination: 10,
		Address:      owner,
		Amount:       10,
	})
	if err != nil {
		t.Fatalf("InsertOutput: %+v", err)
	}

	payment := &externalapi.Payment{
		Asset:        asset,
		Denomination: 10,
		Inputs:       []*externalapi.Input{{Unit: source, MessageIndex: uint32Pointer(0), OutputIndex: uint32Pointer(0)}},
		Outputs:      []*externalapi.Output{{Address: owner, Amount: 10, Blinding: "0123456789abcdef"}},
	}
	payloadHash, err := consensushashing.PayloadHashOf(payment)
	if err != nil {
		t.Fatalf("PayloadHashOf: %+v", err)
	}
	unit := setup.newUnit(testutils.HashOf(1), &externalapi.Message{
		App:             externalapi.AppPayment,
		PayloadLocation: externalapi.PayloadLocationNone,
		PayloadHash:     payloadHash,
		SpendProofs:     []*externalapi.SpendProof{{SpendProof: "proof"}},
	})
	err = setup.writer.WriteJoint(setup.db, &externalapi.DomainJoint{Unit: unit}, model.NewValidationState(false))
	if err != nil {
		t.Fatalf("WriteJoint: %+v", err)
	}
	_, err = setup.outputStore.Output(setup.db, unit.Hash, 0, 0)
	if err == nil {
		t.Fatalf("a private payment must not be written before its payload arrives")
	}

	key := model.TransferSpendKey(asset, source, 0, 0)
	for i := 0; i < 2; i++ {
		state := model.NewValidationState(false)
		state.Private = true
		state.AddInputSpend(key, model.InputPosition{}, owner)
		err = setup.writer.WritePrivatePayment(setup.db, unit.Hash, 0, payment, state)
		if err != nil {
			t.Fatalf("WritePrivatePayment: %+v", err)
		}
	}

	output, err := setup.outputStore.Output(setup.db, unit.Hash, 0, 0)
	if err != nil {
		t.Fatalf("Output: %+v", err)
	}
	if !output.Asset.Equal(asset) || output.Blinding != "0123456789abcdef" || output.Amount != 10 {
		t.Fatalf("unexpected private output %+v", output)
	}
	spenders, err := setup.outputStore.Spenders(setup.db, key)
	if err != nil {
		t.Fatalf("Spenders: %+v", err)
	}
	if len(spenders) != 1 || !spenders[0].IsUnique {
		t.Fatalf("expected a single unique spender, got %d", len(spenders))
	}
	spent, err := setup.outputStore.Output(setup.db, source, 0, 0)
	if err != nil {
		t.Fatalf("Output: %+v", err)
	}
	if !spent.IsSpent {
		t.Fatalf("expected the source output to be spent")
	}
}
