package authorvalidator

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/datastructures/datafeedstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/definitionstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/mainchainstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/roundstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/unitpropsstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/unitstore"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/processes/addressdefinitionmanager"
	"github.com/unitdag/unitd/domain/consensus/processes/dagtraversalmanager"
	"github.com/unitdag/unitd/domain/consensus/processes/definitionevaluator"
	"github.com/unitdag/unitd/domain/consensus/processes/roundservice"
	"github.com/unitdag/unitd/domain/consensus/ruleerrors"
	"github.com/unitdag/unitd/domain/consensus/utils/signing"
	"github.com/unitdag/unitd/domain/consensus/utils/testutils"
	"github.com/unitdag/unitd/domain/consensus/utils/unitcomposer"
	"github.com/unitdag/unitd/domain/dagconfig"
)

type testSetup struct {
	t               *testing.T
	params          *dagconfig.Params
	db              model.DBManager
	signers         []*signing.Signer
	unitStore       model.UnitStore
	unitPropsStore  model.UnitPropsStore
	definitionStore model.DefinitionStore
	validator       model.AuthorValidator
}

func newTestSetup(t *testing.T) *testSetup {
	params := dagconfig.DevnetParams
	unitPropsStore, err := unitpropsstore.New(10)
	if err != nil {
		t.Fatalf("unitpropsstore.New: %+v", err)
	}
	unitStore := unitstore.New()
	definitionStore := definitionstore.New()
	mainChainStore := mainchainstore.New()
	roundService := roundservice.New(params.Name, params.GenesisAuthors, params.MCIsPerRound,
		params.CoinbaseReward, params.PowDifficultyBits, mainChainStore, roundstore.New())
	dagTraversalManager := dagtraversalmanager.New(params.MajorityOfWitnesses, unitStore, unitPropsStore, roundService)
	addressDefinitionManager := addressdefinitionmanager.New(definitionStore, unitPropsStore)
	evaluator := definitionevaluator.New(params.MaxDefinitionComplexity, addressDefinitionManager,
		datafeedstore.New(), unitPropsStore)

	setup := &testSetup{
		t:               t,
		params:          params,
		db:              testutils.NewTestDB(t),
		signers:         dagconfig.WitnessSigners(params),
		unitStore:       unitStore,
		unitPropsStore:  unitPropsStore,
		definitionStore: definitionStore,
		validator: New(params, evaluator, roundService, addressDefinitionManager, dagTraversalManager,
			unitStore, unitPropsStore, definitionStore, mainChainStore),
	}

	genesis := params.GenesisJoint
	setup.insert(genesis.Unit, &externalapi.UnitProps{
		Unit:              genesis.Unit.Hash,
		HasMainChainIndex: true,
		IsOnMainChain:     true,
		IsStable:          true,
		Sequence:          externalapi.SequenceGood,
	})
	err = mainChainStore.SetMainChainUnit(setup.db, 0, genesis.Unit.Hash)
	if err != nil {
		t.Fatalf("SetMainChainUnit: %+v", err)
	}
	err = mainChainStore.SetLastStableMCI(setup.db, 0)
	if err != nil {
		t.Fatalf("SetLastStableMCI: %+v", err)
	}
	return setup
}

func (s *testSetup) insert(unit *externalapi.DomainUnit, props *externalapi.UnitProps) {
	err := s.unitStore.Insert(s.db, &externalapi.DomainJoint{Unit: unit})
	if err != nil {
		s.t.Fatalf("Insert: %+v", err)
	}
	err = s.unitPropsStore.Update(s.db, props)
	if err != nil {
		s.t.Fatalf("Update: %+v", err)
	}
}

// compose signs a unit on top of the genesis by signers, revealing their
// definitions if reveal is set
func (s *testSetup) compose(signers []*signing.Signer, reveal bool, modify func(*externalapi.DomainUnit)) *externalapi.DomainUnit {
	genesis := s.params.GenesisJoint
	unit := &externalapi.DomainUnit{
		Version:      s.params.Version,
		Alt:          s.params.Alt,
		ParentUnits:  []*externalapi.DomainHash{genesis.Unit.Hash},
		LastBall:     genesis.Ball,
		LastBallUnit: genesis.Unit.Hash,
		Timestamp:    s.params.GenesisTimestamp + 10,
		Messages: []*externalapi.Message{{
			App:             externalapi.AppText,
			PayloadLocation: externalapi.PayloadLocationInline,
			Payload:         []byte(`"hello"`),
		}},
	}
	for _, signer := range signers {
		author := &externalapi.Author{Address: signer.Address}
		if reveal {
			author.Definition = signer.Definition
		}
		unit.Authors = append(unit.Authors, author)
	}
	if modify != nil {
		modify(unit)
	}
	err := unitcomposer.Compose(unit, signers, nil, nil)
	if err != nil {
		s.t.Fatalf("Compose: %+v", err)
	}
	return unit
}

func (s *testSetup) validate(unit *externalapi.DomainUnit) error {
	return s.validator.ValidateAuthors(s.db, unit, model.NewValidationState(false))
}

func TestValidateAuthors(t *testing.T) {
	setup := newTestSetup(t)
	signer := setup.signers[0]

	err := setup.validate(setup.compose([]*signing.Signer{signer}, true, nil))
	if err != nil {
		t.Fatalf("ValidateAuthors: first use with a revealed definition: %+v", err)
	}

	err = setup.validate(setup.compose([]*signing.Signer{signer}, false, nil))
	if !errors.Is(err, ruleerrors.ErrDefinitionNotFound) {
		t.Fatalf("expected ErrDefinitionNotFound, got: %+v", err)
	}

	err = setup.definitionStore.InsertDefinition(setup.db, signer.Address, signer.Definition)
	if err != nil {
		t.Fatalf("InsertDefinition: %+v", err)
	}
	err = setup.validate(setup.compose([]*signing.Signer{signer}, false, nil))
	if err != nil {
		t.Fatalf("ValidateAuthors: stored definition: %+v", err)
	}
	err = setup.validate(setup.compose([]*signing.Signer{signer}, true, nil))
	if err != nil {
		t.Fatalf("ValidateAuthors: revealing the stored definition again: %+v", err)
	}

	unit := setup.compose([]*signing.Signer{signer}, false, nil)
	unit.Authors[0].Authentifiers = setup.signers[1].Authentifiers(testutils.HashOf(1))
	err = setup.validate(unit)
	if !errors.Is(err, ruleerrors.ErrAuthentifierVerificationFailed) {
		t.Fatalf("expected ErrAuthentifierVerificationFailed, got: %+v", err)
	}

	unit = setup.compose([]*signing.Signer{signer}, false, nil)
	unit.Authors[0].Authentifiers = nil
	err = setup.validate(unit)
	if !errors.Is(err, ruleerrors.ErrNoAuthentifiers) {
		t.Fatalf("expected ErrNoAuthentifiers, got: %+v", err)
	}

	unit = setup.compose(setup.signers[:2], true, nil)
	unit.Authors[0], unit.Authors[1] = unit.Authors[1], unit.Authors[0]
	err = setup.validate(unit)
	if !errors.Is(err, ruleerrors.ErrAuthorsNotSorted) {
		t.Fatalf("expected ErrAuthorsNotSorted, got: %+v", err)
	}

	unit = setup.compose([]*signing.Signer{signing.NewSignerFromSeed("impostor")}, true, nil)
	unit.Authors[0].Address = signer.Address
	err = setup.validate(unit)
	if err == nil {
		t.Fatalf("expected a definition of another address to be rejected")
	}
}

func TestPendingDefinitionChange(t *testing.T) {
	setup := newTestSetup(t)
	signer := setup.signers[0]

	err := setup.definitionStore.InsertDefinition(setup.db, signer.Address, signer.Definition)
	if err != nil {
		t.Fatalf("InsertDefinition: %+v", err)
	}

	change := setup.compose([]*signing.Signer{signer}, false, nil)
	setup.insert(change, &externalapi.UnitProps{
		Unit:           change.Hash,
		Level:          1,
		BestParentUnit: setup.params.GenesisUnit,
		LastBallUnit:   setup.params.GenesisUnit,
		Sequence:       externalapi.SequenceGood,
	})
	err = setup.definitionStore.InsertChange(setup.db, &model.DefinitionChange{
		Unit:            change.Hash,
		Address:         signer.Address,
		DefinitionChash: setup.signers[1].Address,
	})
	if err != nil {
		t.Fatalf("InsertChange: %+v", err)
	}

	err = setup.validate(setup.compose([]*signing.Signer{signer}, false, nil))
	if err != nil {
		t.Fatalf("ValidateAuthors: a change the unit doesn't include: %+v", err)
	}

	unit := setup.compose([]*signing.Signer{signer}, false, func(unit *externalapi.DomainUnit) {
		unit.ParentUnits = []*externalapi.DomainHash{change.Hash}
	})
	err = setup.validate(unit)
	if !errors.Is(err, ruleerrors.ErrPendingDefinitionChange) {
		t.Fatalf("expected ErrPendingDefinitionChange, got: %+v", err)
	}
}

func (s *testSetup) signerOf(address string) *signing.Signer {
	for _, signer := range s.signers {
		if signer.Address == address {
			return signer
		}
	}
	s.t.Fatalf("no signer for %s", address)
	return nil
}

func TestTrustmeAuthors(t *testing.T) {
	setup := newTestSetup(t)

	trustme := func(hp uint64, roundIndex uint64) func(*externalapi.DomainUnit) {
		return func(unit *externalapi.DomainUnit) {
			unit.PowType = externalapi.PowTypeTrustme
			unit.RoundIndex = roundIndex
			unit.HP = hp
			unit.Messages = []*externalapi.Message{{
				App:             externalapi.AppTrustme,
				PayloadLocation: externalapi.PayloadLocationInline,
				Payload:         []byte(`{"timestamp":1561000100}`),
			}}
		}
	}

	// hp 1, phase 0 is proposed by the second witness
	proposer := setup.signerOf(setup.params.GenesisAuthors[1])
	other := setup.signerOf(setup.params.GenesisAuthors[2])

	err := setup.validate(setup.compose([]*signing.Signer{proposer}, true, trustme(1, 1)))
	if err != nil {
		t.Fatalf("ValidateAuthors: proposer: %+v", err)
	}

	err = setup.validate(setup.compose([]*signing.Signer{other}, true, trustme(1, 1)))
	if !errors.Is(err, ruleerrors.ErrWrongProposer) {
		t.Fatalf("expected ErrWrongProposer, got: %+v", err)
	}

	err = setup.validate(setup.compose([]*signing.Signer{proposer}, true, trustme(1, 2)))
	if !errors.Is(err, ruleerrors.ErrWrongProposalRound) {
		t.Fatalf("expected ErrWrongProposalRound, got: %+v", err)
	}

	err = setup.validate(setup.compose(setup.signers, true, trustme(1, 1)))
	if err != nil {
		t.Fatalf("ValidateAuthors: recovery: %+v", err)
	}

	err = setup.validate(setup.compose(setup.signers[:2], true, trustme(1, 1)))
	if !errors.Is(err, ruleerrors.ErrTrustmeAuthorCount) {
		t.Fatalf("expected ErrTrustmeAuthorCount, got: %+v", err)
	}
}
