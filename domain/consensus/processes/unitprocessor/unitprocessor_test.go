package unitprocessor

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/datastructures/hashtreestore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/knownbadstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/unitstore"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/ruleerrors"
	"github.com/unitdag/unitd/domain/consensus/utils/testutils"
	"github.com/unitdag/unitd/util/locks"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("github.com/syndtr/goleveldb/leveldb.(*DB).mpoolDrain"))
}

// fakeJointValidator requires the parents of a joint to be stored and fails
// joints listed in isolationErrors
type fakeJointValidator struct {
	unitStore       model.UnitStore
	isolationErrors map[externalapi.DomainHash]error
}

func (v *fakeJointValidator) ValidateJointInIsolation(joint *externalapi.DomainJoint) error {
	return v.isolationErrors[*joint.Unit.Hash]
}

func (v *fakeJointValidator) ValidateJointInContext(dbContext model.DBReader, joint *externalapi.DomainJoint,
	_ *model.ValidationState) error {

	var missing []*externalapi.DomainHash
	for _, parent := range joint.Unit.ParentUnits {
		has, err := v.unitStore.Has(dbContext, parent)
		if err != nil {
			return err
		}
		if !has {
			missing = append(missing, parent)
		}
	}
	if len(missing) > 0 {
		return ruleerrors.NewErrMissingParents(missing)
	}
	return nil
}

type fakeAuthorValidator struct{}

func (fakeAuthorValidator) ValidateAuthors(model.DBReader, *externalapi.DomainUnit, *model.ValidationState) error {
	return nil
}

func (fakeAuthorValidator) ValidateAuthor(model.DBReader, *externalapi.Author, *externalapi.DomainUnit,
	*model.ValidationState, *externalapi.DomainHash) error {
	return nil
}

type fakeRoundValidator struct{}

func (fakeRoundValidator) ValidateWitnessedLevel(model.DBReader, *externalapi.DomainUnit, *model.ValidationState) error {
	return nil
}

func (fakeRoundValidator) ValidateCoordinators(model.DBReader, *externalapi.DomainUnit, *model.ValidationState) error {
	return nil
}

type fakeMessageValidator struct {
	messageErrors map[externalapi.DomainHash]error
	privateErr    error
}

func (v *fakeMessageValidator) ValidateMessages(_ model.DBReader, unit *externalapi.DomainUnit,
	_ *model.ValidationState) error {
	return v.messageErrors[*unit.Hash]
}

func (v *fakeMessageValidator) ValidatePrivatePayment(model.DBReader, *externalapi.DomainHash, uint32,
	*externalapi.Payment) (*model.ValidationState, error) {

	if v.privateErr != nil {
		return nil, v.privateErr
	}
	return model.NewValidationState(false), nil
}

type fakeUnitWriter struct {
	unitStore       model.UnitStore
	err             error
	privatePayments int
}

func (w *fakeUnitWriter) WriteJoint(dbContext model.DBWriter, joint *externalapi.DomainJoint,
	_ *model.ValidationState) error {

	if w.err != nil {
		return w.err
	}
	return w.unitStore.Insert(dbContext, joint)
}

func (w *fakeUnitWriter) WritePrivatePayment(model.DBWriter, *externalapi.DomainHash, uint32,
	*externalapi.Payment, *model.ValidationState) error {

	if w.err != nil {
		return w.err
	}
	w.privatePayments++
	return nil
}

type recordingNotifier struct {
	sync.Mutex
	accepted []*externalapi.DomainHash
}

func (n *recordingNotifier) NotifyUnitAccepted(joint *externalapi.DomainJoint) {
	n.Lock()
	defer n.Unlock()
	n.accepted = append(n.accepted, joint.Unit.Hash)
}

type testSetup struct {
	db               model.DBManager
	unitStore        model.UnitStore
	knownBadStore    model.KnownBadStore
	jointValidator   *fakeJointValidator
	messageValidator *fakeMessageValidator
	unitWriter       *fakeUnitWriter
	notifier         *recordingNotifier
	processor        model.UnitProcessor
}

func newTestSetup(t *testing.T, workers int) *testSetup {
	db := testutils.NewTestDB(t)
	unitStore := unitstore.New()
	setup := &testSetup{
		db:               db,
		unitStore:        unitStore,
		knownBadStore:    knownbadstore.New(),
		jointValidator:   &fakeJointValidator{unitStore: unitStore, isolationErrors: map[externalapi.DomainHash]error{}},
		messageValidator: &fakeMessageValidator{messageErrors: map[externalapi.DomainHash]error{}},
		unitWriter:       &fakeUnitWriter{unitStore: unitStore},
		notifier:         &recordingNotifier{},
	}
	setup.processor = New(db, locks.NewRegistry(nil), workers, setup.jointValidator, fakeAuthorValidator{},
		fakeRoundValidator{}, setup.messageValidator, setup.unitWriter, nil, unitStore, setup.knownBadStore,
		hashtreestore.New(), nil, setup.notifier)
	return setup
}

func newJoint(hash byte, author string, parents ...byte) *externalapi.DomainJoint {
	unit := &externalapi.DomainUnit{
		Hash:    testutils.HashOf(hash),
		Authors: []*externalapi.Author{{Address: author}},
	}
	for _, parent := range parents {
		unit.ParentUnits = append(unit.ParentUnits, testutils.HashOf(parent))
	}
	return &externalapi.DomainJoint{Unit: unit}
}

func TestValidateAndInsertJoint(t *testing.T) {
	setup := newTestSetup(t, 1)
	genesis := newJoint(1, "A")
	_, err := setup.processor.ValidateAndInsertJoint(context.Background(), genesis)
	if err != nil {
		t.Fatalf("ValidateAndInsertJoint: %+v", err)
	}

	unsigned := newJoint(2, "A", 1)
	unsigned.Unsigned = true
	setup.jointValidator.isolationErrors[*testutils.HashOf(3)] = errors.Wrap(ruleerrors.ErrWrongUnitHash, "test")
	setup.messageValidator.messageErrors[*testutils.HashOf(4)] = errors.Wrap(ruleerrors.ErrTooManyMessages, "test")
	setup.messageValidator.messageErrors[*testutils.HashOf(5)] = errors.New("store unavailable")

	tests := []struct {
		name             string
		joint            *externalapi.DomainJoint
		expectedKind     externalapi.ResultKind
		expectedErr      error
		expectedKnownBad bool
		expectedStored   bool
	}{
		{name: "ok", joint: newJoint(6, "B", 1), expectedKind: externalapi.ResultOK, expectedStored: true},
		{name: "unsigned", joint: unsigned, expectedKind: externalapi.ResultOKUnsigned},
		{name: "joint error", joint: newJoint(3, "A", 1), expectedKind: externalapi.ResultJointError,
			expectedErr: ruleerrors.ErrWrongUnitHash},
		{name: "unit error", joint: newJoint(4, "A", 1), expectedKind: externalapi.ResultUnitError,
			expectedErr: ruleerrors.ErrTooManyMessages, expectedKnownBad: true},
		{name: "known bad", joint: newJoint(4, "A", 1), expectedKind: externalapi.ResultUnitError,
			expectedErr: ruleerrors.ErrKnownBadUnit, expectedKnownBad: true},
		{name: "transient", joint: newJoint(5, "A", 1), expectedKind: externalapi.ResultTransientError},
		{name: "missing parent", joint: newJoint(7, "A", 8), expectedKind: externalapi.ResultNeedParentUnits},
	}

	for _, test := range tests {
		result, err := setup.processor.ValidateAndInsertJoint(context.Background(), test.joint)
		if err != nil {
			t.Fatalf("%s: ValidateAndInsertJoint: %+v", test.name, err)
		}
		if result.Kind != test.expectedKind {
			t.Fatalf("%s: expected %s, got %s", test.name, test.expectedKind, result)
		}
		if test.expectedErr != nil && !errors.Is(result.Err, test.expectedErr) {
			t.Fatalf("%s: expected error %s, got %+v", test.name, test.expectedErr, result.Err)
		}
		if result.Kind == externalapi.ResultTransientError && !ruleerrors.IsTransientError(result.Err) {
			t.Fatalf("%s: result error is not transient: %+v", test.name, result.Err)
		}
		_, isKnownBad, err := setup.knownBadStore.Reason(setup.db, test.joint.Unit.Hash)
		if err != nil {
			t.Fatalf("%s: Reason: %+v", test.name, err)
		}
		if isKnownBad != test.expectedKnownBad {
			t.Fatalf("%s: expected known bad %t, got %t", test.name, test.expectedKnownBad, isKnownBad)
		}
		stored, err := setup.unitStore.Has(setup.db, test.joint.Unit.Hash)
		if err != nil {
			t.Fatalf("%s: Has: %+v", test.name, err)
		}
		if stored != test.expectedStored {
			t.Fatalf("%s: expected stored %t, got %t", test.name, test.expectedStored, stored)
		}
	}

	if len(setup.notifier.accepted) != 2 {
		t.Fatalf("expected 2 accepted notifications, got %d", len(setup.notifier.accepted))
	}
}

func TestValidateAndInsertJointMissingUnits(t *testing.T) {
	setup := newTestSetup(t, 1)
	result, err := setup.processor.ValidateAndInsertJoint(context.Background(), newJoint(2, "A", 1, 3))
	if err != nil {
		t.Fatalf("ValidateAndInsertJoint: %+v", err)
	}
	if result.Kind != externalapi.ResultNeedParentUnits {
		t.Fatalf("expected NeedParentUnits, got %s", result)
	}
	if len(result.MissingUnits) != 2 || !result.MissingUnits[0].Equal(testutils.HashOf(1)) ||
		!result.MissingUnits[1].Equal(testutils.HashOf(3)) {
		t.Fatalf("unexpected missing units %v", result.MissingUnits)
	}
}

func TestValidateAndInsertJointsRetriesParents(t *testing.T) {
	setup := newTestSetup(t, 4)
	joints := []*externalapi.DomainJoint{
		newJoint(4, "C", 3),
		newJoint(3, "B", 2),
		newJoint(2, "A", 1),
		newJoint(1, "G"),
		newJoint(5, "D", 9),
	}
	results, err := setup.processor.ValidateAndInsertJoints(context.Background(), joints)
	if err != nil {
		t.Fatalf("ValidateAndInsertJoints: %+v", err)
	}
	for i, result := range results[:4] {
		if result.Kind != externalapi.ResultOK {
			t.Fatalf("joint %d: expected OK, got %s", i, result)
		}
	}
	if results[4].Kind != externalapi.ResultNeedParentUnits {
		t.Fatalf("expected NeedParentUnits for the orphan, got %s", results[4])
	}
}

func TestCommitErrorHalts(t *testing.T) {
	setup := newTestSetup(t, 1)
	setup.unitWriter.err = errors.New("disk full")

	_, err := setup.processor.ValidateAndInsertJoint(context.Background(), newJoint(1, "A"))
	if err == nil {
		t.Fatalf("expected a commit error")
	}
	if !setup.processor.IsHalted() {
		t.Fatalf("expected the processor to be halted")
	}

	setup.unitWriter.err = nil
	_, err = setup.processor.ValidateAndInsertJoint(context.Background(), newJoint(2, "B"))
	if !errors.Is(err, ruleerrors.ErrConsensusHalted) {
		t.Fatalf("expected ErrConsensusHalted, got %+v", err)
	}
	_, err = setup.processor.ValidateAndInsertPrivatePayment(context.Background(), testutils.HashOf(1), 0,
		&externalapi.Payment{})
	if !errors.Is(err, ruleerrors.ErrConsensusHalted) {
		t.Fatalf("expected ErrConsensusHalted, got %+v", err)
	}
}

func TestValidateAndInsertPrivatePayment(t *testing.T) {
	setup := newTestSetup(t, 1)
	payment := &externalapi.Payment{Asset: testutils.HashOf(9)}

	result, err := setup.processor.ValidateAndInsertPrivatePayment(context.Background(), testutils.HashOf(1), 0, payment)
	if err != nil {
		t.Fatalf("ValidateAndInsertPrivatePayment: %+v", err)
	}
	if result.Kind != externalapi.ResultNeedParentUnits || !result.MissingUnits[0].Equal(testutils.HashOf(1)) {
		t.Fatalf("expected NeedParentUnits for the unknown unit, got %s", result)
	}

	_, err = setup.processor.ValidateAndInsertJoint(context.Background(), newJoint(1, "A"))
	if err != nil {
		t.Fatalf("ValidateAndInsertJoint: %+v", err)
	}

	setup.messageValidator.privateErr = errors.Wrap(ruleerrors.ErrUnbalancedPayment, "test")
	result, err = setup.processor.ValidateAndInsertPrivatePayment(context.Background(), testutils.HashOf(1), 0, payment)
	if err != nil {
		t.Fatalf("ValidateAndInsertPrivatePayment: %+v", err)
	}
	if result.Kind != externalapi.ResultUnitError {
		t.Fatalf("expected UnitError, got %s", result)
	}
	_, isKnownBad, err := setup.knownBadStore.Reason(setup.db, testutils.HashOf(1))
	if err != nil {
		t.Fatalf("Reason: %+v", err)
	}
	if isKnownBad {
		t.Fatalf("a bad private payment must not mark its unit as known bad")
	}

	setup.messageValidator.privateErr = nil
	result, err = setup.processor.ValidateAndInsertPrivatePayment(context.Background(), testutils.HashOf(1), 0, payment)
	if err != nil {
		t.Fatalf("ValidateAndInsertPrivatePayment: %+v", err)
	}
	if result.Kind != externalapi.ResultOK || setup.unitWriter.privatePayments != 1 {
		t.Fatalf("expected the private payment to be written, got %s", result)
	}
}
