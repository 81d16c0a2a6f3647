package ruleerrors

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
)

func TestNewErrMissingParents(t *testing.T) {
	missing, err := externalapi.NewDomainHashFromByteSlice(make([]byte, externalapi.DomainHashSize))
	if err != nil {
		t.Fatalf("NewDomainHashFromByteSlice: %+v", err)
	}
	outer := NewErrMissingParents([]*externalapi.DomainHash{missing})

	inner := &ErrMissingParents{}
	if !errors.As(outer, inner) {
		t.Fatal("TestNewErrMissingParents: Outer should contain ErrMissingParents in it")
	}
	if len(inner.MissingParentHashes) != 1 || !inner.MissingParentHashes[0].Equal(missing) {
		t.Fatalf("TestNewErrMissingParents: unexpected missing parents %v", inner.MissingParentHashes)
	}

	class, ok := ClassOf(outer)
	if !ok {
		t.Fatal("TestNewErrMissingParents: Outer should contain RuleError in it")
	}
	if class != ClassUnresolvedDependency {
		t.Fatalf("TestNewErrMissingParents: Expected class %s, found %s", ClassUnresolvedDependency, class)
	}
	if IsUnitError(outer) || IsJointError(outer) {
		t.Fatal("TestNewErrMissingParents: missing parents is neither a unit nor a joint error")
	}
}

func TestErrorClasses(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		isJoint bool
		isUnit  bool
	}{
		{"wrapped joint error", errors.Wrapf(ErrWrongUnitHash, "wrong unit hash"), true, false},
		{"wrapped unit error", errors.Wrapf(ErrWrongHeadersCommission, "expected %d", 12), false, true},
		{"need hash tree", errors.WithStack(ErrNeedHashTree), false, false},
		{"plain error", errors.New("not a rule error"), false, false},
	}

	for _, test := range tests {
		if IsJointError(test.err) != test.isJoint {
			t.Errorf("%s: IsJointError expected %t", test.name, test.isJoint)
		}
		if IsUnitError(test.err) != test.isUnit {
			t.Errorf("%s: IsUnitError expected %t", test.name, test.isUnit)
		}
	}

	if !errors.Is(errors.Wrapf(ErrDoubleSpend, "spent twice"), ErrDoubleSpend) {
		t.Fatal("TestErrorClasses: errors.Is should find the sentinel through Wrapf")
	}
	if errors.Is(errors.Wrapf(ErrDoubleSpend, "spent twice"), ErrUnbalancedPayment) {
		t.Fatal("TestErrorClasses: errors.Is matched a different sentinel")
	}
}

func TestTransientError(t *testing.T) {
	storageErr := errors.New("disk unavailable")
	transient := NewTransientError(storageErr)
	if !IsTransientError(transient) {
		t.Fatal("TestTransientError: expected a transient error")
	}
	if !errors.Is(transient, storageErr) {
		t.Fatal("TestTransientError: the transient error should unwrap to the storage error")
	}

	ruleErr := errors.Wrapf(ErrWrongAlt, "alt 2")
	if NewTransientError(ruleErr) != ruleErr {
		t.Fatal("TestTransientError: rule errors must not become transient")
	}
	if NewTransientError(nil) != nil {
		t.Fatal("TestTransientError: nil must stay nil")
	}
}
