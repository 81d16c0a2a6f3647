package externalapi

import "fmt"

// ResultKind is the outcome class of processing a joint
type ResultKind uint8

// Result kinds
const (
	ResultOK ResultKind = iota
	ResultOKUnsigned
	ResultJointError
	ResultUnitError
	ResultTransientError
	ResultNeedParentUnits
	ResultNeedHashTree
)

var resultKindStrings = map[ResultKind]string{
	ResultOK:              "OK",
	ResultOKUnsigned:      "OKUnsigned",
	ResultJointError:      "JointError",
	ResultUnitError:       "UnitError",
	ResultTransientError:  "TransientError",
	ResultNeedParentUnits: "NeedParentUnits",
	ResultNeedHashTree:    "NeedHashTree",
}

func (kind ResultKind) String() string {
	if s, ok := resultKindStrings[kind]; ok {
		return s
	}
	return fmt.Sprintf("ResultKind(%d)", kind)
}

// ValidationResult is the outcome of handing a joint to consensus.
// MissingUnits is set for ResultNeedParentUnits. Sequence is the sequence
// the unit was written with for ResultOK, and whether it would be good for
// ResultOKUnsigned.
type ValidationResult struct {
	Kind         ResultKind
	Message      string
	MissingUnits []*DomainHash
	Sequence     Sequence
	Err          error
}

// IsOK returns whether the joint was accepted
func (result *ValidationResult) IsOK() bool {
	return result.Kind == ResultOK || result.Kind == ResultOKUnsigned
}

func (result *ValidationResult) String() string {
	if result.Message == "" {
		return result.Kind.String()
	}
	return fmt.Sprintf("%s: %s", result.Kind, result.Message)
}
