package unitprocessor

import (
	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/ruleerrors"
)

// classify turns a validation error into a result. Errors that are not rule
// violations come from the environment and are reported as transient.
func classify(err error) *externalapi.ValidationResult {
	result := &externalapi.ValidationResult{Message: err.Error(), Err: err}
	class, isRuleError := ruleerrors.ClassOf(err)
	if !isRuleError {
		if !ruleerrors.IsTransientError(err) {
			result.Err = ruleerrors.NewTransientError(err)
		}
		result.Kind = externalapi.ResultTransientError
		return result
	}

	switch class {
	case ruleerrors.ClassJoint:
		result.Kind = externalapi.ResultJointError
	case ruleerrors.ClassUnit:
		result.Kind = externalapi.ResultUnitError
	case ruleerrors.ClassUnresolvedDependency:
		result.Kind = externalapi.ResultNeedParentUnits
		var missingParents ruleerrors.ErrMissingParents
		if errors.As(err, &missingParents) {
			result.MissingUnits = missingParents.MissingParentHashes
		}
	case ruleerrors.ClassNeedHashTree:
		result.Kind = externalapi.ResultNeedHashTree
	default:
		result.Kind = externalapi.ResultTransientError
	}
	return result
}
