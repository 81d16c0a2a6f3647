package ruleerrors

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
)

// ErrorClass tells who is to blame for a rule violation
type ErrorClass uint8

// Error classes
const (
	// ClassUnit marks a defect in a field covered by the unit hash. The
	// unit's authors are to blame and the unit is known to be bad.
	ClassUnit ErrorClass = iota

	// ClassJoint marks a defect in a field not covered by the unit hash.
	// The peer that relayed the joint is to blame, not the unit.
	ClassJoint

	// ClassUnresolvedDependency marks a unit whose parents are not known yet
	ClassUnresolvedDependency

	// ClassNeedHashTree marks a stable joint whose ball is not known yet
	ClassNeedHashTree
)

func (c ErrorClass) String() string {
	switch c {
	case ClassUnit:
		return "UnitError"
	case ClassJoint:
		return "JointError"
	case ClassUnresolvedDependency:
		return "UnresolvedDependency"
	case ClassNeedHashTree:
		return "NeedHashTree"
	}
	return fmt.Sprintf("ErrorClass(%d)", c)
}

// Joint errors: the faulty field is not committed to by the unit hash.
var (
	// ErrWrongUnitHash indicates that the unit hash does not match its content
	ErrWrongUnitHash = newJointError("ErrWrongUnitHash")

	// ErrUnexpectedJointFields indicates fields not allowed for the joint's
	// finality state, e.g. a ball on an unsigned joint
	ErrUnexpectedJointFields = newJointError("ErrUnexpectedJointFields")

	ErrEmptySkiplist = newJointError("ErrEmptySkiplist")

	// ErrContentHashWithoutBall indicates a stripped unit that is not stable
	ErrContentHashWithoutBall = newJointError("ErrContentHashWithoutBall")

	ErrMissingRoundIndex = newJointError("ErrMissingRoundIndex")
	ErrInvalidPowType    = newJointError("ErrInvalidPowType")
	ErrInvalidRoundIndex = newJointError("ErrInvalidRoundIndex")
	ErrBadTimestamp      = newJointError("ErrBadTimestamp")

	// ErrDuplicateUnit indicates the unit is already stored
	ErrDuplicateUnit = newJointError("ErrDuplicateUnit")

	// ErrBallContradictsHashTree indicates a ball that the hash tree binds
	// to another unit
	ErrBallContradictsHashTree = newJointError("ErrBallContradictsHashTree")

	ErrParentBallsNotFound   = newJointError("ErrParentBallsNotFound")
	ErrSkiplistBallsNotFound = newJointError("ErrSkiplistBallsNotFound")
	ErrWrongBallHash         = newJointError("ErrWrongBallHash")
	ErrSkiplistNotOrdered    = newJointError("ErrSkiplistNotOrdered")

	// ErrBallParentsNotOrdered is ErrParentsNotOrdered for a stable joint,
	// where the parent list was vouched for by the hash tree
	ErrBallParentsNotOrdered = newJointError("ErrBallParentsNotOrdered")
)

// Unit errors: structure.
var (
	ErrMissingMessages         = newUnitError("ErrMissingMessages")
	ErrTooManyMessages         = newUnitError("ErrTooManyMessages")
	ErrWrongHeadersCommission  = newUnitError("ErrWrongHeadersCommission")
	ErrWrongPayloadCommission  = newUnitError("ErrWrongPayloadCommission")
	ErrMissingAuthors          = newUnitError("ErrMissingAuthors")
	ErrWrongVersion            = newUnitError("ErrWrongVersion")
	ErrWrongAlt                = newUnitError("ErrWrongAlt")
	ErrMissingParentUnits      = newUnitError("ErrMissingParentUnits")
	ErrMissingLastBall         = newUnitError("ErrMissingLastBall")
	ErrUnexpectedNonserialData = newUnitError("ErrUnexpectedNonserialData")
)

// ErrKnownBadUnit indicates a unit that already failed validation with a unit error
var ErrKnownBadUnit = newUnitError("ErrKnownBadUnit")

// Unit errors: parents, last ball and skiplist.
var (
	ErrTooManyParents             = newUnitError("ErrTooManyParents")
	ErrParentsNotOrdered          = newUnitError("ErrParentsNotOrdered")
	ErrParentsRelated             = newUnitError("ErrParentsRelated")
	ErrKnownBadParent             = newUnitError("ErrKnownBadParent")
	ErrLastBallUnitNotFound       = newUnitError("ErrLastBallUnitNotFound")
	ErrLastBallNotOnMainChain     = newUnitError("ErrLastBallNotOnMainChain")
	ErrLastBallMismatch           = newUnitError("ErrLastBallMismatch")
	ErrLastBallNotIncluded        = newUnitError("ErrLastBallNotIncluded")
	ErrLastBallRetreated          = newUnitError("ErrLastBallRetreated")
	ErrSkiplistUnitNotFound       = newUnitError("ErrSkiplistUnitNotFound")
	ErrSkiplistUnitNotOnMainChain = newUnitError("ErrSkiplistUnitNotOnMainChain")
	ErrSkiplistUnitBadMCI         = newUnitError("ErrSkiplistUnitBadMCI")
)

// Unit errors: authors and definitions.
var (
	ErrTooManyAuthors                 = newUnitError("ErrTooManyAuthors")
	ErrAuthorsNotSorted               = newUnitError("ErrAuthorsNotSorted")
	ErrWrongAddressLength             = newUnitError("ErrWrongAddressLength")
	ErrNoAuthentifiers                = newUnitError("ErrNoAuthentifiers")
	ErrBadAuthentifier                = newUnitError("ErrBadAuthentifier")
	ErrInvalidAddressChecksum         = newUnitError("ErrInvalidAddressChecksum")
	ErrDefinitionNotFound             = newUnitError("ErrDefinitionNotFound")
	ErrInvalidDefinition              = newUnitError("ErrInvalidDefinition")
	ErrAuthentifierVerificationFailed = newUnitError("ErrAuthentifierVerificationFailed")
	ErrPendingDefinitionChange        = newUnitError("ErrPendingDefinitionChange")
	ErrPendingDefinition              = newUnitError("ErrPendingDefinition")
	ErrWrongDefinition                = newUnitError("ErrWrongDefinition")
	ErrDefinitionMismatch             = newUnitError("ErrDefinitionMismatch")

	// ErrTrustmeTimestamp indicates a committee unit whose timestamp is too
	// far from, or for a recovery unit too close to, the previous one
	ErrTrustmeTimestamp     = newUnitError("ErrTrustmeTimestamp")
	ErrTrustmeAuthorCount   = newUnitError("ErrTrustmeAuthorCount")
	ErrWrongProposer        = newUnitError("ErrWrongProposer")
	ErrWrongProposalRound   = newUnitError("ErrWrongProposalRound")
	ErrWrongRecoveryAuthors = newUnitError("ErrWrongRecoveryAuthors")
)

// Unit errors: round and committee.
var (
	ErrNoTrustmeInRound         = newUnitError("ErrNoTrustmeInRound")
	ErrPreviousRoundOpen        = newUnitError("ErrPreviousRoundOpen")
	ErrWitnessedLevelOutOfRound = newUnitError("ErrWitnessedLevelOutOfRound")
	ErrDuplicateTrustmeMCI      = newUnitError("ErrDuplicateTrustmeMCI")
	ErrUnexpectedHP             = newUnitError("ErrUnexpectedHP")
	ErrNotEnoughCoordinators    = newUnitError("ErrNotEnoughCoordinators")
	ErrTooManyCoordinators      = newUnitError("ErrTooManyCoordinators")
	ErrCoordinatorsNotSorted    = newUnitError("ErrCoordinatorsNotSorted")
	ErrCoordinatorNotWitness    = newUnitError("ErrCoordinatorNotWitness")
	ErrUnexpectedCoordinators   = newUnitError("ErrUnexpectedCoordinators")
)

// Unit errors: messages.
var (
	ErrBadMessage          = newUnitError("ErrBadMessage")
	ErrWrongPayloadHash    = newUnitError("ErrWrongPayloadHash")
	ErrWrongPayloadURIHash = newUnitError("ErrWrongPayloadURIHash")
	ErrUnknownApp          = newUnitError("ErrUnknownApp")
	ErrDuplicateApp        = newUnitError("ErrDuplicateApp")
	ErrBadPayload          = newUnitError("ErrBadPayload")
	ErrNoBasePayment       = newUnitError("ErrNoBasePayment")
	ErrInvalidVote         = newUnitError("ErrInvalidVote")
	ErrInvalidAsset        = newUnitError("ErrInvalidAsset")
	ErrInvalidAttestorList = newUnitError("ErrInvalidAttestorList")
	ErrInvalidPoW          = newUnitError("ErrInvalidPoW")
	ErrInvalidTrustme      = newUnitError("ErrInvalidTrustme")
)

// Unit errors: payments.
var (
	ErrBadPayment                 = newUnitError("ErrBadPayment")
	ErrTooManyInputs              = newUnitError("ErrTooManyInputs")
	ErrTooManyOutputs             = newUnitError("ErrTooManyOutputs")
	ErrUnbalancedPayment          = newUnitError("ErrUnbalancedPayment")
	ErrInvalidIssue               = newUnitError("ErrInvalidIssue")
	ErrInvalidCoinbase            = newUnitError("ErrInvalidCoinbase")
	ErrInputAlreadyUsed           = newUnitError("ErrInputAlreadyUsed")
	ErrSourceOutputNotFound       = newUnitError("ErrSourceOutputNotFound")
	ErrSourceOutputNotStable      = newUnitError("ErrSourceOutputNotStable")
	ErrSourceOutputNotSerial      = newUnitError("ErrSourceOutputNotSerial")
	ErrAssetMismatch              = newUnitError("ErrAssetMismatch")
	ErrDenominationMismatch       = newUnitError("ErrDenominationMismatch")
	ErrOutputOwnerNotAuthor       = newUnitError("ErrOutputOwnerNotAuthor")
	ErrAssetNotFound              = newUnitError("ErrAssetNotFound")
	ErrAssetRuleViolated          = newUnitError("ErrAssetRuleViolated")
	ErrAssetConditionNotSatisfied = newUnitError("ErrAssetConditionNotSatisfied")
	ErrDoubleSpend                = newUnitError("ErrDoubleSpend")
	ErrDepositSpend               = newUnitError("ErrDepositSpend")
	ErrPrivatePaymentMismatch     = newUnitError("ErrPrivatePaymentMismatch")
)

// Catch-up errors: a peer sent a malformed catch-up request, chain or hash
// tree. Nothing of it is stored.
var (
	ErrInvalidCatchupRequest  = newJointError("ErrInvalidCatchupRequest")
	ErrInvalidCatchupChain    = newJointError("ErrInvalidCatchupChain")
	ErrCatchupChainInProgress = newJointError("ErrCatchupChainInProgress")
	ErrInvalidHashTree        = newJointError("ErrInvalidHashTree")
)

// ErrLastBallNotStable indicates a last ball unit this node has not seen
// stabilize yet. It is wrapped in a TransientError: the joint may become
// valid once the node catches up.
var ErrLastBallNotStable = errors.New("last ball unit is not stable")

// ErrConsensusHalted is returned for every joint once a commit failed in a
// way that left validation and storage disagreeing
var ErrConsensusHalted = errors.New("consensus is halted")

// ErrNeedHashTree indicates a stable joint whose ball is not in the hash tree yet.
var ErrNeedHashTree = RuleError{message: "ErrNeedHashTree", class: ClassNeedHashTree}

// RuleError identifies a rule violation. It is used to indicate that
// processing of a joint failed due to one of the many validation
// rules. The caller can use type assertions to determine if a failure was
// specifically due to a rule violation, and Class to find out who is to blame.
type RuleError struct {
	message string
	class   ErrorClass
	inner   error
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	if e.inner != nil {
		return e.message + ": " + e.inner.Error()
	}
	return e.message
}

// Unwrap satisfies the errors.Unwrap interface
func (e RuleError) Unwrap() error {
	return e.inner
}

// Cause satisfies the github.com/pkg/errors.Cause interface
func (e RuleError) Cause() error {
	return e.inner
}

// Class returns the error class
func (e RuleError) Class() ErrorClass {
	return e.class
}

func newUnitError(message string) RuleError {
	return RuleError{message: message, class: ClassUnit, inner: nil}
}

func newJointError(message string) RuleError {
	return RuleError{message: message, class: ClassJoint, inner: nil}
}

// ClassOf returns the class of the RuleError inside err
func ClassOf(err error) (ErrorClass, bool) {
	var ruleErr RuleError
	if !errors.As(err, &ruleErr) {
		return 0, false
	}
	return ruleErr.class, true
}

// IsRuleError returns whether err is a RuleError
func IsRuleError(err error) bool {
	_, ok := ClassOf(err)
	return ok
}

// IsJointError returns whether err is a rule violation not committed to by the unit hash
func IsJointError(err error) bool {
	class, ok := ClassOf(err)
	return ok && class == ClassJoint
}

// IsUnitError returns whether err is a rule violation committed to by the unit hash
func IsUnitError(err error) bool {
	class, ok := ClassOf(err)
	return ok && class == ClassUnit
}

// ErrMissingParents indicates a unit points to unknown parent(s).
type ErrMissingParents struct {
	MissingParentHashes []*externalapi.DomainHash
}

func (e ErrMissingParents) Error() string {
	return fmt.Sprintf("missing the following parent hashes: %v", e.MissingParentHashes)
}

// NewErrMissingParents creates a new ErrMissingParents error wrapped in a RuleError
func NewErrMissingParents(missingParentHashes []*externalapi.DomainHash) error {
	return errors.WithStack(RuleError{
		message: "ErrMissingParents",
		class:   ClassUnresolvedDependency,
		inner:   ErrMissingParents{missingParentHashes},
	})
}

// TransientError wraps a failure of the environment, such as a storage
// failure or a lock timeout. The same joint may be retried later.
type TransientError struct {
	inner error
}

func (e TransientError) Error() string {
	return "transient error: " + e.inner.Error()
}

// Unwrap satisfies the errors.Unwrap interface
func (e TransientError) Unwrap() error {
	return e.inner
}

// NewTransientError wraps err in a TransientError. RuleErrors are returned as is.
func NewTransientError(err error) error {
	if err == nil || IsRuleError(err) || IsTransientError(err) {
		return err
	}
	return errors.WithStack(TransientError{inner: err})
}

// IsTransientError returns whether err is a TransientError
func IsTransientError(err error) bool {
	var transientErr TransientError
	return errors.As(err, &transientErr)
}
