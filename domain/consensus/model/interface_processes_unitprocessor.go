package model

import (
	"context"
	"time"

	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
)

// UnitProcessor runs joints through validation and commits the accepted
// ones. Rule violations are reported in the result. A returned error is
// fatal and halts the processor.
type UnitProcessor interface {
	ValidateAndInsertJoint(ctx context.Context, joint *externalapi.DomainJoint) (*externalapi.ValidationResult, error)
	ValidateAndInsertJoints(ctx context.Context, joints []*externalapi.DomainJoint) ([]*externalapi.ValidationResult, error)
	ValidateAndInsertPrivatePayment(ctx context.Context, unitHash *externalapi.DomainHash, messageIndex uint32,
		payment *externalapi.Payment) (*externalapi.ValidationResult, error)
	IsHalted() bool
}

// ProcessingObserver is told about every processed joint
type ProcessingObserver interface {
	ObserveResult(kind externalapi.ResultKind, elapsed time.Duration)
	ObserveLastStableMCI(mci uint64)
}

// UnitAcceptedNotifier is told about every committed joint
type UnitAcceptedNotifier interface {
	NotifyUnitAccepted(joint *externalapi.DomainJoint)
}
