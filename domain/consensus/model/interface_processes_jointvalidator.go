package model

import "github.com/unitdag/unitd/domain/consensus/model/externalapi"

// JointValidator checks the structure of a joint and its place in the DAG
type JointValidator interface {
	ValidateJointInIsolation(joint *externalapi.DomainJoint) error
	ValidateJointInContext(dbContext DBReader, joint *externalapi.DomainJoint, state *ValidationState) error
}
