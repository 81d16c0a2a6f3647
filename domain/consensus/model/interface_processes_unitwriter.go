package model

import "github.com/unitdag/unitd/domain/consensus/model/externalapi"

// UnitWriter persists a validated joint and its derived rows
type UnitWriter interface {
	WriteJoint(dbContext DBWriter, joint *externalapi.DomainJoint, state *ValidationState) error
	WritePrivatePayment(dbContext DBWriter, unitHash *externalapi.DomainHash, messageIndex uint32,
		payment *externalapi.Payment, state *ValidationState) error
}
