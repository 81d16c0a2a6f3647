package model

import "github.com/unitdag/unitd/domain/consensus/model/externalapi"

// MessageValidator checks every message of a unit and resolves double spends
type MessageValidator interface {
	ValidateMessages(dbContext DBReader, unit *externalapi.DomainUnit, state *ValidationState) error
	ValidatePrivatePayment(dbContext DBReader, unitHash *externalapi.DomainHash, messageIndex uint32,
		payment *externalapi.Payment) (*ValidationState, error)
}
