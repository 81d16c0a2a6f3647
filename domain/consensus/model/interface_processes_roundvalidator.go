package model

import "github.com/unitdag/unitd/domain/consensus/model/externalapi"

// RoundValidator checks the round bookkeeping of proof-of-work and trustme units
type RoundValidator interface {
	ValidateWitnessedLevel(dbContext DBReader, unit *externalapi.DomainUnit, state *ValidationState) error
	ValidateCoordinators(dbContext DBReader, unit *externalapi.DomainUnit, state *ValidationState) error
}
