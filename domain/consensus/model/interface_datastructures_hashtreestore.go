package model

import "github.com/unitdag/unitd/domain/consensus/model/externalapi"

// HashTreeStore represents the balls received through hash trees whose units
// were not yet received
type HashTreeStore interface {
	Insert(dbContext DBWriter, ball *externalapi.DomainHash, unitHash *externalapi.DomainHash) error
	Delete(dbContext DBWriter, ball *externalapi.DomainHash) error
	UnitByBall(dbContext DBReader, ball *externalapi.DomainHash) (*externalapi.DomainHash, error)
	BallByUnit(dbContext DBReader, unitHash *externalapi.DomainHash) (*externalapi.DomainHash, error)
	Balls(dbContext DBReader) ([]*externalapi.DomainHash, error)
}
