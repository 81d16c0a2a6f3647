package model

import "github.com/unitdag/unitd/domain/consensus/model/externalapi"

// BallStore represents a store of balls and skiplists of stable units
type BallStore interface {
	Insert(dbContext DBWriter, unitHash *externalapi.DomainHash, ball *externalapi.DomainHash) error
	Ball(dbContext DBReader, unitHash *externalapi.DomainHash) (*externalapi.DomainHash, error)
	HasBall(dbContext DBReader, unitHash *externalapi.DomainHash) (bool, error)
	UnitByBall(dbContext DBReader, ball *externalapi.DomainHash) (*externalapi.DomainHash, error)
	InsertSkiplist(dbContext DBWriter, unitHash *externalapi.DomainHash, skiplistUnits []*externalapi.DomainHash) error
	Skiplist(dbContext DBReader, unitHash *externalapi.DomainHash) ([]*externalapi.DomainHash, error)
}
