package model

import "github.com/unitdag/unitd/domain/consensus/model/externalapi"

// CatchupChainStore represents the ordered balls of the catch-up chain being
// processed
type CatchupChainStore interface {
	Append(dbContext DBWriter, balls []*externalapi.DomainHash) error
	Has(dbContext DBReader) (bool, error)
	First(dbContext DBReader) (*externalapi.DomainHash, error)
	Balls(dbContext DBReader) ([]*externalapi.DomainHash, error)
	Delete(dbContext DBWriter, ball *externalapi.DomainHash) error
	Clear(dbContext DBWriter) error
}
