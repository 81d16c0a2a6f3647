package model

import "github.com/unitdag/unitd/domain/consensus/model/externalapi"

// RoundStore represents a store of per-round bookkeeping: proof-of-work,
// coinbase and trustme units and witnessed level bounds
type RoundStore interface {
	InsertPow(dbContext DBWriter, record *PowRecord) error
	Pow(dbContext DBReader, powType externalapi.PowType, roundIndex uint64, address string) (*PowRecord, error)
	HasPow(dbContext DBReader, powType externalapi.PowType, roundIndex uint64, address string) (bool, error)
	TrustmeUnits(dbContext DBReader, roundIndex uint64) ([]*externalapi.DomainHash, error)

	LastCoinbaseRound(dbContext DBReader, address string) (uint64, error)

	UpdateRoundInfo(dbContext DBWriter, info *RoundInfo) error
	RoundInfo(dbContext DBReader, roundIndex uint64) (*RoundInfo, error)
}
