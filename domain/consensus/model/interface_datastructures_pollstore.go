package model

import "github.com/unitdag/unitd/domain/consensus/model/externalapi"

// PollStore represents a store of polls and votes
type PollStore interface {
	InsertPoll(dbContext DBWriter, poll *PollRecord) error
	Poll(dbContext DBReader, pollUnit *externalapi.DomainHash) (*PollRecord, error)
	InsertVote(dbContext DBWriter, vote *VoteRecord) error
	Votes(dbContext DBReader, pollUnit *externalapi.DomainHash) ([]*VoteRecord, error)
}
