package pollstore

import (
	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/database/binaryserialization"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/utils/serialization"
)

var pollsBucket = database.MakeBucket([]byte("polls"))
var votesBucket = database.MakeBucket([]byte("votes"))

// pollStore represents a store of polls and the votes cast in them
type pollStore struct {
}

// New instantiates a new PollStore
func New() model.PollStore {
	return &pollStore{}
}

func (ps *pollStore) InsertPoll(dbContext model.DBWriter, poll *model.PollRecord) error {
	pollBytes, err := serialization.Marshal(poll)
	if err != nil {
		return err
	}
	return dbContext.Put(pollsBucket.Key(poll.Unit.ByteSlice()), pollBytes)
}

// Poll returns the poll posted by pollUnit, or ErrNotFound
func (ps *pollStore) Poll(dbContext model.DBReader, pollUnit *externalapi.DomainHash) (*model.PollRecord, error) {
	pollBytes, err := dbContext.Get(pollsBucket.Key(pollUnit.ByteSlice()))
	if err != nil {
		return nil, err
	}
	poll := &model.PollRecord{}
	err = serialization.Unmarshal(pollBytes, poll)
	if err != nil {
		return nil, err
	}
	return poll, nil
}

func (ps *pollStore) InsertVote(dbContext model.DBWriter, vote *model.VoteRecord) error {
	voteBytes, err := serialization.Marshal(vote)
	if err != nil {
		return err
	}
	key := votesBucket.Bucket(vote.PollUnit.ByteSlice()).Key(binaryserialization.SerializeHash(vote.Unit))
	return dbContext.Put(key, voteBytes)
}

func (ps *pollStore) Votes(dbContext model.DBReader, pollUnit *externalapi.DomainHash) ([]*model.VoteRecord, error) {
	cursor, err := dbContext.Cursor(votesBucket.Bucket(pollUnit.ByteSlice()))
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var votes []*model.VoteRecord
	for cursor.Next() {
		voteBytes, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		vote := &model.VoteRecord{}
		err = serialization.Unmarshal(voteBytes, vote)
		if err != nil {
			return nil, err
		}
		votes = append(votes, vote)
	}
	return votes, nil
}
