package catchupchainstore

import (
	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/database/binaryserialization"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
)

var ballsBucket = database.MakeBucket([]byte("catchup-chain-balls"))
var indexesBucket = database.MakeBucket([]byte("catchup-chain-indexes"))
var nextIndexKey = database.MakeBucket([]byte("catchup-chain-next-index")).Key(nil)

// catchupChainStore keeps the balls of a catch-up chain in the order they
// were received. Balls are keyed by a running index so that cursor order is
// chain order.
type catchupChainStore struct {
}

// New instantiates a new CatchupChainStore
func New() model.CatchupChainStore {
	return &catchupChainStore{}
}

// Append adds balls at the end of the chain. Balls already in the chain are skipped.
func (ccs *catchupChainStore) Append(dbContext model.DBWriter, balls []*externalapi.DomainHash) error {
	nextIndex, err := ccs.nextIndex(dbContext)
	if err != nil {
		return err
	}
	for _, ball := range balls {
		exists, err := dbContext.Has(indexesBucket.Key(ball.ByteSlice()))
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		indexBytes := binaryserialization.SerializeUint64(nextIndex)
		err = dbContext.Put(ballsBucket.Key(indexBytes), binaryserialization.SerializeHash(ball))
		if err != nil {
			return err
		}
		err = dbContext.Put(indexesBucket.Key(ball.ByteSlice()), indexBytes)
		if err != nil {
			return err
		}
		nextIndex++
	}
	return dbContext.Put(nextIndexKey, binaryserialization.SerializeUint64(nextIndex))
}

func (ccs *catchupChainStore) nextIndex(dbContext model.DBReader) (uint64, error) {
	indexBytes, err := dbContext.Get(nextIndexKey)
	if database.IsNotFoundError(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return binaryserialization.DeserializeUint64(indexBytes)
}

// Has returns whether a catch-up chain is in progress
func (ccs *catchupChainStore) Has(dbContext model.DBReader) (bool, error) {
	cursor, err := dbContext.Cursor(ballsBucket)
	if err != nil {
		return false, err
	}
	defer cursor.Close()
	return cursor.First(), nil
}

// First returns the earliest ball of the chain, or ErrNotFound if the chain is empty
func (ccs *catchupChainStore) First(dbContext model.DBReader) (*externalapi.DomainHash, error) {
	cursor, err := dbContext.Cursor(ballsBucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()
	if !cursor.First() {
		return nil, database.ErrNotFound
	}
	ballBytes, err := cursor.Value()
	if err != nil {
		return nil, err
	}
	return binaryserialization.DeserializeHash(ballBytes)
}

func (ccs *catchupChainStore) Balls(dbContext model.DBReader) ([]*externalapi.DomainHash, error) {
	cursor, err := dbContext.Cursor(ballsBucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var balls []*externalapi.DomainHash
	for cursor.Next() {
		ballBytes, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		ball, err := binaryserialization.DeserializeHash(ballBytes)
		if err != nil {
			return nil, err
		}
		balls = append(balls, ball)
	}
	return balls, nil
}

func (ccs *catchupChainStore) Delete(dbContext model.DBWriter, ball *externalapi.DomainHash) error {
	indexBytes, err := dbContext.Get(indexesBucket.Key(ball.ByteSlice()))
	if database.IsNotFoundError(err) {
		return nil
	}
	if err != nil {
		return err
	}
	err = dbContext.Delete(ballsBucket.Key(indexBytes))
	if err != nil {
		return err
	}
	return dbContext.Delete(indexesBucket.Key(ball.ByteSlice()))
}

// Clear deletes the whole chain
func (ccs *catchupChainStore) Clear(dbContext model.DBWriter) error {
	balls, err := ccs.Balls(dbContext)
	if err != nil {
		return err
	}
	for _, ball := range balls {
		err := ccs.Delete(dbContext, ball)
		if err != nil {
			return err
		}
	}
	return dbContext.Delete(nextIndexKey)
}
