package hashtreestore

import (
	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/database/binaryserialization"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
)

var unitByBallBucket = database.MakeBucket([]byte("hash-tree-units"))
var ballByUnitBucket = database.MakeBucket([]byte("hash-tree-balls"))

// hashTreeStore represents the balls received in hash trees and not yet
// matched by a stored unit
type hashTreeStore struct {
}

// New instantiates a new HashTreeStore
func New() model.HashTreeStore {
	return &hashTreeStore{}
}

func (hts *hashTreeStore) Insert(dbContext model.DBWriter, ball *externalapi.DomainHash, unitHash *externalapi.DomainHash) error {
	err := dbContext.Put(unitByBallBucket.Key(ball.ByteSlice()), binaryserialization.SerializeHash(unitHash))
	if err != nil {
		return err
	}
	return dbContext.Put(ballByUnitBucket.Key(unitHash.ByteSlice()), binaryserialization.SerializeHash(ball))
}

// Delete removes ball and its unit. Deleting an unknown ball is a no-op.
func (hts *hashTreeStore) Delete(dbContext model.DBWriter, ball *externalapi.DomainHash) error {
	unitHash, err := hts.UnitByBall(dbContext, ball)
	if database.IsNotFoundError(err) {
		return nil
	}
	if err != nil {
		return err
	}
	err = dbContext.Delete(unitByBallBucket.Key(ball.ByteSlice()))
	if err != nil {
		return err
	}
	return dbContext.Delete(ballByUnitBucket.Key(unitHash.ByteSlice()))
}

func (hts *hashTreeStore) UnitByBall(dbContext model.DBReader, ball *externalapi.DomainHash) (*externalapi.DomainHash, error) {
	unitBytes, err := dbContext.Get(unitByBallBucket.Key(ball.ByteSlice()))
	if err != nil {
		return nil, err
	}
	return binaryserialization.DeserializeHash(unitBytes)
}

func (hts *hashTreeStore) BallByUnit(dbContext model.DBReader, unitHash *externalapi.DomainHash) (*externalapi.DomainHash, error) {
	ballBytes, err := dbContext.Get(ballByUnitBucket.Key(unitHash.ByteSlice()))
	if err != nil {
		return nil, err
	}
	return binaryserialization.DeserializeHash(ballBytes)
}

// Balls returns all pending balls in byte order
func (hts *hashTreeStore) Balls(dbContext model.DBReader) ([]*externalapi.DomainHash, error) {
	cursor, err := dbContext.Cursor(unitByBallBucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var balls []*externalapi.DomainHash
	for cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return nil, err
		}
		ball, err := binaryserialization.DeserializeHash(key.Suffix())
		if err != nil {
			return nil, err
		}
		balls = append(balls, ball)
	}
	return balls, nil
}
