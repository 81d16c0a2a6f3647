package ballstore

import (
	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/database/binaryserialization"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
)

var ballByUnitBucket = database.MakeBucket([]byte("balls"))
var unitByBallBucket = database.MakeBucket([]byte("units-by-ball"))
var skiplistBucket = database.MakeBucket([]byte("skiplist-units"))

// ballStore represents a store of balls and skiplists
type ballStore struct {
}

// New instantiates a new BallStore
func New() model.BallStore {
	return &ballStore{}
}

// Insert binds ball to unitHash in both directions
func (bs *ballStore) Insert(dbContext model.DBWriter, unitHash *externalapi.DomainHash, ball *externalapi.DomainHash) error {
	err := dbContext.Put(ballByUnitBucket.Key(unitHash.ByteSlice()), binaryserialization.SerializeHash(ball))
	if err != nil {
		return err
	}
	return dbContext.Put(unitByBallBucket.Key(ball.ByteSlice()), binaryserialization.SerializeHash(unitHash))
}

// Ball gets the ball of the given unit
func (bs *ballStore) Ball(dbContext model.DBReader, unitHash *externalapi.DomainHash) (*externalapi.DomainHash, error) {
	ballBytes, err := dbContext.Get(ballByUnitBucket.Key(unitHash.ByteSlice()))
	if err != nil {
		return nil, err
	}
	return binaryserialization.DeserializeHash(ballBytes)
}

func (bs *ballStore) HasBall(dbContext model.DBReader, unitHash *externalapi.DomainHash) (bool, error) {
	return dbContext.Has(ballByUnitBucket.Key(unitHash.ByteSlice()))
}

// UnitByBall gets the unit of the given ball
func (bs *ballStore) UnitByBall(dbContext model.DBReader, ball *externalapi.DomainHash) (*externalapi.DomainHash, error) {
	unitBytes, err := dbContext.Get(unitByBallBucket.Key(ball.ByteSlice()))
	if err != nil {
		return nil, err
	}
	return binaryserialization.DeserializeHash(unitBytes)
}

func (bs *ballStore) InsertSkiplist(dbContext model.DBWriter, unitHash *externalapi.DomainHash,
	skiplistUnits []*externalapi.DomainHash) error {

	return dbContext.Put(skiplistBucket.Key(unitHash.ByteSlice()), binaryserialization.SerializeHashes(skiplistUnits))
}

// Skiplist gets the skiplist units of the given unit, nil if it has none
func (bs *ballStore) Skiplist(dbContext model.DBReader, unitHash *externalapi.DomainHash) ([]*externalapi.DomainHash, error) {
	skiplistBytes, err := dbContext.Get(skiplistBucket.Key(unitHash.ByteSlice()))
	if database.IsNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return binaryserialization.DeserializeHashes(skiplistBytes)
}
