package unitstore

import (
	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/database/binaryserialization"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/utils/serialization"
)

var bucket = database.MakeBucket([]byte("joints"))
var countKey = database.MakeBucket([]byte("joints-count")).Key(nil)

// unitStore represents a store of joints
type unitStore struct {
}

// New instantiates a new UnitStore
func New() model.UnitStore {
	return &unitStore{}
}

// Insert inserts the given joint. A stored joint is never overwritten.
func (us *unitStore) Insert(dbContext model.DBWriter, joint *externalapi.DomainJoint) error {
	key := us.hashAsKey(joint.Unit.Hash)
	exists, err := dbContext.Has(key)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	jointBytes, err := serialization.Marshal(joint)
	if err != nil {
		return err
	}
	err = dbContext.Put(key, jointBytes)
	if err != nil {
		return err
	}

	count, err := us.Count(dbContext)
	if err != nil {
		return err
	}
	return dbContext.Put(countKey, binaryserialization.SerializeUint64(count+1))
}

// Joint gets the joint of the given unit
func (us *unitStore) Joint(dbContext model.DBReader, unitHash *externalapi.DomainHash) (*externalapi.DomainJoint, error) {
	jointBytes, err := dbContext.Get(us.hashAsKey(unitHash))
	if err != nil {
		return nil, err
	}
	joint := &externalapi.DomainJoint{}
	err = serialization.Unmarshal(jointBytes, joint)
	if err != nil {
		return nil, err
	}
	return joint, nil
}

// Unit gets the given unit
func (us *unitStore) Unit(dbContext model.DBReader, unitHash *externalapi.DomainHash) (*externalapi.DomainUnit, error) {
	joint, err := us.Joint(dbContext, unitHash)
	if err != nil {
		return nil, err
	}
	return joint.Unit, nil
}

func (us *unitStore) Has(dbContext model.DBReader, unitHash *externalapi.DomainHash) (bool, error) {
	return dbContext.Has(us.hashAsKey(unitHash))
}

// Count returns the number of stored joints
func (us *unitStore) Count(dbContext model.DBReader) (uint64, error) {
	countBytes, err := dbContext.Get(countKey)
	if database.IsNotFoundError(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return binaryserialization.DeserializeUint64(countBytes)
}

func (us *unitStore) hashAsKey(hash *externalapi.DomainHash) model.DBKey {
	return bucket.Key(binaryserialization.SerializeHash(hash))
}
