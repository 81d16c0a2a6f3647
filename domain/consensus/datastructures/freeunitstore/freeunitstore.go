package freeunitstore

import (
	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/database/binaryserialization"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
)

var bucket = database.MakeBucket([]byte("free-units"))

// freeUnitStore represents the set of free units
type freeUnitStore struct {
}

// New instantiates a new FreeUnitStore
func New() model.FreeUnitStore {
	return &freeUnitStore{}
}

func (fus *freeUnitStore) Add(dbContext model.DBWriter, unitHash *externalapi.DomainHash) error {
	return dbContext.Put(fus.hashAsKey(unitHash), []byte{})
}

func (fus *freeUnitStore) Remove(dbContext model.DBWriter, unitHash *externalapi.DomainHash) error {
	return dbContext.Delete(fus.hashAsKey(unitHash))
}

func (fus *freeUnitStore) Has(dbContext model.DBReader, unitHash *externalapi.DomainHash) (bool, error) {
	return dbContext.Has(fus.hashAsKey(unitHash))
}

// All returns the free units in ascending order
func (fus *freeUnitStore) All(dbContext model.DBReader) ([]*externalapi.DomainHash, error) {
	cursor, err := dbContext.Cursor(bucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var units []*externalapi.DomainHash
	for cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return nil, err
		}
		unitHash, err := binaryserialization.DeserializeHash(key.Suffix())
		if err != nil {
			return nil, err
		}
		units = append(units, unitHash)
	}
	return units, nil
}

func (fus *freeUnitStore) hashAsKey(hash *externalapi.DomainHash) model.DBKey {
	return bucket.Key(binaryserialization.SerializeHash(hash))
}
