package definitionstore

import (
	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/database/binaryserialization"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/utils/serialization"
)

var definitionsBucket = database.MakeBucket([]byte("definitions"))
var revealersByChashBucket = database.MakeBucket([]byte("definition-revealers"))
var revealersByAddressBucket = database.MakeBucket([]byte("address-definition-revealers"))
var changesBucket = database.MakeBucket([]byte("definition-changes"))

// definitionStore represents a store of address definitions by their chash,
// the units that revealed them and the definition changes of addresses
type definitionStore struct {
}

// New instantiates a new DefinitionStore
func New() model.DefinitionStore {
	return &definitionStore{}
}

// InsertDefinition stores definition under its chash. Storing the same
// definition again is harmless.
func (ds *definitionStore) InsertDefinition(dbContext model.DBWriter, definitionChash string, definition []interface{}) error {
	definitionBytes, err := serialization.Marshal(definition)
	if err != nil {
		return err
	}
	return dbContext.Put(definitionsBucket.Key([]byte(definitionChash)), definitionBytes)
}

// Definition returns the definition with the given chash, or ErrNotFound
func (ds *definitionStore) Definition(dbContext model.DBReader, definitionChash string) ([]interface{}, error) {
	definitionBytes, err := dbContext.Get(definitionsBucket.Key([]byte(definitionChash)))
	if err != nil {
		return nil, err
	}
	var definition []interface{}
	err = serialization.Unmarshal(definitionBytes, &definition)
	if err != nil {
		return nil, err
	}
	return definition, nil
}

// InsertRevealer records that unitHash revealed the definition with the
// given chash while authored by address
func (ds *definitionStore) InsertRevealer(dbContext model.DBWriter, address string, definitionChash string,
	unitHash *externalapi.DomainHash) error {

	unitBytes := binaryserialization.SerializeHash(unitHash)
	err := dbContext.Put(revealersByChashBucket.Bucket([]byte(definitionChash)).Key(unitBytes), unitBytes)
	if err != nil {
		return err
	}
	return dbContext.Put(revealersByAddressBucket.Bucket([]byte(address)).Key(unitBytes), unitBytes)
}

func (ds *definitionStore) RevealersOfDefinition(dbContext model.DBReader, definitionChash string) ([]*externalapi.DomainHash, error) {
	return ds.hashesIn(dbContext, revealersByChashBucket.Bucket([]byte(definitionChash)))
}

func (ds *definitionStore) RevealersOfAddress(dbContext model.DBReader, address string) ([]*externalapi.DomainHash, error) {
	return ds.hashesIn(dbContext, revealersByAddressBucket.Bucket([]byte(address)))
}

func (ds *definitionStore) hashesIn(dbContext model.DBReader, bucket model.DBBucket) ([]*externalapi.DomainHash, error) {
	cursor, err := dbContext.Cursor(bucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var hashes []*externalapi.DomainHash
	for cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return nil, err
		}
		hash, err := binaryserialization.DeserializeHash(key.Suffix())
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, hash)
	}
	return hashes, nil
}

func (ds *definitionStore) InsertChange(dbContext model.DBWriter, change *model.DefinitionChange) error {
	changeBytes, err := serialization.Marshal(change)
	if err != nil {
		return err
	}
	key := changesBucket.Bucket([]byte(change.Address)).Key(binaryserialization.SerializeHash(change.Unit))
	return dbContext.Put(key, changeBytes)
}

// Changes returns every definition change of address, stable or not
func (ds *definitionStore) Changes(dbContext model.DBReader, address string) ([]*model.DefinitionChange, error) {
	cursor, err := dbContext.Cursor(changesBucket.Bucket([]byte(address)))
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var changes []*model.DefinitionChange
	for cursor.Next() {
		changeBytes, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		change := &model.DefinitionChange{}
		err = serialization.Unmarshal(changeBytes, change)
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}
	return changes, nil
}
