package knownbadstore

import (
	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/database/binaryserialization"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
)

var reasonsBucket = database.MakeBucket([]byte("known-bad-units"))
var byAddressBucket = database.MakeBucket([]byte("known-bad-units-by-author"))

// knownBadStore represents the units that failed validation with a unit
// error. They are never validated again.
type knownBadStore struct {
}

// New instantiates a new KnownBadStore
func New() model.KnownBadStore {
	return &knownBadStore{}
}

func (kbs *knownBadStore) Insert(dbContext model.DBWriter, unitHash *externalapi.DomainHash, authors []string, reason string) error {
	unitBytes := binaryserialization.SerializeHash(unitHash)
	err := dbContext.Put(reasonsBucket.Key(unitBytes), []byte(reason))
	if err != nil {
		return err
	}
	for _, author := range authors {
		err := dbContext.Put(byAddressBucket.Bucket([]byte(author)).Key(unitBytes), unitBytes)
		if err != nil {
			return err
		}
	}
	return nil
}

// Reason returns why the unit was rejected, and false if it is not known bad
func (kbs *knownBadStore) Reason(dbContext model.DBReader, unitHash *externalapi.DomainHash) (string, bool, error) {
	reasonBytes, err := dbContext.Get(reasonsBucket.Key(binaryserialization.SerializeHash(unitHash)))
	if database.IsNotFoundError(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(reasonBytes), true, nil
}

// HasBadUnitsByAddress returns whether address authored any known bad unit
func (kbs *knownBadStore) HasBadUnitsByAddress(dbContext model.DBReader, address string) (bool, error) {
	cursor, err := dbContext.Cursor(byAddressBucket.Bucket([]byte(address)))
	if err != nil {
		return false, err
	}
	defer cursor.Close()
	return cursor.First(), nil
}
