package mainchainstore

import (
	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/database/binaryserialization"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
)

var mainChainBucket = database.MakeBucket([]byte("main-chain"))
var membersBucket = database.MakeBucket([]byte("main-chain-members"))
var lastStableMCIKey = database.MakeBucket([]byte("last-stable-mci")).Key(nil)

// mainChainStore represents the main chain units by index and, for every
// index, the units that got it
type mainChainStore struct {
}

// New instantiates a new MainChainStore
func New() model.MainChainStore {
	return &mainChainStore{}
}

func (mcs *mainChainStore) SetMainChainUnit(dbContext model.DBWriter, mci uint64, unitHash *externalapi.DomainHash) error {
	return dbContext.Put(mainChainBucket.Key(binaryserialization.SerializeUint64(mci)), binaryserialization.SerializeHash(unitHash))
}

// MainChainUnit returns the main chain unit at mci, or ErrNotFound
func (mcs *mainChainStore) MainChainUnit(dbContext model.DBReader, mci uint64) (*externalapi.DomainHash, error) {
	unitBytes, err := dbContext.Get(mainChainBucket.Key(binaryserialization.SerializeUint64(mci)))
	if err != nil {
		return nil, err
	}
	return binaryserialization.DeserializeHash(unitBytes)
}

// AddMember records that unitHash got main chain index mci
func (mcs *mainChainStore) AddMember(dbContext model.DBWriter, mci uint64, unitHash *externalapi.DomainHash) error {
	key := mcs.memberKey(mci, unitHash)
	return dbContext.Put(key, binaryserialization.SerializeHash(unitHash))
}

// Members returns the units with main chain index mci in byte order
func (mcs *mainChainStore) Members(dbContext model.DBReader, mci uint64) ([]*externalapi.DomainHash, error) {
	cursor, err := dbContext.Cursor(membersBucket.Bucket(binaryserialization.SerializeUint64(mci)))
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var members []*externalapi.DomainHash
	for cursor.Next() {
		unitBytes, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		unitHash, err := binaryserialization.DeserializeHash(unitBytes)
		if err != nil {
			return nil, err
		}
		members = append(members, unitHash)
	}
	return members, nil
}

func (mcs *mainChainStore) SetLastStableMCI(dbContext model.DBWriter, mci uint64) error {
	return dbContext.Put(lastStableMCIKey, binaryserialization.SerializeUint64(mci))
}

// LastStableMCI returns the last stable main chain index, or ErrNotFound
// before genesis is stored
func (mcs *mainChainStore) LastStableMCI(dbContext model.DBReader) (uint64, error) {
	mciBytes, err := dbContext.Get(lastStableMCIKey)
	if err != nil {
		return 0, err
	}
	return binaryserialization.DeserializeUint64(mciBytes)
}

func (mcs *mainChainStore) memberKey(mci uint64, unitHash *externalapi.DomainHash) model.DBKey {
	return membersBucket.Bucket(binaryserialization.SerializeUint64(mci)).Key(unitHash.ByteSlice())
}
