package roundstore

import (
	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/database/binaryserialization"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/utils/serialization"
)

var powBucket = database.MakeBucket([]byte("round-pow"))
var lastCoinbaseBucket = database.MakeBucket([]byte("last-coinbase-round"))
var roundInfoBucket = database.MakeBucket([]byte("round-info"))

// roundStore represents the per-round bookkeeping: the proof-of-work,
// trustme and coinbase units of every round, the last round each address
// claimed a coinbase in and the witnessed level bounds of rounds
type roundStore struct {
}

// New instantiates a new RoundStore
func New() model.RoundStore {
	return &roundStore{}
}

// InsertPow records a pow_equihash, trustme or coinbase unit of a round
func (rs *roundStore) InsertPow(dbContext model.DBWriter, record *model.PowRecord) error {
	recordBytes, err := serialization.Marshal(record)
	if err != nil {
		return err
	}
	key := rs.addressBucket(record.PowType, record.RoundIndex, record.Address).Key(binaryserialization.SerializeHash(record.Unit))
	err = dbContext.Put(key, recordBytes)
	if err != nil {
		return err
	}
	if record.PowType != externalapi.PowTypeCoinbase {
		return nil
	}

	lastCoinbaseRound, err := rs.LastCoinbaseRound(dbContext, record.Address)
	if err != nil {
		return err
	}
	if record.RoundIndex <= lastCoinbaseRound {
		return nil
	}
	return dbContext.Put(lastCoinbaseBucket.Key([]byte(record.Address)), binaryserialization.SerializeUint64(record.RoundIndex))
}

// Pow returns the first unit of the given type address posted in the round, or ErrNotFound
func (rs *roundStore) Pow(dbContext model.DBReader, powType externalapi.PowType, roundIndex uint64,
	address string) (*model.PowRecord, error) {

	records, err := rs.records(dbContext, rs.addressBucket(powType, roundIndex, address))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, database.ErrNotFound
	}
	return records[0], nil
}

func (rs *roundStore) HasPow(dbContext model.DBReader, powType externalapi.PowType, roundIndex uint64,
	address string) (bool, error) {

	cursor, err := dbContext.Cursor(rs.addressBucket(powType, roundIndex, address))
	if err != nil {
		return false, err
	}
	defer cursor.Close()
	return cursor.First(), nil
}

// TrustmeUnits returns the trustme units of a round by proposer address
func (rs *roundStore) TrustmeUnits(dbContext model.DBReader, roundIndex uint64) ([]*externalapi.DomainHash, error) {
	records, err := rs.records(dbContext, rs.roundBucket(externalapi.PowTypeTrustme, roundIndex))
	if err != nil {
		return nil, err
	}
	units := make([]*externalapi.DomainHash, len(records))
	for i, record := range records {
		units[i] = record.Unit
	}
	return units, nil
}

func (rs *roundStore) records(dbContext model.DBReader, bucket model.DBBucket) ([]*model.PowRecord, error) {
	cursor, err := dbContext.Cursor(bucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var records []*model.PowRecord
	for cursor.Next() {
		recordBytes, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		record := &model.PowRecord{}
		err = serialization.Unmarshal(recordBytes, record)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// LastCoinbaseRound returns the last round address claimed a coinbase in, 0 if it never did
func (rs *roundStore) LastCoinbaseRound(dbContext model.DBReader, address string) (uint64, error) {
	roundBytes, err := dbContext.Get(lastCoinbaseBucket.Key([]byte(address)))
	if database.IsNotFoundError(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return binaryserialization.DeserializeUint64(roundBytes)
}

func (rs *roundStore) UpdateRoundInfo(dbContext model.DBWriter, info *model.RoundInfo) error {
	infoBytes, err := serialization.Marshal(info)
	if err != nil {
		return err
	}
	return dbContext.Put(roundInfoBucket.Key(binaryserialization.SerializeUint64(info.RoundIndex)), infoBytes)
}

// RoundInfo returns the bounds of a round. A round nothing was recorded for
// has no bounds.
func (rs *roundStore) RoundInfo(dbContext model.DBReader, roundIndex uint64) (*model.RoundInfo, error) {
	infoBytes, err := dbContext.Get(roundInfoBucket.Key(binaryserialization.SerializeUint64(roundIndex)))
	if database.IsNotFoundError(err) {
		return &model.RoundInfo{RoundIndex: roundIndex}, nil
	}
	if err != nil {
		return nil, err
	}
	info := &model.RoundInfo{}
	err = serialization.Unmarshal(infoBytes, info)
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (rs *roundStore) roundBucket(powType externalapi.PowType, roundIndex uint64) model.DBBucket {
	return powBucket.Bucket([]byte{byte(powType)}).Bucket(binaryserialization.SerializeUint64(roundIndex))
}

func (rs *roundStore) addressBucket(powType externalapi.PowType, roundIndex uint64, address string) model.DBBucket {
	return rs.roundBucket(powType, roundIndex).Bucket([]byte(address))
}
