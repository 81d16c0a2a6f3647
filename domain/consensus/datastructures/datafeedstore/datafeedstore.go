package datafeedstore

import (
	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/database/binaryserialization"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/utils/serialization"
	"golang.org/x/crypto/blake2b"
)

var bucket = database.MakeBucket([]byte("data-feeds"))

// dataFeedStore represents a store of data feed values, grouped by the
// posting address and the feed name
type dataFeedStore struct {
}

// New instantiates a new DataFeedStore
func New() model.DataFeedStore {
	return &dataFeedStore{}
}

func (dfs *dataFeedStore) Insert(dbContext model.DBWriter, record *model.DataFeedRecord) error {
	recordBytes, err := serialization.Marshal(record)
	if err != nil {
		return err
	}
	key := dfs.feedBucket(record.Address, record.FeedName).Key(binaryserialization.SerializeHash(record.Unit))
	return dbContext.Put(key, recordBytes)
}

// Values returns every value address posted to feedName
func (dfs *dataFeedStore) Values(dbContext model.DBReader, address string, feedName string) ([]*model.DataFeedRecord, error) {
	cursor, err := dbContext.Cursor(dfs.feedBucket(address, feedName))
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var records []*model.DataFeedRecord
	for cursor.Next() {
		recordBytes, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		record := &model.DataFeedRecord{}
		err = serialization.Unmarshal(recordBytes, record)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// feedBucket digests the feed name since feed names are free text
func (dfs *dataFeedStore) feedBucket(address string, feedName string) model.DBBucket {
	digest := blake2b.Sum256([]byte(feedName))
	return bucket.Bucket([]byte(address)).Bucket(digest[:])
}
