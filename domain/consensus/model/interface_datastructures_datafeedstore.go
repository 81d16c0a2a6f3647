package model

// DataFeedStore represents a store of data feed values by address and feed name
type DataFeedStore interface {
	Insert(dbContext DBWriter, record *DataFeedRecord) error
	Values(dbContext DBReader, address string, feedName string) ([]*DataFeedRecord, error)
}
