package datafeedstore

import (
	"testing"

	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/utils/testutils"
)

func TestDataFeedStore(t *testing.T) {
	db := testutils.NewTestDB(t)
	store := New()

	records := []*model.DataFeedRecord{
		{Unit: testutils.HashOf(1), Address: "ORACLE", FeedName: "BTC/USD", IntValue: 30000, IsIntValue: true},
		{Unit: testutils.HashOf(2), Address: "ORACLE", FeedName: "BTC/USD", IntValue: 31000, IsIntValue: true},
		{Unit: testutils.HashOf(3), Address: "ORACLE", FeedName: "BTC", Value: "up"},
		{Unit: testutils.HashOf(4), Address: "OTHER", FeedName: "BTC/USD", IntValue: 1, IsIntValue: true},
	}
	for _, record := range records {
		err := store.Insert(db, record)
		if err != nil {
			t.Fatalf("Insert: %+v", err)
		}
	}

	values, err := store.Values(db, "ORACLE", "BTC/USD")
	if err != nil {
		t.Fatalf("Values: %+v", err)
	}
	if len(values) != 2 || values[0].IntValue != 30000 || values[1].IntValue != 31000 {
		t.Fatalf("unexpected values %+v", values)
	}
	values, err = store.Values(db, "ORACLE", "BTC")
	if err != nil {
		t.Fatalf("Values: %+v", err)
	}
	if len(values) != 1 || values[0].Value != "up" {
		t.Fatalf("unexpected values %+v", values)
	}
}
