package testutils

import (
	"testing"

	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/infrastructure/db/database/ldb"
)

// NewTestDB returns a DBManager over an in-memory LevelDB that is closed when
// the test ends
func NewTestDB(t testing.TB) model.DBManager {
	db, err := ldb.NewInMemoryLevelDB()
	if err != nil {
		t.Fatalf("NewInMemoryLevelDB: %+v", err)
	}
	t.Cleanup(func() {
		err := db.Close()
		if err != nil {
			t.Errorf("Close: %+v", err)
		}
	})
	return database.New(db)
}

// HashOf returns a hash whose first byte is b
func HashOf(b byte) *externalapi.DomainHash {
	return externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{b})
}
