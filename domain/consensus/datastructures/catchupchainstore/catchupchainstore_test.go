package catchupchainstore

import (
	"testing"

	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/utils/testutils"
)

func TestCatchupChainStore(t *testing.T) {
	db := testutils.NewTestDB(t)
	store := New()

	hasChain, err := store.Has(db)
	if err != nil {
		t.Fatalf("Has: %+v", err)
	}
	if hasChain {
		t.Fatalf("empty store has a catch-up chain")
	}
	_, err = store.First(db)
	if !database.IsNotFoundError(err) {
		t.Fatalf("expected a not found error, got %+v", err)
	}

	// Chain order is insertion order, not byte order
	err = store.Append(db, []*externalapi.DomainHash{testutils.HashOf(9), testutils.HashOf(3)})
	if err != nil {
		t.Fatalf("Append: %+v", err)
	}
	err = store.Append(db, []*externalapi.DomainHash{testutils.HashOf(3), testutils.HashOf(5)})
	if err != nil {
		t.Fatalf("Append: %+v", err)
	}
	balls, err := store.Balls(db)
	if err != nil {
		t.Fatalf("Balls: %+v", err)
	}
	expected := []*externalapi.DomainHash{testutils.HashOf(9), testutils.HashOf(3), testutils.HashOf(5)}
	if !externalapi.HashesEqual(balls, expected) {
		t.Fatalf("expected %v, got %v", expected, balls)
	}

	err = store.Delete(db, testutils.HashOf(9))
	if err != nil {
		t.Fatalf("Delete: %+v", err)
	}
	first, err := store.First(db)
	if err != nil {
		t.Fatalf("First: %+v", err)
	}
	if !first.Equal(testutils.HashOf(3)) {
		t.Fatalf("expected first ball %s, got %s", testutils.HashOf(3), first)
	}

	err = store.Clear(db)
	if err != nil {
		t.Fatalf("Clear: %+v", err)
	}
	hasChain, err = store.Has(db)
	if err != nil {
		t.Fatalf("Has: %+v", err)
	}
	if hasChain {
		t.Fatalf("catch-up chain survived Clear")
	}
}
