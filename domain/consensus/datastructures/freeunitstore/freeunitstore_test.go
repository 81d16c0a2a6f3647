package freeunitstore

import (
	"testing"

	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/utils/testutils"
)

func TestFreeUnitStore(t *testing.T) {
	db := testutils.NewTestDB(t)
	store := New()

	for _, b := range []byte{3, 1, 2} {
		err := store.Add(db, testutils.HashOf(b))
		if err != nil {
			t.Fatalf("Add: %+v", err)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Begin: %+v", err)
	}
	defer tx.RollbackUnlessClosed()
	err = store.Remove(tx, testutils.HashOf(2))
	if err != nil {
		t.Fatalf("Remove: %+v", err)
	}
	err = store.Add(tx, testutils.HashOf(4))
	if err != nil {
		t.Fatalf("Add: %+v", err)
	}

	// The transaction sees its own writes
	free, err := store.All(tx)
	if err != nil {
		t.Fatalf("All: %+v", err)
	}
	expected := []*externalapi.DomainHash{testutils.HashOf(1), testutils.HashOf(3), testutils.HashOf(4)}
	if !externalapi.HashesEqual(free, expected) {
		t.Fatalf("expected %v, got %v", expected, free)
	}

	err = tx.Rollback()
	if err != nil {
		t.Fatalf("Rollback: %+v", err)
	}
	free, err = store.All(db)
	if err != nil {
		t.Fatalf("All: %+v", err)
	}
	expected = []*externalapi.DomainHash{testutils.HashOf(1), testutils.HashOf(2), testutils.HashOf(3)}
	if !externalapi.HashesEqual(free, expected) {
		t.Fatalf("expected %v, got %v", expected, free)
	}

	isFree, err := store.Has(db, testutils.HashOf(4))
	if err != nil {
		t.Fatalf("Has: %+v", err)
	}
	if isFree {
		t.Fatalf("a rolled back unit is free")
	}
}
