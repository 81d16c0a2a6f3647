package hashtreestore

import (
	"testing"

	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/utils/testutils"
)

func TestHashTreeStore(t *testing.T) {
	db := testutils.NewTestDB(t)
	store := New()

	pairs := [][2]byte{{10, 1}, {20, 2}, {30, 3}}
	for _, pair := range pairs {
		err := store.Insert(db, testutils.HashOf(pair[0]), testutils.HashOf(pair[1]))
		if err != nil {
			t.Fatalf("Insert: %+v", err)
		}
	}

	ball, err := store.BallByUnit(db, testutils.HashOf(2))
	if err != nil {
		t.Fatalf("BallByUnit: %+v", err)
	}
	if !ball.Equal(testutils.HashOf(20)) {
		t.Fatalf("unexpected ball %s", ball)
	}

	err = store.Delete(db, testutils.HashOf(20))
	if err != nil {
		t.Fatalf("Delete: %+v", err)
	}
	err = store.Delete(db, testutils.HashOf(40))
	if err != nil {
		t.Fatalf("Delete of an unknown ball: %+v", err)
	}

	_, err = store.BallByUnit(db, testutils.HashOf(2))
	if !database.IsNotFoundError(err) {
		t.Fatalf("expected a not found error, got %+v", err)
	}
	balls, err := store.Balls(db)
	if err != nil {
		t.Fatalf("Balls: %+v", err)
	}
	expected := []*externalapi.DomainHash{testutils.HashOf(10), testutils.HashOf(30)}
	if !externalapi.HashesEqual(balls, expected) {
		t.Fatalf("expected %v, got %v", expected, balls)
	}
}
