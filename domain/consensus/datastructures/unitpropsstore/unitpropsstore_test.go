package unitpropsstore

import (
	"testing"

	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/utils/testutils"
)

func TestUnitPropsStore(t *testing.T) {
	db := testutils.NewTestDB(t)
	store, err := New(10)
	if err != nil {
		t.Fatalf("New: %+v", err)
	}

	unitHash := testutils.HashOf(7)
	_, err = store.Get(db, unitHash)
	if !database.IsNotFoundError(err) {
		t.Fatalf("expected a not found error, got %+v", err)
	}

	props := &externalapi.UnitProps{
		Unit:     unitHash,
		Level:    3,
		Sequence: externalapi.SequenceGood,
		Authors:  []string{"A"},
	}
	err = store.Update(db, props)
	if err != nil {
		t.Fatalf("Update: %+v", err)
	}

	stored, err := store.Get(db, unitHash)
	if err != nil {
		t.Fatalf("Get: %+v", err)
	}
	if stored.Level != 3 || stored.IsStable {
		t.Fatalf("unexpected props %+v", stored)
	}

	stored.IsStable = true
	stored.MainChainIndex = 5
	stored.HasMainChainIndex = true
	err = store.Update(db, stored)
	if err != nil {
		t.Fatalf("Update: %+v", err)
	}

	// The first read caches the stable props, the second one is served from the cache
	for i := 0; i < 2; i++ {
		stable, err := store.Get(db, unitHash)
		if err != nil {
			t.Fatalf("Get: %+v", err)
		}
		if !stable.IsStable || !stable.MCIAtMost(5) || stable.MCIAtMost(4) {
			t.Fatalf("unexpected props %+v", stable)
		}
		// Modifying the result must not leak into the cache
		stable.Authors[0] = "B"
	}

	again, err := store.Get(db, unitHash)
	if err != nil {
		t.Fatalf("Get: %+v", err)
	}
	if again.Authors[0] != "A" {
		t.Fatalf("a returned props object aliases the cache")
	}

	exists, err := store.Has(db, unitHash)
	if err != nil {
		t.Fatalf("Has: %+v", err)
	}
	if !exists {
		t.Fatalf("Has returned false for a stored unit")
	}
}
