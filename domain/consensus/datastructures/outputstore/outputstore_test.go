package outputstore

import (
	"testing"

	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/utils/testutils"
)

func TestOutputs(t *testing.T) {
	db := testutils.NewTestDB(t)
	store := New()

	outputs := []*model.OutputRecord{
		{Unit: testutils.HashOf(1), MessageIndex: 0, OutputIndex: 0, Address: "A", Amount: 10},
		{Unit: testutils.HashOf(1), MessageIndex: 0, OutputIndex: 1, Address: "B", Amount: 20},
		{Unit: testutils.HashOf(2), MessageIndex: 1, OutputIndex: 0, Address: "A", Amount: 30},
	}
	for _, output := range outputs {
		err := store.InsertOutput(db, output)
		if err != nil {
			t.Fatalf("InsertOutput: %+v", err)
		}
	}

	output, err := store.Output(db, testutils.HashOf(1), 0, 1)
	if err != nil {
		t.Fatalf("Output: %+v", err)
	}
	if output.Address != "B" || output.Amount != 20 || output.IsSpent {
		t.Fatalf("unexpected output %+v", output)
	}
	_, err = store.Output(db, testutils.HashOf(1), 1, 0)
	if !database.IsNotFoundError(err) {
		t.Fatalf("expected a not found error, got %+v", err)
	}

	err = store.MarkSpent(db, testutils.HashOf(2), 1, 0)
	if err != nil {
		t.Fatalf("MarkSpent: %+v", err)
	}
	byAddress, err := store.OutputsByAddress(db, "A")
	if err != nil {
		t.Fatalf("OutputsByAddress: %+v", err)
	}
	if len(byAddress) != 2 {
		t.Fatalf("expected 2 outputs of A, got %d", len(byAddress))
	}
	if byAddress[0].Amount != 10 || byAddress[0].IsSpent {
		t.Fatalf("unexpected first output %+v", byAddress[0])
	}
	if byAddress[1].Amount != 30 || !byAddress[1].IsSpent {
		t.Fatalf("unexpected second output %+v", byAddress[1])
	}
}

func TestSpenders(t *testing.T) {
	db := testutils.NewTestDB(t)
	store := New()

	key := model.TransferSpendKey(nil, testutils.HashOf(1), 0, 0)
	otherKey := model.TransferSpendKey(nil, testutils.HashOf(1), 0, 1)
	for _, unit := range []byte{7, 8} {
		err := store.InsertSpender(db, key, &model.Spender{Unit: testutils.HashOf(unit), Address: "A", IsUnique: true})
		if err != nil {
			t.Fatalf("InsertSpender: %+v", err)
		}
	}
	err := store.InsertSpender(db, otherKey, &model.Spender{Unit: testutils.HashOf(9), Address: "A", IsUnique: true})
	if err != nil {
		t.Fatalf("InsertSpender: %+v", err)
	}

	err = store.SetSpenderUnique(db, key, testutils.HashOf(8), false)
	if err != nil {
		t.Fatalf("SetSpenderUnique: %+v", err)
	}
	spenders, err := store.Spenders(db, key)
	if err != nil {
		t.Fatalf("Spenders: %+v", err)
	}
	if len(spenders) != 2 {
		t.Fatalf("expected 2 spenders, got %d", len(spenders))
	}
	if !spenders[0].Unit.Equal(testutils.HashOf(7)) || !spenders[0].IsUnique {
		t.Fatalf("unexpected first spender %+v", spenders[0])
	}
	if !spenders[1].Unit.Equal(testutils.HashOf(8)) || spenders[1].IsUnique {
		t.Fatalf("unexpected second spender %+v", spenders[1])
	}
}

func TestSpendKeysOfUnit(t *testing.T) {
	db := testutils.NewTestDB(t)
	store := New()

	keys := []model.SpendKey{
		model.TransferSpendKey(nil, testutils.HashOf(1), 0, 0),
		model.IssueSpendKey(testutils.HashOf(2), 0, "A", 3),
	}
	for i, key := range keys {
		err := store.InsertSpender(db, key, &model.Spender{Unit: testutils.HashOf(7), InputIndex: uint32(i), Address: "A"})
		if err != nil {
			t.Fatalf("InsertSpender: %+v", err)
		}
	}
	err := store.InsertSpender(db, keys[0], &model.Spender{Unit: testutils.HashOf(8), Address: "A"})
	if err != nil {
		t.Fatalf("InsertSpender: %+v", err)
	}

	unitKeys, err := store.SpendKeysOfUnit(db, testutils.HashOf(7))
	if err != nil {
		t.Fatalf("SpendKeysOfUnit: %+v", err)
	}
	if len(unitKeys) != 2 {
		t.Fatalf("expected 2 spend keys, got %v", unitKeys)
	}
	found := make(map[model.SpendKey]bool)
	for _, key := range unitKeys {
		found[key] = true
	}
	for _, key := range keys {
		if !found[key] {
			t.Fatalf("spend key %s is missing from %v", key, unitKeys)
		}
	}
	otherKeys, err := store.SpendKeysOfUnit(db, testutils.HashOf(9))
	if err != nil {
		t.Fatalf("SpendKeysOfUnit: %+v", err)
	}
	if len(otherKeys) != 0 {
		t.Fatalf("expected no spend keys, got %v", otherKeys)
	}
}
