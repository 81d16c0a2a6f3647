package addressdefinitionmanager

import (
	"testing"

	"github.com/unitdag/unitd/domain/consensus/datastructures/definitionstore"
	"github.com/unitdag/unitd/domain/consensus/datastructures/unitpropsstore"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/utils/testutils"
)

func TestDefinitionAt(t *testing.T) {
	db := testutils.NewTestDB(t)
	definitionStore := definitionstore.New()
	unitPropsStore, err := unitpropsstore.New(10)
	if err != nil {
		t.Fatalf("unitpropsstore.New: %+v", err)
	}
	manager := New(definitionStore, unitPropsStore)

	const address = "ADDRESS"
	originalDefinition := []interface{}{"sig", map[string]interface{}{"pubkey": "original"}}
	changedDefinition := []interface{}{"sig", map[string]interface{}{"pubkey": "changed"}}
	err = definitionStore.InsertDefinition(db, address, originalDefinition)
	if err != nil {
		t.Fatalf("InsertDefinition: %+v", err)
	}
	err = definitionStore.InsertDefinition(db, "CHANGED", changedDefinition)
	if err != nil {
		t.Fatalf("InsertDefinition: %+v", err)
	}

	addChange := func(unit *externalapi.DomainHash, definitionChash string, props *externalapi.UnitProps) {
		props.Unit = unit
		err := unitPropsStore.Update(db, props)
		if err != nil {
			t.Fatalf("Update: %+v", err)
		}
		err = definitionStore.InsertChange(db, &model.DefinitionChange{
			Unit: unit, Address: address, DefinitionChash: definitionChash})
		if err != nil {
			t.Fatalf("InsertChange: %+v", err)
		}
	}
	addChange(testutils.HashOf(1), "CHANGED", &externalapi.UnitProps{
		MainChainIndex: 5, HasMainChainIndex: true, IsStable: true, Sequence: externalapi.SequenceGood})
	addChange(testutils.HashOf(2), "UNSTABLE", &externalapi.UnitProps{
		MainChainIndex: 6, HasMainChainIndex: true, Sequence: externalapi.SequenceGood})
	addChange(testutils.HashOf(3), "BAD", &externalapi.UnitProps{
		MainChainIndex: 6, HasMainChainIndex: true, IsStable: true, Sequence: externalapi.SequenceFinalBad})

	tests := []struct {
		mci                  uint64
		expectedChash        string
		expectedDefinitionPK string
	}{
		{mci: 4, expectedChash: address, expectedDefinitionPK: "original"},
		{mci: 5, expectedChash: "CHANGED", expectedDefinitionPK: "changed"},
		{mci: 10, expectedChash: "CHANGED", expectedDefinitionPK: "changed"},
	}
	for _, test := range tests {
		definition, definitionChash, found, err := manager.DefinitionAt(db, address, test.mci)
		if err != nil {
			t.Fatalf("DefinitionAt: %+v", err)
		}
		if !found {
			t.Fatalf("mci %d: expected a definition", test.mci)
		}
		if definitionChash != test.expectedChash {
			t.Fatalf("mci %d: expected chash %s, got %s", test.mci, test.expectedChash, definitionChash)
		}
		pubkey := definition[1].(map[string]interface{})["pubkey"]
		if pubkey != test.expectedDefinitionPK {
			t.Fatalf("mci %d: expected pubkey %s, got %v", test.mci, test.expectedDefinitionPK, pubkey)
		}
	}

	_, definitionChash, found, err := manager.DefinitionAt(db, "UNKNOWN", 10)
	if err != nil {
		t.Fatalf("DefinitionAt: %+v", err)
	}
	if found || definitionChash != "UNKNOWN" {
		t.Fatalf("expected an unrevealed definition bound to the address itself")
	}
}
