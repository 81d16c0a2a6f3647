package app

import (
	"os"
	"testing"
)

func TestDatabaseVersion(t *testing.T) {
	dbPath := t.TempDir()

	exists, err := checkDatabaseVersion(dbPath, "devnet")
	if err != nil {
		t.Fatalf("checkDatabaseVersion: %+v", err)
	}
	if exists {
		t.Fatalf("expected no version file in a new database")
	}

	err = createDatabaseVersionFile(dbPath, "devnet")
	if err != nil {
		t.Fatalf("createDatabaseVersionFile: %+v", err)
	}
	exists, err = checkDatabaseVersion(dbPath, "devnet")
	if err != nil {
		t.Fatalf("checkDatabaseVersion: %+v", err)
	}
	if !exists {
		t.Fatalf("expected the version file to exist")
	}

	_, err = checkDatabaseVersion(dbPath, "testnet")
	if err == nil {
		t.Fatalf("checkDatabaseVersion: expected an error for another network")
	}

	tests := []struct {
		name    string
		content string
	}{
		{"unknown version", "2 devnet\n"},
		{"missing network", "1\n"},
		{"not a number", "one devnet\n"},
	}
	for _, test := range tests {
		err = os.WriteFile(versionFilePath(dbPath), []byte(test.content), 0600)
		if err != nil {
			t.Fatalf("WriteFile: %+v", err)
		}
		_, err = checkDatabaseVersion(dbPath, "devnet")
		if err == nil {
			t.Errorf("%s: expected an error", test.name)
		}
	}
}
