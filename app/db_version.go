package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const currentDatabaseVersion = 1

// checkDatabaseVersion reads the version file of the database at dbPath. A
// missing file means the database is new. The file records the database
// version and the network it was created for, and both must match.
func checkDatabaseVersion(dbPath string, network string) (doesVersionFileExist bool, err error) {
	content, err := os.ReadFile(versionFilePath(dbPath))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.WithStack(err)
	}

	fields := strings.Fields(string(content))
	if len(fields) != 2 {
		return true, errors.Errorf("malformed database version file %q", content)
	}
	databaseVersion, err := strconv.Atoi(fields[0])
	if err != nil {
		return true, errors.Wrapf(err, "malformed database version file")
	}
	if databaseVersion != currentDatabaseVersion {
		return true, errors.Errorf("Invalid database version %d. Expected version: %d",
			databaseVersion, currentDatabaseVersion)
	}
	if fields[1] != network {
		return true, errors.Errorf("the database at %s belongs to %s, not %s", dbPath, fields[1], network)
	}
	return true, nil
}

func createDatabaseVersionFile(dbPath string, network string) error {
	content := fmt.Sprintf("%d %s\n", currentDatabaseVersion, network)
	return errors.WithStack(os.WriteFile(versionFilePath(dbPath), []byte(content), 0600))
}

func versionFilePath(dbPath string) string {
	return filepath.Join(dbPath, "version")
}
