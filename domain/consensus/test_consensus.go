package consensus

import (
	"os"

	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/dagconfig"
	"github.com/unitdag/unitd/infrastructure/db/database/ldb"
)

// NewTestConsensus creates a Consensus over a LevelDB in a temporary
// directory. teardown closes the database and removes the directory.
func NewTestConsensus(params *dagconfig.Params, testName string) (tc Consensus, teardown func(), err error) {
	dataDir, err := os.MkdirTemp("", testName)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	db, err := ldb.NewLevelDB(dataDir, 8)
	if err != nil {
		os.RemoveAll(dataDir)
		return nil, nil, err
	}
	teardown = func() {
		db.Close()
		os.RemoveAll(dataDir)
	}

	tc, err = NewFactory().NewConsensus(&Config{Params: params, ValidationWorkers: 2}, db)
	if err != nil {
		teardown()
		return nil, nil, err
	}
	return tc, teardown, nil
}
