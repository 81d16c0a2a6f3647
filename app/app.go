package app

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/unitdag/unitd/infrastructure/config"
	"github.com/unitdag/unitd/infrastructure/db/database"
	"github.com/unitdag/unitd/infrastructure/db/database/ldb"
	"github.com/unitdag/unitd/infrastructure/logger"
	"github.com/unitdag/unitd/infrastructure/os/signal"
	"github.com/unitdag/unitd/util/panics"
	"github.com/unitdag/unitd/util/profiling"
	"github.com/unitdag/unitd/version"
)

type unitdApp struct {
	cfg *config.Config
}

// StartApp starts the unitd app, and blocks until it finishes running
func StartApp() error {
	// Listen for interrupt signals before anything else
	interrupt := signal.InterruptListener()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	defer logger.CloseLog()
	defer panics.HandlePanic(log, "MAIN", nil)

	app := &unitdApp{cfg: cfg}
	return app.main(interrupt)
}

func (app *unitdApp) main(interrupt <-chan struct{}) error {
	log.Infof("Version %s", version.Version())

	if app.cfg.Profile != "" {
		profiling.Start(app.cfg.Profile, log)
	}

	db, err := openDB(app.cfg)
	if err != nil {
		log.Errorf("Loading database failed: %+v", err)
		return err
	}
	defer func() {
		log.Infof("Gracefully shutting down the database...")
		err := db.Close()
		if err != nil {
			log.Errorf("Failed to close the database: %s", err)
		}
	}()

	componentManager, err := NewComponentManager(app.cfg, db)
	if err != nil {
		log.Errorf("Unable to start unitd: %+v", err)
		return err
	}
	defer func() {
		log.Infof("Gracefully shutting down unitd...")
		componentManager.Stop()
		log.Infof("Unitd shutdown complete")
	}()

	componentManager.Start()

	<-interrupt
	return nil
}

// openDB opens the LevelDB of the active network, refusing databases
// written by an incompatible version or for another network
func openDB(cfg *config.Config) (database.Database, error) {
	dbPath := cfg.DBPath()
	err := os.MkdirAll(dbPath, 0700)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	network := cfg.NetParams().Name
	doesVersionFileExist, err := checkDatabaseVersion(dbPath, network)
	if err != nil {
		return nil, err
	}

	log.Infof("Loading database from '%s'", dbPath)
	db, err := ldb.NewLevelDB(dbPath, cfg.DBCacheSizeMiB)
	if err != nil {
		return nil, err
	}
	if !doesVersionFileExist {
		err = createDatabaseVersionFile(dbPath, network)
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}
