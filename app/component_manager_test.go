package app

import (
	"context"
	"testing"

	"github.com/unitdag/unitd/infrastructure/config"
	"github.com/unitdag/unitd/infrastructure/db/database/ldb"
)

func TestComponentManager(t *testing.T) {
	cfg := config.DefaultConfig()
	err := cfg.ResolveNetwork(nil)
	if err != nil {
		t.Fatalf("ResolveNetwork: %+v", err)
	}
	cfg.MetricsListen = "127.0.0.1:0"

	db, err := ldb.NewInMemoryLevelDB()
	if err != nil {
		t.Fatalf("NewInMemoryLevelDB: %+v", err)
	}
	defer db.Close()

	componentManager, err := NewComponentManager(cfg, db)
	if err != nil {
		t.Fatalf("NewComponentManager: %+v", err)
	}
	componentManager.Start()
	defer componentManager.Stop()

	params := cfg.NetParams()
	err = componentManager.Consensus().WaitForUnit(context.Background(), params.GenesisUnit)
	if err != nil {
		t.Fatalf("WaitForUnit: %+v", err)
	}
}
