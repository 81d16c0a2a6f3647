package app

import (
	"sync/atomic"
	"time"

	"github.com/unitdag/unitd/domain/consensus"
	"github.com/unitdag/unitd/domain/consensus/notifications"
	"github.com/unitdag/unitd/infrastructure/config"
	infrastructuredatabase "github.com/unitdag/unitd/infrastructure/db/database"
	"github.com/unitdag/unitd/infrastructure/metrics"
	"github.com/unitdag/unitd/infrastructure/os/signal"
)

const haltCheckInterval = time.Second

// ComponentManager is a wrapper for all the unitd services
type ComponentManager struct {
	cfg           *config.Config
	consensus     consensus.Consensus
	metricsServer *metrics.Server

	unitAcceptedListener      *notifications.NotificationListener
	unsubscribePeerRoundIndex func()
	quit                      chan struct{}

	started, shutdown int32
}

// NewComponentManager returns a new ComponentManager instance.
// Use Start() to begin all services within this ComponentManager
func NewComponentManager(cfg *config.Config, db infrastructuredatabase.Database) (*ComponentManager, error) {
	params := cfg.NetParams()
	pipelineMetrics := metrics.New(params.Name)
	consensusConfig := &consensus.Config{
		Params:             params,
		UnitPropsCacheSize: cfg.UnitPropsCacheSize,
		ValidationWorkers:  cfg.ValidationWorkers,
		ProcessingObserver: pipelineMetrics,
		LockWaitObserver:   pipelineMetrics,
	}
	c, err := consensus.NewFactory().NewConsensus(consensusConfig, db)
	if err != nil {
		return nil, err
	}

	var metricsServer *metrics.Server
	if cfg.MetricsListen != "" {
		metricsServer, err = metrics.NewServer(pipelineMetrics, cfg.MetricsListen)
		if err != nil {
			return nil, err
		}
	}

	lastStableMCI, err := c.LastStableMCI()
	if err != nil {
		return nil, err
	}
	pipelineMetrics.ObserveLastStableMCI(lastStableMCI)

	return &ComponentManager{
		cfg:           cfg,
		consensus:     c,
		metricsServer: metricsServer,
		quit:          make(chan struct{}),
	}, nil
}

// Consensus returns the Consensus associated with this ComponentManager
func (a *ComponentManager) Consensus() consensus.Consensus {
	return a.consensus
}

// Start launches all the unitd services.
func (a *ComponentManager) Start() {
	// Already started?
	if atomic.AddInt32(&a.started, 1) != 1 {
		return
	}

	log.Trace("Starting unitd")

	if a.metricsServer != nil {
		a.metricsServer.Start()
	}

	a.unitAcceptedListener = a.consensus.NotificationManager().AddListener()
	a.unitAcceptedListener.SetOnUnitAcceptedListener(func(notification *notifications.UnitAcceptedNotification) error {
		log.Debugf("Accepted unit %s", notification.Joint.Unit.Hash)
		return nil
	})
	spawn("ComponentManager.processNotifications", func() {
		for {
			err := a.unitAcceptedListener.ProcessNextNotification()
			if err != nil {
				return
			}
		}
	})

	peerRoundIndexes, unsubscribe := a.consensus.SubscribePeerRoundIndex()
	a.unsubscribePeerRoundIndex = unsubscribe
	spawn("ComponentManager.logPeerRoundIndex", func() {
		for peerRoundIndex := range peerRoundIndexes {
			log.Infof("Peers are at round %d, main chain index %d",
				peerRoundIndex.RoundIndex, peerRoundIndex.MainChainIndex)
		}
	})

	spawn("ComponentManager.watchHalt", a.watchHalt)

	lastStableMCI, err := a.consensus.LastStableMCI()
	if err != nil {
		log.Errorf("Error reading the last stable main chain index: %+v", err)
		return
	}
	log.Infof("Started %s at last stable main chain index %d", a.cfg.NetParams().Name, lastStableMCI)
}

// Stop gracefully shuts down all the unitd services.
func (a *ComponentManager) Stop() {
	// Make sure this only happens once.
	if atomic.AddInt32(&a.shutdown, 1) != 1 {
		log.Infof("Unitd is already in the process of shutting down")
		return
	}

	log.Warnf("Unitd shutting down")

	close(a.quit)

	if a.unsubscribePeerRoundIndex != nil {
		a.unsubscribePeerRoundIndex()
	}
	if a.unitAcceptedListener != nil {
		a.consensus.NotificationManager().RemoveListener(a.unitAcceptedListener)
	}
	if a.metricsServer != nil {
		err := a.metricsServer.Stop()
		if err != nil {
			log.Errorf("Error stopping the metrics server: %+v", err)
		}
	}
	if a.consensus.IsHalted() {
		log.Warnf("Consensus was halted by a storage failure")
	}
}

// watchHalt requests a shutdown once the consensus halts, since a halted
// consensus refuses every write.
func (a *ComponentManager) watchHalt() {
	ticker := time.NewTicker(haltCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-a.quit:
			return
		case <-ticker.C:
			if a.consensus.IsHalted() {
				log.Criticalf("Consensus halted")
				signal.RequestShutdown("consensus halted")
				return
			}
		}
	}
}
