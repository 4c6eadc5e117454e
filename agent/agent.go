package agent

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/chainctl/actioneer/config"
	"github.com/chainctl/actioneer/ds"
	"github.com/chainctl/actioneer/logger"
	"github.com/chainctl/actioneer/metadata"
	"github.com/chainctl/actioneer/model"
	rd "github.com/chainctl/actioneer/persistence/redis"
	"github.com/chainctl/actioneer/rest"
	"github.com/chainctl/actioneer/service"
	"github.com/chainctl/actioneer/session"
	"github.com/chainctl/actioneer/util"
	"go.uber.org/zap"
)

const sessionSweepInterval = 30 * time.Second

type Agent struct {
	Config                 config.Config
	network                *model.Network
	metadataService        *metadata.Service
	sessionStore           *session.Store
	fetcher                *ds.Fetcher
	actionExecutionService *service.ActionExecutionService
	httpServer             *rest.Server
	sessionSweeper         *util.TickWorker
	activity               chan struct{}
	shutdown               bool
	shutdowns              chan struct{}
	shutdownLock           sync.Mutex
	wg                     sync.WaitGroup
}

func New(config config.Config) (*Agent, error) {
	a := &Agent{
		Config:    config,
		activity:  make(chan struct{}, 16),
		shutdowns: make(chan struct{}),
	}
	setup := []func() error{
		a.setupNetwork,
		a.setupMetadataService,
		a.setupSessionStore,
		a.setupFetcher,
		a.setupActionExecutionService,
		a.setupHttpServer,
	}
	for _, fn := range setup {
		if err := fn(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Agent) setupNetwork() error {
	data, err := os.ReadFile(a.Config.NetworkFile)
	if err != nil {
		return fmt.Errorf("reading network file %s: %w", a.Config.NetworkFile, err)
	}
	var network model.Network
	if err := json.Unmarshal(data, &network); err != nil {
		return fmt.Errorf("parsing network file %s: %w", a.Config.NetworkFile, err)
	}
	if a.Config.SessionTimeoutSeconds > 0 {
		network.SessionTimeoutSeconds = a.Config.SessionTimeoutSeconds
	}
	a.network = &network
	logger.Info("network loaded", zap.String("name", network.Name))
	return nil
}

func (a *Agent) setupMetadataService() error {
	var storage metadata.Storage
	switch a.Config.StorageType {
	case config.STORAGE_TYPE_REDIS:
		storage = rd.NewRedisManifestStorage(rd.Config{
			Addrs:     a.Config.RedisConfig.Addrs,
			Namespace: a.Config.RedisConfig.Namespace,
		})
	case config.STORAGE_TYPE_INMEM:
		storage = metadata.NewInMemStorage()
	default:
		return fmt.Errorf("unsupported storage type %s", a.Config.StorageType)
	}
	a.metadataService = metadata.NewService(storage)
	if a.Config.ManifestFile != "" {
		return a.loadManifestFile(a.Config.ManifestFile)
	}
	return nil
}

func (a *Agent) loadManifestFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading manifest file %s: %w", path, err)
	}
	var manifest model.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("parsing manifest file %s: %w", path, err)
	}
	if err := a.metadataService.SaveManifest(manifest); err != nil {
		return err
	}
	logger.Info("manifest loaded", zap.String("file", path), zap.Int("actions", len(manifest.Actions)))
	return nil
}

func (a *Agent) setupSessionStore() error {
	var backend session.Backend
	switch a.Config.StorageType {
	case config.STORAGE_TYPE_REDIS:
		backend = rd.NewRedisSessionBackend(rd.Config{
			Addrs:     a.Config.RedisConfig.Addrs,
			Namespace: a.Config.RedisConfig.Namespace,
		})
	default:
		backend = session.NewInMemBackend()
	}
	timeout := a.network.SessionTimeoutSeconds
	if timeout <= 0 {
		timeout = 300
	}
	a.sessionStore = session.NewStore(backend, time.Duration(timeout)*time.Second)
	session.AttachIdleRenewal(a.sessionStore, a.activity, a.shutdowns, &a.wg)
	a.sessionSweeper = util.NewTickWorker("session-sweeper", sessionSweepInterval, a.shutdowns, a.sessionStore.Sweep, &a.wg)
	a.sessionSweeper.Start()
	return nil
}

func (a *Agent) setupFetcher() error {
	a.fetcher = ds.NewFetcher(a.network)
	return nil
}

func (a *Agent) setupActionExecutionService() error {
	runTTL := a.Config.RunTTLSeconds
	if runTTL <= 0 {
		runTTL = 1800
	}
	a.actionExecutionService = service.NewActionExecutionService(a.metadataService, a.network, a.fetcher, a.sessionStore, time.Duration(runTTL)*time.Second)
	return nil
}

func (a *Agent) setupHttpServer() error {
	var err error
	a.httpServer, err = rest.NewServer(a.Config.HttpPort, a.metadataService, a.actionExecutionService, a.sessionStore, a.activity)
	if err != nil {
		return err
	}
	return nil
}

func (a *Agent) Start() error {
	go func() {
		if err := a.httpServer.Start(); err != nil {
			_ = a.Shutdown()
			panic(err)
		}
	}()
	return nil
}

func (a *Agent) Shutdown() error {
	logger.Info("shutting down server")
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true
	close(a.shutdowns)

	shutdown := []func() error{
		a.httpServer.Stop,
		func() error {
			a.actionExecutionService.Stop()
			return nil
		},
	}
	for _, fn := range shutdown {
		if err := fn(); err != nil {
			return err
		}
	}
	logger.Info("waiting for all services to shutdown...")
	a.wg.Wait()
	return nil
}
