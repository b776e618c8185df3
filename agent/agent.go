package agent

import (
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stitchwork/stitch/action"
	"github.com/stitchwork/stitch/analytics"
	"github.com/stitchwork/stitch/config"
	"github.com/stitchwork/stitch/engine"
	"github.com/stitchwork/stitch/event"
	"github.com/stitchwork/stitch/logger"
	"github.com/stitchwork/stitch/metadata"
	"github.com/stitchwork/stitch/persistence"
	"github.com/stitchwork/stitch/persistence/inmem"
	rdpersistence "github.com/stitchwork/stitch/persistence/redis"
	"github.com/stitchwork/stitch/rest"
	"github.com/stitchwork/stitch/service"
	"github.com/stitchwork/stitch/worker"
)

// Agent wires the whole platform together: storage, bus, actions,
// engine, worker loop and http surface, all inside one process.
type Agent struct {
	Config config.Config

	workflows   persistence.WorkflowDao
	executions  persistence.ExecutionDao
	credentials persistence.CredentialsDao
	memory      persistence.ConversationMemory
	queue       persistence.ExecutionQueue
	bus         event.Bus

	metadataService metadata.Service
	executorService *service.WorkflowExecutionService
	executionEngine *engine.ExecutionEngine
	worker          *worker.Worker
	httpServer      *rest.Server

	shutdown     bool
	shutdownLock sync.Mutex
	wg           sync.WaitGroup
}

func New(conf config.Config) (*Agent, error) {
	a := &Agent{
		Config: conf,
	}
	setup := []func() error{
		a.setupStorage,
		a.setupEventBus,
		a.setupEngine,
		a.setupWorker,
		a.setupHttpServer,
	}
	for _, fn := range setup {
		if err := fn(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Agent) setupStorage() error {
	switch a.Config.StorageType {
	case config.STORAGE_TYPE_INMEM:
		a.workflows = inmem.NewInMemWorkflowDao()
		a.executions = inmem.NewInMemExecutionDao()
		a.credentials = inmem.NewInMemCredentialsDao()
		a.memory = inmem.NewInMemConversationMemory()
		a.queue = inmem.NewInMemExecutionQueue(time.Duration(a.Config.ClaimBlockSeconds) * time.Second)
	default:
		rdConf := rdpersistence.Config{
			Addrs:             a.Config.RedisConfig.Addrs,
			Namespace:         a.Config.RedisConfig.Namespace,
			ConsumerGroup:     a.Config.ConsumerGroup,
			ClaimBlockSeconds: a.Config.ClaimBlockSeconds,
		}
		a.workflows = rdpersistence.NewRedisWorkflowDao(rdConf)
		a.executions = rdpersistence.NewRedisExecutionDao(rdConf)
		a.credentials = rdpersistence.NewRedisCredentialsDao(rdConf)
		a.memory = rdpersistence.NewRedisConversationMemory(rdConf)
		a.queue = rdpersistence.NewRedisStreamQueue(rdConf)
	}
	return nil
}

func (a *Agent) setupEventBus() error {
	if a.Config.StorageType == config.STORAGE_TYPE_INMEM {
		a.bus = event.NewInMemBus()
	} else {
		a.bus = event.NewRedisBus(a.Config.RedisConfig.Addrs, a.Config.RedisConfig.Namespace)
	}
	return a.bus.Start()
}

func (a *Agent) setupEngine() error {
	a.metadataService = metadata.NewService(a.workflows, time.Duration(a.Config.WorkflowCacheTTLSec)*time.Second)

	var collector analytics.ExecutionDataCollector
	if a.Config.CollectorFile != "" {
		c, err := analytics.NewLogFileDataCollector(a.Config.CollectorFile)
		if err != nil {
			return err
		}
		collector = c
	} else {
		collector = analytics.NewNoopCollector()
	}

	client := resty.New().SetTimeout(time.Duration(a.Config.NodeTimeoutSeconds) * time.Second)
	dispatcher := action.NewDispatcher(
		action.NewResendEmailAction(a.credentials, client),
		action.NewTelegramAction(a.credentials, client),
		action.NewGeminiAction(a.credentials, a.memory, client),
	)

	a.executionEngine = engine.NewExecutionEngine(a.metadataService, a.executions, dispatcher, a.bus, collector, engine.Config{
		NodeTimeout: time.Duration(a.Config.NodeTimeoutSeconds) * time.Second,
		RunTimeout:  time.Duration(a.Config.RunTimeoutSeconds) * time.Second,
	})
	a.executorService = service.NewWorkflowExecutionService(a.workflows, a.executions, a.queue)
	return nil
}

func (a *Agent) setupWorker() error {
	a.worker = worker.NewWorker(a.queue, a.executionEngine, &a.wg)
	return nil
}

func (a *Agent) setupHttpServer() error {
	var err error
	a.httpServer, err = rest.NewServer(a.Config.HttpPort, a.workflows, a.executions, a.credentials, a.executorService, a.bus)
	return err
}

func (a *Agent) Start() error {
	if err := a.worker.Start(); err != nil {
		return err
	}
	go func() {
		if err := a.httpServer.Start(); err != nil {
			logger.Error("http server stopped")
			_ = a.Shutdown()
		}
	}()
	return nil
}

func (a *Agent) Shutdown() error {
	logger.Info("shutting down agent")
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true

	shutdown := []func() error{
		a.httpServer.Stop,
		a.worker.Stop,
		a.bus.Stop,
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
