package internal

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/s-larionov/process-manager"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/govhub-labs/govstate-storage/internal/config"
	"github.com/govhub-labs/govstate-storage/internal/gaugevote"
	"github.com/govhub-labs/govstate-storage/internal/metrics"
	"github.com/govhub-labs/govstate-storage/internal/proposal"
	"github.com/govhub-labs/govstate-storage/internal/stage"
	"github.com/govhub-labs/govstate-storage/pkg/chain"
	"github.com/govhub-labs/govstate-storage/pkg/health"
	"github.com/govhub-labs/govstate-storage/pkg/prometheus"
	"github.com/govhub-labs/govstate-storage/pkg/sdk/ipfs"
	"github.com/govhub-labs/govstate-storage/pkg/sdk/snapshot"
)

type Application struct {
	sigChan <-chan os.Signal
	manager *process.Manager
	cfg     config.App
	db      *gorm.DB

	ps *proposal.Service
	gs *gaugevote.Service
}

func NewApplication(cfg config.App) (*Application, error) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	a := &Application{
		sigChan: sigChan,
		cfg:     cfg,
		manager: process.NewManager(),
	}

	err := a.bootstrap()
	if err != nil {
		return nil, err
	}

	return a, nil
}

func (a *Application) Run() {
	a.manager.StartAll()
	a.registerShutdown()
}

func (a *Application) bootstrap() error {
	initializers := []func() error{
		a.initDB,

		// Init Dependencies
		a.initServices,

		// Init Workers: Application
		a.initAPI,
		a.initRefreshWorker,

		// Init Workers: System
		a.initPrometheusWorker,
		a.initHealthWorker,
	}

	for _, initializer := range initializers {
		if err := initializer(); err != nil {
			return err
		}
	}

	return nil
}

func (a *Application) initDB() error {
	db, err := gorm.Open(postgres.Open(a.cfg.DB.DSN), &gorm.Config{})
	if err != nil {
		return err
	}

	ps, err := db.DB()
	if err != nil {
		return err
	}
	ps.SetMaxOpenConns(a.cfg.DB.MaxOpenConnections)

	a.db = db
	if a.cfg.DB.Debug {
		a.db = db.Debug()
	}

	return a.db.AutoMigrate(
		&proposal.Proposal{},
		&proposal.Stage{},
		&proposal.AISummary{},
	)
}

func (a *Application) initServices() error {
	nc, err := nats.Connect(
		a.cfg.Nats.URL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(a.cfg.Nats.MaxReconnects),
		nats.ReconnectWait(a.cfg.Nats.ReconnectTimeout),
	)
	if err != nil {
		return err
	}

	chainClient, err := chain.Dial(a.cfg.Chain.RPCURL)
	if err != nil {
		return fmt.Errorf("dial chain rpc: %w", err)
	}

	if err := a.initProposals(nc, chainClient); err != nil {
		return fmt.Errorf("proposal service: %w", err)
	}

	if err := a.initGaugeVotes(chainClient); err != nil {
		return fmt.Errorf("gauge vote service: %w", err)
	}

	return nil
}

func (a *Application) initProposals(nc *nats.Conn, chainClient *chain.Client) error {
	archive := ipfs.NewClient(a.cfg.Archive.APIURL, a.cfg.Archive.Gateway, &http.Client{
		Transport: metrics.NewProviderTransport("ipfs"),
	})
	hub := snapshot.NewClient(a.cfg.Snapshot.HubURL, &http.Client{
		Transport: metrics.NewProviderTransport("snapshot"),
	})

	votingParser := stage.NewSnapshotParser(hub, a.cfg.Snapshot.Space)
	multisigParser, err := stage.NewMultisigParser(chainClient, archive, a.cfg.Chain.MultisigAddress, a.cfg.Archive.DraftPath)
	if err != nil {
		return fmt.Errorf("multisig parser: %w", err)
	}

	sources := []proposal.StageSource{
		stage.NewArchiveParser(archive, a.cfg.Archive.DraftPath, stage.TypeDraft),
		stage.NewArchiveParser(archive, a.cfg.Archive.ReportPath, stage.TypeTransparencyReport),
		votingParser,
		multisigParser,
	}

	var ai *proposal.AIClient
	if a.cfg.AI.ExternalClientKey != "" {
		ai = proposal.NewAIClient(a.cfg.AI.ExternalClientKey)
	}

	a.ps = proposal.NewService(
		proposal.NewRepo(a.db),
		sources,
		votingParser,
		proposal.NewAssembler(a.cfg.Features.ForceDraftCurrentStage),
		proposal.NewEvents(nc),
		ai,
	)

	return nil
}

func (a *Application) initGaugeVotes(chainClient *chain.Client) error {
	provider, err := gaugevote.NewChainEventProvider(chainClient)
	if err != nil {
		return fmt.Errorf("event provider: %w", err)
	}

	registry := ipfs.NewClient(a.cfg.Archive.APIURL, a.cfg.Archive.Gateway, &http.Client{
		Transport: metrics.NewProviderTransport("ipfs"),
	})
	meta, err := gaugevote.NewChainGaugeMetadata(chainClient, registry, a.cfg.Chain.GaugeRegistryAddress)
	if err != nil {
		return fmt.Errorf("gauge metadata: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: a.cfg.Redis.Address})

	a.gs = gaugevote.NewService(
		gaugevote.NewReconciler(provider, a.cfg.Chain.LogPageSize),
		meta,
		chainClient,
		gaugevote.NewSummaryCache(rdb, a.cfg.Redis.SummaryTTL),
		a.cfg.Chain.VoterStartBlock,
	)

	return nil
}

func (a *Application) initAPI() error {
	router := mux.NewRouter()
	proposal.NewServer(a.ps).Register(router)
	gaugevote.NewServer(a.gs).Register(router)

	srv := &http.Server{
		Addr:    a.cfg.API.Bind,
		Handler: router,
	}

	a.manager.AddWorker(process.NewServerWorker("API", srv))

	return nil
}

func (a *Application) initRefreshWorker() error {
	worker := proposal.NewRefreshWorker(a.ps, a.cfg.Refresh.Interval)
	a.manager.AddWorker(process.NewCallbackWorker("proposal-refresh", worker.Start))

	return nil
}

func (a *Application) initPrometheusWorker() error {
	srv := prometheus.NewServer(a.cfg.Prometheus.Listen, "/metrics")
	a.manager.AddWorker(process.NewServerWorker("prometheus", srv))

	return nil
}

func (a *Application) initHealthWorker() error {
	srv := health.NewHealthCheckServer(a.cfg.Health.Listen, "/status", health.DefaultHandler(a.manager))
	a.manager.AddWorker(process.NewServerWorker("health", srv))

	return nil
}

func (a *Application) registerShutdown() {
	go func(manager *process.Manager) {
		<-a.sigChan

		manager.StopAll()
	}(a.manager)

	a.manager.AwaitAll()
}
