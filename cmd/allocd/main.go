package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mbanner77/allocengine/pkg/application/services/orchestration"
	"github.com/mbanner77/allocengine/pkg/application/services/variant"
	"github.com/mbanner77/allocengine/pkg/infrastructure/config"
	"github.com/mbanner77/allocengine/pkg/infrastructure/events"
	"github.com/mbanner77/allocengine/pkg/infrastructure/logging"
	"github.com/mbanner77/allocengine/pkg/infrastructure/metrics"
	csvrepo "github.com/mbanner77/allocengine/pkg/infrastructure/repositories/csv"
	"github.com/mbanner77/allocengine/pkg/infrastructure/repositories/memory"
	"github.com/mbanner77/allocengine/pkg/infrastructure/repositories/sqlite"
	"github.com/mbanner77/allocengine/pkg/interfaces/api"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to YAML configuration file")
		dataDir    = flag.String("data", "", "Path to directory with CSV input extracts")
	)
	flag.Parse()

	cfg := loadConfig(*configFile)

	logger, err := logging.New(cfg.Server.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting allocation engine", "port", cfg.Server.Port, "db", cfg.Database.Path)

	store, err := sqlite.NewStore(cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to open database", "error", err)
	}
	defer store.Close()

	storeRepo := memory.NewStoreRepository()
	articleRepo := memory.NewArticleRepository()
	demandRepo := memory.NewDemandRepository()
	supplyRepo := memory.NewSupplyRepository()
	capacityRepo := memory.NewCapacityRepository()

	if *dataDir != "" {
		if err := loadInputData(*dataDir, storeRepo, articleRepo, demandRepo, supplyRepo, capacityRepo); err != nil {
			logger.Fatal("failed to load input data", "error", err)
		}
		logger.Info("input data loaded", "dir", *dataDir)
	}

	journal := events.NewJournal()
	orchestrator := orchestration.NewOrchestrator(
		storeRepo,
		articleRepo,
		demandRepo,
		supplyRepo,
		capacityRepo,
		orchestration.WithJournal(journal),
		orchestration.WithLogger(logger),
		orchestration.WithWorkers(cfg.Engine.Workers),
	)
	variantService := variant.NewService(store, journal)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	handlers := api.NewHandlers(orchestrator, variantService, store, store, journal, m, logger)
	server := api.NewServer(cfg, handlers, registry)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("API listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("stopped")
}

func loadConfig(path string) *config.Config {
	if path == "" {
		path = os.Getenv("ALLOC_CONFIG")
	}
	if path == "" {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config from %s: %v, using defaults\n", path, err)
		return config.Default()
	}
	return cfg
}

func loadInputData(
	dir string,
	storeRepo *memory.StoreRepository,
	articleRepo *memory.ArticleRepository,
	demandRepo *memory.DemandRepository,
	supplyRepo *memory.SupplyRepository,
	capacityRepo *memory.CapacityRepository,
) error {
	loader := csvrepo.NewLoader()

	stores, err := loader.LoadStores(dir + "/stores.csv")
	if err != nil {
		return fmt.Errorf("loading stores: %w", err)
	}
	if err := storeRepo.LoadStores(stores); err != nil {
		return err
	}

	articles, err := loader.LoadArticles(dir + "/articles.csv")
	if err != nil {
		return fmt.Errorf("loading articles: %w", err)
	}
	if err := articleRepo.LoadArticles(articles); err != nil {
		return err
	}

	demandLines, err := loader.LoadDemandLines(dir + "/demand.csv")
	if err != nil {
		return fmt.Errorf("loading demand: %w", err)
	}
	if err := demandRepo.LoadDemandLines(demandLines); err != nil {
		return err
	}

	supplySnapshots, err := loader.LoadSupplySnapshots(dir + "/supply.csv")
	if err != nil {
		return fmt.Errorf("loading supply: %w", err)
	}
	if err := supplyRepo.LoadSupplySnapshots(supplySnapshots); err != nil {
		return err
	}

	capacitySnapshots, err := loader.LoadCapacitySnapshots(dir + "/capacity.csv")
	if err != nil {
		return fmt.Errorf("loading capacity: %w", err)
	}
	return capacityRepo.LoadCapacitySnapshots(capacitySnapshots)
}
