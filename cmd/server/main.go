package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"marketpulse/internal/clientdata"
	"marketpulse/internal/clients/coingecko"
	"marketpulse/internal/clients/dse"
	"marketpulse/internal/clients/finnhub"
	"marketpulse/internal/clients/yahoo"
	"marketpulse/internal/config"
	"marketpulse/internal/database"
	"marketpulse/internal/market"
	"marketpulse/internal/modules/assets"
	assethandlers "marketpulse/internal/modules/assets/handlers"
	"marketpulse/internal/modules/watchlist"
	watchlisthandlers "marketpulse/internal/modules/watchlist/handlers"
	"marketpulse/internal/news"
	"marketpulse/internal/reliability"
	"marketpulse/internal/scheduler"
	"marketpulse/internal/server"
	"marketpulse/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not up yet, fall back to stderr
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting MarketPulse")

	// Databases
	mainDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "marketpulse.db"),
		Profile: database.ProfileStandard,
		Name:    "marketpulse",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open main database")
	}
	defer mainDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "client_data.db"),
		Profile: database.ProfileCache,
		Name:    "client_data",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	for _, db := range []*database.DB{mainDB, cacheDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Failed to run migrations")
		}
	}

	// Repositories
	assetRepo := assets.NewRepository(mainDB.Conn(), log)
	priceRepo := assets.NewPriceRepository(mainDB.Conn(), log)
	watchlistRepo := watchlist.NewRepository(mainDB.Conn(), log)
	cacheRepo := clientdata.NewRepository(cacheDB.Conn())

	if err := assets.SeedIfEmpty(assetRepo, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed asset catalog")
	}

	// Provider clients
	coingeckoClient := coingecko.NewClient(cfg.CoinGeckoAPIKey, cacheRepo, log)
	yahooClient := yahoo.NewClient(cacheRepo, log)
	dseClient := dse.NewClient(cacheRepo, log)
	finnhubClient := finnhub.NewClient(cfg.FinnhubAPIKey, log)

	// Market data adapters
	registry := market.NewRegistry(
		market.NewCryptoAdapter(coingeckoClient, log),
		market.NewGlobalStockAdapter(yahooClient, log),
		market.NewDSEAdapter(dseClient, assetRepo, priceRepo, log),
	)
	summaryService := market.NewSummaryService(yahooClient, log)

	// News aggregation
	feedParser := gofeed.NewParser()
	feedParser.Client = &http.Client{Timeout: 15 * time.Second}
	googleSource := news.NewGoogleNewsSource(feedParser, "", log)
	aggregator := news.NewAggregator([]news.Source{
		news.NewYahooSource(yahooClient, log),
		news.NewBBCSource(feedParser, log),
		news.NewFinnhubSource(finnhubClient, log),
	}, googleSource, log)

	// Background jobs
	sched := scheduler.New(log)
	priceJob := scheduler.NewPriceUpdateJob(assetRepo, priceRepo, registry, log)
	registerJobs(sched, cfg, mainDB, cacheDB, priceJob, cacheRepo, log)
	sched.Start()
	defer sched.Stop()

	// HTTP server
	serverCfg := server.Config{
		Port:              cfg.Port,
		DevMode:           cfg.DevMode,
		Log:               log,
		AssetHandlers:     assethandlers.NewAssetHandlers(assetRepo, priceRepo, registry, log),
		WatchlistHandlers: watchlisthandlers.NewWatchlistHandlers(watchlistRepo, assetRepo, log),
		NewsHandlers:      server.NewNewsHandlers(aggregator, summaryService, log),
		SystemHandlers:    server.NewSystemHandlers(assetRepo, log),
	}
	if cfg.DevMode {
		serverCfg.AdminHandlers = server.NewAdminHandlers(
			func() (int, int, error) { return assets.Seed(assetRepo, log) },
			func() error { return sched.RunNow(priceJob) },
			log)
	}
	srv := server.New(serverCfg)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func registerJobs(
	sched *scheduler.Scheduler,
	cfg *config.Config,
	mainDB, cacheDB *database.DB,
	priceJob *scheduler.PriceUpdateJob,
	cacheRepo *clientdata.Repository,
	log zerolog.Logger,
) {
	if err := sched.AddJob(cfg.SampleSchedule, priceJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register price update job")
	}

	cleanupJob := clientdata.NewCleanupJob(cacheRepo, log)
	if err := sched.AddJob("@hourly", cleanupJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cleanup job")
	}

	if !cfg.Backup.Enabled {
		return
	}

	databases := map[string]*database.DB{
		"marketpulse": mainDB,
		"client_data": cacheDB,
	}
	local := reliability.NewBackupService(databases,
		filepath.Join(cfg.DataDir, "backups"), cfg.Backup.KeepLocal, log)

	var remote *reliability.S3BackupService
	if cfg.Backup.Bucket != "" {
		s3Client, err := reliability.NewS3Client(context.Background(), cfg.Backup, log)
		if err != nil {
			log.Error().Err(err).Msg("Cloud backup disabled, S3 client failed")
		} else {
			remote = reliability.NewS3BackupService(s3Client, local, cfg.DataDir, cfg.Backup.RetentionDays, log)
		}
	}

	backupJob := reliability.NewBackupJob(local, remote, log)
	if err := sched.AddJob("@daily", backupJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register backup job")
	}
}
