package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"astro-insights/src/config"
	"astro-insights/src/data_source"
	"astro-insights/src/data_source/astroapi"
	"astro-insights/src/insight"
	"astro-insights/src/interfaces"
	"astro-insights/src/logger"
	"astro-insights/src/models"
	"astro-insights/src/network"
	"astro-insights/src/server"
	"astro-insights/src/storage"
	"astro-insights/src/utils"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg.LogLevel, cfg.Name)

	// 2. Setup Storage
	var db interfaces.IDatabase

	switch cfg.Storage.DBType {
	case "postgres":
		db, err = storage.NewPostgresDB(cfg.MConfig, appLogger)
	default:
		// Default to SQLite
		db, err = storage.NewAsyncSQLiteDB(cfg.MConfig, appLogger)
	}

	if err != nil {
		appLogger.Critical("Failed to init db: %v", err)
	}
	if err := db.Initialize(); err != nil {
		appLogger.Critical("Failed to migrate db: %v", err)
	}

	// 3. Setup Components
	var networkManager interfaces.INetworkManager = network.NewAsyncNetworkManager(cfg.MConfig, appLogger)

	sources := make([]interfaces.IChartSource, 0, len(cfg.Ephemeris.Sources))
	for _, srcCfg := range cfg.Ephemeris.Sources {
		sources = append(sources, astroapi.NewAstroAPISource(cfg.MConfig, srcCfg, networkManager))
	}
	sourceManager := datasource.NewMultiSourceManager(sources, logger.NewLogger(cfg.LogLevel, "MultiSourceManager"))

	facade := insight.NewInsightFacade(cfg.MConfig, appLogger)
	srv := server.NewAPIServer(cfg.MConfig, appLogger, facade, sourceManager, networkManager, db)

	// 4. State Cache & Scheduler
	cache := utils.NewStateCache(cfg.Pipeline.StateCacheCapacity)
	scheduler := utils.NewRefreshScheduler(cache, logger.NewLogger(cfg.LogLevel, "RefreshScheduler"))

	for _, u := range cfg.Users {
		cache.SetPreferences(u.Preferences())
	}

	// 5. Warm Start: restore persisted dashboard snapshots so cadence
	// timestamps survive restarts.
	if persisted, err := db.LoadDashboardStates(); err != nil {
		appLogger.Warning("Warm start failed, rebuilding from scratch: %v", err)
	} else {
		for userID := range persisted {
			state := persisted[userID]
			cache.SetDashboardState(&state)
		}
		appLogger.Info("Restored %d dashboard snapshots", len(persisted))
	}

	// 6. Fetch natal charts
	for _, u := range cfg.Users {
		chart, err := sourceManager.FetchNatalChart(u.UserID)
		if err != nil {
			appLogger.Warning("Could not fetch chart for %s, skipping user: %v", u.UserID, err)
			continue
		}
		cache.SetChart(u.UserID, chart)
		if err := db.SaveNatalChart(chart); err != nil {
			appLogger.Error("Failed to persist chart for %s: %v", u.UserID, err)
		}
	}

	// 7. Initial Signal Load
	appLogger.Info("Fetching initial transit signals...")
	initialSignals, err := sourceManager.FetchInitialSignals()
	if err != nil {
		appLogger.Warning("Initial fetch failed: %v", err)
	}

	for userID, signals := range initialSignals {
		cache.AddSignals(userID, signals)
		if err := db.SaveTransitSignalsBulk(signals); err != nil {
			appLogger.Error("Failed to persist signals for %s: %v", userID, err)
		}
	}

	// 8. Initial Pipeline Run
	now := time.Now().UTC()
	initialDue := scheduler.DueUsers(now)
	runPipeline(cache, facade, db, srv, appLogger, initialDue, now, false)

	appLogger.Info("Initialization complete.")

	// 9. Start Server
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()

	// 10. Main Loop (Push Model)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wrapWg := &sync.WaitGroup{}
	updatesChan := make(chan map[string][]models.MTransitSignal, 100)

	if err := sourceManager.Start(ctx, updatesChan, wrapWg); err != nil {
		appLogger.Critical("Failed to start sources: %v", err)
		return
	}

	sweepTicker := time.NewTicker(scheduler.NextSweepIn(cfg.Pipeline.SweepIntervalSeconds))
	defer sweepTicker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	appLogger.Info("Starting insight loop (Push Model)...")

	for {
		select {
		case updates, ok := <-updatesChan:
			if !ok {
				appLogger.Info("Chart sources closed channel.")
				return
			}

			appLogger.Info("Received fresh signals for %d users", len(updates))

			// Fresh signals invalidate every element for the affected users
			due := make(map[string]models.MUpdateDecision, len(updates))
			for userID, signals := range updates {
				cache.AddSignals(userID, signals)
				if err := db.SaveTransitSignalsBulk(signals); err != nil {
					appLogger.Error("Failed to persist signals for %s: %v", userID, err)
				}
				due[userID] = models.MUpdateDecision{
					PrimaryTheme:        true,
					IntensityMeter:      true,
					DailyGuidance:       true,
					SecondaryInfluences: true,
					UpcomingForecast:    true,
				}
			}

			runPipeline(cache, facade, db, srv, appLogger, due, time.Now().UTC(), true)

		case <-sweepTicker.C:
			sweepNow := time.Now().UTC()
			retentionCutoff := sweepNow.AddDate(0, 0, -cfg.Ephemeris.SignalRetentionDays)
			if pruned := cache.PruneEndedSignals(retentionCutoff); pruned > 0 {
				appLogger.Info("Pruned %d retired signals from cache", pruned)
			}

			due := scheduler.DueUsers(sweepNow)
			if len(due) > 0 {
				runPipeline(cache, facade, db, srv, appLogger, due, sweepNow, true)
			}

			if err := db.CleanupOldData(); err != nil {
				appLogger.Error("Cleanup failed: %v", err)
			}

		case <-quit:
			appLogger.Info("Shutting down...")
			cancel()      // Signal sources to stop
			wrapWg.Wait() // Wait for sources to close
			return
		}
	}
}

// -----------------------------------------------------------------------------

// runPipeline recomputes the due elements for each listed user, persists
// the results and pushes the refreshed snapshots to the server.
func runPipeline(
	cache *utils.StateCache,
	facade *insight.InsightFacade,
	db interfaces.IDatabase,
	srv *server.APIServer,
	appLogger *logger.Logger,
	due map[string]models.MUpdateDecision,
	currentDate time.Time,
	broadcast bool,
) {
	startProcess := time.Now()
	processed := 0
	transitsScored := 0

	for userID, decision := range due {
		chart, ok := cache.Chart(userID)
		if !ok {
			appLogger.Debug("No chart cached for %s, skipping", userID)
			continue
		}

		prefs := cache.Preferences(userID)
		signals := cache.Signals(userID)
		prev, _ := cache.DashboardState(userID)

		state, scored, err := facade.BuildDashboardState(chart, prefs, signals, currentDate, prev, decision)
		if err != nil {
			// Input-contract violations keep the previous snapshot in place
			appLogger.Error("Pipeline failed for %s, keeping previous state: %v", userID, err)
			continue
		}

		cache.SetDashboardState(state)
		if err := db.SaveScoredTransits(userID, scored); err != nil {
			appLogger.Error("Failed to persist scored transits for %s: %v", userID, err)
		}
		if err := db.SaveDashboardState(state); err != nil {
			appLogger.Error("Failed to persist dashboard for %s: %v", userID, err)
		}

		processed++
		transitsScored += len(scored)
	}

	if processed == 0 {
		return
	}

	payload := &models.MLatestData{
		Dashboards: cache.AllDashboardStates(),
		Timestamp:  currentDate.Unix(),
		ProcessingMetrics: models.MProcessingMetrics{
			PipelineTimeSeconds: time.Since(startProcess).Seconds(),
			UsersProcessed:      processed,
			TransitsScored:      transitsScored,
			ElementsRefreshed:   utils.CountRefreshed(due),
		},
	}

	srv.UpdateAllDatas(payload)
	if broadcast {
		srv.Broadcast(payload)
	}
}
