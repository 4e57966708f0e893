package main

import (
	"context"
	"log"

	"github.com/hvirtan/reportpipe/internal"
	"github.com/hvirtan/reportpipe/internal/datasource"
	"github.com/hvirtan/reportpipe/internal/delivery"
	"github.com/hvirtan/reportpipe/internal/handler"
	"github.com/hvirtan/reportpipe/internal/llm"
	"github.com/hvirtan/reportpipe/internal/pipeline"
	"github.com/hvirtan/reportpipe/internal/poller"
	"github.com/hvirtan/reportpipe/internal/report"
	"github.com/hvirtan/reportpipe/internal/settings"
	"github.com/hvirtan/reportpipe/internal/store"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	_ "modernc.org/sqlite"
)

func main() {
	settings.ReadDotenv(internal.DotEnvPath)
	settings.Settings = settings.NewSettings()
	rdb := store.InitDatabase(true)
	defer rdb.Close()
	rwdb := store.InitDatabase(false)
	defer rwdb.Close()
	store.RunMigrations(rwdb, internal.MigrationsDir)

	agentStore := store.NewAgentSQLiteStore(rdb, rwdb)
	dataSourceStore := store.NewDataSourceSQLiteStore(rdb, rwdb)
	pipelineStore := store.NewPipelineSQLiteStore(rdb, rwdb)
	runStore := store.NewRunSQLiteStore(rdb, rwdb)
	scheduleStore := store.NewScheduleSQLiteStore(rdb, rwdb)
	reportStore := store.NewReportSQLiteStore(rdb, rwdb)
	deliveryStore := store.NewDeliverySQLiteStore(rdb, rwdb)

	completer := llm.NewClient(*settings.Settings)
	fetcher := datasource.NewFetcher()
	executor := pipeline.NewExecutor(
		runStore, agentStore, dataSourceStore, fetcher, completer,
	)
	orchestrator := pipeline.NewOrchestrator(pipelineStore, runStore, executor)
	generator := report.NewGenerator(reportStore)
	engine := delivery.NewEngine(deliveryStore, settings.Settings.AppBaseURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := poller.NewPoller(
		scheduleStore, runStore,
		orchestrator, generator, engine,
		settings.Settings.PollBatchSize,
	)
	if err := p.Start(ctx, poller.DefaultTickInterval); err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := p.Stop(); err != nil {
			log.Printf("err stopping poller: %+v\n", err)
		}
	}()

	e := setupEcho()
	handler.SetupHealthRoutes(e, handler.NewHealthHandler(rwdb))
	handler.SetupRunRoutes(e, handler.NewRunHandler(pipelineStore, runStore, orchestrator))
	handler.SetupReportRoutes(e, handler.NewReportHandler(reportStore))

	internal.GracefulShutdown(e, settings.Settings.Port)
}

func setupEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(
		middleware.CORSWithConfig(internal.GetCORSConfig()),
		middleware.RateLimiterWithConfig(internal.GetRateLimiterConfig()),
	)
	return e
}
