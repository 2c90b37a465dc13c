package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/mamadbah2/rentledger/internal/config"
	"github.com/mamadbah2/rentledger/internal/metrics"
	"github.com/mamadbah2/rentledger/internal/repository/mongodb"
	"github.com/mamadbah2/rentledger/internal/repository/sheets"
	"github.com/mamadbah2/rentledger/internal/scheduler"
	"github.com/mamadbah2/rentledger/internal/server/handlers"
	"github.com/mamadbah2/rentledger/internal/server/router"
	bookingsvc "github.com/mamadbah2/rentledger/internal/service/bookings"
	reportingsvc "github.com/mamadbah2/rentledger/internal/service/reporting"
	"github.com/mamadbah2/rentledger/pkg/clients/cloudinary"
	whatsappclient "github.com/mamadbah2/rentledger/pkg/clients/whatsapp"
	"github.com/mamadbah2/rentledger/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	loc, err := cfg.Reporting.Location()
	if err != nil {
		baseLogger.Fatal("invalid timezone", zap.Error(err))
	}

	m := metrics.New()

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 30*time.Second)
	mongoRepo, err := mongodb.NewMongoDBRepository(connectCtx, cfg.MongoDB, logger.Named(baseLogger, "repo.mongodb"))
	if err != nil {
		cancelConnect()
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	if err := mongoRepo.EnsureIndexes(connectCtx); err != nil {
		baseLogger.Warn("failed to ensure mongodb indexes", zap.Error(err))
	}
	cancelConnect()
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	bookingOpts := []bookingsvc.Option{bookingsvc.WithRecorder(m)}
	if cfg.Cloudinary.Enabled() {
		bookingOpts = append(bookingOpts, bookingsvc.WithUploader(cloudinary.NewClient(cfg.Cloudinary)))
		baseLogger.Info("receipt uploads enabled")
	} else {
		baseLogger.Warn("cloudinary not configured, receipt uploads disabled")
	}
	bookingSvc := bookingsvc.NewService(mongoRepo, loc, logger.Named(baseLogger, "svc.bookings"), bookingOpts...)

	reportingOpts := []reportingsvc.Option{reportingsvc.WithRecorder(m)}
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		reportingOpts = append(reportingOpts, reportingsvc.WithSheet(sheetsRepo, cfg.Sheets.StatsRange))
	} else {
		baseLogger.Warn("google sheets not configured, statistics export disabled")
	}
	reportingSvc := reportingsvc.NewService(mongoRepo, loc, logger.Named(baseLogger, "svc.reporting"), reportingOpts...)

	var notifier scheduler.Notifier
	if cfg.WhatsApp.Enabled() {
		notifier = whatsappclient.NewNotifier(whatsappclient.NewClient(cfg.WhatsApp), cfg.WhatsApp.OwnerPhone)
	} else {
		baseLogger.Warn("whatsapp not configured, month summaries will only be logged")
	}

	engine := router.New(router.Handlers{
		Apartments: handlers.NewApartmentHandler(bookingSvc, loc, logger.Named(baseLogger, "handlers.apartments")),
		Bookings:   handlers.NewBookingHandler(bookingSvc, loc, logger.Named(baseLogger, "handlers.bookings")),
		Expenses:   handlers.NewExpenseHandler(bookingSvc, loc, logger.Named(baseLogger, "handlers.expenses")),
		Statistics: handlers.NewStatisticsHandler(reportingSvc, logger.Named(baseLogger, "handlers.statistics")),
	}, m, logger.Named(baseLogger, "router"))

	sched := scheduler.NewScheduler(cfg.Reporting.CronSchedule, loc, reportingSvc, notifier, m, logger.Named(baseLogger, "scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("timezone", loc.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
