package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/mamadbah2/rentledger/internal/cli"
	"github.com/mamadbah2/rentledger/internal/config"
	"github.com/mamadbah2/rentledger/internal/repository/mongodb"
	"github.com/mamadbah2/rentledger/internal/repository/sheets"
	reportingsvc "github.com/mamadbah2/rentledger/internal/service/reporting"
	"github.com/mamadbah2/rentledger/pkg/logger"
)

func main() {
	root := cli.NewRootCmd(openReporting)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openReporting loads the configuration and connects to MongoDB, plus Google
// Sheets when configured.
func openReporting(ctx context.Context) (cli.Reporting, func(), error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	loc, err := cfg.Reporting.Location()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid timezone: %w", err)
	}

	repo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB, logger.Named(log, "repo.mongodb"))
	if err != nil {
		return nil, nil, err
	}

	var opts []reportingsvc.Option
	if cfg.Sheets.Enabled() {
		sheet, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, logger.Named(log, "repo.sheets"))
		if err != nil {
			_ = repo.Close(context.Background())
			return nil, nil, err
		}
		opts = append(opts, reportingsvc.WithSheet(sheet, cfg.Sheets.StatsRange))
	}

	svc := reportingsvc.NewService(repo, loc, logger.Named(log, "svc.reporting"), opts...)
	closeFn := func() {
		if err := repo.Close(context.Background()); err != nil {
			log.Warn("failed to close mongodb connection", zap.Error(err))
		}
		_ = log.Sync()
	}
	return svc, closeFn, nil
}
