// Package cli holds the rentctl operator commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/rentledger/internal/domain/models"
)

// Reporting is the service surface the commands drive.
type Reporting interface {
	YearStatistics(ctx context.Context, year int) (models.YearReport, error)
	MonthStatistics(ctx context.Context, year, month int) (models.MonthlyStats, error)
	Occupancy(ctx context.Context, year, month int) (models.Occupancy, error)
	SnapshotMonth(ctx context.Context, year, month int) (models.StatsSnapshot, error)
	ExportYear(ctx context.Context, year int) (int, error)
}

// Opener connects to the store on demand and returns the reporting service
// with a function releasing its resources. Offline commands never call it.
type Opener func(ctx context.Context) (Reporting, func(), error)

// NewRootCmd builds the rentctl command tree.
func NewRootCmd(open Opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "rentctl",
		Short:         "Rental bookkeeping operator tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		StatsCmd(open),
		OccupancyCmd(open),
		SplitCmd(),
		SnapshotCmd(open),
		ExportCmd(open),
	)
	return root
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

// withReporting opens the service for the duration of fn.
func withReporting(cmd *cobra.Command, open Opener, fn func(Reporting) error) error {
	svc, closeFn, err := open(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(svc)
}
