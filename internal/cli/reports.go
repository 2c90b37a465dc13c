package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/rentledger/internal/domain/models"
)

func StatsCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the statistics of a year or a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			year, _ := cmd.Flags().GetInt("year")
			month, _ := cmd.Flags().GetInt("month")

			return withReporting(cmd, open, func(svc Reporting) error {
				if month == 0 {
					report, err := svc.YearStatistics(cmd.Context(), year)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), report)
				}
				stats, err := svc.MonthStatistics(cmd.Context(), year, month)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), stats)
			})
		},
	}

	cmd.Flags().Int("year", 0, "Year to report on")
	cmd.Flags().Int("month", 0, "Month to report on (1-12); the whole year when omitted")
	_ = cmd.MarkFlagRequired("year")

	return cmd
}

func OccupancyCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "occupancy",
		Short: "Print the occupancy rate of a year or a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			year, _ := cmd.Flags().GetInt("year")
			month, _ := cmd.Flags().GetInt("month")

			return withReporting(cmd, open, func(svc Reporting) error {
				occ, err := svc.Occupancy(cmd.Context(), year, month)
				if err != nil {
					return err
				}
				return printOccupancy(cmd, occ)
			})
		},
	}

	cmd.Flags().Int("year", 0, "Year to report on")
	cmd.Flags().Int("month", 0, "Month to report on (1-12); the whole year when omitted")
	_ = cmd.MarkFlagRequired("year")

	return cmd
}

func printOccupancy(cmd *cobra.Command, occ models.Occupancy) error {
	period := fmt.Sprintf("%d", occ.Year)
	if occ.Month != 0 {
		period = models.SnapshotID(occ.Year, occ.Month)
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: %.2f%% (%d of %d apartment-days, %d apartments)\n",
		period, occ.Rate, occ.BookedDays, occ.AvailableDays, occ.Apartments)
	return err
}

func SnapshotCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Freeze the statistics of a month",
		Long:  "Computes the statistics of a month and stores them as that month's snapshot, replacing any earlier one.",
		RunE: func(cmd *cobra.Command, args []string) error {
			year, _ := cmd.Flags().GetInt("year")
			month, _ := cmd.Flags().GetInt("month")

			return withReporting(cmd, open, func(svc Reporting) error {
				snap, err := svc.SnapshotMonth(cmd.Context(), year, month)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "snapshot %s saved: %d bookings, revenue %.2f\n",
					snap.ID, snap.Stats.TotalBookings, snap.Stats.TotalRevenue)
				return err
			})
		},
	}

	cmd.Flags().Int("year", 0, "Year of the month")
	cmd.Flags().Int("month", 0, "Month to snapshot (1-12)")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("month")

	return cmd
}

func ExportCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Append a year's monthly statistics to the spreadsheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			year, _ := cmd.Flags().GetInt("year")

			return withReporting(cmd, open, func(svc Reporting) error {
				rows, err := svc.ExportYear(cmd.Context(), year)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d rows exported for %d\n", rows, year)
				return err
			})
		},
	}

	cmd.Flags().Int("year", 0, "Year to export")
	_ = cmd.MarkFlagRequired("year")

	return cmd
}
