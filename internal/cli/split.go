package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/rentledger/internal/domain/accounting"
	"github.com/mamadbah2/rentledger/internal/domain/models"
)

// SplitCmd previews how a stay is stored without touching the database.
func SplitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Preview how a stay is split into monthly records",
		RunE: func(cmd *cobra.Command, args []string) error {
			checkIn, _ := cmd.Flags().GetString("check-in")
			checkOut, _ := cmd.Flags().GetString("check-out")
			rate, _ := cmd.Flags().GetFloat64("rate")
			tz, _ := cmd.Flags().GetString("timezone")

			loc, err := time.LoadLocation(tz)
			if err != nil {
				return fmt.Errorf("invalid timezone %q: %w", tz, err)
			}
			in, err := time.ParseInLocation("2006-01-02", checkIn, loc)
			if err != nil {
				return fmt.Errorf("invalid --check-in: %w", err)
			}
			out, err := time.ParseInLocation("2006-01-02", checkOut, loc)
			if err != nil {
				return fmt.Errorf("invalid --check-out: %w", err)
			}

			records, err := accounting.SplitIfCrossesMonth(models.Booking{
				ApartmentID: "preview",
				ClientName:  "preview",
				CheckIn:     in,
				CheckOut:    out,
				Amount:      rate,
			})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PART\tBUCKET\tCHECK-IN\tCHECK-OUT\tDAYS\tTOTAL")
			for _, r := range records {
				part := "whole"
				if r.IsPartial {
					part = string(r.PartialType)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.2f\n",
					part,
					models.SnapshotID(r.Year, r.Month),
					r.CheckIn.Format(time.DateTime),
					r.CheckOut.Format(time.DateTime),
					r.NumberOfDays,
					accounting.ComputeBookingTotal(r))
			}
			return w.Flush()
		},
	}

	cmd.Flags().String("check-in", "", "Check-in date (YYYY-MM-DD)")
	cmd.Flags().String("check-out", "", "Check-out date (YYYY-MM-DD)")
	cmd.Flags().Float64("rate", 0, "Daily rate")
	cmd.Flags().String("timezone", "UTC", "Location the dates are read in")
	_ = cmd.MarkFlagRequired("check-in")
	_ = cmd.MarkFlagRequired("check-out")

	return cmd
}
