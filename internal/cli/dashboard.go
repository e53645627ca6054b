package cli

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newDashboardCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Print the spending summary and category totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load(cmd)
			if err != nil {
				return err
			}
			logger, closer, err := clientLogger(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			snap, err := newGateway(cfg, logger).Dashboard(cmd.Context())
			if err != nil {
				return err
			}

			p := newPrinter(cmd.OutOrStdout(), cfg)
			s := snap.Summary
			p.println(pterm.DefaultBox.WithTitle("Summary").Sprint(fmt.Sprintf(
				"Total volume  %s\nTransactions  %d\nAverage       %s",
				p.format.Currency(s.TotalVolume), s.TotalCount, p.format.Currency(s.AvgAmount),
			)))

			if len(snap.ByCategory) == 0 {
				p.println(pterm.Info.Sprint("No transactions yet."))
				return nil
			}
			data := pterm.TableData{{"Category", "Amount", "Share"}}
			for _, c := range snap.ByCategory {
				share := "-"
				if s.TotalVolume.IsPositive() {
					share = c.Value.Div(s.TotalVolume).Shift(2).StringFixed(1) + "%"
				}
				data = append(data, []string{c.Name, p.format.Currency(c.Value), share})
			}
			if err := p.table(data); err != nil {
				return err
			}
			if n := len(snap.DailyTrend); n > 0 {
				p.println(pterm.FgGray.Sprint(fmt.Sprintf("Daily trend: %d day(s), %s to %s",
					n, snap.DailyTrend[0].Date, snap.DailyTrend[n-1].Date)))
			}
			return nil
		},
	}
}
