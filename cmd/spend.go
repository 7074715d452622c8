package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/s0up4200/searchads/report"
)

var (
	spendDays    int
	spendStart   string
	spendEnd     string
	spendAllOrgs bool
	byApp        bool
	summary      bool
)

// spendCmd represents the spend command
var spendCmd = &cobra.Command{
	Use:   "spend",
	Short: "Aggregate daily spend",
	Long: `Aggregate campaign spend, impressions, clicks and installs per day.

With --by-app spend is grouped per day and app, and --summary totals each app
over the period with cost per install, click-through and conversion rates.`,
	Args: cobra.NoArgs,
	RunE: runSpend,
}

func init() {
	rootCmd.AddCommand(spendCmd)

	spendCmd.Flags().IntVar(&spendDays, "days", 30, "number of days to aggregate")
	spendCmd.Flags().StringVar(&spendStart, "start", "", "start date (YYYY-MM-DD), overrides --days")
	spendCmd.Flags().StringVar(&spendEnd, "end", "", "end date (YYYY-MM-DD), defaults to today")
	spendCmd.Flags().BoolVar(&spendAllOrgs, "all-orgs", false, "aggregate across every accessible organization")
	spendCmd.Flags().BoolVar(&byApp, "by-app", false, "group spend per app")
	spendCmd.Flags().BoolVar(&summary, "summary", false, "with --by-app, total each app over the period")
}

func runSpend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	format, err := outputFormat()
	if err != nil {
		return err
	}
	if summary && !byApp {
		return fmt.Errorf("--summary requires --by-app")
	}

	if !spendAllOrgs {
		if _, err := ensureOrg(cmd); err != nil {
			return err
		}
	}

	svc := report.NewService(client, logger)

	if !byApp && spendStart == "" && spendEnd == "" {
		daily, err := svc.DailySpend(ctx, spendDays, spendAllOrgs)
		if err != nil {
			return err
		}
		return report.Write(os.Stdout, format, report.DailySpendTable(daily))
	}

	period, err := parsePeriod(spendStart, spendEnd, spendDays, time.Now())
	if err != nil {
		return err
	}

	if !byApp {
		daily, err := svc.DailySpendBetween(ctx, period, spendAllOrgs)
		if err != nil {
			return err
		}
		return report.Write(os.Stdout, format, report.DailySpendTable(daily))
	}

	spend, err := svc.DailySpendByApp(ctx, period, spendAllOrgs)
	if err != nil {
		return err
	}

	logger.Info().
		Str("start", period.Start.Format(time.DateOnly)).
		Str("end", period.End.Format(time.DateOnly)).
		Int("rows", len(spend)).
		Msg("Aggregated spend by app")

	if summary {
		return report.Write(os.Stdout, format, report.AppSummaryTable(report.SummarizeApps(spend)))
	}
	return report.Write(os.Stdout, format, report.AppSpendTable(spend))
}
