package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/s0up4200/searchads/report"
	"github.com/s0up4200/searchads/searchads"
)

var (
	startDate   string
	endDate     string
	days        int
	granularity string
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Fetch performance reports",
	Long: `Fetch campaign, ad group, keyword or search term reports.

The period is either --start/--end (YYYY-MM-DD) or the last --days days.`,
}

var campaignReportCmd = &cobra.Command{
	Use:   "campaigns",
	Short: "Report on all campaigns of the organization",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, func(ctx context.Context, req searchads.ReportRequest) ([]searchads.ReportRow, error) {
			return client.GetCampaignReport(ctx, "", req)
		})
	},
}

var adGroupReportCmd = &cobra.Command{
	Use:   "adgroups <campaign-id>",
	Short: "Report on the ad groups of a campaign",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, func(ctx context.Context, req searchads.ReportRequest) ([]searchads.ReportRow, error) {
			return client.GetAdGroupReport(ctx, args[0], req)
		})
	},
}

var keywordReportCmd = &cobra.Command{
	Use:   "keywords <campaign-id>",
	Short: "Report on the keywords of a campaign",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, func(ctx context.Context, req searchads.ReportRequest) ([]searchads.ReportRow, error) {
			return client.GetKeywordReport(ctx, args[0], req)
		})
	},
}

var searchTermReportCmd = &cobra.Command{
	Use:   "searchterms <campaign-id>",
	Short: "Report on the search terms of a campaign",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, func(ctx context.Context, req searchads.ReportRequest) ([]searchads.ReportRow, error) {
			return client.GetSearchTermReport(ctx, args[0], req)
		})
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(campaignReportCmd, adGroupReportCmd, keywordReportCmd, searchTermReportCmd)

	reportCmd.PersistentFlags().StringVar(&startDate, "start", "", "start date (YYYY-MM-DD)")
	reportCmd.PersistentFlags().StringVar(&endDate, "end", "", "end date (YYYY-MM-DD), defaults to today")
	reportCmd.PersistentFlags().IntVar(&days, "days", 7, "number of days to report when --start is not set")
	reportCmd.PersistentFlags().StringVarP(&granularity, "granularity", "g", "daily", "hourly, daily, weekly or monthly")
}

type reportFunc func(ctx context.Context, req searchads.ReportRequest) ([]searchads.ReportRow, error)

func runReport(cmd *cobra.Command, fetch reportFunc) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	g, err := searchads.ParseGranularity(granularity)
	if err != nil {
		return err
	}

	period, err := parsePeriod(startDate, endDate, days, time.Now())
	if err != nil {
		return err
	}

	if _, err := ensureOrg(cmd); err != nil {
		return err
	}

	req := searchads.NewReportRequest(period.Start, period.End, g)
	raw, err := fetch(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("failed to get report: %w", err)
	}

	rows := report.FromReport(raw)
	logger.Info().
		Str("start", req.StartTime).
		Str("end", req.EndTime).
		Int("rows", len(rows)).
		Msg("Fetched report")

	return report.Write(os.Stdout, format, report.Rows(rows))
}

// parsePeriod resolves --start/--end, falling back to the last n days
func parsePeriod(start, end string, n int, now time.Time) (report.Period, error) {
	period := report.Period{End: now.UTC()}

	if end != "" {
		t, err := time.Parse(searchads.ReportDateFormat, end)
		if err != nil {
			return report.Period{}, fmt.Errorf("invalid --end date %q: %w", end, err)
		}
		period.End = t
	}

	if start != "" {
		t, err := time.Parse(searchads.ReportDateFormat, start)
		if err != nil {
			return report.Period{}, fmt.Errorf("invalid --start date %q: %w", start, err)
		}
		period.Start = t
	} else {
		if n <= 0 {
			return report.Period{}, fmt.Errorf("--days must be positive")
		}
		period.Start = period.End.AddDate(0, 0, -n)
	}

	if period.End.Before(period.Start) {
		return report.Period{}, fmt.Errorf("--end %s is before --start %s",
			period.End.Format(searchads.ReportDateFormat), period.Start.Format(searchads.ReportDateFormat))
	}
	return period, nil
}
