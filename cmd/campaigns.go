package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/s0up4200/searchads/filter"
	"github.com/s0up4200/searchads/report"
	"github.com/s0up4200/searchads/searchads"
)

var (
	allOrgs    bool
	filterExpr string
	treeView   bool
)

// campaignsCmd represents the campaigns command
var campaignsCmd = &cobra.Command{
	Use:   "campaigns",
	Short: "List campaigns, optionally across all organizations",
	Long: `List campaigns of the active organization, or of every accessible
organization with --all-orgs.

--filter takes either the name of a filter from the config file or an
expression, for example:

  searchads campaigns --filter 'Enabled and hasCountry("US") and DailyBudget > 50'`,
	Args: cobra.NoArgs,
	RunE: runCampaigns,
}

// adGroupsCmd lists the ad groups of one campaign
var adGroupsCmd = &cobra.Command{
	Use:   "adgroups <campaign-id>",
	Short: "List the ad groups of a campaign",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdGroups,
}

func init() {
	rootCmd.AddCommand(campaignsCmd)
	campaignsCmd.AddCommand(adGroupsCmd)

	campaignsCmd.Flags().BoolVar(&allOrgs, "all-orgs", false, "list campaigns of every accessible organization")
	campaignsCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter name from config or filter expression")
	campaignsCmd.Flags().BoolVar(&treeView, "tree", false, "print campaigns as a tree grouped by organization")
}

func runCampaigns(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	format, err := outputFormat()
	if err != nil {
		return err
	}

	f, err := resolveFilter(filterExpr)
	if err != nil {
		return err
	}

	var campaigns []searchads.Campaign
	if allOrgs {
		campaigns, err = client.GetAllCampaigns(ctx)
	} else {
		var orgID string
		if orgID, err = ensureOrg(cmd); err != nil {
			return err
		}
		campaigns, err = client.GetCampaigns(ctx, orgID)
	}
	if err != nil {
		return fmt.Errorf("failed to get campaigns: %w", err)
	}

	matched, err := filter.Apply(f, campaigns)
	if err != nil {
		return err
	}

	logger.Info().
		Int("total", len(campaigns)).
		Int("matched", len(matched)).
		Msg("Fetched campaigns")

	if treeView {
		fmt.Print(report.NewConsoleFormatter().FormatCampaigns(matched))
		return nil
	}
	return report.Write(os.Stdout, format, report.CampaignTable(matched))
}

func runAdGroups(cmd *cobra.Command, args []string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}
	if _, err := ensureOrg(cmd); err != nil {
		return err
	}

	adGroups, err := client.GetAdGroups(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get ad groups: %w", err)
	}
	return report.Write(os.Stdout, format, report.AdGroupTable(adGroups))
}
