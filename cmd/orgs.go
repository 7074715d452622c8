package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/s0up4200/searchads/report"
)

// orgsCmd represents the orgs command
var orgsCmd = &cobra.Command{
	Use:     "orgs",
	Aliases: []string{"organizations"},
	Short:   "List organizations accessible with the configured credentials",
	Args:    cobra.NoArgs,
	RunE:    runOrgs,
}

func init() {
	rootCmd.AddCommand(orgsCmd)
}

func runOrgs(cmd *cobra.Command, args []string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	orgs, err := client.GetAllOrganizations(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list organizations: %w", err)
	}

	logger.Debug().Int("count", len(orgs)).Msg("Fetched organizations")
	return report.Write(os.Stdout, format, report.OrganizationTable(orgs))
}
