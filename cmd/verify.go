package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/s0up4200/searchads/searchads"
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify credentials by fetching a token and listing organizations",
	Long: `Check that the credentials are complete, that the private key parses,
that a token can be obtained and that organizations are visible.`,
	Args: cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	fmt.Println("Apple Search Ads credential verification")

	fmt.Println("\n1. Resolving credentials:")
	opts := cfg.CredentialOptions()
	creds, err := searchads.ResolveCredentials(opts)
	if err != nil {
		var saErr *searchads.Error
		if errors.As(err, &saErr) && len(saErr.Missing) > 0 {
			for _, name := range saErr.Missing {
				fmt.Printf("   ✗ %s: not set\n", name)
			}
		} else {
			fmt.Printf("   ✗ %v\n", err)
		}
		return fmt.Errorf("credentials incomplete")
	}
	fmt.Printf("   ✓ Client ID: %s\n", mask(creds.ClientID))
	fmt.Printf("   ✓ Team ID: %s\n", mask(creds.TeamID))
	fmt.Printf("   ✓ Key ID: %s\n", mask(creds.KeyID))

	fmt.Println("\n2. Checking private key:")
	if path := firstSet(opts.PrivateKeyPath, os.Getenv(searchads.EnvPrivateKeyPath)); path != "" {
		fmt.Printf("   ✓ Read from %s\n", path)
	}
	fmt.Println("   ✓ Parsed EC private key")

	if client, err = newClient(); err != nil {
		return fmt.Errorf("failed to create Search Ads client: %w", err)
	}

	fmt.Println("\n3. Requesting access token:")
	token, err := client.AccessToken(ctx)
	if err != nil {
		fmt.Printf("   ✗ %v\n", err)
		return fmt.Errorf("authentication failed")
	}
	fmt.Printf("   ✓ Access token obtained: %s\n", mask(token))

	fmt.Println("\n4. Fetching organizations:")
	orgs, err := client.GetAllOrganizations(ctx)
	if err != nil {
		fmt.Printf("   ✗ %v\n", err)
		return fmt.Errorf("failed to list organizations")
	}
	if len(orgs) == 0 {
		fmt.Println("   ! No organizations found (normal for new accounts)")
	}
	for _, org := range orgs {
		fmt.Printf("   ✓ %s (ID: %s)", org.OrgName, org.OrgID)
		if org.Currency != "" {
			fmt.Printf(" %s", org.Currency)
		}
		if org.PaymentModel != "" {
			fmt.Printf(" %s", org.PaymentModel)
		}
		fmt.Println()
	}

	fmt.Println("\n✓ Credentials verified successfully!")
	return nil
}

// mask shortens secrets and identifiers for display
func mask(s string) string {
	if len(s) <= 20 {
		return s
	}
	return s[:20] + "..."
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
