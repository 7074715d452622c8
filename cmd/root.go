package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/searchads/config"
	"github.com/s0up4200/searchads/filter"
	"github.com/s0up4200/searchads/report"
	"github.com/s0up4200/searchads/searchads"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger
	client  *searchads.Client

	version   = "dev"
	buildTime = "unknown"

	// Persistent flags
	orgFlag      string
	outputFlag   string
	logLevelFlag string
	envFile      string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "searchads",
	Short: "Query Apple Search Ads organizations, campaigns and spend",
	Long: `searchads is a CLI for the Apple Search Ads Campaign Management API.

It lists organizations and campaigns, fetches campaign, ad group, keyword and
search term reports, and aggregates daily spend overall or per app.

Credentials are read from the config file or the APPLE_SEARCH_ADS_* environment
variables, optionally loaded from a .env file.`,
	SilenceUsage:      true,
	PersistentPreRunE: initializeApp,
}

// SetVersion sets the build information reported by the version and update commands
func SetVersion(v, built string) {
	version = v
	buildTime = built
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().StringVar(&orgFlag, "org", "", "organization id (overrides config and APPLE_SEARCH_ADS_ORG_ID)")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "", "output format: table, csv, json or yaml")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level: debug, info, warn or error")
}

// loadConfig loads .env, the config file and flag overrides, and sets up logging
func loadConfig(cmd *cobra.Command) error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("org") {
		cfg.OrgID = orgFlag
	}
	if cmd.Flags().Changed("output") {
		cfg.Output.Format = outputFlag
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = logLevelFlag
	}

	logger = setupLogger(cfg.Logging)
	return nil
}

// initializeApp initializes the configuration and the API client
func initializeApp(cmd *cobra.Command, args []string) error {
	if err := loadConfig(cmd); err != nil {
		return err
	}

	var err error
	client, err = newClient()
	if err != nil {
		return fmt.Errorf("failed to create Search Ads client: %w", err)
	}
	return nil
}

func newClient() (*searchads.Client, error) {
	return searchads.NewClient(
		searchads.WithCredentialOptions(cfg.CredentialOptions()),
		searchads.WithOrgID(cfg.OrgID),
		searchads.WithBaseURL(cfg.API.BaseURL),
		searchads.WithTimeout(cfg.API.Timeout),
		searchads.WithMaxAttempts(cfg.API.MaxAttempts),
		searchads.WithRateLimit(cfg.API.RequestsPerSecond, time.Second),
		searchads.WithPageSize(cfg.API.PageSize),
		searchads.WithUserAgent("searchads/"+version),
		searchads.WithLogger(logger),
	)
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	fd := os.Stderr.Fd()
	tty := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)

	// Console format
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !tty,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// outputFormat returns the configured output format
func outputFormat() (report.Format, error) {
	return report.ParseFormat(cfg.Output.Format)
}

// ensureOrg resolves the active organization for org-scoped commands
func ensureOrg(cmd *cobra.Command) (string, error) {
	orgID, err := client.EnsureOrganization(cmd.Context())
	if err != nil {
		return "", err
	}
	logger.Debug().Str("org_id", orgID).Msg("Using organization")
	return orgID, nil
}

// resolveFilter compiles a named filter from config or a literal expression
func resolveFilter(nameOrExpr string) (filter.CompiledFilter, error) {
	if nameOrExpr == "" {
		return nil, nil
	}

	expression := nameOrExpr
	if named, ok := cfg.Filters[nameOrExpr]; ok {
		expression = named
	}

	f, err := filter.CompileFilter(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}
	return f, nil
}
