package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/s0up4200/cloudbridge/cloud"
	"github.com/s0up4200/cloudbridge/config"
)

var (
	cfgFile      string
	outputFormat string
	cfg          *config.Config
	logger       zerolog.Logger
	client       *cloud.Client
	operations   *cloud.Operations
	formatter    = cloud.NewConsoleFormatter()

	// out is where command results are written
	out io.Writer = os.Stdout
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cloudbridge",
	Short: "A client and mock server for the algorithmic trading cloud API",
	Long: `cloudbridge talks to the cloud REST API of an algorithmic trading
platform: projects, files, compiles, backtests, live deployments and data
downloads. It also ships an in-memory mock of the same API for local work.`,
	PersistentPreRunE:  initializeApp,
	PersistentPostRunE: closeClient,
	SilenceUsage:       true,
	SilenceErrors:      true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.json)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format (text or json)")

	rootCmd.AddCommand(testCmd)
}

// initializeApp loads the configuration and sets up logging
func initializeApp(cmd *cobra.Command, args []string) error {
	if outputFormat != "text" && outputFormat != "json" {
		return fmt.Errorf("invalid output format %q: must be text or json", outputFormat)
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging)
	return nil
}

// initClient creates the cloud client for commands that talk to the API
func initClient(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateCloud(); err != nil {
		return err
	}

	creds := cloud.NewCredentials(cfg.Cloud.UserID, cfg.Cloud.Token, cfg.Cloud.APIKey, cfg.Cloud.APISecret)
	logger.Debug().
		Str("url", cfg.Cloud.BaseURL).
		Str("auth", string(creds.Scheme())).
		Msg("Creating cloud client")

	var err error
	client, err = cloud.NewClient(cfg.Cloud.BaseURL, creds, logger,
		cloud.WithTimeout(cfg.Cloud.Timeout),
		cloud.WithPoolSize(cfg.Cloud.PoolSize),
		cloud.WithUserAgent(cfg.Cloud.UserAgent),
	)
	if err != nil {
		return fmt.Errorf("failed to create cloud client: %w", err)
	}

	operations = cloud.NewOperations(client, logger)
	operations.SetPolling(cfg.Poll.Interval, cfg.Poll.Attempts)
	return nil
}

// closeClient releases the pooled transports of the cloud client
func closeClient(cmd *cobra.Command, args []string) error {
	if client != nil {
		client.Close()
		client = nil
	}
	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
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

	var output io.Writer = os.Stderr
	if cfg.Format != "json" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
			NoColor:    !cfg.Color,
		}
	}

	if cfg.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		output = zerolog.MultiLevelWriter(output, rotated)
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// render writes v as indented JSON when --output json is set, otherwise
// the text produced by text
func render(v any, text func() string) error {
	if outputFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprint(out, text())
	return err
}

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:     "test",
	Short:   "Test connection to the cloud API",
	Long:    `Authenticate against the configured cloud API and display basic information.`,
	PreRunE: initClient,
	RunE:    runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	fmt.Fprintf(out, "Testing connection to %s...\n", cfg.Cloud.BaseURL)

	ctx := cmd.Context()
	if err := client.Authenticate(ctx); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	fmt.Fprintln(out, "✓ Authentication successful!")

	projects, err := client.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	fmt.Fprintf(out, "\nCloud Statistics:\n")
	fmt.Fprintf(out, "- Total projects: %d\n", len(projects))
	fmt.Fprintf(out, "- Download pool size: %d\n", client.Pool().Size())

	return nil
}
