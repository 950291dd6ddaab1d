package cmd

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/cloudbridge/mockserver"
)

var serveAddr string

// serveCmd runs the in-memory mock of the cloud API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the mock cloud API server",
	Long: `Run an in-memory mock of the cloud API. Projects, files, compiles, backtests
and live deployments live in memory until the server stops. Requests must carry
one of the configured bearer tokens (mock.tokens).`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from mock.addr)")
}

// mockOptions maps the mock section of the config to server options
func mockOptions() mockserver.Options {
	return mockserver.Options{
		Tokens:           cfg.Mock.Tokens,
		CompileDuration:  cfg.Mock.CompileDuration,
		BacktestDuration: cfg.Mock.BacktestDuration,
		RateLimit:        cfg.Mock.RateLimit,
		Burst:            cfg.Mock.Burst,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := cfg.Mock.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	if zerolog.GlobalLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := mockserver.New(mockOptions(), logger)
	logger.Info().
		Int("tokens", len(srv.Tokens())).
		Dur("compile_duration", cfg.Mock.CompileDuration).
		Dur("backtest_duration", cfg.Mock.BacktestDuration).
		Float64("rate_limit", cfg.Mock.RateLimit).
		Msg("Starting mock server")

	return srv.Run(cmd.Context(), addr)
}
