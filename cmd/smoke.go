package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/s0up4200/cloudbridge/cloud"
	"github.com/s0up4200/cloudbridge/mockserver"
)

const smokeAlgorithm = `using QuantConnect;
using QuantConnect.Algorithm;
using QuantConnect.Data.Market;

namespace QuantConnect.Algorithm.CSharp
{
    public class SmokeTestAlgorithm : QCAlgorithm
    {
        public override void Initialize()
        {
            SetStartDate(2020, 1, 1);
            SetEndDate(2020, 12, 31);
            SetCash(100000);
            AddEquity("SPY");
        }

        public override void OnData(TradeBars data)
        {
            if (!Portfolio.Invested)
            {
                SetHoldings("SPY", 1.0);
            }
        }
    }
}
`

var (
	smokeLocal bool
	smokeKeep  bool
)

// smokeCmd exercises the whole API surface end to end
var smokeCmd = &cobra.Command{
	Use:   "smoke",
	Short: "Run an end-to-end check against the cloud API",
	Long: `Authenticate, create a project with a sample algorithm, compile it, run a
backtest, deploy it live and stop it again. With --local the check runs against
an in-process mock server instead of the configured base URL.`,
	Args: cobra.NoArgs,
	RunE: runSmoke,
}

func init() {
	rootCmd.AddCommand(smokeCmd)

	smokeCmd.Flags().BoolVar(&smokeLocal, "local", false, "run against an in-process mock server")
	smokeCmd.Flags().BoolVar(&smokeKeep, "keep", false, "keep the created project instead of deleting it")
}

// smokeState carries ids between smoke steps
type smokeState struct {
	projectID int
	compileID string
	deployID  string
}

type smokeStep struct {
	name string
	run  func(ctx context.Context, st *smokeState) (string, error)
}

func runSmoke(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if smokeLocal {
		stop, err := startLocalMock()
		if err != nil {
			return err
		}
		defer stop()
	}

	if err := initClient(cmd, args); err != nil {
		return err
	}

	fmt.Fprintf(out, "Running smoke test against %s\n\n", cfg.Cloud.BaseURL)

	steps := smokeSteps()
	st := &smokeState{}
	passed := 0
	var failure error
	for _, step := range steps {
		detail, err := step.run(ctx, st)
		if err != nil {
			fmt.Fprintf(out, "✗ %s: %v\n", step.name, err)
			failure = fmt.Errorf("smoke step %q failed: %w", step.name, err)
			break
		}
		passed++
		fmt.Fprintf(out, "✓ %s", step.name)
		if detail != "" {
			fmt.Fprintf(out, ": %s", detail)
		}
		fmt.Fprintln(out)
	}

	if st.projectID != 0 && !smokeKeep {
		if err := client.DeleteProject(context.WithoutCancel(ctx), st.projectID); err != nil {
			logger.Warn().Err(err).Int("project_id", st.projectID).Msg("Failed to clean up smoke project")
		}
	}

	fmt.Fprintf(out, "\n%d/%d steps passed\n", passed, len(steps))
	return failure
}

func smokeSteps() []smokeStep {
	return []smokeStep{
		{"Authenticate", func(ctx context.Context, st *smokeState) (string, error) {
			return "", client.Authenticate(ctx)
		}},
		{"Create project", func(ctx context.Context, st *smokeState) (string, error) {
			project, err := client.CreateProject(ctx, cloud.CreateProjectRequest{
				Name:     fmt.Sprintf("Smoke Test %s", time.Now().Format("20060102-150405")),
				Language: cloud.LanguageCSharp,
			})
			if err != nil {
				return "", err
			}
			st.projectID = project.ProjectID
			return fmt.Sprintf("%s (ID: %d)", project.Name, project.ProjectID), nil
		}},
		{"Add file", func(ctx context.Context, st *smokeState) (string, error) {
			return "SmokeTestAlgorithm.cs", client.AddProjectFile(ctx, cloud.CreateFileRequest{
				ProjectID: st.projectID,
				Name:      "SmokeTestAlgorithm.cs",
				Content:   smokeAlgorithm,
			})
		}},
		{"Compile", func(ctx context.Context, st *smokeState) (string, error) {
			compile, err := client.CreateCompile(ctx, st.projectID)
			if err != nil {
				return "", err
			}
			compile, err = operations.WaitForCompile(ctx, st.projectID, compile.CompileID)
			if err != nil {
				return "", err
			}
			st.compileID = compile.CompileID
			return fmt.Sprintf("%s [%s]", compile.CompileID, compile.State), nil
		}},
		{"Backtest", func(ctx context.Context, st *smokeState) (string, error) {
			backtest, err := client.CreateBacktest(ctx, cloud.CreateBacktestRequest{
				ProjectID:    st.projectID,
				CompileID:    st.compileID,
				BacktestName: "Smoke Backtest",
			})
			if err != nil {
				return "", err
			}
			backtest, err = operations.WaitForBacktest(ctx, st.projectID, backtest.BacktestID)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d trades, %.1f%% win rate", backtest.Trades(), backtest.WinRate()*100), nil
		}},
		{"Deploy live", func(ctx context.Context, st *smokeState) (string, error) {
			algorithm, err := client.CreateLiveAlgorithm(ctx, cloud.CreateLiveRequest{
				ProjectID:                 st.projectID,
				CompileID:                 st.compileID,
				ServerType:                "Server512",
				BaseLiveAlgorithmSettings: cloud.BrokerageSettings{ID: "PaperBrokerage"},
				VersionID:                 "-1",
			})
			if err != nil {
				return "", err
			}
			st.deployID = algorithm.DeployID
			return algorithm.DeployID, nil
		}},
		{"Read live", func(ctx context.Context, st *smokeState) (string, error) {
			algorithm, err := client.ReadLiveAlgorithm(ctx, st.projectID, st.deployID)
			if err != nil {
				return "", err
			}
			return string(algorithm.Status), nil
		}},
		{"Stop live", func(ctx context.Context, st *smokeState) (string, error) {
			return "", client.StopLiveAlgorithm(ctx, st.projectID)
		}},
	}
}

// startLocalMock serves a mock server on a loopback port and points the
// cloud config at it. The returned func stops the server.
func startLocalMock() (func(), error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to listen for local mock: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	mock := mockserver.New(mockOptions(), logger)
	srv := &http.Server{Handler: mock.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Local mock server failed")
		}
	}()

	cfg.Cloud.BaseURL = "http://" + ln.Addr().String() + "/api/v2"
	cfg.Cloud.Token = mock.Tokens()[0]
	logger.Debug().Str("url", cfg.Cloud.BaseURL).Msg("Local mock server started")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
