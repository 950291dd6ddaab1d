package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/cloudbridge/cloud"
	"github.com/s0up4200/cloudbridge/filter"
)

var (
	liveFilter     string
	liveProject    int
	liveStatus     string
	liveServerType string
	liveBrokerage  string
	liveVersionID  string
	liveProviders  []string
	logStart       int
	logEnd         int
)

// liveCmd groups the live deployment operations
var liveCmd = &cobra.Command{
	Use:               "live",
	Short:             "Manage live deployments",
	PersistentPreRunE: withClient,
}

var liveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List live deployments",
	Long: `List live deployments, optionally narrowed by project, status and a filter
expression such as 'Running and daysSince(Launched) > 30'.`,
	Args: cobra.NoArgs,
	RunE: runLiveList,
}

var liveCreateCmd = &cobra.Command{
	Use:   "create PROJECT_ID COMPILE_ID",
	Short: "Deploy a compiled project",
	Args:  cobra.ExactArgs(2),
	RunE:  runLiveCreate,
}

var liveReadCmd = &cobra.Command{
	Use:   "read PROJECT_ID DEPLOY_ID",
	Short: "Show a live deployment",
	Args:  cobra.ExactArgs(2),
	RunE:  runLiveRead,
}

var liveStopCmd = &cobra.Command{
	Use:   "stop PROJECT_ID",
	Short: "Stop the live deployment of a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runLiveStop,
}

var liveLiquidateCmd = &cobra.Command{
	Use:   "liquidate PROJECT_ID",
	Short: "Liquidate and stop the live deployment of a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runLiveLiquidate,
}

var liveLogsCmd = &cobra.Command{
	Use:   "logs PROJECT_ID DEPLOY_ID",
	Short: "Print the logs of a live deployment",
	Args:  cobra.ExactArgs(2),
	RunE:  runLiveLogs,
}

func init() {
	rootCmd.AddCommand(liveCmd)
	liveCmd.AddCommand(liveListCmd, liveCreateCmd, liveReadCmd, liveStopCmd, liveLiquidateCmd, liveLogsCmd)

	liveListCmd.Flags().StringVarP(&liveFilter, "filter", "f", "", "filter expression or named filter")
	liveListCmd.Flags().IntVarP(&liveProject, "project", "p", 0, "only deployments of this project")
	liveListCmd.Flags().StringVarP(&liveStatus, "status", "s", "", "only deployments with this status (Running, Stopped, Liquidated)")

	liveCreateCmd.Flags().StringVar(&liveServerType, "server-type", "Server512", "live node type")
	liveCreateCmd.Flags().StringVar(&liveBrokerage, "brokerage", "PaperBrokerage", "brokerage id")
	liveCreateCmd.Flags().StringVar(&liveVersionID, "version-id", "-1", "engine version (-1 for latest)")
	liveCreateCmd.Flags().StringSliceVar(&liveProviders, "data-provider", []string{"QuantConnectBrokerage"}, "data provider ids")

	liveLogsCmd.Flags().IntVar(&logStart, "start", 0, "first log line")
	liveLogsCmd.Flags().IntVar(&logEnd, "end", 100, "last log line (exclusive)")
}

func runLiveList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	algorithms, err := client.ListLiveAlgorithms(ctx, cloud.ReadLiveRequest{
		ProjectID: liveProject,
		Status:    cloud.LiveStatus(liveStatus),
	})
	if err != nil {
		return err
	}

	algorithms, err = applyFilter(ctx, liveFilter, filter.CompileLiveFilter, algorithms)
	if err != nil {
		return err
	}

	return render(algorithms, func() string { return formatter.FormatLiveAlgorithms(algorithms) })
}

func runLiveCreate(cmd *cobra.Command, args []string) error {
	id, err := parseProjectID(args[0])
	if err != nil {
		return err
	}

	providers := make(map[string]cloud.DataProviderSettings, len(liveProviders))
	for _, p := range liveProviders {
		p = strings.TrimSpace(p)
		if p != "" {
			providers[p] = cloud.DataProviderSettings{ID: p}
		}
	}

	algorithm, err := client.CreateLiveAlgorithm(cmd.Context(), cloud.CreateLiveRequest{
		ProjectID:                 id,
		CompileID:                 args[1],
		ServerType:                liveServerType,
		BaseLiveAlgorithmSettings: cloud.BrokerageSettings{ID: liveBrokerage},
		VersionID:                 liveVersionID,
		DataProviders:             providers,
	})
	if err != nil {
		return err
	}

	logger.Info().Int("project_id", id).Str("deploy_id", algorithm.DeployID).Msg("Algorithm deployed")
	return render(algorithm, func() string { return formatter.FormatLiveAlgorithms([]cloud.LiveAlgorithm{*algorithm}) })
}

func runLiveRead(cmd *cobra.Command, args []string) error {
	id, err := parseProjectID(args[0])
	if err != nil {
		return err
	}

	algorithm, err := client.ReadLiveAlgorithm(cmd.Context(), id, args[1])
	if err != nil {
		return err
	}
	return render(algorithm, func() string { return formatter.FormatLiveAlgorithms([]cloud.LiveAlgorithm{*algorithm}) })
}

func runLiveStop(cmd *cobra.Command, args []string) error {
	id, err := parseProjectID(args[0])
	if err != nil {
		return err
	}

	if err := client.StopLiveAlgorithm(cmd.Context(), id); err != nil {
		return err
	}

	logger.Info().Int("project_id", id).Msg("Live algorithm stopped")
	return nil
}

func runLiveLiquidate(cmd *cobra.Command, args []string) error {
	id, err := parseProjectID(args[0])
	if err != nil {
		return err
	}

	if err := client.LiquidateLiveAlgorithm(cmd.Context(), id); err != nil {
		return err
	}

	logger.Info().Int("project_id", id).Msg("Live algorithm liquidated")
	return nil
}

func runLiveLogs(cmd *cobra.Command, args []string) error {
	id, err := parseProjectID(args[0])
	if err != nil {
		return err
	}
	if logStart < 0 || logEnd < logStart {
		return fmt.Errorf("invalid log window %d-%d", logStart, logEnd)
	}

	lines, err := client.ReadLiveLogs(cmd.Context(), cloud.ReadLiveLogRequest{
		ProjectID:   id,
		AlgorithmID: args[1],
		Start:       logStart,
		End:         logEnd,
	})
	if err != nil {
		return err
	}
	return render(lines, func() string { return formatter.FormatLogs(lines) })
}
