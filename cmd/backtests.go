package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/s0up4200/cloudbridge/cloud"
	"github.com/s0up4200/cloudbridge/filter"
)

var (
	backtestFilter  string
	backtestName    string
	backtestNote    string
	backtestWait    bool
	reportOut       string
	runLanguage     string
	runBacktestName string
)

// backtestsCmd groups the backtest operations
var backtestsCmd = &cobra.Command{
	Use:               "backtests",
	Aliases:           []string{"backtest"},
	Short:             "Manage backtests",
	PersistentPreRunE: withClient,
}

var backtestsListCmd = &cobra.Command{
	Use:   "list PROJECT_ID",
	Short: "List the backtests of a project",
	Long: `List the backtests of a project, optionally narrowed by a filter expression
such as 'Completed and Sharpe > 1' or the name of a filter from config.`,
	Args: cobra.ExactArgs(1),
	RunE: runBacktestsList,
}

var backtestsCreateCmd = &cobra.Command{
	Use:   "create PROJECT_ID COMPILE_ID",
	Short: "Start a backtest from a successful compile",
	Args:  cobra.ExactArgs(2),
	RunE:  runBacktestsCreate,
}

var backtestsReadCmd = &cobra.Command{
	Use:   "read PROJECT_ID BACKTEST_ID",
	Short: "Show a backtest and its statistics",
	Args:  cobra.ExactArgs(2),
	RunE:  runBacktestsRead,
}

var backtestsUpdateCmd = &cobra.Command{
	Use:   "update PROJECT_ID BACKTEST_ID",
	Short: "Rename a backtest or set its note",
	Args:  cobra.ExactArgs(2),
	RunE:  runBacktestsUpdate,
}

var backtestsDeleteCmd = &cobra.Command{
	Use:   "delete PROJECT_ID BACKTEST_ID",
	Short: "Delete a backtest",
	Args:  cobra.ExactArgs(2),
	RunE:  runBacktestsDelete,
}

var backtestsReportCmd = &cobra.Command{
	Use:   "report PROJECT_ID BACKTEST_ID",
	Short: "Fetch the HTML report of a backtest",
	Args:  cobra.ExactArgs(2),
	RunE:  runBacktestsReport,
}

var backtestsRunCmd = &cobra.Command{
	Use:   "run PROJECT_NAME FILE...",
	Short: "Create a project from local files, compile it and backtest it",
	Long: `Create a project, upload the given local files, compile the project and run
a backtest, waiting for every job to finish. The summary lists the project,
the compile state and the backtest statistics.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runBacktestsRun,
}

func init() {
	rootCmd.AddCommand(backtestsCmd)
	backtestsCmd.AddCommand(backtestsListCmd, backtestsCreateCmd, backtestsReadCmd, backtestsUpdateCmd,
		backtestsDeleteCmd, backtestsReportCmd, backtestsRunCmd)

	backtestsListCmd.Flags().StringVarP(&backtestFilter, "filter", "f", "", "filter expression or named filter")
	backtestsCreateCmd.Flags().StringVarP(&backtestName, "name", "n", "", "backtest name")
	backtestsCreateCmd.Flags().BoolVarP(&backtestWait, "wait", "w", false, "wait until the backtest completes")
	backtestsUpdateCmd.Flags().StringVar(&backtestName, "name", "", "new backtest name")
	backtestsUpdateCmd.Flags().StringVar(&backtestNote, "note", "", "new backtest note")
	backtestsReportCmd.Flags().StringVar(&reportOut, "out", "", "write the report to this file instead of stdout")
	backtestsRunCmd.Flags().StringVarP(&runLanguage, "language", "l", string(cloud.LanguagePython), "project language (C# or Py)")
	backtestsRunCmd.Flags().StringVarP(&runBacktestName, "name", "n", "", "backtest name")
}

func runBacktestsList(cmd *cobra.Command, args []string) error {
	id, err := parseProjectID(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	backtests, err := client.ListBacktests(ctx, id)
	if err != nil {
		return err
	}

	backtests, err = applyFilter(ctx, backtestFilter, filter.CompileBacktestFilter, backtests)
	if err != nil {
		return err
	}

	return render(backtests, func() string { return formatter.FormatBacktests(backtests) })
}

func runBacktestsCreate(cmd *cobra.Command, args []string) error {
	id, err := parseProjectID(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	backtest, err := client.CreateBacktest(ctx, cloud.CreateBacktestRequest{
		ProjectID:    id,
		CompileID:    args[1],
		BacktestName: backtestName,
	})
	if err != nil {
		return err
	}
	logger.Info().Int("project_id", id).Str("backtest_id", backtest.BacktestID).Msg("Backtest started")

	if backtestWait {
		done, err := operations.WaitForBacktest(ctx, id, backtest.BacktestID)
		if done != nil {
			backtest = done
		}
		if err != nil {
			return err
		}
	}

	return render(backtest, func() string { return formatter.FormatBacktest(backtest) })
}

func runBacktestsRead(cmd *cobra.Command, args []string) error {
	id, err := parseProjectID(args[0])
	if err != nil {
		return err
	}

	backtest, err := client.ReadBacktest(cmd.Context(), id, args[1])
	if err != nil {
		return err
	}
	return render(backtest, func() string { return formatter.FormatBacktest(backtest) })
}

func runBacktestsUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseProjectID(args[0])
	if err != nil {
		return err
	}
	if backtestName == "" && backtestNote == "" {
		return fmt.Errorf("nothing to update: set --name or --note")
	}

	req := cloud.UpdateBacktestRequest{ProjectID: id, BacktestID: args[1], Name: backtestName, Note: backtestNote}
	if err := client.UpdateBacktest(cmd.Context(), req); err != nil {
		return err
	}

	logger.Info().Int("project_id", id).Str("backtest_id", args[1]).Msg("Backtest updated")
	return nil
}

func runBacktestsDelete(cmd *cobra.Command, args []string) error {
	id, err := parseProjectID(args[0])
	if err != nil {
		return err
	}

	if err := client.DeleteBacktest(cmd.Context(), id, args[1]); err != nil {
		return err
	}

	logger.Info().Int("project_id", id).Str("backtest_id", args[1]).Msg("Backtest deleted")
	return nil
}

func runBacktestsReport(cmd *cobra.Command, args []string) error {
	id, err := parseProjectID(args[0])
	if err != nil {
		return err
	}

	report, err := client.ReadBacktestReport(cmd.Context(), id, args[1])
	if err != nil {
		return err
	}

	if reportOut != "" {
		if err := os.WriteFile(reportOut, []byte(report), 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		logger.Info().Str("path", reportOut).Int("bytes", len(report)).Msg("Report written")
		return nil
	}

	_, err = fmt.Fprintln(out, report)
	return err
}

func runBacktestsRun(cmd *cobra.Command, args []string) error {
	plan := cloud.BacktestPlan{
		ProjectName:  args[0],
		Language:     cloud.Language(runLanguage),
		BacktestName: runBacktestName,
	}

	for _, path := range args[1:] {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		plan.Files = append(plan.Files, cloud.ProjectFile{Name: filepath.Base(path), Content: string(data)})
	}

	run, err := operations.RunBacktest(cmd.Context(), plan)
	if run == nil || run.Project == nil {
		return err
	}
	if rerr := render(run, func() string { return formatter.FormatBacktestRun(run) }); rerr != nil && err == nil {
		err = rerr
	}
	return err
}
