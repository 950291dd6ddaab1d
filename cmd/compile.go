package cmd

import (
	"github.com/spf13/cobra"
)

var compileWait bool

// compileCmd groups the compile operations
var compileCmd = &cobra.Command{
	Use:               "compile",
	Short:             "Compile projects",
	PersistentPreRunE: withClient,
}

var compileCreateCmd = &cobra.Command{
	Use:   "create PROJECT_ID",
	Short: "Start a compile job",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompileCreate,
}

var compileReadCmd = &cobra.Command{
	Use:   "read PROJECT_ID COMPILE_ID",
	Short: "Show the state of a compile job",
	Args:  cobra.ExactArgs(2),
	RunE:  runCompileRead,
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.AddCommand(compileCreateCmd, compileReadCmd)

	compileCreateCmd.Flags().BoolVarP(&compileWait, "wait", "w", false, "wait until the build succeeds or fails")
}

func runCompileCreate(cmd *cobra.Command, args []string) error {
	id, err := parseProjectID(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	compile, err := client.CreateCompile(ctx, id)
	if err != nil {
		return err
	}
	logger.Info().Int("project_id", id).Str("compile_id", compile.CompileID).Msg("Compile started")

	if compileWait {
		done, err := operations.WaitForCompile(ctx, id, compile.CompileID)
		if done != nil {
			compile = done
		}
		if err != nil {
			_ = render(compile, func() string { return formatter.FormatCompile(compile) })
			return err
		}
	}

	return render(compile, func() string { return formatter.FormatCompile(compile) })
}

func runCompileRead(cmd *cobra.Command, args []string) error {
	id, err := parseProjectID(args[0])
	if err != nil {
		return err
	}

	compile, err := client.ReadCompile(cmd.Context(), id, args[1])
	if err != nil {
		return err
	}
	return render(compile, func() string { return formatter.FormatCompile(compile) })
}
