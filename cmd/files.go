package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/cloudbridge/cloud"
)

var (
	fileContent string
	fileFrom    string
)

// filesCmd groups the project file operations
var filesCmd = &cobra.Command{
	Use:               "files",
	Aliases:           []string{"file"},
	Short:             "Manage the files of a project",
	PersistentPreRunE: withClient,
}

var filesListCmd = &cobra.Command{
	Use:   "list PROJECT_ID",
	Short: "List the files of a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilesList,
}

var filesReadCmd = &cobra.Command{
	Use:   "read PROJECT_ID NAME",
	Short: "Print the content of a file",
	Args:  cobra.ExactArgs(2),
	RunE:  runFilesRead,
}

var filesAddCmd = &cobra.Command{
	Use:   "add PROJECT_ID NAME",
	Short: "Add a file to a project",
	Long:  `Add a file to a project. Content comes from --content or from the local file named by --from.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runFilesAdd,
}

var filesRenameCmd = &cobra.Command{
	Use:   "rename PROJECT_ID OLD_NAME NEW_NAME",
	Short: "Rename a file",
	Args:  cobra.ExactArgs(3),
	RunE:  runFilesRename,
}

var filesUpdateCmd = &cobra.Command{
	Use:   "update PROJECT_ID NAME",
	Short: "Replace the content of a file",
	Args:  cobra.ExactArgs(2),
	RunE:  runFilesUpdate,
}

var filesDeleteCmd = &cobra.Command{
	Use:   "delete PROJECT_ID NAME",
	Short: "Delete a file",
	Args:  cobra.ExactArgs(2),
	RunE:  runFilesDelete,
}

func init() {
	rootCmd.AddCommand(filesCmd)
	filesCmd.AddCommand(filesListCmd, filesReadCmd, filesAddCmd, filesRenameCmd, filesUpdateCmd, filesDeleteCmd)

	for _, c := range []*cobra.Command{filesAddCmd, filesUpdateCmd} {
		c.Flags().StringVarP(&fileContent, "content", "c", "", "file content")
		c.Flags().StringVar(&fileFrom, "from", "", "read file content from this local path")
		c.MarkFlagsMutuallyExclusive("content", "from")
	}
}

func runFilesList(cmd *cobra.Command, args []string) error {
	id, err := parseProjectID(args[0])
	if err != nil {
		return err
	}

	files, err := client.ReadProjectFiles(cmd.Context(), id)
	if err != nil {
		return err
	}
	return render(files, func() string { return formatter.FormatFiles(files) })
}

func runFilesRead(cmd *cobra.Command, args []string) error {
	id, err := parseProjectID(args[0])
	if err != nil {
		return err
	}

	file, err := client.ReadProjectFile(cmd.Context(), id, args[1])
	if err != nil {
		return err
	}
	return render(file, func() string { return file.Content })
}

func runFilesAdd(cmd *cobra.Command, args []string) error {
	id, err := parseProjectID(args[0])
	if err != nil {
		return err
	}
	content, err := readContent(fileContent, fileFrom)
	if err != nil {
		return err
	}

	req := cloud.CreateFileRequest{ProjectID: id, Name: args[1], Content: content}
	if err := client.AddProjectFile(cmd.Context(), req); err != nil {
		return err
	}

	logger.Info().Int("project_id", id).Str("file", args[1]).Int("bytes", len(content)).Msg("File added")
	return nil
}

func runFilesRename(cmd *cobra.Command, args []string) error {
	id, err := parseProjectID(args[0])
	if err != nil {
		return err
	}

	req := cloud.RenameFileRequest{ProjectID: id, OldFileName: args[1], NewFileName: args[2]}
	if err := client.RenameProjectFile(cmd.Context(), req); err != nil {
		return err
	}

	logger.Info().Int("project_id", id).Str("from", args[1]).Str("to", args[2]).Msg("File renamed")
	return nil
}

func runFilesUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseProjectID(args[0])
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("content") && fileFrom == "" {
		return fmt.Errorf("no new content: set --content or --from")
	}
	content, err := readContent(fileContent, fileFrom)
	if err != nil {
		return err
	}

	req := cloud.UpdateFileContentRequest{ProjectID: id, FileName: args[1], NewFileContents: content}
	if err := client.UpdateProjectFileContent(cmd.Context(), req); err != nil {
		return err
	}

	logger.Info().Int("project_id", id).Str("file", args[1]).Int("bytes", len(content)).Msg("File updated")
	return nil
}

func runFilesDelete(cmd *cobra.Command, args []string) error {
	id, err := parseProjectID(args[0])
	if err != nil {
		return err
	}

	if err := client.DeleteProjectFile(cmd.Context(), cloud.DeleteFileRequest{ProjectID: id, FileName: args[1]}); err != nil {
		return err
	}

	logger.Info().Int("project_id", id).Str("file", args[1]).Msg("File deleted")
	return nil
}
