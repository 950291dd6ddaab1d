package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/cloudbridge/cloud"
	"github.com/s0up4200/cloudbridge/filter"
)

var (
	projectFilter      string
	projectLanguage    string
	projectName        string
	projectDescription string
)

// projectsCmd groups the project operations
var projectsCmd = &cobra.Command{
	Use:               "projects",
	Aliases:           []string{"project"},
	Short:             "Manage cloud projects",
	PersistentPreRunE: withClient,
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Long: `List all projects, optionally narrowed by a filter expression such as
'Language == "Py" and daysSince(Modified) < 7' or the name of a filter from config.`,
	Args: cobra.NoArgs,
	RunE: runProjectsList,
}

var projectsCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsCreate,
}

var projectsReadCmd = &cobra.Command{
	Use:   "read PROJECT_ID",
	Short: "Show a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsRead,
}

var projectsUpdateCmd = &cobra.Command{
	Use:   "update PROJECT_ID",
	Short: "Rename a project or change its description",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsUpdate,
}

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete PROJECT_ID",
	Short: "Delete a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsDelete,
}

func init() {
	rootCmd.AddCommand(projectsCmd)
	projectsCmd.AddCommand(projectsListCmd, projectsCreateCmd, projectsReadCmd, projectsUpdateCmd, projectsDeleteCmd)

	projectsListCmd.Flags().StringVarP(&projectFilter, "filter", "f", "", "filter expression or named filter")
	projectsCreateCmd.Flags().StringVarP(&projectLanguage, "language", "l", string(cloud.LanguageCSharp), "project language (C# or Py)")
	projectsUpdateCmd.Flags().StringVar(&projectName, "name", "", "new project name")
	projectsUpdateCmd.Flags().StringVar(&projectDescription, "description", "", "new project description")
}

func runProjectsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	projects, err := client.ListProjects(ctx)
	if err != nil {
		return err
	}

	projects, err = applyFilter(ctx, projectFilter, filter.CompileProjectFilter, projects)
	if err != nil {
		return err
	}

	return render(projects, func() string { return formatter.FormatProjects(projects) })
}

func runProjectsCreate(cmd *cobra.Command, args []string) error {
	language := cloud.Language(projectLanguage)
	if language != cloud.LanguageCSharp && language != cloud.LanguagePython {
		return fmt.Errorf("invalid language %q: must be %s or %s", projectLanguage, cloud.LanguageCSharp, cloud.LanguagePython)
	}

	project, err := client.CreateProject(cmd.Context(), cloud.CreateProjectRequest{Name: args[0], Language: language})
	if err != nil {
		return err
	}

	logger.Info().Int("project_id", project.ProjectID).Str("name", project.Name).Msg("Project created")
	return render(project, func() string { return formatter.FormatProjects([]cloud.Project{*project}) })
}

func runProjectsRead(cmd *cobra.Command, args []string) error {
	id, err := parseProjectID(args[0])
	if err != nil {
		return err
	}

	project, err := client.ReadProject(cmd.Context(), id)
	if err != nil {
		return err
	}
	return render(project, func() string { return formatter.FormatProjects([]cloud.Project{*project}) })
}

func runProjectsUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseProjectID(args[0])
	if err != nil {
		return err
	}
	if projectName == "" && projectDescription == "" {
		return fmt.Errorf("nothing to update: set --name or --description")
	}

	req := cloud.UpdateProjectRequest{ProjectID: id, Name: projectName, Description: projectDescription}
	if err := client.UpdateProject(cmd.Context(), req); err != nil {
		return err
	}

	logger.Info().Int("project_id", id).Msg("Project updated")
	return nil
}

func runProjectsDelete(cmd *cobra.Command, args []string) error {
	id, err := parseProjectID(args[0])
	if err != nil {
		return err
	}

	if err := client.DeleteProject(cmd.Context(), id); err != nil {
		return err
	}

	logger.Info().Int("project_id", id).Msg("Project deleted")
	return nil
}
