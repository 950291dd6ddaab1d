package cloud

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
)

var (
	_ API        = (*Client)(nil)
	_ Downloader = (*Client)(nil)
)

// Client implements API and Downloader on top of a Connection and a
// TransportPool. Failed requests are returned as *OperationError naming
// the method; nothing is retried.
type Client struct {
	conn   *Connection
	pool   *TransportPool
	logger zerolog.Logger
}

// NewClient creates a new cloud API client
func NewClient(baseURL string, creds Credentials, logger zerolog.Logger, opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	conn, err := newConnection(baseURL, creds, logger, o)
	if err != nil {
		return nil, err
	}

	timeout := o.timeout
	pool := NewTransportPool(o.poolSize, func() *http.Client {
		return &http.Client{Timeout: timeout}
	})

	return &Client{
		conn:   conn,
		pool:   pool,
		logger: logger.With().Str("component", "cloud").Logger(),
	}, nil
}

// Connection returns the underlying authenticated connection
func (c *Client) Connection() *Connection {
	return c.conn
}

// Pool returns the transport pool used for downloads
func (c *Client) Pool() *TransportPool {
	return c.pool
}

// Close shuts down the transport pool
func (c *Client) Close() {
	c.pool.Close()
}

// call issues one POST request and converts a failure into an *OperationError
func call[T any](ctx context.Context, c *Client, op, endpoint string, body any) (*T, error) {
	out := new(T)
	if c.conn.Request(ctx, endpoint, body, out) {
		return out, nil
	}
	return nil, operationError(op, endpoint, out)
}

func operationError(op, endpoint string, out any) error {
	opErr := &OperationError{Op: op, Endpoint: endpoint}
	if r, ok := out.(Result); ok {
		opErr.Message = r.Failure()
	}
	return opErr
}

// Authenticate verifies the configured credentials against the API
func (c *Client) Authenticate(ctx context.Context) error {
	var resp RestResponse
	if !c.conn.Get(ctx, "authenticate", &resp) {
		return operationError("Authenticate", "authenticate", &resp)
	}
	return nil
}

// CreateProject creates a new project and returns it
func (c *Client) CreateProject(ctx context.Context, req CreateProjectRequest) (*Project, error) {
	resp, err := call[ProjectResponse](ctx, c, "CreateProject", "projects/create", req)
	if err != nil {
		return nil, err
	}
	if len(resp.Projects) == 0 {
		return nil, &OperationError{Op: "CreateProject", Endpoint: "projects/create", Message: "response contained no project"}
	}

	c.logger.Info().
		Int("project_id", resp.Projects[0].ProjectID).
		Str("name", resp.Projects[0].Name).
		Msg("Created project")
	return &resp.Projects[0], nil
}

// ReadProject reads a single project
func (c *Client) ReadProject(ctx context.Context, projectID int) (*Project, error) {
	resp, err := call[ProjectResponse](ctx, c, "ReadProject", "projects/read", ReadProjectRequest{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	if len(resp.Projects) == 0 {
		return nil, &OperationError{Op: "ReadProject", Endpoint: "projects/read", Message: fmt.Sprintf("project %d not found", projectID)}
	}
	return &resp.Projects[0], nil
}

// ListProjects lists all projects
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	resp, err := call[ProjectResponse](ctx, c, "ListProjects", "projects/read", ReadProjectRequest{})
	if err != nil {
		return nil, err
	}

	c.logger.Debug().Msgf("Retrieved %d projects", len(resp.Projects))
	return resp.Projects, nil
}

// UpdateProject renames a project or changes its description
func (c *Client) UpdateProject(ctx context.Context, req UpdateProjectRequest) error {
	_, err := call[RestResponse](ctx, c, "UpdateProject", "projects/update", req)
	return err
}

// DeleteProject deletes a project and everything attached to it
func (c *Client) DeleteProject(ctx context.Context, projectID int) error {
	if _, err := call[RestResponse](ctx, c, "DeleteProject", "projects/delete", ProjectRequest{ProjectID: projectID}); err != nil {
		return err
	}

	c.logger.Info().Int("project_id", projectID).Msg("Deleted project")
	return nil
}

// AddProjectFile adds a file to a project
func (c *Client) AddProjectFile(ctx context.Context, req CreateFileRequest) error {
	_, err := call[FilesResponse](ctx, c, "AddProjectFile", "files/create", req)
	return err
}

// ReadProjectFile reads a single file of a project
func (c *Client) ReadProjectFile(ctx context.Context, projectID int, fileName string) (*ProjectFile, error) {
	resp, err := call[FilesResponse](ctx, c, "ReadProjectFile", "files/read", ReadFileRequest{ProjectID: projectID, FileName: fileName})
	if err != nil {
		return nil, err
	}
	if len(resp.Files) == 0 {
		return nil, &OperationError{Op: "ReadProjectFile", Endpoint: "files/read", Message: fmt.Sprintf("file %s not found", fileName)}
	}
	return &resp.Files[0], nil
}

// ReadProjectFiles reads all files of a project
func (c *Client) ReadProjectFiles(ctx context.Context, projectID int) ([]ProjectFile, error) {
	resp, err := call[FilesResponse](ctx, c, "ReadProjectFiles", "files/read", ReadFileRequest{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	return resp.Files, nil
}

// RenameProjectFile renames a file of a project
func (c *Client) RenameProjectFile(ctx context.Context, req RenameFileRequest) error {
	_, err := call[RestResponse](ctx, c, "RenameProjectFile", "files/update", req)
	return err
}

// UpdateProjectFileContent replaces the content of a file
func (c *Client) UpdateProjectFileContent(ctx context.Context, req UpdateFileContentRequest) error {
	_, err := call[RestResponse](ctx, c, "UpdateProjectFileContent", "files/update", req)
	return err
}

// DeleteProjectFile removes a file from a project
func (c *Client) DeleteProjectFile(ctx context.Context, req DeleteFileRequest) error {
	_, err := call[RestResponse](ctx, c, "DeleteProjectFile", "files/delete", req)
	return err
}
