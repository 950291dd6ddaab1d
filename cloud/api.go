package cloud

import (
	"context"
)

// API defines the operations of the cloud backend
type API interface {
	// Authenticate verifies the configured credentials
	Authenticate(ctx context.Context) error

	// Projects
	CreateProject(ctx context.Context, req CreateProjectRequest) (*Project, error)
	ReadProject(ctx context.Context, projectID int) (*Project, error)
	ListProjects(ctx context.Context) ([]Project, error)
	UpdateProject(ctx context.Context, req UpdateProjectRequest) error
	DeleteProject(ctx context.Context, projectID int) error

	// Files
	AddProjectFile(ctx context.Context, req CreateFileRequest) error
	ReadProjectFile(ctx context.Context, projectID int, fileName string) (*ProjectFile, error)
	ReadProjectFiles(ctx context.Context, projectID int) ([]ProjectFile, error)
	RenameProjectFile(ctx context.Context, req RenameFileRequest) error
	UpdateProjectFileContent(ctx context.Context, req UpdateFileContentRequest) error
	DeleteProjectFile(ctx context.Context, req DeleteFileRequest) error

	// Compiles
	CreateCompile(ctx context.Context, projectID int) (*Compile, error)
	ReadCompile(ctx context.Context, projectID int, compileID string) (*Compile, error)

	// Backtests
	CreateBacktest(ctx context.Context, req CreateBacktestRequest) (*Backtest, error)
	ReadBacktest(ctx context.Context, projectID int, backtestID string) (*Backtest, error)
	ListBacktests(ctx context.Context, projectID int) ([]Backtest, error)
	UpdateBacktest(ctx context.Context, req UpdateBacktestRequest) error
	DeleteBacktest(ctx context.Context, projectID int, backtestID string) error
	ReadBacktestReport(ctx context.Context, projectID int, backtestID string) (string, error)

	// Live algorithms
	CreateLiveAlgorithm(ctx context.Context, req CreateLiveRequest) (*LiveAlgorithm, error)
	ReadLiveAlgorithm(ctx context.Context, projectID int, deployID string) (*LiveAlgorithm, error)
	ListLiveAlgorithms(ctx context.Context, req ReadLiveRequest) ([]LiveAlgorithm, error)
	StopLiveAlgorithm(ctx context.Context, projectID int) error
	LiquidateLiveAlgorithm(ctx context.Context, projectID int) error
	ReadLiveLogs(ctx context.Context, req ReadLiveLogRequest) ([]string, error)

	// Data
	ReadDataLink(ctx context.Context, req ReadDataRequest) (string, error)
}

// Downloader fetches raw content through the pooled transports. Failures
// are logged and yield empty content.
type Downloader interface {
	Download(ctx context.Context, rawURL string) []byte
	DownloadString(ctx context.Context, rawURL string) string
	DownloadData(ctx context.Context, req ReadDataRequest) []byte
	DownloadAll(ctx context.Context, urls []string) map[string][]byte
}
