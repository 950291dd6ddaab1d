package cloud

// CreateProjectRequest is the body of projects/create
type CreateProjectRequest struct {
	Name     string   `json:"name"`
	Language Language `json:"language"`
}

// ProjectRequest addresses a single project. It is the body of
// projects/delete, compile/create, live/update/stop and live/update/liquidate.
type ProjectRequest struct {
	ProjectID int `json:"projectId"`
}

// ReadProjectRequest is the body of projects/read; a zero id lists all projects
type ReadProjectRequest struct {
	ProjectID int `json:"projectId,omitempty"`
}

// UpdateProjectRequest is the body of projects/update
type UpdateProjectRequest struct {
	ProjectID   int    `json:"projectId"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// CreateFileRequest is the body of files/create
type CreateFileRequest struct {
	ProjectID int    `json:"projectId"`
	Name      string `json:"name"`
	Content   string `json:"content"`
}

// ReadFileRequest is the body of files/read; an empty name lists all files
type ReadFileRequest struct {
	ProjectID int    `json:"projectId"`
	FileName  string `json:"fileName,omitempty"`
}

// RenameFileRequest is the files/update body that renames a file
type RenameFileRequest struct {
	ProjectID   int    `json:"projectId"`
	OldFileName string `json:"oldFileName"`
	NewFileName string `json:"newFileName"`
}

// UpdateFileContentRequest is the files/update body that replaces file content
type UpdateFileContentRequest struct {
	ProjectID       int    `json:"projectId"`
	FileName        string `json:"fileName"`
	NewFileContents string `json:"newFileContents"`
}

// DeleteFileRequest is the body of files/delete
type DeleteFileRequest struct {
	ProjectID int    `json:"projectId"`
	FileName  string `json:"fileName"`
}

// ReadCompileRequest is the body of compile/read
type ReadCompileRequest struct {
	ProjectID int    `json:"projectId"`
	CompileID string `json:"compileId"`
}

// CreateBacktestRequest is the body of backtests/create
type CreateBacktestRequest struct {
	ProjectID    int    `json:"projectId"`
	CompileID    string `json:"compileId"`
	BacktestName string `json:"backtestName"`
}

// ReadBacktestRequest is the body of backtests/read; an empty id lists the
// backtests of the project
type ReadBacktestRequest struct {
	ProjectID  int    `json:"projectId"`
	BacktestID string `json:"backtestId,omitempty"`
}

// UpdateBacktestRequest is the body of backtests/update
type UpdateBacktestRequest struct {
	ProjectID  int    `json:"projectId"`
	BacktestID string `json:"backtestId"`
	Name       string `json:"name,omitempty"`
	Note       string `json:"note,omitempty"`
}

// BacktestRequest addresses a single backtest; body of backtests/delete and
// backtests/read/report
type BacktestRequest struct {
	ProjectID  int    `json:"projectId"`
	BacktestID string `json:"backtestId"`
}

// BrokerageSettings configures the brokerage of a live deployment
type BrokerageSettings struct {
	ID          string `json:"id"`
	User        string `json:"user,omitempty"`
	Password    string `json:"password,omitempty"`
	Environment string `json:"environment,omitempty"`
	Account     string `json:"account,omitempty"`
}

// DataProviderSettings configures one data provider of a live deployment
type DataProviderSettings struct {
	ID string `json:"id"`
}

// CreateLiveRequest is the body of live/create
type CreateLiveRequest struct {
	ProjectID                 int                             `json:"projectId"`
	CompileID                 string                          `json:"compileId"`
	ServerType                string                          `json:"serverType"`
	BaseLiveAlgorithmSettings BrokerageSettings               `json:"baseLiveAlgorithmSettings"`
	VersionID                 string                          `json:"versionId"`
	DataProviders             map[string]DataProviderSettings `json:"dataProviders"`
}

// ReadLiveRequest is the body of live/read; every field is an optional filter
type ReadLiveRequest struct {
	ProjectID int        `json:"projectId,omitempty"`
	DeployID  string     `json:"deployId,omitempty"`
	Status    LiveStatus `json:"status,omitempty"`
}

// ReadLiveLogRequest is the body of live/read/log
type ReadLiveLogRequest struct {
	ProjectID   int    `json:"projectId"`
	AlgorithmID string `json:"algorithmId"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
}

// ReadDataRequest is the body of data/read
type ReadDataRequest struct {
	Format   string `json:"format"`
	FilePath string `json:"filePath"`
}
