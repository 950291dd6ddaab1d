package cloud

import (
	"strings"
)

// Language is the programming language of a project
type Language string

const (
	LanguageCSharp Language = "C#"
	LanguagePython Language = "Py"
)

// CompileState is the state of a compile job
type CompileState string

const (
	CompileInQueue      CompileState = "InQueue"
	CompileBuildSuccess CompileState = "BuildSuccess"
	CompileBuildError   CompileState = "BuildError"
)

// IsFinished reports whether the compile job will not change state again
func (s CompileState) IsFinished() bool {
	return s == CompileBuildSuccess || s == CompileBuildError
}

// LiveStatus is the deployment status of a live algorithm
type LiveStatus string

const (
	LiveRunning    LiveStatus = "Running"
	LiveStopped    LiveStatus = "Stopped"
	LiveLiquidated LiveStatus = "Liquidated"
)

// RestResponse carries the fields every endpoint returns
type RestResponse struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors,omitempty"`
	Message string   `json:"message,omitempty"`
}

// IsSuccess implements Result
func (r *RestResponse) IsSuccess() bool {
	return r.Success
}

// Failure returns the diagnostic message of a failed response
func (r *RestResponse) Failure() string {
	if r.Message != "" {
		return r.Message
	}
	return strings.Join(r.Errors, "; ")
}

// Project is a cloud project
type Project struct {
	ProjectID   int       `json:"projectId"`
	Name        string    `json:"name"`
	Language    Language  `json:"language"`
	Description string    `json:"description,omitempty"`
	Created     Timestamp `json:"created"`
	Modified    Timestamp `json:"modified"`
}

// ProjectResponse is returned by the projects endpoints
type ProjectResponse struct {
	RestResponse
	Projects []Project `json:"projects"`
}

// ProjectFile is a source file of a project
type ProjectFile struct {
	Name     string    `json:"name"`
	Content  string    `json:"content"`
	Modified Timestamp `json:"modified"`
}

// FilesResponse is returned by the files endpoints
type FilesResponse struct {
	RestResponse
	Files []ProjectFile `json:"files"`
}

// Compile describes a compile job
type Compile struct {
	CompileID string       `json:"compileId"`
	ProjectID int          `json:"projectId,omitempty"`
	State     CompileState `json:"state"`
	Logs      []string     `json:"logs"`
}

// CompileResponse is returned by the compile endpoints
type CompileResponse struct {
	RestResponse
	Compile
}

// TradeStatistics summarizes the trades of a backtest
type TradeStatistics struct {
	TotalNumberOfTrades int     `json:"TotalNumberOfTrades"`
	WinRate             float64 `json:"WinRate"`
}

// PortfolioStatistics summarizes the portfolio of a backtest
type PortfolioStatistics struct {
	TotalNetProfit float64 `json:"TotalNetProfit"`
	SharpeRatio    float64 `json:"SharpeRatio"`
}

// Performance groups trade and portfolio statistics
type Performance struct {
	TradeStatistics     TradeStatistics     `json:"TradeStatistics"`
	PortfolioStatistics PortfolioStatistics `json:"PortfolioStatistics"`
}

// BacktestResult is the result payload of a backtest
type BacktestResult struct {
	TotalPerformance Performance       `json:"TotalPerformance"`
	Charts           map[string]any    `json:"Charts"`
	Orders           map[string]any    `json:"Orders"`
	Statistics       map[string]string `json:"Statistics"`
}

// Backtest describes a backtest run
type Backtest struct {
	BacktestID string          `json:"backtestId"`
	ProjectID  int             `json:"projectId,omitempty"`
	CompileID  string          `json:"compileId,omitempty"`
	Name       string          `json:"name"`
	Note       string          `json:"note"`
	Completed  bool            `json:"completed"`
	Progress   float64         `json:"progress"`
	Result     *BacktestResult `json:"result,omitempty"`
	Error      string          `json:"error"`
	StackTrace string          `json:"stacktrace"`
	Created    Timestamp       `json:"created"`
}

// Trades returns the number of trades, zero while no result is available
func (b *Backtest) Trades() int {
	if b.Result == nil {
		return 0
	}
	return b.Result.TotalPerformance.TradeStatistics.TotalNumberOfTrades
}

// WinRate returns the fraction of winning trades
func (b *Backtest) WinRate() float64 {
	if b.Result == nil {
		return 0
	}
	return b.Result.TotalPerformance.TradeStatistics.WinRate
}

// NetProfit returns the total net profit as a fraction of starting equity
func (b *Backtest) NetProfit() float64 {
	if b.Result == nil {
		return 0
	}
	return b.Result.TotalPerformance.PortfolioStatistics.TotalNetProfit
}

// SharpeRatio returns the Sharpe ratio of the run
func (b *Backtest) SharpeRatio() float64 {
	if b.Result == nil {
		return 0
	}
	return b.Result.TotalPerformance.PortfolioStatistics.SharpeRatio
}

// BacktestResponse is returned when creating or reading a single backtest
type BacktestResponse struct {
	RestResponse
	Backtest
}

// BacktestListResponse is returned when reading all backtests of a project
type BacktestListResponse struct {
	RestResponse
	Backtests []Backtest `json:"backtests"`
}

// BacktestReportResponse carries the rendered report of a backtest
type BacktestReportResponse struct {
	RestResponse
	Report string `json:"report"`
}

// LiveAlgorithm describes a deployed algorithm
type LiveAlgorithm struct {
	ProjectID  int        `json:"projectId"`
	DeployID   string     `json:"deployId"`
	CompileID  string     `json:"compileId,omitempty"`
	ServerType string     `json:"serverType,omitempty"`
	Brokerage  string     `json:"brokerage,omitempty"`
	Status     LiveStatus `json:"status"`
	Launched   Timestamp  `json:"launched"`
	Stopped    *Timestamp `json:"stopped"`
}

// LiveAlgorithmResponse is returned when deploying an algorithm
type LiveAlgorithmResponse struct {
	RestResponse
	LiveAlgorithm
}

// LiveListResponse is returned by live/read
type LiveListResponse struct {
	RestResponse
	Algorithms []LiveAlgorithm `json:"Algorithms"`
}

// LiveLogResponse is returned by live/read/log
type LiveLogResponse struct {
	RestResponse
	Logs []string `json:"LiveLogs"`
}

// DataLinkResponse is returned by data/read
type DataLinkResponse struct {
	RestResponse
	Link string `json:"link"`
}

// The types below back operations the bridge does not serve; they are
// only ever returned empty.

// Account is the account summary of the authenticated user
type Account struct {
	OrganizationID string  `json:"organizationId"`
	CreditBalance  float64 `json:"creditBalance"`
}

// Organization describes an organization
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Optimization describes a parameter optimization run
type Optimization struct {
	OptimizationID string `json:"optimizationId"`
	Name           string `json:"name"`
	Status         string `json:"status"`
}

// Chart is a named chart of a backtest
type Chart struct {
	Name   string         `json:"name"`
	Series map[string]any `json:"series"`
}

// Insight is an alpha insight emitted by a backtest
type Insight struct {
	Symbol    string  `json:"symbol"`
	Direction string  `json:"direction"`
	Magnitude float64 `json:"magnitude"`
}

// ObjectStoreEntry is an entry of the organization object store
type ObjectStoreEntry struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
}
