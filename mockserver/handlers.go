package mockserver

import (
	"errors"
	"fmt"
	"hash/fnv"
	"html"
	"io"
	"net/http"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/s0up4200/cloudbridge/cloud"
)

var liveLogLines = []string{
	"Algorithm initialized successfully",
	"Connected to data feed",
	"Processing market data...",
	"Order submitted: BUY 100 SPY @ $150.25",
}

// updateFileRequest covers both shapes of files/update: a rename
// (oldFileName, newFileName) and a content update (fileName, newFileContents)
type updateFileRequest struct {
	ProjectID       int     `json:"projectId"`
	FileName        string  `json:"fileName"`
	NewFileContents *string `json:"newFileContents"`
	OldFileName     string  `json:"oldFileName"`
	NewFileName     string  `json:"newFileName"`
}

func success() cloud.RestResponse {
	return cloud.RestResponse{Success: true}
}

func failure(msg string) cloud.RestResponse {
	return cloud.RestResponse{Success: false, Errors: []string{msg}, Message: msg}
}

func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrProjectNotFound),
		errors.Is(err, ErrFileNotFound),
		errors.Is(err, ErrCompileNotFound),
		errors.Is(err, ErrBacktestNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrFileExists):
		status = http.StatusConflict
	}
	c.JSON(status, failure(err.Error()))
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, failure(msg))
}

// bind decodes the JSON body into req. An empty body leaves req zeroed.
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) handleRoot(c *gin.Context) {
	endpoints := []string{}
	for _, route := range s.engine.Routes() {
		if strings.HasPrefix(route.Path, "/api/") || route.Path == "/health" {
			endpoints = append(endpoints, route.Path)
		}
	}
	sort.Strings(endpoints)

	c.JSON(http.StatusOK, gin.H{
		"message":        "Mock cloud server for algorithmic trading engines",
		"version":        Version,
		"endpoints":      endpoints,
		"authentication": "Bearer token required",
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	projects, backtests := s.store.Counts()
	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"timestamp":       time.Now().Format(time.RFC3339),
		"uptime":          time.Since(s.started).Round(time.Second).String(),
		"projects_count":  projects,
		"backtests_count": backtests,
	})
}

func (s *Server) handleAuthenticate(c *gin.Context) {
	resp := success()
	resp.Message = "Authentication successful"
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCreateProject(c *gin.Context) {
	var req cloud.CreateProjectRequest
	if !bind(c, &req) {
		return
	}

	project := s.store.CreateProject(req.Name, req.Language)
	s.logger.Info().Int("project_id", project.ProjectID).Str("name", project.Name).Msg("Project created")

	c.JSON(http.StatusOK, cloud.ProjectResponse{RestResponse: success(), Projects: []cloud.Project{project}})
}

func (s *Server) handleReadProjects(c *gin.Context) {
	var req cloud.ReadProjectRequest
	if !bind(c, &req) {
		return
	}

	if req.ProjectID == 0 {
		c.JSON(http.StatusOK, cloud.ProjectResponse{RestResponse: success(), Projects: s.store.Projects()})
		return
	}

	project, err := s.store.Project(req.ProjectID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cloud.ProjectResponse{RestResponse: success(), Projects: []cloud.Project{project}})
}

func (s *Server) handleUpdateProject(c *gin.Context) {
	var req cloud.UpdateProjectRequest
	if !bind(c, &req) {
		return
	}
	if err := s.store.UpdateProject(req.ProjectID, req.Name, req.Description); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, success())
}

func (s *Server) handleDeleteProject(c *gin.Context) {
	var req cloud.ProjectRequest
	if !bind(c, &req) {
		return
	}
	if err := s.store.DeleteProject(req.ProjectID); err != nil {
		fail(c, err)
		return
	}
	s.logger.Info().Int("project_id", req.ProjectID).Msg("Project deleted")
	c.JSON(http.StatusOK, success())
}

func (s *Server) handleCreateFile(c *gin.Context) {
	var req cloud.CreateFileRequest
	if !bind(c, &req) {
		return
	}
	if req.Name == "" {
		badRequest(c, "File name is required")
		return
	}

	files, err := s.store.AddFile(req.ProjectID, req.Name, req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cloud.FilesResponse{RestResponse: success(), Files: files})
}

func (s *Server) handleReadFiles(c *gin.Context) {
	var req cloud.ReadFileRequest
	if !bind(c, &req) {
		return
	}

	files, err := s.store.Files(req.ProjectID, req.FileName)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cloud.FilesResponse{RestResponse: success(), Files: files})
}

func (s *Server) handleUpdateFile(c *gin.Context) {
	var req updateFileRequest
	if !bind(c, &req) {
		return
	}

	var err error
	switch {
	case req.OldFileName != "" && req.NewFileName != "":
		err = s.store.RenameFile(req.ProjectID, req.OldFileName, req.NewFileName)
	case req.FileName != "" && req.NewFileContents != nil:
		err = s.store.UpdateFileContent(req.ProjectID, req.FileName, *req.NewFileContents)
	default:
		badRequest(c, "Either oldFileName and newFileName or fileName and newFileContents are required")
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, success())
}

func (s *Server) handleDeleteFile(c *gin.Context) {
	var req cloud.DeleteFileRequest
	if !bind(c, &req) {
		return
	}
	if err := s.store.DeleteFile(req.ProjectID, req.FileName); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, success())
}

func (s *Server) handleCreateCompile(c *gin.Context) {
	var req cloud.ProjectRequest
	if !bind(c, &req) {
		return
	}

	compile, err := s.store.CreateCompile(req.ProjectID)
	if err != nil {
		fail(c, err)
		return
	}
	JobsCreated.WithLabelValues("compile").Inc()
	s.logger.Info().Int("project_id", req.ProjectID).Str("compile_id", compile.CompileID).Msg("Compile queued")

	c.JSON(http.StatusOK, cloud.CompileResponse{RestResponse: success(), Compile: compile})
}

func (s *Server) handleReadCompile(c *gin.Context) {
	var req cloud.ReadCompileRequest
	if !bind(c, &req) {
		return
	}

	compile, err := s.store.Compile(req.CompileID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cloud.CompileResponse{RestResponse: success(), Compile: compile})
}

func (s *Server) handleCreateBacktest(c *gin.Context) {
	var req cloud.CreateBacktestRequest
	if !bind(c, &req) {
		return
	}

	backtest, err := s.store.CreateBacktest(req.ProjectID, req.CompileID, req.BacktestName)
	if err != nil {
		fail(c, err)
		return
	}
	JobsCreated.WithLabelValues("backtest").Inc()
	s.logger.Info().Int("project_id", req.ProjectID).Str("backtest_id", backtest.BacktestID).Msg("Backtest started")

	c.JSON(http.StatusOK, cloud.BacktestResponse{RestResponse: success(), Backtest: backtest})
}

func (s *Server) handleReadBacktests(c *gin.Context) {
	var req cloud.ReadBacktestRequest
	if !bind(c, &req) {
		return
	}

	if req.BacktestID == "" {
		backtests, err := s.store.Backtests(req.ProjectID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, cloud.BacktestListResponse{RestResponse: success(), Backtests: backtests})
		return
	}

	backtest, err := s.store.Backtest(req.BacktestID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cloud.BacktestResponse{RestResponse: success(), Backtest: backtest})
}

func (s *Server) handleUpdateBacktest(c *gin.Context) {
	var req cloud.UpdateBacktestRequest
	if !bind(c, &req) {
		return
	}
	if err := s.store.UpdateBacktest(req.BacktestID, req.Name, req.Note); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, success())
}

func (s *Server) handleDeleteBacktest(c *gin.Context) {
	var req cloud.BacktestRequest
	if !bind(c, &req) {
		return
	}
	if err := s.store.DeleteBacktest(req.BacktestID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, success())
}

func (s *Server) handleReadBacktestReport(c *gin.Context) {
	var req cloud.BacktestRequest
	if !bind(c, &req) {
		return
	}

	backtest, err := s.store.Backtest(req.BacktestID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cloud.BacktestReportResponse{RestResponse: success(), Report: renderReport(&backtest)})
}

func renderReport(b *cloud.Backtest) string {
	var sb strings.Builder
	sb.WriteString("<html>\n<head><title>Backtest Report</title></head>\n<body>\n")
	fmt.Fprintf(&sb, "<h1>%s</h1>\n", html.EscapeString(b.Name))
	if !b.Completed {
		fmt.Fprintf(&sb, "<p>Progress: %.0f%%</p>\n", b.Progress*100)
	} else {
		fmt.Fprintf(&sb, "<p>Total Trades: %d</p>\n", b.Trades())
		fmt.Fprintf(&sb, "<p>Win Rate: %.0f%%</p>\n", b.WinRate()*100)
		fmt.Fprintf(&sb, "<p>Total Return: %.0f%%</p>\n", b.NetProfit()*100)
		fmt.Fprintf(&sb, "<p>Sharpe Ratio: %.1f</p>\n", b.SharpeRatio())
	}
	sb.WriteString("</body>\n</html>\n")
	return sb.String()
}

func (s *Server) handleCreateLive(c *gin.Context) {
	var req cloud.CreateLiveRequest
	if !bind(c, &req) {
		return
	}

	live, err := s.store.CreateLive(req)
	if err != nil {
		fail(c, err)
		return
	}
	JobsCreated.WithLabelValues("live").Inc()
	s.logger.Info().Int("project_id", req.ProjectID).Str("deploy_id", live.DeployID).Msg("Live algorithm deployed")

	c.JSON(http.StatusOK, cloud.LiveAlgorithmResponse{RestResponse: success(), LiveAlgorithm: live})
}

func (s *Server) handleReadLive(c *gin.Context) {
	var req cloud.ReadLiveRequest
	if !bind(c, &req) {
		return
	}
	c.JSON(http.StatusOK, cloud.LiveListResponse{RestResponse: success(), Algorithms: s.store.LiveAlgorithms(req)})
}

func (s *Server) handleStopLive(c *gin.Context) {
	s.setLiveStatus(c, cloud.LiveStopped)
}

func (s *Server) handleLiquidateLive(c *gin.Context) {
	s.setLiveStatus(c, cloud.LiveLiquidated)
}

func (s *Server) setLiveStatus(c *gin.Context, status cloud.LiveStatus) {
	var req cloud.ProjectRequest
	if !bind(c, &req) {
		return
	}
	if err := s.store.SetLiveStatus(req.ProjectID, status); err != nil {
		fail(c, err)
		return
	}
	s.logger.Info().Int("project_id", req.ProjectID).Str("status", string(status)).Msg("Live algorithm updated")
	c.JSON(http.StatusOK, success())
}

func (s *Server) handleReadLiveLog(c *gin.Context) {
	var req cloud.ReadLiveLogRequest
	if !bind(c, &req) {
		return
	}
	if req.AlgorithmID != "" && len(s.store.LiveAlgorithms(cloud.ReadLiveRequest{DeployID: req.AlgorithmID})) == 0 {
		c.JSON(http.StatusNotFound, failure("Live algorithm not found"))
		return
	}

	c.JSON(http.StatusOK, cloud.LiveLogResponse{RestResponse: success(), Logs: logWindow(liveLogLines, req.Start, req.End)})
}

// logWindow returns lines[start:end] clamped to the slice; end <= 0 means
// through the last line
func logWindow(lines []string, start, end int) []string {
	n := len(lines)
	if end <= 0 || end > n {
		end = n
	}
	start = max(0, min(start, end))
	return lines[start:end]
}

func (s *Server) handleReadData(c *gin.Context) {
	var req cloud.ReadDataRequest
	if !bind(c, &req) {
		return
	}
	file := strings.TrimPrefix(req.FilePath, "/")
	if file == "" {
		badRequest(c, "filePath is required")
		return
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	link := fmt.Sprintf("%s://%s/data/%s", scheme, c.Request.Host, file)
	c.JSON(http.StatusOK, cloud.DataLinkResponse{RestResponse: success(), Link: link})
}

func (s *Server) handleDataFile(c *gin.Context) {
	file := strings.TrimPrefix(c.Param("filepath"), "/")
	if file == "" || path.Ext(file) != ".csv" {
		c.JSON(http.StatusNotFound, failure("Data file not found"))
		return
	}
	c.Data(http.StatusOK, "text/csv", syntheticBars(file))
}

// syntheticBars renders ten daily OHLCV bars whose price level is derived
// from the file name, so the same file always yields the same content
func syntheticBars(file string) []byte {
	h := fnv.New32a()
	h.Write([]byte(file))
	base := 50 + float64(h.Sum32()%20000)/100

	var sb strings.Builder
	sb.WriteString("time,open,high,low,close,volume\n")
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range 10 {
		open := base + float64(i)*0.5
		fmt.Fprintf(&sb, "%s,%.2f,%.2f,%.2f,%.2f,%d\n",
			day.AddDate(0, 0, i).Format("20060102"),
			open, open+1.25, open-0.75, open+0.5, 100000+i*1000)
	}
	return []byte(sb.String())
}
