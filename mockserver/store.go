package mockserver

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/s0up4200/cloudbridge/cloud"
)

// Store lookup errors, mapped to 404 by the handlers
var (
	ErrProjectNotFound  = errors.New("Project not found")
	ErrFileNotFound     = errors.New("File not found")
	ErrFileExists       = errors.New("File already exists")
	ErrCompileNotFound  = errors.New("Compile job not found")
	ErrBacktestNotFound = errors.New("Backtest not found")
)

type compileJob struct {
	compile cloud.Compile
	started time.Time
}

type backtestJob struct {
	backtest cloud.Backtest
	started  time.Time
}

// Store holds the state of the mock server in memory. Job progress is not
// advanced by goroutines; it is derived from the elapsed time whenever a
// job is read.
type Store struct {
	mu sync.RWMutex

	compileDuration  time.Duration
	backtestDuration time.Duration
	now              func() time.Time

	nextProjectID int
	projects      map[int]*cloud.Project
	files         map[int][]cloud.ProjectFile
	compiles      map[string]*compileJob
	backtests     map[string]*backtestJob
	live          map[string]*cloud.LiveAlgorithm
}

// NewStore creates an empty store. Jobs finish after the given durations;
// zero finishes them immediately.
func NewStore(compileDuration, backtestDuration time.Duration) *Store {
	return &Store{
		compileDuration:  compileDuration,
		backtestDuration: backtestDuration,
		now:              time.Now,
		nextProjectID:    1,
		projects:         make(map[int]*cloud.Project),
		files:            make(map[int][]cloud.ProjectFile),
		compiles:         make(map[string]*compileJob),
		backtests:        make(map[string]*backtestJob),
		live:             make(map[string]*cloud.LiveAlgorithm),
	}
}

// Counts returns the number of projects and backtests
func (s *Store) Counts() (projects, backtests int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.projects), len(s.backtests)
}

// CreateProject stores a new project with the next sequential id
func (s *Store) CreateProject(name string, language cloud.Language) cloud.Project {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == "" {
		name = "Untitled Project"
	}
	if language == "" {
		language = cloud.LanguageCSharp
	}

	now := s.now()
	p := &cloud.Project{
		ProjectID: s.nextProjectID,
		Name:      name,
		Language:  language,
		Created:   cloud.NewTimestamp(now),
		Modified:  cloud.NewTimestamp(now),
	}
	s.projects[p.ProjectID] = p
	s.files[p.ProjectID] = []cloud.ProjectFile{}
	s.nextProjectID++
	return *p
}

// Project returns a project by id
func (s *Store) Project(id int) (cloud.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return cloud.Project{}, ErrProjectNotFound
	}
	return *p, nil
}

// Projects returns every project ordered by id
func (s *Store) Projects() []cloud.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]cloud.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProjectID < out[j].ProjectID })
	return out
}

// UpdateProject changes the name and description of a project; empty
// values are left unchanged
func (s *Store) UpdateProject(id int, name, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return ErrProjectNotFound
	}
	if name != "" {
		p.Name = name
	}
	if description != "" {
		p.Description = description
	}
	p.Modified = cloud.NewTimestamp(s.now())
	return nil
}

// DeleteProject removes a project with its files, jobs and deployments
func (s *Store) DeleteProject(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; !ok {
		return ErrProjectNotFound
	}
	delete(s.projects, id)
	delete(s.files, id)
	for k, job := range s.compiles {
		if job.compile.ProjectID == id {
			delete(s.compiles, k)
		}
	}
	for k, job := range s.backtests {
		if job.backtest.ProjectID == id {
			delete(s.backtests, k)
		}
	}
	for k, a := range s.live {
		if a.ProjectID == id {
			delete(s.live, k)
		}
	}
	return nil
}

// AddFile appends a file to a project and returns all files of the project
func (s *Store) AddFile(projectID int, name, content string) ([]cloud.ProjectFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, ok := s.files[projectID]
	if !ok {
		return nil, ErrProjectNotFound
	}
	if indexOfFile(files, name) >= 0 {
		return nil, ErrFileExists
	}

	s.files[projectID] = append(files, cloud.ProjectFile{Name: name, Content: content, Modified: cloud.NewTimestamp(s.now())})
	s.touch(projectID)
	return cloneFiles(s.files[projectID]), nil
}

// Files returns the files of a project, or only the named one
func (s *Store) Files(projectID int, name string) ([]cloud.ProjectFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files, ok := s.files[projectID]
	if !ok {
		return nil, ErrProjectNotFound
	}
	if name == "" {
		return cloneFiles(files), nil
	}

	i := indexOfFile(files, name)
	if i < 0 {
		return nil, ErrFileNotFound
	}
	return []cloud.ProjectFile{files[i]}, nil
}

// RenameFile renames a file of a project
func (s *Store) RenameFile(projectID int, oldName, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, ok := s.files[projectID]
	if !ok {
		return ErrProjectNotFound
	}
	i := indexOfFile(files, oldName)
	if i < 0 {
		return ErrFileNotFound
	}
	if indexOfFile(files, newName) >= 0 {
		return ErrFileExists
	}

	files[i].Name = newName
	files[i].Modified = cloud.NewTimestamp(s.now())
	s.touch(projectID)
	return nil
}

// UpdateFileContent replaces the content of a file
func (s *Store) UpdateFileContent(projectID int, name, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, ok := s.files[projectID]
	if !ok {
		return ErrProjectNotFound
	}
	i := indexOfFile(files, name)
	if i < 0 {
		return ErrFileNotFound
	}

	files[i].Content = content
	files[i].Modified = cloud.NewTimestamp(s.now())
	s.touch(projectID)
	return nil
}

// DeleteFile removes a file from a project
func (s *Store) DeleteFile(projectID int, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, ok := s.files[projectID]
	if !ok {
		return ErrProjectNotFound
	}
	i := indexOfFile(files, name)
	if i < 0 {
		return ErrFileNotFound
	}

	s.files[projectID] = append(files[:i], files[i+1:]...)
	s.touch(projectID)
	return nil
}

// CreateCompile queues a compile job. A project without files fails to
// build once the job finishes.
func (s *Store) CreateCompile(projectID int) (cloud.Compile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[projectID]; !ok {
		return cloud.Compile{}, ErrProjectNotFound
	}

	job := &compileJob{
		compile: cloud.Compile{
			CompileID: uuid.New().String(),
			ProjectID: projectID,
			State:     cloud.CompileInQueue,
			Logs:      []string{"Compilation started"},
		},
		started: s.now(),
	}
	s.compiles[job.compile.CompileID] = job
	return s.compileView(job), nil
}

// Compile returns the current view of a compile job
func (s *Store) Compile(compileID string) (cloud.Compile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.compiles[compileID]
	if !ok {
		return cloud.Compile{}, ErrCompileNotFound
	}
	return s.compileView(job), nil
}

func (s *Store) compileView(job *compileJob) cloud.Compile {
	c := job.compile
	c.Logs = append([]string(nil), job.compile.Logs...)
	if s.now().Sub(job.started) < s.compileDuration {
		return c
	}

	if len(s.files[c.ProjectID]) == 0 {
		c.State = cloud.CompileBuildError
		c.Logs = append(c.Logs, "Build failed: project has no files")
		return c
	}
	c.State = cloud.CompileBuildSuccess
	c.Logs = append(c.Logs, "Compilation completed successfully")
	return c
}

// CreateBacktest starts a backtest of a project
func (s *Store) CreateBacktest(projectID int, compileID, name string) (cloud.Backtest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[projectID]; !ok {
		return cloud.Backtest{}, ErrProjectNotFound
	}
	if name == "" {
		name = "Untitled Backtest"
	}

	now := s.now()
	job := &backtestJob{
		backtest: cloud.Backtest{
			BacktestID: uuid.New().String(),
			ProjectID:  projectID,
			CompileID:  compileID,
			Name:       name,
			Created:    cloud.NewTimestamp(now),
		},
		started: now,
	}
	s.backtests[job.backtest.BacktestID] = job
	return s.backtestView(job), nil
}

// Backtest returns the current view of a backtest
func (s *Store) Backtest(backtestID string) (cloud.Backtest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.backtests[backtestID]
	if !ok {
		return cloud.Backtest{}, ErrBacktestNotFound
	}
	return s.backtestView(job), nil
}

// Backtests returns the backtests of a project ordered by creation
func (s *Store) Backtests(projectID int) ([]cloud.Backtest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.projects[projectID]; !ok {
		return nil, ErrProjectNotFound
	}

	out := []cloud.Backtest{}
	for _, job := range s.backtests {
		if job.backtest.ProjectID == projectID {
			out = append(out, s.backtestView(job))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created.Before(out[j].Created.Time) })
	return out, nil
}

// UpdateBacktest changes the name and note of a backtest
func (s *Store) UpdateBacktest(backtestID, name, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.backtests[backtestID]
	if !ok {
		return ErrBacktestNotFound
	}
	if name != "" {
		job.backtest.Name = name
	}
	if note != "" {
		job.backtest.Note = note
	}
	return nil
}

// DeleteBacktest removes a backtest
func (s *Store) DeleteBacktest(backtestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.backtests[backtestID]; !ok {
		return ErrBacktestNotFound
	}
	delete(s.backtests, backtestID)
	return nil
}

func (s *Store) backtestView(job *backtestJob) cloud.Backtest {
	b := job.backtest
	result := emptyResult()

	elapsed := s.now().Sub(job.started)
	if s.backtestDuration > 0 && elapsed < s.backtestDuration {
		// progress advances in tenths
		b.Progress = float64(int(10*elapsed/s.backtestDuration)) / 10
		b.Result = result
		return b
	}

	b.Completed = true
	b.Progress = 1
	result.TotalPerformance = cloud.Performance{
		TradeStatistics:     cloud.TradeStatistics{TotalNumberOfTrades: 25, WinRate: 0.68},
		PortfolioStatistics: cloud.PortfolioStatistics{TotalNetProfit: 0.15, SharpeRatio: 1.2},
	}
	result.Statistics = map[string]string{
		"Total Trades": "25",
		"Win Rate":     "68%",
		"Net Profit":   "15%",
		"Sharpe Ratio": "1.2",
	}
	b.Result = result
	return b
}

func emptyResult() *cloud.BacktestResult {
	return &cloud.BacktestResult{
		Charts:     map[string]any{},
		Orders:     map[string]any{},
		Statistics: map[string]string{},
	}
}

// CreateLive records a running deployment of a project
func (s *Store) CreateLive(req cloud.CreateLiveRequest) (cloud.LiveAlgorithm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[req.ProjectID]; !ok {
		return cloud.LiveAlgorithm{}, ErrProjectNotFound
	}

	a := &cloud.LiveAlgorithm{
		ProjectID:  req.ProjectID,
		DeployID:   uuid.New().String(),
		CompileID:  req.CompileID,
		ServerType: req.ServerType,
		Brokerage:  req.BaseLiveAlgorithmSettings.ID,
		Status:     cloud.LiveRunning,
		Launched:   cloud.NewTimestamp(s.now()),
	}
	s.live[a.DeployID] = a
	return *a, nil
}

// LiveAlgorithms returns deployments matching every non-empty filter,
// oldest first
func (s *Store) LiveAlgorithms(filter cloud.ReadLiveRequest) []cloud.LiveAlgorithm {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []cloud.LiveAlgorithm{}
	for _, a := range s.live {
		if filter.ProjectID != 0 && a.ProjectID != filter.ProjectID {
			continue
		}
		if filter.DeployID != "" && a.DeployID != filter.DeployID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Launched.Before(out[j].Launched.Time) })
	return out
}

// SetLiveStatus moves the running deployments of a project to status
func (s *Store) SetLiveStatus(projectID int, status cloud.LiveStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[projectID]; !ok {
		return ErrProjectNotFound
	}

	now := s.now()
	for _, a := range s.live {
		if a.ProjectID != projectID || a.Status != cloud.LiveRunning {
			continue
		}
		a.Status = status
		stopped := cloud.NewTimestamp(now)
		a.Stopped = &stopped
	}
	return nil
}

// touch must be called with the write lock held
func (s *Store) touch(projectID int) {
	if p, ok := s.projects[projectID]; ok {
		p.Modified = cloud.NewTimestamp(s.now())
	}
}

func indexOfFile(files []cloud.ProjectFile, name string) int {
	for i := range files {
		if files[i].Name == name {
			return i
		}
	}
	return -1
}

func cloneFiles(files []cloud.ProjectFile) []cloud.ProjectFile {
	return append([]cloud.ProjectFile{}, files...)
}
