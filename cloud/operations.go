package cloud

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultPollInterval = time.Second
	DefaultPollAttempts = 30
)

// BacktestPlan describes a project to create, compile and backtest
type BacktestPlan struct {
	ProjectName  string
	Language     Language
	Files        []ProjectFile
	BacktestName string
}

// BacktestRun collects everything produced by RunBacktest
type BacktestRun struct {
	Project  *Project
	Compile  *Compile
	Backtest *Backtest
}

// Operations drives multi-step workflows against the API
type Operations struct {
	api          API
	logger       zerolog.Logger
	pollInterval time.Duration
	pollAttempts int
	formatter    *ConsoleFormatter
}

// NewOperations creates a new Operations instance
func NewOperations(api API, logger zerolog.Logger) *Operations {
	return &Operations{
		api:          api,
		logger:       logger,
		pollInterval: DefaultPollInterval,
		pollAttempts: DefaultPollAttempts,
		formatter:    NewConsoleFormatter(),
	}
}

// SetPolling sets how often and how many times jobs are polled
func (o *Operations) SetPolling(interval time.Duration, attempts int) {
	if interval > 0 {
		o.pollInterval = interval
	}
	if attempts > 0 {
		o.pollAttempts = attempts
	}
}

// Formatter returns the formatter used for workflow summaries
func (o *Operations) Formatter() *ConsoleFormatter {
	return o.formatter
}

// RunBacktest creates the project of plan, uploads its files, compiles it
// and runs a backtest, waiting for each job to finish.
func (o *Operations) RunBacktest(ctx context.Context, plan BacktestPlan) (*BacktestRun, error) {
	if strings.TrimSpace(plan.ProjectName) == "" {
		return nil, fmt.Errorf("project name is required")
	}
	if plan.Language == "" {
		plan.Language = LanguagePython
	}
	if plan.BacktestName == "" {
		plan.BacktestName = plan.ProjectName + " backtest"
	}

	run := &BacktestRun{}

	project, err := o.api.CreateProject(ctx, CreateProjectRequest{Name: plan.ProjectName, Language: plan.Language})
	if err != nil {
		return run, err
	}
	run.Project = project

	for _, file := range plan.Files {
		if err := o.api.AddProjectFile(ctx, CreateFileRequest{
			ProjectID: project.ProjectID,
			Name:      file.Name,
			Content:   file.Content,
		}); err != nil {
			return run, err
		}
		o.logger.Debug().Str("file", file.Name).Int("project_id", project.ProjectID).Msg("Uploaded file")
	}

	compile, err := o.api.CreateCompile(ctx, project.ProjectID)
	if err != nil {
		return run, err
	}
	run.Compile = compile

	compile, err = o.WaitForCompile(ctx, project.ProjectID, compile.CompileID)
	if compile != nil {
		run.Compile = compile
	}
	if err != nil {
		return run, err
	}

	backtest, err := o.api.CreateBacktest(ctx, CreateBacktestRequest{
		ProjectID:    project.ProjectID,
		CompileID:    compile.CompileID,
		BacktestName: plan.BacktestName,
	})
	if err != nil {
		return run, err
	}
	run.Backtest = backtest

	backtest, err = o.WaitForBacktest(ctx, project.ProjectID, backtest.BacktestID)
	if backtest != nil {
		run.Backtest = backtest
	}
	if err != nil {
		return run, err
	}

	o.logger.Info().
		Str("backtest_id", backtest.BacktestID).
		Int("trades", backtest.Trades()).
		Float64("win_rate", backtest.WinRate()).
		Msg("Backtest completed")
	return run, nil
}

// WaitForCompile polls a compile job until it succeeds or fails
func (o *Operations) WaitForCompile(ctx context.Context, projectID int, compileID string) (*Compile, error) {
	var last *Compile
	err := o.poll(ctx, func() (bool, error) {
		compile, err := o.api.ReadCompile(ctx, projectID, compileID)
		if err != nil {
			return false, err
		}
		last = compile

		o.logger.Debug().Str("compile_id", compileID).Str("state", string(compile.State)).Msg("Compile state")
		return compile.State.IsFinished(), nil
	})
	if err != nil {
		return last, fmt.Errorf("compile %s: %w", compileID, err)
	}

	if last.State == CompileBuildError {
		return last, fmt.Errorf("compile %s: %w: %s", compileID, ErrBuildFailed, strings.Join(last.Logs, "; "))
	}
	return last, nil
}

// WaitForBacktest polls a backtest until it reports completion
func (o *Operations) WaitForBacktest(ctx context.Context, projectID int, backtestID string) (*Backtest, error) {
	var last *Backtest
	err := o.poll(ctx, func() (bool, error) {
		backtest, err := o.api.ReadBacktest(ctx, projectID, backtestID)
		if err != nil {
			return false, err
		}
		last = backtest

		o.logger.Debug().Str("backtest_id", backtestID).Float64("progress", backtest.Progress).Msg("Backtest progress")
		return backtest.Completed, nil
	})
	if err != nil {
		return last, fmt.Errorf("backtest %s: %w", backtestID, err)
	}
	if last.Error != "" {
		return last, fmt.Errorf("backtest %s: %s", backtestID, last.Error)
	}
	return last, nil
}

// poll calls check until it reports done, fails, or the attempt budget is spent
func (o *Operations) poll(ctx context.Context, check func() (bool, error)) error {
	for attempt := 1; ; attempt++ {
		done, err := check()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if attempt >= o.pollAttempts {
			return ErrPollTimeout
		}

		timer := time.NewTimer(o.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
