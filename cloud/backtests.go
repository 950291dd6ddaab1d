package cloud

import (
	"context"
)

// CreateCompile starts a compile job for a project
func (c *Client) CreateCompile(ctx context.Context, projectID int) (*Compile, error) {
	resp, err := call[CompileResponse](ctx, c, "CreateCompile", "compile/create", ProjectRequest{ProjectID: projectID})
	if err != nil {
		return nil, err
	}

	c.logger.Info().
		Int("project_id", projectID).
		Str("compile_id", resp.CompileID).
		Msg("Compile job started")
	return &resp.Compile, nil
}

// ReadCompile reads the state and logs of a compile job
func (c *Client) ReadCompile(ctx context.Context, projectID int, compileID string) (*Compile, error) {
	resp, err := call[CompileResponse](ctx, c, "ReadCompile", "compile/read", ReadCompileRequest{ProjectID: projectID, CompileID: compileID})
	if err != nil {
		return nil, err
	}
	return &resp.Compile, nil
}

// CreateBacktest starts a backtest of a compiled project
func (c *Client) CreateBacktest(ctx context.Context, req CreateBacktestRequest) (*Backtest, error) {
	resp, err := call[BacktestResponse](ctx, c, "CreateBacktest", "backtests/create", req)
	if err != nil {
		return nil, err
	}

	c.logger.Info().
		Int("project_id", req.ProjectID).
		Str("backtest_id", resp.BacktestID).
		Str("name", resp.Name).
		Msg("Backtest started")
	return &resp.Backtest, nil
}

// ReadBacktest reads the progress and result of a backtest
func (c *Client) ReadBacktest(ctx context.Context, projectID int, backtestID string) (*Backtest, error) {
	resp, err := call[BacktestResponse](ctx, c, "ReadBacktest", "backtests/read", ReadBacktestRequest{ProjectID: projectID, BacktestID: backtestID})
	if err != nil {
		return nil, err
	}
	return &resp.Backtest, nil
}

// ListBacktests lists the backtests of a project
func (c *Client) ListBacktests(ctx context.Context, projectID int) ([]Backtest, error) {
	resp, err := call[BacktestListResponse](ctx, c, "ListBacktests", "backtests/read", ReadBacktestRequest{ProjectID: projectID})
	if err != nil {
		return nil, err
	}

	c.logger.Debug().Int("project_id", projectID).Msgf("Retrieved %d backtests", len(resp.Backtests))
	return resp.Backtests, nil
}

// UpdateBacktest renames a backtest or changes its note
func (c *Client) UpdateBacktest(ctx context.Context, req UpdateBacktestRequest) error {
	_, err := call[RestResponse](ctx, c, "UpdateBacktest", "backtests/update", req)
	return err
}

// DeleteBacktest deletes a backtest
func (c *Client) DeleteBacktest(ctx context.Context, projectID int, backtestID string) error {
	_, err := call[RestResponse](ctx, c, "DeleteBacktest", "backtests/delete", BacktestRequest{ProjectID: projectID, BacktestID: backtestID})
	return err
}

// ReadBacktestReport returns the rendered HTML report of a backtest
func (c *Client) ReadBacktestReport(ctx context.Context, projectID int, backtestID string) (string, error) {
	resp, err := call[BacktestReportResponse](ctx, c, "ReadBacktestReport", "backtests/read/report", BacktestRequest{ProjectID: projectID, BacktestID: backtestID})
	if err != nil {
		return "", err
	}
	return resp.Report, nil
}
