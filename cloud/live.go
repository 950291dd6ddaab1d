package cloud

import (
	"context"
	"fmt"
)

// CreateLiveAlgorithm deploys a compiled project
func (c *Client) CreateLiveAlgorithm(ctx context.Context, req CreateLiveRequest) (*LiveAlgorithm, error) {
	resp, err := call[LiveAlgorithmResponse](ctx, c, "CreateLiveAlgorithm", "live/create", req)
	if err != nil {
		return nil, err
	}

	c.logger.Info().
		Int("project_id", req.ProjectID).
		Str("deploy_id", resp.DeployID).
		Str("server_type", req.ServerType).
		Msg("Live algorithm deployed")
	return &resp.LiveAlgorithm, nil
}

// ReadLiveAlgorithm reads a single deployment
func (c *Client) ReadLiveAlgorithm(ctx context.Context, projectID int, deployID string) (*LiveAlgorithm, error) {
	resp, err := call[LiveListResponse](ctx, c, "ReadLiveAlgorithm", "live/read", ReadLiveRequest{ProjectID: projectID, DeployID: deployID})
	if err != nil {
		return nil, err
	}

	for i := range resp.Algorithms {
		if deployID == "" || resp.Algorithms[i].DeployID == deployID {
			return &resp.Algorithms[i], nil
		}
	}
	return nil, &OperationError{Op: "ReadLiveAlgorithm", Endpoint: "live/read", Message: fmt.Sprintf("deployment %s not found", deployID)}
}

// ListLiveAlgorithms lists deployments matching req
func (c *Client) ListLiveAlgorithms(ctx context.Context, req ReadLiveRequest) ([]LiveAlgorithm, error) {
	resp, err := call[LiveListResponse](ctx, c, "ListLiveAlgorithms", "live/read", req)
	if err != nil {
		return nil, err
	}
	return resp.Algorithms, nil
}

// StopLiveAlgorithm stops the live algorithm of a project
func (c *Client) StopLiveAlgorithm(ctx context.Context, projectID int) error {
	if _, err := call[RestResponse](ctx, c, "StopLiveAlgorithm", "live/update/stop", ProjectRequest{ProjectID: projectID}); err != nil {
		return err
	}

	c.logger.Info().Int("project_id", projectID).Msg("Stopped live algorithm")
	return nil
}

// LiquidateLiveAlgorithm liquidates the holdings of a project's live algorithm
func (c *Client) LiquidateLiveAlgorithm(ctx context.Context, projectID int) error {
	if _, err := call[RestResponse](ctx, c, "LiquidateLiveAlgorithm", "live/update/liquidate", ProjectRequest{ProjectID: projectID}); err != nil {
		return err
	}

	c.logger.Info().Int("project_id", projectID).Msg("Liquidated live algorithm")
	return nil
}

// ReadLiveLogs reads log lines of a live algorithm
func (c *Client) ReadLiveLogs(ctx context.Context, req ReadLiveLogRequest) ([]string, error) {
	resp, err := call[LiveLogResponse](ctx, c, "ReadLiveLogs", "live/read/log", req)
	if err != nil {
		return nil, err
	}
	return resp.Logs, nil
}
