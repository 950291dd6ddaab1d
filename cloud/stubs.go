package cloud

import (
	"context"
)

// The operations below have no backing endpoint on the bridge. They return
// empty values so engine code written against the full cloud surface keeps
// working.

func (c *Client) unsupported(op string) {
	c.logger.Debug().Str("op", op).Msg("Operation not served by the cloud bridge, returning empty result")
}

// ReadAccount returns an empty account
func (c *Client) ReadAccount(ctx context.Context) (*Account, error) {
	c.unsupported("ReadAccount")
	return &Account{}, nil
}

// ReadOrganization returns an empty organization
func (c *Client) ReadOrganization(ctx context.Context, organizationID string) (*Organization, error) {
	c.unsupported("ReadOrganization")
	return &Organization{ID: organizationID}, nil
}

// ListOptimizations returns no optimizations
func (c *Client) ListOptimizations(ctx context.Context, projectID int) ([]Optimization, error) {
	c.unsupported("ListOptimizations")
	return []Optimization{}, nil
}

// ReadBacktestChart returns an empty chart
func (c *Client) ReadBacktestChart(ctx context.Context, projectID int, backtestID, name string) (*Chart, error) {
	c.unsupported("ReadBacktestChart")
	return &Chart{Name: name}, nil
}

// ReadBacktestInsights returns no insights
func (c *Client) ReadBacktestInsights(ctx context.Context, projectID int, backtestID string) ([]Insight, error) {
	c.unsupported("ReadBacktestInsights")
	return []Insight{}, nil
}

// ReadObjectStore returns no entries
func (c *Client) ReadObjectStore(ctx context.Context, keys []string) ([]ObjectStoreEntry, error) {
	c.unsupported("ReadObjectStore")
	return []ObjectStoreEntry{}, nil
}

// CreateLiveCommand accepts and discards a command for a live algorithm
func (c *Client) CreateLiveCommand(ctx context.Context, projectID int, command map[string]any) error {
	c.unsupported("CreateLiveCommand")
	return nil
}
