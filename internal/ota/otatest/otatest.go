// Package otatest provides a function-field fake of ota.Client for tests.
package otatest

import (
	"context"
	"sync"

	"github.com/expo-open-ota/eoas/internal/ota"
)

// Client is an ota.Client whose methods delegate to the matching func
// field. Unset fields succeed with zero values; uploads are recorded.
type Client struct {
	RequestUploadURLsFunc    func(branch string, req ota.UploadURLsRequest) (*ota.UploadURLsResponse, error)
	UploadFileFunc           func(item ota.UploadRequest, localPath, ext string) error
	MarkUpdateAsUploadedFunc func(branch string, req ota.MarkRequest) (ota.MarkResult, error)
	RollbackFunc             func(branch string, req ota.RollbackRequest) error
	RepublishFunc            func(branch string, req ota.RepublishRequest) error
	ListBranchesFunc         func() ([]ota.Branch, error)
	ListRuntimeVersionsFunc  func(branch string) ([]ota.RuntimeVersion, error)
	ListUpdatesFunc          func(branch, runtimeVersion string) ([]ota.Update, error)
	GetSettingsFunc          func() (map[string]string, error)
	HealthCheckFunc          func() error

	mu       sync.Mutex
	Uploaded []ota.UploadRequest
}

var _ ota.Client = (*Client)(nil)

func (c *Client) RequestUploadURLs(_ context.Context, branch string, req ota.UploadURLsRequest) (*ota.UploadURLsResponse, error) {
	if c.RequestUploadURLsFunc != nil {
		return c.RequestUploadURLsFunc(branch, req)
	}
	return &ota.UploadURLsResponse{UpdateID: "1"}, nil
}

func (c *Client) UploadFile(_ context.Context, item ota.UploadRequest, localPath, ext string) error {
	c.mu.Lock()
	c.Uploaded = append(c.Uploaded, item)
	c.mu.Unlock()
	if c.UploadFileFunc != nil {
		return c.UploadFileFunc(item, localPath, ext)
	}
	return nil
}

func (c *Client) MarkUpdateAsUploaded(_ context.Context, branch string, req ota.MarkRequest) (ota.MarkResult, error) {
	if c.MarkUpdateAsUploadedFunc != nil {
		return c.MarkUpdateAsUploadedFunc(branch, req)
	}
	return ota.MarkDeployed, nil
}

func (c *Client) Rollback(_ context.Context, branch string, req ota.RollbackRequest) error {
	if c.RollbackFunc != nil {
		return c.RollbackFunc(branch, req)
	}
	return nil
}

func (c *Client) Republish(_ context.Context, branch string, req ota.RepublishRequest) error {
	if c.RepublishFunc != nil {
		return c.RepublishFunc(branch, req)
	}
	return nil
}

func (c *Client) ListBranches(_ context.Context) ([]ota.Branch, error) {
	if c.ListBranchesFunc != nil {
		return c.ListBranchesFunc()
	}
	return nil, nil
}

func (c *Client) ListRuntimeVersions(_ context.Context, branch string) ([]ota.RuntimeVersion, error) {
	if c.ListRuntimeVersionsFunc != nil {
		return c.ListRuntimeVersionsFunc(branch)
	}
	return nil, nil
}

func (c *Client) ListUpdates(_ context.Context, branch, runtimeVersion string) ([]ota.Update, error) {
	if c.ListUpdatesFunc != nil {
		return c.ListUpdatesFunc(branch, runtimeVersion)
	}
	return nil, nil
}

func (c *Client) GetSettings(_ context.Context) (map[string]string, error) {
	if c.GetSettingsFunc != nil {
		return c.GetSettingsFunc()
	}
	return map[string]string{}, nil
}

func (c *Client) HealthCheck(_ context.Context) error {
	if c.HealthCheckFunc != nil {
		return c.HealthCheckFunc()
	}
	return nil
}

// UploadCount returns the number of UploadFile calls.
func (c *Client) UploadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Uploaded)
}
