// Package ota talks to the self-hosted update server and orchestrates the
// upload of an exported update.
package ota

import (
	"context"
)

// Client is the interface for update server operations.
type Client interface {
	RequestUploadURLs(ctx context.Context, branch string, req UploadURLsRequest) (*UploadURLsResponse, error)
	UploadFile(ctx context.Context, item UploadRequest, localPath, ext string) error
	MarkUpdateAsUploaded(ctx context.Context, branch string, req MarkRequest) (MarkResult, error)
	Rollback(ctx context.Context, branch string, req RollbackRequest) error
	Republish(ctx context.Context, branch string, req RepublishRequest) error

	ListBranches(ctx context.Context) ([]Branch, error)
	ListRuntimeVersions(ctx context.Context, branch string) ([]RuntimeVersion, error)
	ListUpdates(ctx context.Context, branch, runtimeVersion string) ([]Update, error)
	GetSettings(ctx context.Context) (map[string]string, error)
	HealthCheck(ctx context.Context) error
}

var _ Client = (*HTTPClient)(nil)
