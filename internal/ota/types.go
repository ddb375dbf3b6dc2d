package ota

import (
	"encoding/json"
	"fmt"

	"github.com/expo-open-ota/eoas/internal/expoconfig"
)

// UploadRequest is one file upload slot handed out by the server.
type UploadRequest struct {
	RequestUploadURL string `json:"requestUploadUrl"`
	FileName         string `json:"fileName"`
	FilePath         string `json:"filePath"`
}

// UploadURLsRequest holds the parameters for requesting upload URLs.
type UploadURLsRequest struct {
	RuntimeVersion string
	Platform       expoconfig.Platform
	CommitHash     string
	FileNames      []string
}

// UploadURLsResponse is returned by POST /requestUploadUrl/{branch}. The
// server encodes updateId as a number; it is kept verbatim.
type UploadURLsResponse struct {
	UpdateID       json.Number     `json:"updateId"`
	UploadRequests []UploadRequest `json:"uploadRequests"`
}

// MarkRequest identifies the update to finalize.
type MarkRequest struct {
	Platform       expoconfig.Platform
	UpdateID       string
	RuntimeVersion string
}

// MarkResult is the outcome of finalizing one platform's update.
type MarkResult string

const (
	MarkDeployed  MarkResult = "deployed"
	MarkIdentical MarkResult = "identical"
	MarkError     MarkResult = "error"
)

// RollbackRequest holds the parameters of a rollback to the embedded update.
type RollbackRequest struct {
	CommitHash     string
	Channel        string
	Platform       expoconfig.Platform
	RuntimeVersion string
}

// RepublishRequest points a branch back at an earlier update.
type RepublishRequest struct {
	Platform       expoconfig.Platform
	RuntimeVersion string
	UpdateID       string
	CommitHash     string
}

// Branch is an entry of GET /api/branches.
type Branch struct {
	BranchName     string  `json:"branchName"`
	BranchID       *string `json:"branchId,omitempty"`
	ReleaseChannel *string `json:"releaseChannel,omitempty"`
}

// RuntimeVersion is an entry of GET /api/branch/{branch}/runtimeVersions.
type RuntimeVersion struct {
	RuntimeVersion  string `json:"runtimeVersion"`
	LastUpdatedAt   string `json:"lastUpdatedAt"`
	CreatedAt       string `json:"createdAt"`
	NumberOfUpdates int    `json:"numberOfUpdates"`
}

// Update is an entry of GET /api/branch/{branch}/runtimeVersion/{rv}/updates.
type Update struct {
	UpdateUUID string `json:"updateUUID"`
	UpdateID   string `json:"updateId"`
	CreatedAt  string `json:"createdAt"`
	CommitHash string `json:"commitHash"`
	Platform   string `json:"platform"`
}

// RollbackToEmbeddedUUID marks rollback entries in the update list.
const RollbackToEmbeddedUUID = "Rollback to embedded"

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned HTTP %d: %s", e.StatusCode, e.Body)
}
