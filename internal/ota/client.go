package ota

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/expo-open-ota/eoas/internal/credentials"
)

const (
	// maxRetries is the number of retries after the first attempt.
	maxRetries             = 3
	defaultInitialInterval = 500 * time.Millisecond

	cacheControl = "max-age=31556926"
)

// HTTPClient implements Client using net/http.
type HTTPClient struct {
	BaseURL     string
	Credentials credentials.Credentials
	client      *http.Client

	// initialInterval is the delay before the first retry; it doubles on
	// every further retry.
	initialInterval time.Duration
}

// NewHTTPClient creates a client for the update server at baseURL.
func NewHTTPClient(baseURL string, creds credentials.Credentials) *HTTPClient {
	return &HTTPClient{
		BaseURL:         strings.TrimRight(baseURL, "/"),
		Credentials:     creds,
		client:          &http.Client{},
		initialInterval: defaultInitialInterval,
	}
}

// RequestUploadURLs announces a new update and returns one upload slot per
// file.
func (c *HTTPClient) RequestUploadURLs(ctx context.Context, branch string, req UploadURLsRequest) (*UploadURLsResponse, error) {
	params := url.Values{}
	params.Set("runtimeVersion", req.RuntimeVersion)
	params.Set("platform", string(req.Platform))
	params.Set("commitHash", req.CommitHash)
	path := "/requestUploadUrl/" + url.PathEscape(branch) + "?" + params.Encode()

	body := map[string][]string{"fileNames": req.FileNames}
	resp, err := c.doJSONRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}

	var result UploadURLsResponse
	if err := decodeResponse(resp, &result); err != nil {
		return nil, fmt.Errorf("Failed to request upload URL: %w", err)
	}
	return &result, nil
}

// UploadFile uploads localPath to the slot. Slots on the server's own
// storage take an authenticated multipart form; anything else is a signed
// URL that takes the raw bytes.
func (c *HTTPClient) UploadFile(ctx context.Context, item UploadRequest, localPath, ext string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("Failed to read file %s: %w", item.FilePath, err)
	}

	var build func() (*http.Request, error)
	if c.isLocalUpload(item.RequestUploadURL) {
		build = func() (*http.Request, error) {
			return c.multipartRequest(ctx, item, localPath, data)
		}
	} else {
		build = func() (*http.Request, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodPut, item.RequestUploadURL, bytes.NewReader(data))
			if err != nil {
				return nil, fmt.Errorf("creating upload request: %w", err)
			}
			req.Header.Set("Content-Type", contentTypeFor(ext))
			req.Header.Set("Cache-Control", cacheControl)
			return req, nil
		}
	}

	resp, err := c.doWithRetry(ctx, build)
	if err != nil {
		return fmt.Errorf("uploading %s: %w", item.FilePath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload of %s failed with HTTP %d: %s", item.FilePath, resp.StatusCode, string(respBody))
	}
	return nil
}

func (c *HTTPClient) isLocalUpload(uploadURL string) bool {
	return strings.HasPrefix(uploadURL, c.BaseURL+"/uploadLocalFile")
}

func (c *HTTPClient) multipartRequest(ctx context.Context, item UploadRequest, localPath string, data []byte) (*http.Request, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile(item.FileName, filepath.Base(localPath))
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("writing form file: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("closing form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, item.RequestUploadURL, &body)
	if err != nil {
		return nil, fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	c.setAuth(req)
	return req, nil
}

// contentTypeFor maps a file extension to its MIME type.
func contentTypeFor(ext string) string {
	if ext != "" {
		if t := mime.TypeByExtension("." + strings.TrimPrefix(ext, ".")); t != "" {
			return t
		}
	}
	return "application/octet-stream"
}

// MarkUpdateAsUploaded finalizes an update. HTTP 406 means the server found
// an identical update and dropped this one.
func (c *HTTPClient) MarkUpdateAsUploaded(ctx context.Context, branch string, req MarkRequest) (MarkResult, error) {
	params := url.Values{}
	params.Set("platform", string(req.Platform))
	params.Set("updateId", req.UpdateID)
	params.Set("runtimeVersion", req.RuntimeVersion)
	path := "/markUpdateAsUploaded/" + url.PathEscape(branch) + "?" + params.Encode()

	resp, err := c.doRequest(ctx, http.MethodPost, path, true)
	if err != nil {
		return MarkError, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return MarkDeployed, nil
	case resp.StatusCode == http.StatusNotAcceptable:
		return MarkIdentical, nil
	default:
		body, _ := io.ReadAll(resp.Body)
		return MarkError, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
}

// Rollback points the branch back at the embedded update.
func (c *HTTPClient) Rollback(ctx context.Context, branch string, req RollbackRequest) error {
	params := url.Values{}
	params.Set("commitHash", req.CommitHash)
	params.Set("channel", req.Channel)
	params.Set("platform", string(req.Platform))
	params.Set("runtimeVersion", req.RuntimeVersion)
	path := "/rollback/" + url.PathEscape(branch) + "?" + params.Encode()

	resp, err := c.doRequest(ctx, http.MethodPost, path, false)
	if err != nil {
		return err
	}
	return decodeResponse(resp, nil)
}

// Republish makes an earlier update the latest one again.
func (c *HTTPClient) Republish(ctx context.Context, branch string, req RepublishRequest) error {
	params := url.Values{}
	params.Set("platform", string(req.Platform))
	params.Set("runtimeVersion", req.RuntimeVersion)
	params.Set("updateId", req.UpdateID)
	params.Set("commitHash", req.CommitHash)
	path := "/republish/" + url.PathEscape(branch) + "?" + params.Encode()

	resp, err := c.doRequest(ctx, http.MethodPost, path, true)
	if err != nil {
		return err
	}
	return decodeResponse(resp, nil)
}

// ListBranches returns the branches known to the server.
func (c *HTTPClient) ListBranches(ctx context.Context) ([]Branch, error) {
	var result []Branch
	if err := c.getDashboard(ctx, "/api/branches", &result); err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}
	return result, nil
}

// ListRuntimeVersions returns the runtime versions published on branch.
func (c *HTTPClient) ListRuntimeVersions(ctx context.Context, branch string) ([]RuntimeVersion, error) {
	var result []RuntimeVersion
	path := "/api/branch/" + url.PathEscape(branch) + "/runtimeVersions"
	if err := c.getDashboard(ctx, path, &result); err != nil {
		return nil, fmt.Errorf("Failed to fetch runtime versions: %w", err)
	}
	return result, nil
}

// ListUpdates returns the updates of one runtime version on branch.
func (c *HTTPClient) ListUpdates(ctx context.Context, branch, runtimeVersion string) ([]Update, error) {
	var result []Update
	path := "/api/branch/" + url.PathEscape(branch) + "/runtimeVersion/" + url.PathEscape(runtimeVersion) + "/updates"
	if err := c.getDashboard(ctx, path, &result); err != nil {
		return nil, fmt.Errorf("Failed to fetch updates: %w", err)
	}
	return result, nil
}

// GetSettings returns the server's public settings.
func (c *HTTPClient) GetSettings(ctx context.Context) (map[string]string, error) {
	var result map[string]string
	if err := c.getDashboard(ctx, "/api/settings", &result); err != nil {
		return nil, fmt.Errorf("getting settings: %w", err)
	}
	return result, nil
}

// HealthCheck calls GET /hc.
func (c *HTTPClient) HealthCheck(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodGet, "/hc", false)
	if err != nil {
		return err
	}
	return decodeResponse(resp, nil)
}

// getDashboard performs a dashboard read. The server validates these with
// the Expo account behind the credentials.
func (c *HTTPClient) getDashboard(ctx context.Context, path string, v interface{}) error {
	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := c.newRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("use-expo-auth", "true")
		return req, nil
	})
	if err != nil {
		return err
	}
	return decodeResponse(resp, v)
}

func (c *HTTPClient) doJSONRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request body: %w", err)
	}

	return c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := c.newRequest(ctx, method, path, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
}

func (c *HTTPClient) doRequest(ctx context.Context, method, path string, jsonContent bool) (*http.Response, error) {
	return c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := c.newRequest(ctx, method, path, nil)
		if err != nil {
			return nil, err
		}
		if jsonContent {
			req.Header.Set("Content-Type", "application/json")
		}
		return req, nil
	})
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	c.setAuth(req)
	return req, nil
}

func (c *HTTPClient) setAuth(req *http.Request) {
	for k, v := range c.Credentials.Headers() {
		req.Header.Set(k, v)
	}
}

func decodeResponse(resp *http.Response, v interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
