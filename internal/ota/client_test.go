package ota

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/expo-open-ota/eoas/internal/credentials"
	"github.com/expo-open-ota/eoas/internal/expoconfig"
)

func newTestClient(url string) *HTTPClient {
	c := NewHTTPClient(url, credentials.Credentials{Token: "test-token"})
	c.initialInterval = time.Millisecond
	return c
}

// dropConnection closes the connection without writing a response.
func dropConnection(t *testing.T, w http.ResponseWriter) {
	t.Helper()
	conn, _, err := w.(http.Hijacker).Hijack()
	if err != nil {
		t.Fatalf("hijack: %v", err)
	}
	conn.Close()
}

func TestHTTPClientRequestUploadURLs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: got %s, want POST", r.Method)
		}
		if r.URL.Path != "/requestUploadUrl/main" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("runtimeVersion") != "1.0.0" || q.Get("platform") != "ios" || q.Get("commitHash") != "abc" {
			t.Errorf("query: got %q", r.URL.RawQuery)
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("auth header: got %q", r.Header.Get("Authorization"))
		}

		var body map[string][]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if strings.Join(body["fileNames"], ",") != "metadata.json,bundles/ios.hbc" {
			t.Errorf("fileNames: got %v", body["fileNames"])
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"updateId":42,"uploadRequests":[{"requestUploadUrl":"https://s3/put","fileName":"ios.hbc","filePath":"bundles/ios.hbc"}]}`))
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL).RequestUploadURLs(context.Background(), "main", UploadURLsRequest{
		RuntimeVersion: "1.0.0",
		Platform:       expoconfig.PlatformIOS,
		CommitHash:     "abc",
		FileNames:      []string{"metadata.json", "bundles/ios.hbc"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.UpdateID.String() != "42" {
		t.Errorf("updateId: got %q, want 42", resp.UpdateID)
	}
	if len(resp.UploadRequests) != 1 || resp.UploadRequests[0].FilePath != "bundles/ios.hbc" {
		t.Errorf("uploadRequests: got %+v", resp.UploadRequests)
	}
}

func TestHTTPClientUploadFile(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "ios.hbc")
	if err := os.WriteFile(local, []byte("bundle"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("local bucket uses an authenticated multipart form", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut {
				t.Errorf("method: got %s, want PUT", r.Method)
			}
			if r.Header.Get("Authorization") != "Bearer test-token" {
				t.Errorf("auth header: got %q", r.Header.Get("Authorization"))
			}
			if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
				t.Errorf("content type: got %q", r.Header.Get("Content-Type"))
			}
			file, _, err := r.FormFile("ios.hbc")
			if err != nil {
				t.Fatalf("form file: %v", err)
			}
			data, _ := io.ReadAll(file)
			if string(data) != "bundle" {
				t.Errorf("file content: got %q", data)
			}
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		item := UploadRequest{RequestUploadURL: server.URL + "/uploadLocalFile?key=1", FileName: "ios.hbc", FilePath: "bundles/ios.hbc"}
		if err := client.UploadFile(context.Background(), item, local, "hbc"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("signed url gets raw bytes without auth", func(t *testing.T) {
		storage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "" {
				t.Errorf("signed upload must not carry auth, got %q", r.Header.Get("Authorization"))
			}
			if r.Header.Get("Content-Type") != "image/png" {
				t.Errorf("content type: got %q", r.Header.Get("Content-Type"))
			}
			if r.Header.Get("Cache-Control") != "max-age=31556926" {
				t.Errorf("cache control: got %q", r.Header.Get("Cache-Control"))
			}
			data, _ := io.ReadAll(r.Body)
			if string(data) != "bundle" {
				t.Errorf("body: got %q", data)
			}
		}))
		defer storage.Close()

		client := newTestClient("https://ota.example.com")
		item := UploadRequest{RequestUploadURL: storage.URL + "/signed", FileName: "icon", FilePath: "assets/icon"}
		if err := client.UploadFile(context.Background(), item, local, "png"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("non-2xx includes the body", func(t *testing.T) {
		storage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte("signature expired"))
		}))
		defer storage.Close()

		client := newTestClient("https://ota.example.com")
		err := client.UploadFile(context.Background(), UploadRequest{RequestUploadURL: storage.URL, FilePath: "a"}, local, "")
		if err == nil || !strings.Contains(err.Error(), "signature expired") {
			t.Errorf("expected error with body, got %v", err)
		}
	})
}

func TestContentTypeFor(t *testing.T) {
	tests := map[string]string{
		"png":  "image/png",
		".png": "image/png",
		"json": "application/json",
		"":     "application/octet-stream",
		"hbc":  "application/octet-stream",
	}
	for ext, want := range tests {
		if got := contentTypeFor(ext); got != want {
			t.Errorf("contentTypeFor(%q): got %q, want %q", ext, got, want)
		}
	}
}

func TestHTTPClientMarkUpdateAsUploaded(t *testing.T) {
	tests := []struct {
		status  int
		want    MarkResult
		wantErr bool
	}{
		{http.StatusOK, MarkDeployed, false},
		{http.StatusNotAcceptable, MarkIdentical, false},
		{http.StatusInternalServerError, MarkError, true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/markUpdateAsUploaded/main" {
					t.Errorf("path: got %q", r.URL.Path)
				}
				if r.URL.Query().Get("updateId") != "7" {
					t.Errorf("updateId: got %q", r.URL.Query().Get("updateId"))
				}
				w.WriteHeader(tt.status)
				w.Write([]byte("boom"))
			}))
			defer server.Close()

			got, err := newTestClient(server.URL).MarkUpdateAsUploaded(context.Background(), "main", MarkRequest{
				Platform: expoconfig.PlatformAndroid, UpdateID: "7", RuntimeVersion: "1",
			})
			if got != tt.want {
				t.Errorf("result: got %q, want %q", got, tt.want)
			}
			if tt.wantErr {
				var statusErr *StatusError
				if !errors.As(err, &statusErr) || statusErr.Body != "boom" {
					t.Errorf("expected StatusError with body, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestHTTPClientRollbackAndRepublish(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path+"?"+r.URL.RawQuery)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.Rollback(context.Background(), "release/1", RollbackRequest{
		CommitHash: "abc", Channel: "production", Platform: expoconfig.PlatformIOS, RuntimeVersion: "1.0.0",
	})
	if err != nil {
		t.Fatalf("rollback: %v", err)
	}
	err = client.Republish(context.Background(), "main", RepublishRequest{
		Platform: expoconfig.PlatformAndroid, RuntimeVersion: "2", UpdateID: "9", CommitHash: "def",
	})
	if err != nil {
		t.Fatalf("republish: %v", err)
	}

	want := []string{
		"/rollback/release/1?channel=production&commitHash=abc&platform=ios&runtimeVersion=1.0.0",
		"/republish/main?commitHash=def&platform=android&runtimeVersion=2&updateId=9",
	}
	if strings.Join(paths, "\n") != strings.Join(want, "\n") {
		t.Errorf("requests:\ngot  %v\nwant %v", paths, want)
	}
}

func TestHTTPClientDashboardReads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("use-expo-auth") != "true" {
			t.Errorf("use-expo-auth: got %q", r.Header.Get("use-expo-auth"))
		}
		if r.Method != http.MethodGet {
			t.Errorf("method: got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/branches":
			w.Write([]byte(`[{"branchName":"main","releaseChannel":"production"},{"branchName":"dev"}]`))
		case "/api/branch/main/runtimeVersions":
			w.Write([]byte(`[{"runtimeVersion":"1.0.0","lastUpdatedAt":"b","createdAt":"a","numberOfUpdates":3}]`))
		case "/api/branch/main/runtimeVersion/1.0.0/updates":
			w.Write([]byte(`[{"updateUUID":"u-1","updateId":"5","createdAt":"c","commitHash":"abc","platform":"ios"}]`))
		case "/api/settings":
			w.Write([]byte(`{"BASE_URL":"https://ota.example.com"}`))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ctx := context.Background()

	branches, err := client.ListBranches(ctx)
	if err != nil {
		t.Fatalf("branches: %v", err)
	}
	if len(branches) != 2 || branches[0].ReleaseChannel == nil || *branches[0].ReleaseChannel != "production" || branches[1].ReleaseChannel != nil {
		t.Errorf("branches: got %+v", branches)
	}

	rvs, err := client.ListRuntimeVersions(ctx, "main")
	if err != nil {
		t.Fatalf("runtime versions: %v", err)
	}
	if len(rvs) != 1 || rvs[0].NumberOfUpdates != 3 {
		t.Errorf("runtime versions: got %+v", rvs)
	}

	updates, err := client.ListUpdates(ctx, "main", "1.0.0")
	if err != nil {
		t.Fatalf("updates: %v", err)
	}
	if len(updates) != 1 || updates[0].UpdateUUID != "u-1" || updates[0].CommitHash != "abc" {
		t.Errorf("updates: got %+v", updates)
	}

	settings, err := client.GetSettings(ctx)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if settings["BASE_URL"] != "https://ota.example.com" {
		t.Errorf("settings: got %v", settings)
	}
}

func TestHTTPClientSessionSecretHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("expo-session") != "secret" {
			t.Errorf("expo-session: got %q", r.Header.Get("expo-session"))
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("authorization should be unset, got %q", r.Header.Get("Authorization"))
		}
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, credentials.Credentials{SessionSecret: "secret"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHTTPClientRetry(t *testing.T) {
	t.Run("succeeds after three transport failures", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) <= 3 {
				dropConnection(t, w)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		res, err := newTestClient(server.URL).MarkUpdateAsUploaded(context.Background(), "main", MarkRequest{Platform: expoconfig.PlatformIOS})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res != MarkDeployed {
			t.Errorf("result: got %q", res)
		}
		if calls.Load() != 4 {
			t.Errorf("calls: got %d, want 4", calls.Load())
		}
	})

	t.Run("gives up after four attempts", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			dropConnection(t, w)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).MarkUpdateAsUploaded(context.Background(), "main", MarkRequest{Platform: expoconfig.PlatformIOS})
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if calls.Load() != 4 {
			t.Errorf("calls: got %d, want 4", calls.Load())
		}
	})

	t.Run("does not retry HTTP errors", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		if err := newTestClient(server.URL).HealthCheck(context.Background()); err == nil {
			t.Fatal("expected error, got nil")
		}
		if calls.Load() != 1 {
			t.Errorf("calls: got %d, want 1", calls.Load())
		}
	})
}

func TestResolveReleaseChannel(t *testing.T) {
	channel := "production"
	branches := []Branch{{BranchName: "main", ReleaseChannel: &channel}, {BranchName: "dev"}}
	client := &fakeBranches{branches: branches}

	got, err := ResolveReleaseChannel(context.Background(), client, "main")
	if err != nil || got != "production" {
		t.Errorf("main: got %q, %v", got, err)
	}

	_, err = ResolveReleaseChannel(context.Background(), client, "dev")
	if err == nil || err.Error() != "Branch dev does not have a release channel linked" {
		t.Errorf("dev: got %v", err)
	}

	_, err = ResolveReleaseChannel(context.Background(), client, "missing")
	if err == nil || err.Error() != "Branch missing not found" {
		t.Errorf("missing: got %v", err)
	}

	client.err = &StatusError{StatusCode: 500, Body: "db down"}
	_, err = ResolveReleaseChannel(context.Background(), client, "main")
	if err == nil || err.Error() != "Failed to retrieve branches from server: db down" {
		t.Errorf("server error: got %v", err)
	}
}

type fakeBranches struct {
	Client
	branches []Branch
	err      error
}

func (f *fakeBranches) ListBranches(context.Context) ([]Branch, error) {
	return f.branches, f.err
}
