package ota

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/expo-open-ota/eoas/internal/assets"
	"github.com/expo-open-ota/eoas/internal/output"
	"github.com/expo-open-ota/eoas/internal/runtimeversion"
)

// ErrNoFiles is returned when there is nothing to upload.
var ErrNoFiles = errors.New("No files to upload")

// errUploadAborted marks uploads skipped after a sibling failed.
var errUploadAborted = errors.New("upload aborted")

// PublishRequest describes one publish of an exported update.
type PublishRequest struct {
	Branch          string
	CommitHash      string
	OutputDir       string
	Assets          []assets.Asset
	RuntimeVersions []runtimeversion.Target
}

// PlatformResult is the outcome of finalizing one platform's update.
type PlatformResult struct {
	Target   runtimeversion.Target
	UpdateID string
	Result   MarkResult
	Err      error
}

// pendingUpdate is a platform whose upload slots were handed out.
type pendingUpdate struct {
	target   runtimeversion.Target
	response *UploadURLsResponse
}

// PublishAssets uploads the exported files once per platform and marks each
// platform's update as uploaded. Request and upload failures are fatal;
// finalize failures are reported per platform.
func PublishAssets(ctx context.Context, client Client, req PublishRequest, out *output.Writer) ([]PlatformResult, error) {
	if len(req.Assets) == 0 {
		return nil, ErrNoFiles
	}

	pending, err := requestUploads(ctx, client, req)
	if err != nil {
		return nil, err
	}

	if err := out.Spinner("Uploading files", func() error {
		return uploadAll(ctx, client, req, pending)
	}); err != nil {
		return nil, fmt.Errorf("Failed to upload static files: %w", err)
	}
	out.Success("Files uploaded successfully")

	results := finalize(ctx, client, req.Branch, pending)
	for _, r := range results {
		switch r.Result {
		case MarkDeployed:
			out.Info("Update ready for %s", r.Target.Platform)
		case MarkIdentical:
			out.Info("There is no change in the update for %s, ignored...", r.Target.Platform)
		default:
			out.Error("Failed to mark the update as finished for platform %s", r.Target.Platform)
			out.Error("%v", r.Err)
		}
	}
	return results, nil
}

func requestUploads(ctx context.Context, client Client, req PublishRequest) ([]pendingUpdate, error) {
	fileNames := make([]string, len(req.Assets))
	for i, a := range req.Assets {
		fileNames[i] = a.Path
	}

	pending := make([]pendingUpdate, len(req.RuntimeVersions))
	g, gctx := errgroup.WithContext(ctx)
	for i, target := range req.RuntimeVersions {
		g.Go(func() error {
			if target.RuntimeVersion == "" {
				return fmt.Errorf("Runtime version is not resolved for %s", target.Platform)
			}
			resp, err := client.RequestUploadURLs(gctx, req.Branch, UploadURLsRequest{
				RuntimeVersion: target.RuntimeVersion,
				Platform:       target.Platform,
				CommitHash:     req.CommitHash,
				FileNames:      fileNames,
			})
			if err != nil {
				return fmt.Errorf("requesting upload URLs for %s: %w", target.Platform, err)
			}
			log.Debugf("%s: update %s with %d upload slot(s)", target.Platform, resp.UpdateID, len(resp.UploadRequests))
			pending[i] = pendingUpdate{target: target, response: resp}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pending, nil
}

// uploadAll uploads every slot of every platform. A failure stops new
// uploads from starting; uploads already in flight run to completion.
func uploadAll(ctx context.Context, client Client, req PublishRequest, pending []pendingUpdate) error {
	var (
		failed   atomic.Bool
		firstErr atomic.Pointer[error]
		g        errgroup.Group
	)

	for _, p := range pending {
		for _, item := range p.response.UploadRequests {
			g.Go(func() error {
				if failed.Load() {
					return errUploadAborted
				}
				if err := uploadOne(ctx, client, req, item); err != nil {
					firstErr.CompareAndSwap(nil, &err)
					failed.Store(true)
					return err
				}
				return nil
			})
		}
	}
	err := g.Wait()
	if first := firstErr.Load(); first != nil {
		return *first
	}
	return err
}

func uploadOne(ctx context.Context, client Client, req PublishRequest, item UploadRequest) error {
	localPath := filepath.Join(req.OutputDir, filepath.FromSlash(item.FilePath))
	if _, err := os.Stat(localPath); err != nil {
		return fmt.Errorf("Failed to read file %s: %w", item.FilePath, err)
	}

	asset, ok := findAsset(req.Assets, item)
	if !ok {
		return fmt.Errorf("File %s not found", item.FilePath)
	}
	return client.UploadFile(ctx, item, localPath, asset.Ext)
}

func findAsset(files []assets.Asset, item UploadRequest) (assets.Asset, bool) {
	for _, f := range files {
		if f.Path == item.FilePath || f.Name == item.FileName {
			return f, true
		}
	}
	return assets.Asset{}, false
}

func finalize(ctx context.Context, client Client, branch string, pending []pendingUpdate) []PlatformResult {
	results := make([]PlatformResult, len(pending))

	var g errgroup.Group
	for i, p := range pending {
		g.Go(func() error {
			updateID := p.response.UpdateID.String()
			res, err := client.MarkUpdateAsUploaded(ctx, branch, MarkRequest{
				Platform:       p.target.Platform,
				UpdateID:       updateID,
				RuntimeVersion: p.target.RuntimeVersion,
			})
			if err != nil {
				res = MarkError
			}
			results[i] = PlatformResult{Target: p.target, UpdateID: updateID, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Summary aggregates the per-platform results of a publish.
type Summary struct {
	AllIdentical bool
	HasErrors    bool
	Deployed     []PlatformResult
}

// Summarize aggregates results.
func Summarize(results []PlatformResult) Summary {
	s := Summary{AllIdentical: len(results) > 0}
	for _, r := range results {
		if r.Result != MarkIdentical {
			s.AllIdentical = false
		}
		switch r.Result {
		case MarkDeployed:
			s.Deployed = append(s.Deployed, r)
		case MarkError:
			s.HasErrors = true
		}
	}
	return s
}
