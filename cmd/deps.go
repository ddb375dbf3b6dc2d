package cmd

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/expo-open-ota/eoas/internal/bundler"
	"github.com/expo-open-ota/eoas/internal/credentials"
	"github.com/expo-open-ota/eoas/internal/expoconfig"
	"github.com/expo-open-ota/eoas/internal/ota"
	"github.com/expo-open-ota/eoas/internal/pipeline"
	"github.com/expo-open-ota/eoas/internal/runtimeversion"
	"github.com/expo-open-ota/eoas/internal/shell"
	"github.com/expo-open-ota/eoas/internal/vcs"
)

// DepsOptions selects how the pipeline collaborators are wired.
// AllowNoRepository swaps git for a synthetic commit hash when the project
// is not a git work tree.
type DepsOptions struct {
	Credentials       credentials.Credentials
	AllowNoRepository bool
}

// NewDeps wires the collaborators of the pipelines. Tests replace it.
var NewDeps = func(ctx context.Context, opts DepsOptions) pipeline.Deps {
	executor := &shell.DefaultExecutor{}

	var vcsClient vcs.Client = vcs.NewGitClient(ProjectDir, executor)
	if opts.AllowNoRepository {
		if err := vcsClient.EnsureRepoExists(ctx); err != nil {
			log.Debugf("no git repository in %s: %v", ProjectDir, err)
			vcsClient = vcs.NewNoVCSClient()
		}
	}

	return pipeline.Deps{
		Config:   expoconfig.NewReader(executor, Out),
		Resolver: runtimeversion.NewResolver(executor),
		Exporter: bundler.NewExpoExporter(executor, Out),
		VCS:      vcsClient,
		NewClient: func(serverURL string) ota.Client {
			return ota.NewHTTPClient(serverURL, opts.Credentials)
		},
		Out:    Out,
		Prompt: Out,
	}
}
