package pipeline

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/expo-open-ota/eoas/internal/expoconfig"
	"github.com/expo-open-ota/eoas/internal/ota"
	"github.com/expo-open-ota/eoas/internal/project"
)

// Connect returns a client for the update server configured in the app
// config of projectDir.
func Connect(ctx context.Context, d Deps, projectDir string) (ota.Client, error) {
	if err := project.RequireExpo(projectDir); err != nil {
		return nil, err
	}
	env, err := project.LoadEnv(projectDir)
	if err != nil {
		return nil, err
	}
	cfg, err := d.Config.Private(ctx, projectDir, expoconfig.Options{Env: env})
	if err != nil {
		return nil, err
	}
	serverURL, err := cfg.ServerURL()
	if err != nil {
		return nil, err
	}
	log.Debugf("using update server %s", serverURL)
	return d.NewClient(serverURL), nil
}

// FilterUpdates keeps the updates published for the requested platform.
func FilterUpdates(updates []ota.Update, platform expoconfig.RequestedPlatform) []ota.Update {
	if platform == "" || platform == expoconfig.RequestAll {
		return updates
	}
	var kept []ota.Update
	for _, u := range updates {
		if platform.Includes(expoconfig.Platform(u.Platform)) {
			kept = append(kept, u)
		}
	}
	return kept
}
