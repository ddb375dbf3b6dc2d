package expoconfig

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

var (
	staticConfigNames  = []string{"app.config.json", "app.json"}
	dynamicConfigNames = []string{"app.config.ts", "app.config.js", "app.config.cjs", "app.config.mjs"}
)

// Paths holds the config files found in a project. Empty means absent.
type Paths struct {
	Static  string
	Dynamic string
}

// FindPaths locates the static and dynamic config files in dir.
func FindPaths(dir string) Paths {
	return Paths{
		Static:  firstExisting(dir, staticConfigNames),
		Dynamic: firstExisting(dir, dynamicConfigNames),
	}
}

func firstExisting(dir string, names []string) string {
	for _, name := range names {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// EnsureExists creates a minimal app.json when dir has no app config at all.
func EnsureExists(dir string) error {
	p := FindPaths(dir)
	if p.Static != "" || p.Dynamic != "" {
		return nil
	}
	log.Debugf("no app config in %s, creating app.json", dir)
	if err := os.WriteFile(filepath.Join(dir, "app.json"), []byte(`{"expo":{}}`+"\n"), 0o644); err != nil {
		return fmt.Errorf("creating app.json: %w", err)
	}
	return nil
}

// IsUsingStaticConfig reports whether the project is configured by app.json
// alone.
func IsUsingStaticConfig(dir string) bool {
	p := FindPaths(dir)
	return filepath.Base(p.Static) == "app.json" && p.Dynamic == ""
}
