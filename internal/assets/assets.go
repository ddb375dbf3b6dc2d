// Package assets reads the export's metadata.json and lists the files an
// update consists of.
package assets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	"github.com/expo-open-ota/eoas/internal/expoconfig"
	"github.com/expo-open-ota/eoas/internal/output"
)

const (
	MetadataFile   = "metadata.json"
	ExpoConfigFile = "expoConfig.json"
)

// Metadata is the metadata.json written by "expo export".
type Metadata struct {
	Version      *float64                    `json:"version" validate:"required"`
	Bundler      string                      `json:"bundler" validate:"required"`
	FileMetadata map[string]PlatformMetadata `json:"fileMetadata" validate:"required,dive,keys,oneof=android ios web,endkeys"`
}

// PlatformMetadata lists one platform's bundle and assets.
type PlatformMetadata struct {
	Bundle string          `json:"bundle" validate:"required"`
	Assets []AssetMetadata `json:"assets" validate:"required,dive"`
}

// AssetMetadata is one asset entry in metadata.json.
type AssetMetadata struct {
	Path string `json:"path" validate:"required"`
	Ext  string `json:"ext" validate:"required"`
}

// Asset is a file to upload. Path is relative to the export directory; Name
// is the file name announced to the server.
type Asset struct {
	Path string
	Name string
	Ext  string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadMetadata reads and validates metadata.json from outputDir.
func LoadMetadata(outputDir string, out *output.Writer) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(outputDir, MetadataFile))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", MetadataFile, err)
	}

	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("Failed to read metadata.json: %w", err)
	}
	if err := validate.Struct(m); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", MetadataFile, describe(err))
	}

	if *m.Version != 0 {
		return nil, errors.New("Only bundles with metadata version 0 are supported")
	}
	if m.Bundler != "metro" {
		return nil, errors.New("Only bundles created with Metro are currently supported")
	}

	platforms := m.Platforms()
	if len(platforms) == 0 && out != nil {
		out.Warning("No updates were exported for any platform")
	}
	log.Debugf("loaded %d platform(s): %s", len(platforms), strings.Join(platforms, ", "))
	return &m, nil
}

func describe(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	return fmt.Errorf("%s failed on the %q rule", fe.Namespace(), fe.Tag())
}

// Platforms returns the exported platforms in sorted order.
func (m *Metadata) Platforms() []string {
	platforms := make([]string, 0, len(m.FileMetadata))
	for p := range m.FileMetadata {
		platforms = append(platforms, p)
	}
	sort.Strings(platforms)
	return platforms
}

// ComputeFilesRequests lists the files to upload for the requested
// platforms: metadata.json and expoConfig.json first, then each platform's
// bundle followed by its assets.
func ComputeFilesRequests(outputDir string, requested expoconfig.RequestedPlatform, out *output.Writer) ([]Asset, error) {
	m, err := LoadMetadata(outputDir, out)
	if err != nil {
		return nil, err
	}

	files := []Asset{
		{Path: MetadataFile, Name: MetadataFile, Ext: "json"},
		{Path: ExpoConfigFile, Name: ExpoConfigFile, Ext: "json"},
	}
	for _, platform := range m.Platforms() {
		if requested != expoconfig.RequestAll && string(requested) != platform {
			continue
		}
		pm := m.FileMetadata[platform]
		files = append(files, Asset{Path: pm.Bundle, Name: path.Base(pm.Bundle), Ext: "hbc"})
		for _, a := range pm.Assets {
			files = append(files, Asset{Path: a.Path, Name: path.Base(a.Path), Ext: a.Ext})
		}
	}
	return files, nil
}

// WriteExpoConfig writes the public config next to metadata.json.
func WriteExpoConfig(outputDir string, cfg expoconfig.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", ExpoConfigFile, err)
	}
	if err := os.WriteFile(filepath.Join(outputDir, ExpoConfigFile), data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", ExpoConfigFile, err)
	}
	return nil
}
