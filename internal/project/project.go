// Package project inspects the Expo project on disk: package.json, installed
// node modules and the dotenv files the export step would otherwise load.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// PackageJSON represents the relevant fields of a package.json file.
type PackageJSON struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Main            string            `json:"main"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// ReadPackageJSON reads package.json from dir.
func ReadPackageJSON(dir string) (*PackageJSON, error) {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return nil, fmt.Errorf("no package.json found in %s: is this an Expo project?", dir)
	}

	var pkg PackageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("parsing package.json: %w", err)
	}
	return &pkg, nil
}

// IsExpoInstalled reports whether "expo" is listed in the project's
// dependencies.
func IsExpoInstalled(dir string) bool {
	pkg, err := ReadPackageJSON(dir)
	if err != nil {
		return false
	}
	_, ok := pkg.Dependencies["expo"]
	return ok
}

// RequireExpo returns the user-facing error for projects without expo.
func RequireExpo(dir string) error {
	if !IsExpoInstalled(dir) {
		return fmt.Errorf("Expo is not installed in this project. Please install Expo first.")
	}
	return nil
}

// InstalledPackageVersion returns the version of node_modules/<name>, or ""
// when the package is not installed.
func InstalledPackageVersion(dir, name string) (string, error) {
	pkg, err := readModulePackageJSON(dir, name)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return pkg.Version, nil
}

// ModulePath returns the path of a file inside an installed node module.
func ModulePath(dir, name string, elem ...string) string {
	return filepath.Join(append([]string{dir, "node_modules", name}, elem...)...)
}

func readModulePackageJSON(dir, name string) (*PackageJSON, error) {
	data, err := os.ReadFile(ModulePath(dir, name, "package.json"))
	if err != nil {
		return nil, err
	}

	var pkg PackageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("parsing %s/package.json: %w", name, err)
	}
	return &pkg, nil
}
