// Package credentials resolves Expo authentication from EXPO_TOKEN or the
// session stored by `eas login`.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	stateFileName    = "state.json"
	sessionSecretKey = "auth.sessionSecret"
)

// ErrNotLoggedIn is returned by Require when no credential is available.
var ErrNotLoggedIn = errors.New("You are not logged to eas, please run `eas login`")

// Credentials holds at most one usable auth secret. Token wins over
// SessionSecret when both are present.
type Credentials struct {
	Token         string `json:"-"`
	SessionSecret string `json:"-"`
}

// homeDirFunc allows tests to override the home directory.
var homeDirFunc = os.UserHomeDir

// Resolve reads EXPO_TOKEN and the session secret from the Expo state file.
// A missing or unreadable state file is not an error.
func Resolve() Credentials {
	return Credentials{
		Token:         os.Getenv("EXPO_TOKEN"),
		SessionSecret: loadSessionSecret(),
	}
}

// Require returns ErrNotLoggedIn when neither credential is set.
func (c Credentials) Require() error {
	if c.Token == "" && c.SessionSecret == "" {
		return ErrNotLoggedIn
	}
	return nil
}

// Headers returns the auth headers for requests to the update server.
func (c Credentials) Headers() map[string]string {
	if c.Token != "" {
		return map[string]string{"Authorization": "Bearer " + c.Token}
	}
	if c.SessionSecret != "" {
		return map[string]string{"expo-session": c.SessionSecret}
	}
	return map[string]string{}
}

// DotExpoHomeDir returns ~/.expo, or its staging/local variant when
// EXPO_STAGING or EXPO_LOCAL is set.
func DotExpoHomeDir() (string, error) {
	home, err := homeDirFunc()
	if err != nil || home == "" {
		return "", fmt.Errorf("can't determine your home directory; make sure your $HOME environment variable is set")
	}

	switch {
	case os.Getenv("EXPO_STAGING") != "":
		return filepath.Join(home, ".expo-staging"), nil
	case os.Getenv("EXPO_LOCAL") != "":
		return filepath.Join(home, ".expo-local"), nil
	default:
		return filepath.Join(home, ".expo"), nil
	}
}

// StateFilePath returns the path of the Expo state file.
func StateFilePath() (string, error) {
	dir, err := DotExpoHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, stateFileName), nil
}

func loadSessionSecret() string {
	path, err := StateFilePath()
	if err != nil {
		log.Debugf("skipping session lookup: %v", err)
		return ""
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		log.Debugf("no session state at %s: %v", path, err)
		return ""
	}

	return v.GetString(sessionSecretKey)
}
