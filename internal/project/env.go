package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Env is an explicit environment passed to subprocesses. It is a value: With
// returns a copy and never touches the process environment.
type Env map[string]string

// dotenvFiles are loaded in order; later files override earlier ones.
var dotenvFiles = []string{".env", ".env.local"}

// LoadEnv merges the project's dotenv files under the process environment.
// Variables already set in the process win over dotenv values.
func LoadEnv(dir string) (Env, error) {
	env := Env{}
	for _, name := range dotenvFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		values, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		log.Debugf("loaded %d variable(s) from %s", len(values), name)
		for k, v := range values {
			env[k] = v
		}
	}

	return env.Merge(FromEnviron(os.Environ())), nil
}

// FromEnviron parses KEY=VALUE pairs.
func FromEnviron(environ []string) Env {
	env := make(Env, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// Merge returns a copy of e overridden by other.
func (e Env) Merge(other Env) Env {
	out := make(Env, len(e)+len(other))
	for k, v := range e {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// With returns a copy of e with key set to value.
func (e Env) With(key, value string) Env {
	return e.Merge(Env{key: value})
}

// Environ renders e as sorted KEY=VALUE pairs for exec.Cmd.Env.
func (e Env) Environ() []string {
	out := make([]string, 0, len(e))
	for k, v := range e {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
