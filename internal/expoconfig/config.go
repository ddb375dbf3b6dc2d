// Package expoconfig reads, validates and rewrites the Expo app config.
package expoconfig

import (
	"encoding/json"
	"math"
)

// Config is the resolved Expo config, as printed by `npx expo config --json`.
type Config map[string]any

// Platform names a native platform.
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
)

// Platforms lists the native platforms in publish order.
var Platforms = []Platform{PlatformIOS, PlatformAndroid}

// RequestedPlatform is the --platform flag value: one platform or all.
type RequestedPlatform string

const (
	RequestAll     RequestedPlatform = "all"
	RequestIOS     RequestedPlatform = "ios"
	RequestAndroid RequestedPlatform = "android"
)

// Includes reports whether p is selected by r.
func (r RequestedPlatform) Includes(p Platform) bool {
	return r == "" || r == RequestAll || string(r) == string(p)
}

// Selected returns the platforms selected by r in publish order.
func (r RequestedPlatform) Selected() []Platform {
	var out []Platform
	for _, p := range Platforms {
		if r.Includes(p) {
			out = append(out, p)
		}
	}
	return out
}

// Valid reports whether r is one of the known values.
func (r RequestedPlatform) Valid() bool {
	switch r {
	case RequestAll, RequestIOS, RequestAndroid:
		return true
	}
	return false
}

// Parse decodes a config JSON document.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = Config{}
	}
	return cfg, nil
}

// Object returns the nested object at path, or nil.
func (c Config) Object(path ...string) map[string]any {
	var cur map[string]any = c
	for _, key := range path {
		next, ok := cur[key].(map[string]any)
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// Value returns the raw value at path, or nil.
func (c Config) Value(path ...string) any {
	if len(path) == 0 {
		return nil
	}
	parent := c.Object(path[:len(path)-1]...)
	if parent == nil {
		return nil
	}
	return parent[path[len(path)-1]]
}

// String returns the string at path, or "".
func (c Config) String(path ...string) string {
	s, _ := c.Value(path...).(string)
	return s
}

func (c Config) Name() string       { return c.String("name") }
func (c Config) Slug() string       { return c.String("slug") }
func (c Config) Version() string    { return c.String("version") }
func (c Config) SDKVersion() string { return c.String("sdkVersion") }
func (c Config) UpdatesURL() string { return c.String("updates", "url") }

// IOSBuildNumber returns ios.buildNumber.
func (c Config) IOSBuildNumber() string { return c.String("ios", "buildNumber") }

// AndroidVersionCode returns android.versionCode and whether it is set.
func (c Config) AndroidVersionCode() (int, bool) {
	switch v := c.Value("android", "versionCode").(type) {
	case float64:
		if v == math.Trunc(v) {
			return int(v), true
		}
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), true
		}
	case int:
		return v, true
	}
	return 0, false
}

// DisableAntiBrickingMeasures reports updates.disableAntiBrickingMeasures.
func (c Config) DisableAntiBrickingMeasures() bool {
	b, _ := c.Value("updates", "disableAntiBrickingMeasures").(bool)
	return b
}

// RuntimeVersionFor returns the runtimeVersion setting for platform. The
// platform-specific value wins over the top-level one.
func (c Config) RuntimeVersionFor(p Platform) any {
	if v := c.Value(string(p), "runtimeVersion"); v != nil {
		return v
	}
	return c.Value("runtimeVersion")
}
