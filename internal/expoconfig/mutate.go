package expoconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ErrTypeScriptConfig is returned when the project is configured by
// app.config.ts, which cannot be rewritten.
var ErrTypeScriptConfig = errors.New("Modifying app.config.ts is not implemented")

var errNoReturnedObject = errors.New("no function returning an object literal was found")

const envPrefix = "process.env."

var quotedEnvPattern = regexp.MustCompile(`"process\.env\.([A-Za-z_$][A-Za-z0-9_$]*)"`)

// CreateOrModify applies patch to the project's app config. A project using
// only app.json gets a new app.config.js that spreads the patch over the
// static config; an existing app.config.js is rewritten in place.
func CreateOrModify(projectDir string, patch map[string]any) error {
	if err := EnsureExists(projectDir); err != nil {
		return err
	}

	if IsUsingStaticConfig(projectDir) {
		return writeStaticOverride(projectDir, patch)
	}

	paths := FindPaths(projectDir)
	switch filepath.Ext(paths.Dynamic) {
	case ".ts":
		return ErrTypeScriptConfig
	case ".js":
	default:
		if paths.Dynamic == "" {
			return fmt.Errorf("%s cannot be modified; create an app.config.js", filepath.Base(paths.Static))
		}
		return fmt.Errorf("modifying %s is not supported", filepath.Base(paths.Dynamic))
	}

	src, err := os.ReadFile(paths.Dynamic)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filepath.Base(paths.Dynamic), err)
	}

	updated, err := ModifySource(string(src), patch)
	if err != nil {
		return fmt.Errorf("modifying %s: %w", filepath.Base(paths.Dynamic), err)
	}

	log.Debugf("writing %s", paths.Dynamic)
	return os.WriteFile(paths.Dynamic, []byte(updated), 0o644)
}

func writeStaticOverride(projectDir string, patch map[string]any) error {
	body, err := StringifyWithEnv(patch)
	if err != nil {
		return err
	}
	content := "export default ({ config }) => ({\n  ...config,\n  ..." + indentLines(body, "  ") + "\n});\n"

	path := filepath.Join(projectDir, "app.config.js")
	log.Debugf("writing %s", path)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing app.config.js: %w", err)
	}
	return nil
}

// StringifyWithEnv renders patch as indented JSON with "process.env.X"
// strings unquoted into expressions.
func StringifyWithEnv(patch map[string]any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(patch); err != nil {
		return "", fmt.Errorf("encoding config patch: %w", err)
	}
	out := strings.TrimRight(buf.String(), "\n")
	return quotedEnvPattern.ReplaceAllString(out, "process.env.$1"), nil
}

// indentLines prefixes every line but the first with indent.
func indentLines(s, indent string) string {
	return strings.ReplaceAll(s, "\n", "\n"+indent)
}

// ModifySource rewrites the object literal returned by the config function in
// src. For each top-level key of patch an existing property with that key is
// removed and a new one is appended. Source outside that object is kept as is.
func ModifySource(src string, patch map[string]any) (string, error) {
	if len(patch) == 0 {
		return src, nil
	}

	span, err := findConfigObject(src)
	if err != nil {
		return "", err
	}
	props := span.props

	baseIndent := lineIndent(src, span.returnAt)
	propIndent := baseIndent + "  "
	for _, p := range props {
		if p.body != "" && strings.Contains(p.lead, "\n") {
			propIndent = p.lead[strings.LastIndexByte(p.lead, '\n')+1:]
			break
		}
	}

	// The whitespace before the closing brace.
	tail := ""
	if n := len(props); n > 0 {
		if last := props[n-1]; last.body == "" {
			tail = last.lead + last.trail
			props = props[:n-1]
		} else {
			tail = last.trail
			props[n-1].trail = ""
		}
	}
	if !strings.Contains(tail, "\n") {
		tail = "\n" + lineIndent(src, span.close-1)
	}

	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(src[:span.open+1])
	for _, p := range props {
		if hasKey(patch, p.key) {
			continue
		}
		b.WriteString(p.lead)
		b.WriteString(p.body)
		b.WriteString(p.trail)
		b.WriteString(",")
	}
	for _, k := range keys {
		value, err := renderValue(patch[k], propIndent)
		if err != nil {
			return "", fmt.Errorf("rendering %q: %w", k, err)
		}
		b.WriteString("\n")
		b.WriteString(propIndent)
		b.WriteString(renderKey(k, false))
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString(",")
	}
	b.WriteString(tail)
	b.WriteString(src[span.close-1:])
	return b.String(), nil
}

func hasKey(patch map[string]any, key string) bool {
	if key == "" {
		return false
	}
	_, ok := patch[key]
	return ok
}

func isIdentifier(s string) bool {
	if s == "" || ('0' <= s[0] && s[0] <= '9') {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isIdentByte(s[i]) {
			return false
		}
	}
	return true
}

// renderKey renders an object key. Top-level keys are bare identifiers when
// possible; nested keys are always string literals.
func renderKey(key string, nested bool) string {
	if !nested && isIdentifier(key) {
		return key
	}
	quoted, _ := jsonLiteral(key)
	return quoted
}

func jsonLiteral(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// renderValue renders v as a JavaScript expression. indent is the indentation
// of the line the value starts on.
func renderValue(v any, indent string) (string, error) {
	switch val := v.(type) {
	case string:
		if strings.HasPrefix(val, envPrefix) {
			name := strings.Split(val, ".")[2]
			if isIdentifier(name) {
				return envPrefix + name, nil
			}
		}
		return jsonLiteral(val)
	case map[string]any:
		if len(val) == 0 {
			return "{}", nil
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		inner := indent + "  "
		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			rendered, err := renderValue(val[k], inner)
			if err != nil {
				return "", err
			}
			lines = append(lines, inner+renderKey(k, true)+": "+rendered)
		}
		return "{\n" + strings.Join(lines, ",\n") + "\n" + indent + "}", nil
	case []any:
		items := make([]string, 0, len(val))
		for _, item := range val {
			rendered, err := renderValue(item, indent)
			if err != nil {
				return "", err
			}
			items = append(items, rendered)
		}
		return "[" + strings.Join(items, ", ") + "]", nil
	default:
		return jsonLiteral(val)
	}
}
