package expoconfig

// privateFields are removed from the public config. Each entry is a path into
// the config; the last element is deleted from its parent object.
var privateFields = [][]string{
	{"hooks"},
	{"_internal"},
	{"ios", "config"},
	{"android", "config"},
	{"updates", "codeSigningCertificate"},
	{"updates", "codeSigningMetadata"},
}

// Public returns a copy of c with the fields that must not ship to clients
// removed. c is left untouched.
func (c Config) Public() Config {
	out := Config(deepCopyMap(c))
	for _, path := range privateFields {
		parent := out.Object(path[:len(path)-1]...)
		if parent != nil {
			delete(parent, path[len(path)-1])
		}
	}
	return out
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case Config:
		return deepCopyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return val
	}
}
