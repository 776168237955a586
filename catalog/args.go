package catalog

// Args are the validated arguments of one operation call, as decoded JSON.
type Args map[string]any

// String returns a string argument, or the empty string when absent.
func (a Args) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// StringOr returns a string argument, or def when absent or empty.
func (a Args) StringOr(key, def string) string {
	if s := a.String(key); s != "" {
		return s
	}
	return def
}

// Number returns a numeric argument. JSON decoding produces float64 for
// every number, but handlers called with native Go values get ints too.
func (a Args) Number(key string) float64 {
	switch v := a[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// Bool returns a boolean argument, or def when absent.
func (a Args) Bool(key string, def bool) bool {
	if b, ok := a[key].(bool); ok {
		return b
	}
	return def
}

// Strings returns a string-array argument, accepting both []string and the
// []any JSON decoding produces.
func (a Args) Strings(key string) []string {
	switch v := a[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// domain returns the domain argument, defaulting to enterprise as the
// original tool surface did.
func (a Args) domain() string {
	return a.StringOr("domain", "enterprise")
}
