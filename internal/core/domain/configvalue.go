package domain

// Config stores hand back untyped values: TOML decodes integers as int64,
// JSON as float64, and in-memory callers store plain ints. These helpers
// coerce them to a typed setting, returning the zero value on mismatch.

// IntValue converts a stored config value to int. Floats truncate.
func IntValue(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float32:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

// FloatValue converts a stored config value to float64, so
// "threshold = 80" and "threshold = 80.0" read the same.
func FloatValue(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// StringValue returns v when it is a string.
func StringValue(v any) string {
	s, _ := v.(string)
	return s
}

// BoolValue returns v when it is a bool.
func BoolValue(v any) bool {
	b, _ := v.(bool)
	return b
}
