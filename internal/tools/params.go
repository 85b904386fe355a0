package tools

import (
	"strconv"
	"strings"
)

// Params is a decoded parameter bag
type Params map[string]interface{}

// String returns the string at key, or "" when absent or not a string
func (p Params) String(key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

// StringOr returns the string at key, or def when absent or empty
func (p Params) StringOr(key, def string) string {
	if v := p.String(key); v != "" {
		return v
	}
	return def
}

// Int extracts an integer from a JSON number or a numeric string
func (p Params) Int(key string) int {
	switch v := p[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return 0
}

// IntOr returns the integer at key, or def when absent or not positive
func (p Params) IntOr(key string, def int) int {
	if v := p.Int(key); v > 0 {
		return v
	}
	return def
}

// Bool returns the bool at key, or false
func (p Params) Bool(key string) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return false
}

// StringSlice returns the strings of an array parameter, skipping other values
func (p Params) StringSlice(key string) []string {
	items, ok := p[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Map returns an object parameter, or nil
func (p Params) Map(key string) map[string]interface{} {
	if v, ok := p[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}
