package api

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// decodeLoose decodes raw JSON keeping numbers as json.Number.
func decodeLoose(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func asObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asArray(v any) ([]any, bool) {
	a, ok := v.([]any)
	return a, ok
}

// firstString returns the first non-empty string value among keys. Numbers are
// rendered so numeric IDs survive.
func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := m[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}

// firstInt returns the first non-zero integer among keys. Strings such as
// "1,204" are accepted.
func firstInt(m map[string]any, keys ...string) int64 {
	for _, key := range keys {
		if n, ok := toInt(m[key]); ok && n != 0 {
			return n
		}
	}
	return 0
}

func firstFloat(m map[string]any, keys ...string) float64 {
	for _, key := range keys {
		switch v := m[key].(type) {
		case json.Number:
			if f, err := v.Float64(); err == nil && f != 0 {
				return f
			}
		case float64:
			if v != 0 {
				return v
			}
		}
	}
	return 0
}

func firstBool(m map[string]any, keys ...string) bool {
	for _, key := range keys {
		switch v := m[key].(type) {
		case bool:
			if v {
				return true
			}
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil && b {
				return true
			}
		}
	}
	return false
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return int64(f), true
		}
	case float64:
		return int64(n), true
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
		if i, err := strconv.ParseInt(cleaned, 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

func stringSlice(v any) []string {
	items, ok := asArray(v)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch val := item.(type) {
		case string:
			if s := strings.TrimSpace(val); s != "" {
				out = append(out, s)
			}
		case map[string]any:
			if s := firstString(val, "hashtag", "tag", "text", "name", "url"); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
