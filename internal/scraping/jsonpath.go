package scraping

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Lookup walks a decoded JSON value along path. A string step indexes an
// object and an int step indexes an array. Any step that hits a missing
// key, an out-of-range index, null or a value of the wrong shape yields
// (nil, false).
func Lookup(v any, path ...any) (any, bool) {
	current := v
	for _, step := range path {
		switch key := step.(type) {
		case string:
			obj, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}
			current, ok = obj[key]
			if !ok {
				return nil, false
			}
		case int:
			arr, ok := current.([]any)
			if !ok || key < 0 || key >= len(arr) {
				return nil, false
			}
			current = arr[key]
		default:
			return nil, false
		}
		if current == nil {
			return nil, false
		}
	}
	return current, current != nil
}

// String returns the value at path as text. Numbers are rendered as-is.
func String(v any, path ...any) *string {
	value, ok := Lookup(v, path...)
	if !ok {
		return nil
	}

	var s string
	switch t := value.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(t)
	default:
		return nil
	}
	return &s
}

// Int64 returns the value at path as an integer, truncating fractions.
func Int64(v any, path ...any) *int64 {
	value, ok := Lookup(v, path...)
	if !ok {
		return nil
	}

	var n int64
	switch t := value.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			n = i
		} else if f, err := t.Float64(); err == nil {
			i, ok := truncate(f)
			if !ok {
				return nil
			}
			n = i
		} else {
			return nil
		}
	case float64:
		i, ok := truncate(t)
		if !ok {
			return nil
		}
		n = i
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil
		}
		i, ok := truncate(f)
		if !ok {
			return nil
		}
		n = i
	default:
		return nil
	}
	return &n
}

// truncate converts f to int64. NaN and values outside the int64 range are
// rejected; float64(math.MaxInt64) is 2^63, so the upper bound is exclusive.
func truncate(f float64) (int64, bool) {
	if !(f >= math.MinInt64 && f < math.MaxInt64) {
		return 0, false
	}
	return int64(f), true
}

func Int(v any, path ...any) *int {
	n := Int64(v, path...)
	if n == nil {
		return nil
	}
	i := int(*n)
	return &i
}

func Float(v any, path ...any) *float64 {
	value, ok := Lookup(v, path...)
	if !ok {
		return nil
	}

	var f float64
	switch t := value.(type) {
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	return &f
}

// Bool accepts JSON booleans, numbers (non-zero is true) and the strings
// understood by strconv.ParseBool.
func Bool(v any, path ...any) *bool {
	value, ok := Lookup(v, path...)
	if !ok {
		return nil
	}

	var b bool
	switch t := value.(type) {
	case bool:
		b = t
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil
		}
		b = f != 0
	case float64:
		b = t != 0
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return nil
		}
		b = parsed
	default:
		return nil
	}
	return &b
}
