package usecase

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// nonNumericRegex strips everything but digits and the decimal point ("350kcal" -> "350").
// A leading minus sign is reapplied after stripping.
var nonNumericRegex = regexp.MustCompile(`[^\d.]`)

// timeLayouts are tried in order for string date fields. Layouts without a zone are
// interpreted in the viewer's location.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// lookup returns the value of the first candidate that is present and not null.
// Zero values (0, false, "") count as present.
func lookup(rec map[string]any, candidates []string) (any, bool) {
	for _, name := range candidates {
		if v, ok := rec[name]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// Resolve returns the first present, non-null candidate field of rec, or def.
// Candidates are ordered most authoritative first.
func Resolve(rec map[string]any, def any, candidates ...string) any {
	if v, ok := lookup(rec, candidates); ok {
		return v
	}
	return def
}

// ResolveString resolves a text field. Numbers and booleans are rendered as text;
// any other shape yields def.
func ResolveString(rec map[string]any, def string, candidates ...string) string {
	v, ok := lookup(rec, candidates)
	if !ok {
		return def
	}

	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return def
	}
}

// ResolveNumber resolves a numeric field, parsing numeric-looking strings.
// Unparsable values yield def.
func ResolveNumber(rec map[string]any, def float64, candidates ...string) float64 {
	if n, ok := LookupNumber(rec, candidates...); ok {
		return n
	}
	return def
}

// LookupNumber is ResolveNumber with an explicit found flag. It reports false when no
// candidate is present or when the first present candidate is not a number.
func LookupNumber(rec map[string]any, candidates ...string) (float64, bool) {
	v, ok := lookup(rec, candidates)
	if !ok {
		return 0, false
	}
	return parseNumber(v)
}

func parseNumber(v any) (float64, bool) {
	var n float64
	switch t := v.(type) {
	case json.Number:
		f, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			return 0, false
		}
		n = f
	case float64:
		n = t
	case float32:
		n = float64(t)
	case int:
		n = float64(t)
	case int64:
		n = float64(t)
	case int32:
		n = float64(t)
	case string:
		cleaned := nonNumericRegex.ReplaceAllString(t, "")
		if cleaned == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		// the regex drops the sign along with the units
		if strings.HasPrefix(strings.TrimSpace(t), "-") {
			f = -f
		}
		n = f
	default:
		return 0, false
	}

	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// ResolveTime resolves a timestamp field. Only the first present candidate is parsed;
// ok is false when it is missing or unparsable.
func ResolveTime(rec map[string]any, loc *time.Location, candidates ...string) (time.Time, bool) {
	v, ok := lookup(rec, candidates)
	if !ok {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	return parseTime(v, loc)
}

func parseTime(v any, loc *time.Location) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if ts, err := time.ParseInLocation(layout, s, loc); err == nil {
				return ts, true
			}
		}
		return time.Time{}, false
	case json.Number, float64, int, int64:
		// epoch milliseconds
		ms, ok := parseNumber(t)
		if !ok || ms <= 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(ms)).In(loc), true
	case []any:
		return parseDateArray(t, loc)
	default:
		return time.Time{}, false
	}
}

// parseDateArray handles LocalDateTime serialized as [year, month, day, hour, minute, second, nanos]
func parseDateArray(parts []any, loc *time.Location) (time.Time, bool) {
	if len(parts) < 3 || len(parts) > 7 {
		return time.Time{}, false
	}

	var fields [7]int
	for i, p := range parts {
		n, ok := parseNumber(p)
		if !ok || n < 0 {
			return time.Time{}, false
		}
		fields[i] = int(n)
	}
	if fields[1] < 1 || fields[1] > 12 || fields[2] < 1 || fields[2] > 31 {
		return time.Time{}, false
	}

	return time.Date(fields[0], time.Month(fields[1]), fields[2],
		fields[3], fields[4], fields[5], fields[6], loc), true
}
