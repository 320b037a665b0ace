// Package series turns flat indicator records into ordered year series.
//
// A record is one country's JSON object from the data API. Fields named
// "<indicator>_<yyyy>" carry the yearly values; everything else is metadata.
package series

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Point is one year of an indicator.
type Point struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// Series is ordered by strictly ascending year.
type Series []Point

// Record is a read-only indicator record. The zero value is an absent record.
type Record struct {
	raw string
}

// NewRecord wraps a raw JSON object. Anything that is not an object yields
// an empty record.
func NewRecord(raw string) Record {
	res := gjson.Parse(raw)
	if !res.IsObject() {
		return Record{}
	}
	return Record{raw: res.Raw}
}

// Raw returns the record's JSON, or "" when the record is absent.
func (r Record) Raw() string { return r.raw }

// IsEmpty reports whether the record is absent or has no fields.
func (r Record) IsEmpty() bool {
	if r.raw == "" {
		return true
	}
	empty := true
	gjson.Parse(r.raw).ForEach(func(_, _ gjson.Result) bool {
		empty = false
		return false
	})
	return empty
}

// Get returns a metadata field as a string, or "" when missing.
func (r Record) Get(field string) string {
	if r.raw == "" {
		return ""
	}
	return gjson.Get(r.raw, gjson.Escape(field)).String()
}

// Extract returns the values of indicator ordered by year. Fields whose key
// is not exactly indicator + "_" + four digits are ignored, as are null,
// non-numeric and non-finite values. A repeated key keeps its last value.
func Extract(r Record, indicator string) Series {
	out := Series{}
	if r.raw == "" || indicator == "" {
		return out
	}

	prefix := indicator + "_"
	byYear := make(map[int]float64)
	gjson.Parse(r.raw).ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if !strings.HasPrefix(k, prefix) {
			return true
		}
		year, ok := parseYear(k[len(prefix):])
		if !ok {
			return true
		}
		v, ok := numeric(value)
		if !ok {
			return true
		}
		byYear[year] = v
		return true
	})

	for year, v := range byYear {
		out = append(out, Point{Year: year, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// Indicators lists the distinct indicator names present in a record, sorted.
func Indicators(r Record) []string {
	seen := make(map[string]struct{})
	if r.raw != "" {
		gjson.Parse(r.raw).ForEach(func(key, _ gjson.Result) bool {
			k := key.String()
			i := strings.LastIndexByte(k, '_')
			if i <= 0 {
				return true
			}
			if _, ok := parseYear(k[i+1:]); ok {
				seen[k[:i]] = struct{}{}
			}
			return true
		})
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Title renders an indicator name for display.
func Title(indicator string) string {
	return strings.ReplaceAll(indicator, "_", " ")
}

// Years returns the first and last year of a series.
func (s Series) Years() (first, last int, ok bool) {
	if len(s) == 0 {
		return 0, 0, false
	}
	return s[0].Year, s[len(s)-1].Year, true
}

func parseYear(s string) (int, bool) {
	if len(s) != 4 {
		return 0, false
	}
	year := 0
	for i := 0; i < 4; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		year = year*10 + int(c-'0')
	}
	return year, true
}

func numeric(v gjson.Result) (float64, bool) {
	var f float64
	switch v.Type {
	case gjson.Number:
		f = v.Num
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
