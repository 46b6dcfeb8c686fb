package normalizer

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultCurrency is assumed when a price carries no currency
const DefaultCurrency = "USD"

// isoLayout is the canonical date output (UTC, millisecond precision)
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// dateLayouts are tried in order by NormalizeDate
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"01/02/2006",
}

// Lookup is one candidate location in a fallback chain: a path inside a document.
type Lookup struct {
	Doc  gjson.Result
	Path string
}

// At is shorthand for building a Lookup
func At(doc gjson.Result, path string) Lookup {
	return Lookup{Doc: doc, Path: path}
}

// Chain builds lookups for several paths against the same document
func Chain(doc gjson.Result, paths ...string) []Lookup {
	out := make([]Lookup, len(paths))
	for i, p := range paths {
		out[i] = At(doc, p)
	}
	return out
}

func (l Lookup) resolve() gjson.Result {
	if !l.Doc.Exists() {
		return gjson.Result{}
	}
	if l.Path == "" {
		return l.Doc
	}
	return l.Doc.Get(l.Path)
}

// Money is a coerced amount with its currency
type Money struct {
	Value    *float64
	Currency string
}

// defined reports whether r holds a value other than JSON null
func defined(r gjson.Result) bool {
	return r.Exists() && r.Type != gjson.Null
}

// FirstDefined returns the first lookup that resolves to a non-null value.
// Lookups are evaluated lazily, left to right.
func FirstDefined(lookups ...Lookup) gjson.Result {
	for _, l := range lookups {
		if r := l.resolve(); defined(r) {
			return r
		}
	}
	return gjson.Result{}
}

// FirstText returns the first lookup that resolves to a JSON string
func FirstText(lookups ...Lookup) gjson.Result {
	for _, l := range lookups {
		if r := l.resolve(); r.Type == gjson.String {
			return r
		}
	}
	return gjson.Result{}
}

// FirstString is FirstDefined restricted to string and number values.
// Numbers are returned in their JSON text form.
func FirstString(lookups ...Lookup) *string {
	for _, l := range lookups {
		if s := scalarString(l.resolve()); s != nil {
			return s
		}
	}
	return nil
}

// FirstNumeric returns the first lookup whose value coerces to a number
func FirstNumeric(lookups ...Lookup) gjson.Result {
	for _, l := range lookups {
		if r := l.resolve(); toNumber(r) != nil {
			return r
		}
	}
	return gjson.Result{}
}

// FirstNumber is FirstNumeric with the coercion applied
func FirstNumber(lookups ...Lookup) *float64 {
	return toNumber(FirstNumeric(lookups...))
}

// FirstArray returns the first lookup that resolves to a JSON array
func FirstArray(lookups ...Lookup) gjson.Result {
	for _, l := range lookups {
		if r := l.resolve(); r.IsArray() {
			return r
		}
	}
	return gjson.Result{}
}

// FindSpecByName scans a list of {name, value} pairs for a case-insensitive
// name match and returns its value. Anything but an array yields nil.
func FindSpecByName(specs gjson.Result, name string) *string {
	if !specs.IsArray() {
		return nil
	}
	var found *string
	specs.ForEach(func(_, spec gjson.Result) bool {
		if !spec.IsObject() {
			return true
		}
		if strings.EqualFold(strings.TrimSpace(spec.Get("name").String()), name) {
			found = scalarString(spec.Get("value"))
			return false
		}
		return true
	})
	return found
}

// NormalizeCurrency coerces value to a number. Non-numeric input gives a nil
// Value. An empty currency defaults to USD.
func NormalizeCurrency(value gjson.Result, currency string) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{Value: toNumber(value), Currency: currency}
}

// NormalizeDate returns value as a UTC ISO-8601 timestamp when it parses,
// the original string when it does not, and nil for non-strings or blanks.
func NormalizeDate(value gjson.Result) *string {
	if value.Type != gjson.String {
		return nil
	}
	raw := value.Str
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			iso := t.UTC().Format(isoLayout)
			return &iso
		}
	}
	return &raw
}

func scalarString(r gjson.Result) *string {
	switch r.Type {
	case gjson.String:
		s := r.Str
		return &s
	case gjson.Number:
		s := r.Raw
		return &s
	}
	return nil
}

func toNumber(r gjson.Result) *float64 {
	switch r.Type {
	case gjson.Number:
		f := r.Num
		return &f
	case gjson.String:
		s := strings.TrimSpace(r.Str)
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return &f
	}
	return nil
}
