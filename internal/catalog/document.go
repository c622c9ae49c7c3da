package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/five82/difm/internal/urltemplate"
)

// ErrNotObject is returned when a payload does not decode to a JSON object.
var ErrNotObject = errors.New("payload is not a JSON object")

// Document is an untyped JSON object. Every accessor checks presence and
// type independently and falls back to the zero value, so one malformed
// field never affects the others.
type Document map[string]any

// DecodeDocument parses data into a Document. Numbers are kept as
// json.Number so large identifiers survive intact.
func DecodeDocument(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotObject, err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotObject, v)
	}
	return Document(obj), nil
}

// Has reports whether key is present with a non-null value.
func (d Document) Has(key string) bool {
	v, ok := d[key]
	return ok && v != nil
}

// Int returns key as an int. Fractional numbers are truncated.
func (d Document) Int(key string) int {
	f, ok := number(d[key])
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if n, ok := d[key].(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
	}
	return int(f)
}

// IntOK is Int that also reports whether key held a number.
func (d Document) IntOK(key string) (int, bool) {
	if _, ok := number(d[key]); !ok {
		return 0, false
	}
	return d.Int(key), true
}

// Float returns key as a float64.
func (d Document) Float(key string) float64 {
	f, _ := number(d[key])
	return f
}

// Bool accepts JSON booleans and numbers (non-zero is true).
func (d Document) Bool(key string) bool {
	switch v := d[key].(type) {
	case bool:
		return v
	default:
		f, ok := number(v)
		return ok && f != 0
	}
}

// String returns key when it holds a JSON string.
func (d Document) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Time parses key as an RFC 3339 timestamp.
func (d Document) Time(key string) time.Time {
	return parseTime(d.String(key))
}

// Template parses key as a URL template.
func (d Document) Template(key string) urltemplate.Template {
	return urltemplate.Parse(d.String(key))
}

// Object returns key as a nested Document, or nil.
func (d Document) Object(key string) Document {
	if obj, ok := d[key].(map[string]any); ok {
		return Document(obj)
	}
	return nil
}

// Objects returns the object elements of the array at key, skipping
// elements of any other type.
func (d Document) Objects(key string) []Document {
	arr, ok := d[key].([]any)
	if !ok {
		return nil
	}
	out := make([]Document, 0, len(arr))
	for _, item := range arr {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, Document(obj))
		}
	}
	return out
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
