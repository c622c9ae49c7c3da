package urltemplate

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidURL is returned when a resolved template is not a usable URL.
var ErrInvalidURL = errors.New("invalid url")

// placeholderPattern matches {<delimiter><key>[,<key>...]}. The delimiter is
// optional and is any single character that cannot start a key.
var placeholderPattern = regexp.MustCompile(`\{([^\w,{}])?([\w,]+)\}`)

// Component is a single placeholder found in a template.
type Component struct {
	Delimiter     rune
	HasDelimiter  bool
	ParameterKeys []string
	// Raw is the exact matched text, e.g. "{?width,height}".
	Raw string
}

// IsQuery reports whether the component expands into a query string.
func (c Component) IsQuery() bool {
	return c.HasDelimiter && c.Delimiter == '?'
}

// Template is a parsed, immutable URL template.
type Template struct {
	raw        string
	components []Component
}

// Parse scans raw for placeholders. It never fails: a string without
// placeholders produces a template that resolves to itself.
func Parse(raw string) Template {
	t := Template{raw: raw}
	for _, m := range placeholderPattern.FindAllStringSubmatch(raw, -1) {
		c := Component{Raw: m[0]}
		if m[1] != "" {
			c.Delimiter = []rune(m[1])[0]
			c.HasDelimiter = true
		}
		for _, key := range strings.Split(m[2], ",") {
			if key != "" {
				c.ParameterKeys = append(c.ParameterKeys, key)
			}
		}
		t.components = append(t.components, c)
	}
	return t
}

// Raw returns the unparsed template string.
func (t Template) Raw() string {
	return t.raw
}

// String implements fmt.Stringer.
func (t Template) String() string {
	return t.raw
}

// IsZero reports whether the template was built from an empty string.
func (t Template) IsZero() bool {
	return strings.TrimSpace(t.raw) == ""
}

// Components returns a copy of the parsed placeholders in template order.
func (t Template) Components() []Component {
	if len(t.components) == 0 {
		return nil
	}
	out := make([]Component, len(t.components))
	copy(out, t.components)
	return out
}

// Resolve substitutes params into the template. Missing parameters drop the
// corresponding portion of the URL. A URL without a scheme is assumed to be
// http.
func (t Template) Resolve(params map[string]string) (*url.URL, error) {
	expanded := t.raw
	for _, c := range t.components {
		expanded = strings.ReplaceAll(expanded, c.Raw, c.expand(params))
	}
	return normalize(expanded)
}

// ResolveString is Resolve returning the URL in string form.
func (t Template) ResolveString(params map[string]string) (string, error) {
	u, err := t.Resolve(params)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (c Component) expand(params map[string]string) string {
	if c.IsQuery() {
		pairs := make([]string, 0, len(c.ParameterKeys))
		for _, key := range c.ParameterKeys {
			value, ok := params[key]
			if !ok {
				continue
			}
			pairs = append(pairs, url.QueryEscape(key)+"="+url.QueryEscape(value))
		}
		if len(pairs) == 0 {
			return ""
		}
		return "?" + strings.Join(pairs, "&")
	}

	// Non-query components carry a single key; extras are ignored.
	if len(c.ParameterKeys) == 0 {
		return ""
	}
	value, ok := params[c.ParameterKeys[0]]
	if !ok {
		return ""
	}
	if c.HasDelimiter {
		return string(c.Delimiter) + value
	}
	return value
}

func normalize(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	if strings.HasPrefix(trimmed, "//") {
		trimmed = "http:" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" || u.Opaque != "" {
		// No scheme, or host:port parsed as scheme:opaque.
		u, err = url.Parse("http://" + trimmed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: %q has no host", ErrInvalidURL, raw)
	}
	return u, nil
}
