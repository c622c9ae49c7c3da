// Package urltemplate resolves the placeholder URLs embedded in catalog
// payloads.
//
// Catalog entries carry URLs such as
//
//	//cdn.example.com/images/channel/7.png{?size,height,width,quality}
//	http://static.example.com/sprites{/id}
//
// A placeholder has the form {<delimiter><key>[,<key>...]}. When the
// delimiter is "?" the placeholder is a query block: it expands to
// "?k1=v1&k2=v2" using only the keys present in the parameter map, and
// disappears entirely when none are present. Any other placeholder names a
// single key and expands to "<delimiter><value>", or to nothing when the key
// is missing.
//
// Templates are parsed once with Parse and resolved any number of times with
// Resolve. Substitution replaces the exact matched placeholder text, so
// offsets never need to be tracked. A result without a scheme is treated as
// http, and only a result that is not a valid URL is reported as an error.
package urltemplate
