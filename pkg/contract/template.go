package contract

import (
	"regexp"
	"strings"
)

// CollectionFormat controls how multi-valued parameters are expanded.
type CollectionFormat string

const (
	Exploded CollectionFormat = "EXPLODED"
	CSV      CollectionFormat = "CSV"
	SSV      CollectionFormat = "SSV"
	TSV      CollectionFormat = "TSV"
	Pipes    CollectionFormat = "PIPES"
)

// ParseCollectionFormat maps a marker option to a CollectionFormat.
func ParseCollectionFormat(s string) (CollectionFormat, bool) {
	switch CollectionFormat(strings.ToUpper(s)) {
	case Exploded:
		return Exploded, true
	case CSV:
		return CSV, true
	case SSV:
		return SSV, true
	case TSV:
		return TSV, true
	case Pipes:
		return Pipes, true
	}
	return "", false
}

// Separator returns the joining string, empty for EXPLODED.
func (f CollectionFormat) Separator() string {
	switch f {
	case CSV:
		return ","
	case SSV:
		return " "
	case TSV:
		return "\t"
	case Pipes:
		return "|"
	}
	return ""
}

var placeholderPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// Template is the not-yet-executed shape of an HTTP request.
type Template struct {
	verb             string
	uri              string
	headerNames      []string
	headers          map[string][]string
	body             string
	bodyTemplate     string
	decodeSlash      bool
	collectionFormat CollectionFormat
}

// NewTemplate returns an empty template with default options.
func NewTemplate() *Template {
	return &Template{
		headers:          make(map[string][]string),
		decodeSlash:      true,
		collectionFormat: Exploded,
	}
}

// Verb returns the HTTP method.
func (t *Template) Verb() string { return t.verb }

// SetVerb sets the HTTP method.
func (t *Template) SetVerb(verb string) { t.verb = verb }

// URI returns the request path and query template.
func (t *Template) URI() string { return t.uri }

// SetURI sets the request path and query template.
func (t *Template) SetURI(uri string) { t.uri = uri }

// Body returns the literal body, if any.
func (t *Template) Body() string { return t.body }

// BodyTemplate returns the body template, if any.
func (t *Template) BodyTemplate() string { return t.bodyTemplate }

// DecodeSlash reports whether encoded slashes are decoded in the path.
func (t *Template) DecodeSlash() bool { return t.decodeSlash }

// SetDecodeSlash sets the slash decoding flag.
func (t *Template) SetDecodeSlash(v bool) { t.decodeSlash = v }

// CollectionFormat returns how multi-valued query parameters are joined.
func (t *Template) CollectionFormat() CollectionFormat {
	return t.collectionFormat
}

// SetCollectionFormat sets the query collection format.
func (t *Template) SetCollectionFormat(f CollectionFormat) {
	t.collectionFormat = f
}

// SetBody sets a literal body and clears any body template.
func (t *Template) SetBody(body string) {
	t.body = body
	t.bodyTemplate = ""
}

// SetBodyTemplate sets a body with placeholders and clears any literal body.
func (t *Template) SetBodyTemplate(tmpl string) {
	t.bodyTemplate = tmpl
	t.body = ""
}

// HeaderNames returns header names in insertion order.
func (t *Template) HeaderNames() []string {
	return append([]string(nil), t.headerNames...)
}

// Header returns the values for one header.
func (t *Template) Header(name string) []string {
	return append([]string(nil), t.headers[name]...)
}

// Headers returns a copy of all headers together with their order.
func (t *Template) Headers() *HeaderMap {
	h := NewHeaderMap()
	for _, name := range t.headerNames {
		h.Add(name, t.headers[name]...)
	}
	return h
}

// SetHeaders replaces all headers. A nil or empty map clears them.
func (t *Template) SetHeaders(h *HeaderMap) {
	t.headerNames = nil
	t.headers = make(map[string][]string)
	if h == nil {
		return
	}
	for _, name := range h.Names() {
		t.headerNames = append(t.headerNames, name)
		t.headers[name] = h.Values(name)
	}
}

// HasRequestVariable reports whether {name} is a placeholder in the URI,
// a header value or the body template.
func (t *Template) HasRequestVariable(name string) bool {
	if hasPlaceholder(t.uri, name) || hasPlaceholder(t.bodyTemplate, name) {
		return true
	}
	for _, values := range t.headers {
		for _, v := range values {
			if hasPlaceholder(v, name) {
				return true
			}
		}
	}
	return false
}

// Variables lists every placeholder name in URI, headers and body template.
func (t *Template) Variables() []string {
	seen := make(map[string]bool)
	var out []string
	collect := func(s string) {
		for _, m := range placeholderPattern.FindAllStringSubmatch(s, -1) {
			name := placeholderName(m[1])
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	collect(t.uri)
	for _, name := range t.headerNames {
		for _, v := range t.headers[name] {
			collect(v)
		}
	}
	collect(t.bodyTemplate)
	return out
}

func hasPlaceholder(s, name string) bool {
	if !strings.Contains(s, "{") {
		return false
	}
	for _, m := range placeholderPattern.FindAllStringSubmatch(s, -1) {
		if placeholderName(m[1]) == name {
			return true
		}
	}
	return false
}

// placeholderName strips an optional ":regex" constraint, as in {id:[0-9]+}.
func placeholderName(expr string) string {
	if i := strings.IndexByte(expr, ':'); i >= 0 {
		expr = expr[:i]
	}
	return strings.TrimSpace(expr)
}

// HeaderMap is an insertion-ordered multimap of header values.
type HeaderMap struct {
	names  []string
	values map[string][]string
}

// NewHeaderMap returns an empty HeaderMap.
func NewHeaderMap() *HeaderMap {
	return &HeaderMap{values: make(map[string][]string)}
}

// Add appends values to name, creating it at the end of the order if absent.
func (h *HeaderMap) Add(name string, values ...string) {
	if _, ok := h.values[name]; !ok {
		h.names = append(h.names, name)
		h.values[name] = nil
	}
	h.values[name] = append(h.values[name], values...)
}

// Put replaces the values of name, keeping its position if already present.
func (h *HeaderMap) Put(name string, values []string) {
	if _, ok := h.values[name]; !ok {
		h.names = append(h.names, name)
	}
	h.values[name] = append([]string(nil), values...)
}

// PutAll copies every entry of o over h.
func (h *HeaderMap) PutAll(o *HeaderMap) {
	if o == nil {
		return
	}
	for _, name := range o.names {
		h.Put(name, o.values[name])
	}
}

// Has reports whether name is present.
func (h *HeaderMap) Has(name string) bool {
	_, ok := h.values[name]
	return ok
}

// Names returns header names in insertion order.
func (h *HeaderMap) Names() []string {
	return append([]string(nil), h.names...)
}

// Values returns a copy of the values for name.
func (h *HeaderMap) Values(name string) []string {
	return append([]string(nil), h.values[name]...)
}

// Len returns the number of distinct names.
func (h *HeaderMap) Len() int {
	return len(h.names)
}
