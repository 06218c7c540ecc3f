package contract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/toyz/feigo/internal/errors"
)

// Marker kinds bound by DefaultRules.
const (
	MarkerRequestLine = "request_line"
	MarkerHeaders     = "headers"
	MarkerBody        = "body"
	MarkerParam       = "param"
	MarkerQueryMap    = "query_map"
	MarkerHeaderMap   = "header_map"
	MarkerIgnore      = "ignore"
)

var requestLinePattern = regexp.MustCompile(`^([A-Z]+)[ ]*(.*)$`)

var httpMethods = map[string]bool{
	"GET":     true,
	"HEAD":    true,
	"POST":    true,
	"PUT":     true,
	"DELETE":  true,
	"CONNECT": true,
	"OPTIONS": true,
	"TRACE":   true,
	"PATCH":   true,
}

// DefaultRules returns the standard marker bindings:
//
//	//feigo::request_line GET /users/{id} -DecodeSlash=false -CollectionFormat=CSV
//	//feigo::headers "Accept: application/json" "X-Trace: {trace}"
//	//feigo::body "{\"name\": \"{name}\"}"
//	//feigo::param id -Name=user_id -Expander=pkg.Upper -Encoded
//	//feigo::query_map filters
//	//feigo::header_map extra
//	//feigo::ignore
//
// The returned set is not sealed so callers may add kinds before use.
func DefaultRules(opts ...RuleSetOption) *RuleSet {
	r := NewRuleSet("Default", opts...)

	mustRegister(r.RegisterClass(MarkerHeaders, headersOnClass))
	mustRegister(r.RegisterMethod(MarkerRequestLine, requestLineOnMethod))
	mustRegister(r.RegisterMethod(MarkerBody, bodyOnMethod))
	mustRegister(r.RegisterMethod(MarkerHeaders, headersOnMethod))
	mustRegister(r.RegisterMethod(MarkerIgnore, ignoreOnMethod))
	mustRegister(r.RegisterParameter(MarkerParam, paramOnParameter))
	mustRegister(r.RegisterParameter(MarkerQueryMap, queryMapOnParameter))
	mustRegister(r.RegisterParameter(MarkerHeaderMap, headerMapOnParameter))

	return r
}

func mustRegister(err error) {
	if err != nil {
		panic(err)
	}
}

// headersOnClass merges into the template; names already present win.
func headersOnClass(m Marker, data *MethodMetadata) error {
	if len(m.Values) == 0 {
		return errors.EmptyMarkerValue(data.ConfigKey(), data.Warnings(),
			"Headers marker was empty on type %s.", data.ConfigKey())
	}
	headers, err := toHeaderMap(m.Values, data)
	if err != nil {
		return err
	}
	headers.PutAll(data.Template().Headers())
	data.Template().SetHeaders(nil)
	data.Template().SetHeaders(headers)
	return nil
}

// headersOnMethod replaces whatever the template holds.
func headersOnMethod(m Marker, data *MethodMetadata) error {
	if len(m.Values) == 0 {
		return errors.EmptyMarkerValue(data.ConfigKey(), data.Warnings(),
			"Headers marker was empty on method %s.", data.ConfigKey())
	}
	headers, err := toHeaderMap(m.Values, data)
	if err != nil {
		return err
	}
	data.Template().SetHeaders(headers)
	return nil
}

func toHeaderMap(lines []string, data *MethodMetadata) (*HeaderMap, error) {
	headers := NewHeaderMap()
	for _, line := range lines {
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			return nil, errors.MarkerFormat(data.ConfigKey(), data.Warnings(),
				"Header %q is not of the form \"Name: value\"", line)
		}
		headers.Add(strings.TrimSpace(line[:colon]), strings.TrimSpace(line[colon+1:]))
	}
	return headers, nil
}

func requestLineOnMethod(m Marker, data *MethodMetadata) error {
	line := strings.TrimSpace(m.Value())
	if line == "" {
		return errors.EmptyMarkerValue(data.ConfigKey(), data.Warnings(),
			"RequestLine marker was empty on method %s.", data.ConfigKey())
	}

	match := requestLinePattern.FindStringSubmatch(line)
	if match == nil {
		return errors.MarkerFormat(data.ConfigKey(), data.Warnings(),
			"RequestLine marker didn't start with an HTTP verb on method %s", data.ConfigKey())
	}
	if !httpMethods[match[1]] {
		return errors.MarkerFormat(data.ConfigKey(), data.Warnings(),
			"RequestLine marker has unknown HTTP verb %s on method %s", match[1], data.ConfigKey())
	}
	data.Template().SetVerb(match[1])
	data.Template().SetURI(match[2])

	decodeSlash := true
	if v, ok := m.Option("DecodeSlash"); ok && v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return errors.MarkerFormat(data.ConfigKey(), data.Warnings(),
				"RequestLine option DecodeSlash=%q is not a boolean", v)
		}
		decodeSlash = parsed
	}
	data.Template().SetDecodeSlash(decodeSlash)

	format := Exploded
	if v, ok := m.Option("CollectionFormat"); ok {
		parsed, valid := ParseCollectionFormat(v)
		if !valid {
			return errors.MarkerFormat(data.ConfigKey(), data.Warnings(),
				"RequestLine option CollectionFormat=%q must be one of EXPLODED, CSV, SSV, TSV, PIPES", v)
		}
		format = parsed
	}
	data.Template().SetCollectionFormat(format)
	return nil
}

func bodyOnMethod(m Marker, data *MethodMetadata) error {
	value := m.Value()
	if strings.TrimSpace(value) == "" {
		return errors.EmptyMarkerValue(data.ConfigKey(), data.Warnings(),
			"Body marker was empty on method %s.", data.ConfigKey())
	}
	if strings.IndexByte(value, '{') == -1 {
		data.Template().SetBody(value)
	} else {
		data.Template().SetBodyTemplate(value)
	}
	return nil
}

func ignoreOnMethod(_ Marker, data *MethodMetadata) error {
	data.IgnoreMethod()
	return nil
}

func paramOnParameter(m Marker, data *MethodMetadata, index int) (bool, error) {
	name, _ := m.Option("Name")
	if strings.TrimSpace(name) == "" {
		name = m.Value()
	}
	if strings.TrimSpace(name) == "" {
		if method := data.Method(); method != nil && index < len(method.Params) {
			name = method.Params[index].Name
		}
	}
	name = strings.TrimSpace(name)
	if name == "" || name == "_" {
		return false, errors.EmptyMarkerValue(data.ConfigKey(), data.Warnings(),
			"Param marker was empty on param %d.", index)
	}

	data.NameParam(index, name)
	if expander, ok := m.Option("Expander"); ok && expander != "" {
		data.SetExpanderClass(index, expander)
	}
	if m.Flag("Encoded") {
		data.SetEncoded(index, true)
	}
	if !data.Template().HasRequestVariable(name) {
		data.AddFormParam(name)
	}
	return true, nil
}

func queryMapOnParameter(m Marker, data *MethodMetadata, index int) (bool, error) {
	if _, ok := data.QueryMapIndex(); ok {
		return false, errors.ParameterConflict(data.ConfigKey(), data.Warnings(),
			"QueryMap marker was present on multiple parameters.")
	}
	data.SetQueryMapIndex(index)
	if m.Flag("Encoded") {
		data.SetEncoded(index, true)
	}
	return false, nil
}

func headerMapOnParameter(_ Marker, data *MethodMetadata, index int) (bool, error) {
	if _, ok := data.HeaderMapIndex(); ok {
		return false, errors.ParameterConflict(data.ConfigKey(), data.Warnings(),
			"HeaderMap marker was present on multiple parameters.")
	}
	data.SetHeaderMapIndex(index)
	return false, nil
}
