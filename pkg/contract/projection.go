package contract

// Projection is the persistable view of a MethodMetadata. Runtime-only
// fields (resolved types, back-references and identity) are left out.
type Projection struct {
	ConfigKey            string             `json:"configKey" yaml:"configKey"`
	Ignored              bool               `json:"ignored,omitempty" yaml:"ignored,omitempty"`
	URLIndex             *int               `json:"urlIndex,omitempty" yaml:"urlIndex,omitempty"`
	BodyIndex            *int               `json:"bodyIndex,omitempty" yaml:"bodyIndex,omitempty"`
	HeaderMapIndex       *int               `json:"headerMapIndex,omitempty" yaml:"headerMapIndex,omitempty"`
	QueryMapIndex        *int               `json:"queryMapIndex,omitempty" yaml:"queryMapIndex,omitempty"`
	AlwaysEncodeBody     bool               `json:"alwaysEncodeBody,omitempty" yaml:"alwaysEncodeBody,omitempty"`
	IndexToName          map[int][]string   `json:"indexToName,omitempty" yaml:"indexToName,omitempty"`
	IndexToExpanderClass map[int]string     `json:"indexToExpanderClass,omitempty" yaml:"indexToExpanderClass,omitempty"`
	IndexToEncoded       map[int]bool       `json:"indexToEncoded,omitempty" yaml:"indexToEncoded,omitempty"`
	ParameterToIgnore    []int              `json:"parameterToIgnore,omitempty" yaml:"parameterToIgnore,omitempty"`
	FormParams           []string           `json:"formParams,omitempty" yaml:"formParams,omitempty"`
	Warnings             []string           `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Template             TemplateProjection `json:"template" yaml:"template"`
}

// TemplateProjection is the persistable view of a Template.
type TemplateProjection struct {
	Method           string             `json:"method,omitempty" yaml:"method,omitempty"`
	URI              string             `json:"uri,omitempty" yaml:"uri,omitempty"`
	Headers          []HeaderProjection `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body             string             `json:"body,omitempty" yaml:"body,omitempty"`
	BodyTemplate     string             `json:"bodyTemplate,omitempty" yaml:"bodyTemplate,omitempty"`
	DecodeSlash      bool               `json:"decodeSlash" yaml:"decodeSlash"`
	CollectionFormat CollectionFormat   `json:"collectionFormat" yaml:"collectionFormat"`
}

// HeaderProjection keeps header order stable across encoders.
type HeaderProjection struct {
	Name   string   `json:"name" yaml:"name"`
	Values []string `json:"values" yaml:"values"`
}

// Projection returns the persistable view of m.
func (m *MethodMetadata) Projection() Projection {
	p := Projection{
		ConfigKey:        m.configKey,
		Ignored:          m.ignored,
		URLIndex:         copyIndex(m.urlIndex),
		BodyIndex:        copyIndex(m.bodyIndex),
		HeaderMapIndex:   copyIndex(m.headerMapIndex),
		QueryMapIndex:    copyIndex(m.queryMapIndex),
		AlwaysEncodeBody: m.alwaysEncodeBody,
		FormParams:       m.FormParams(),
		Warnings:         m.WarningList(),
		Template:         m.template.Projection(),
	}
	if len(m.indexToName) > 0 {
		p.IndexToName = m.IndexToName()
	}
	if len(m.indexToExpanderClass) > 0 {
		p.IndexToExpanderClass = m.IndexToExpanderClass()
	}
	if len(m.indexToEncoded) > 0 {
		p.IndexToEncoded = make(map[int]bool, len(m.indexToEncoded))
		for i, v := range m.indexToEncoded {
			p.IndexToEncoded[i] = v
		}
	}
	if len(m.parameterToIgnore) > 0 {
		p.ParameterToIgnore = m.IgnoredParameters()
	}
	return p
}

// Projection returns the persistable view of t.
func (t *Template) Projection() TemplateProjection {
	p := TemplateProjection{
		Method:           t.verb,
		URI:              t.uri,
		Body:             t.body,
		BodyTemplate:     t.bodyTemplate,
		DecodeSlash:      t.decodeSlash,
		CollectionFormat: t.collectionFormat,
	}
	for _, name := range t.headerNames {
		p.Headers = append(p.Headers, HeaderProjection{Name: name, Values: t.Header(name)})
	}
	return p
}

// Project maps descriptors to projections preserving order.
func Project(descriptors []*MethodMetadata) []Projection {
	out := make([]Projection, len(descriptors))
	for i, d := range descriptors {
		out[i] = d.Projection()
	}
	return out
}

func copyIndex(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
