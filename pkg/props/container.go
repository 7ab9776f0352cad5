// Package props implements the chunked section/property container used by the
// ShakeTracker 0.4 module format.
//
// A container is an ordered list of named sections, each holding an ordered
// list of string properties. Adding a property whose name already exists in
// its section keeps the first value.
package props

import (
	"fmt"
	"sort"
)

// Property is a single name/value pair.
type Property struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// SectionDump is a section flattened for serialisation.
type SectionDump struct {
	Name       string     `json:"name" yaml:"name"`
	Properties []Property `json:"properties" yaml:"properties"`
}

// Section is a named, ordered group of properties.
type Section struct {
	name  string
	props []Property
	index map[string]int
}

func newSection(name string) *Section {
	return &Section{name: name, index: make(map[string]int)}
}

// Name returns the section name.
func (s *Section) Name() string {
	return s.name
}

// Add records a property. The value is stored as its fmt.Sprint form. A
// property name that is already present keeps its first value and Add
// reports false.
func (s *Section) Add(name string, value any) bool {
	if _, ok := s.index[name]; ok {
		return false
	}
	s.index[name] = len(s.props)
	s.props = append(s.props, Property{Name: name, Value: fmt.Sprint(value)})
	return true
}

// Get returns the value of the named property.
func (s *Section) Get(name string) (string, bool) {
	i, ok := s.index[name]
	if !ok {
		return "", false
	}
	return s.props[i].Value, true
}

// Properties returns the properties in insertion order.
func (s *Section) Properties() []Property {
	return s.props
}

// Len returns the number of properties.
func (s *Section) Len() int {
	return len(s.props)
}

// Container is an ordered collection of sections with an optional header
// tag written before the first chunk.
type Container struct {
	Header   string
	sections []*Section
	index    map[string]int
}

// New returns an empty container. An empty header means no header tag is
// written or expected.
func New(header string) *Container {
	return &Container{Header: header, index: make(map[string]int)}
}

// AddSection returns the named section, creating it at the end of the
// container if it does not exist yet.
func (c *Container) AddSection(name string) *Section {
	if i, ok := c.index[name]; ok {
		return c.sections[i]
	}
	s := newSection(name)
	c.index[name] = len(c.sections)
	c.sections = append(c.sections, s)
	return s
}

// Section returns the named section.
func (c *Container) Section(name string) (*Section, bool) {
	i, ok := c.index[name]
	if !ok {
		return nil, false
	}
	return c.sections[i], true
}

// Sections returns the sections in insertion order.
func (c *Container) Sections() []*Section {
	return c.sections
}

// Get looks up a property by section and name.
func (c *Container) Get(section, name string) (string, bool) {
	s, ok := c.Section(section)
	if !ok {
		return "", false
	}
	return s.Get(name)
}

// Merge adds every property of other to c. Properties already present in c
// keep their values.
func (c *Container) Merge(other *Container) {
	for _, src := range other.sections {
		s := c.AddSection(src.name)
		for _, p := range src.props {
			s.Add(p.Name, p.Value)
		}
	}
}

// Sorted returns a copy of c with sections, and the properties within each
// section, ordered by name.
func (c *Container) Sorted() *Container {
	names := make([]string, 0, len(c.sections))
	for _, s := range c.sections {
		names = append(names, s.name)
	}
	sort.Strings(names)

	out := New(c.Header)
	for _, name := range names {
		src, _ := c.Section(name)
		props := append([]Property(nil), src.props...)
		sort.Slice(props, func(i, j int) bool { return props[i].Name < props[j].Name })

		dst := out.AddSection(name)
		for _, p := range props {
			dst.Add(p.Name, p.Value)
		}
	}
	return out
}

// Dump flattens c into a plain slice of sections in their current order.
func (c *Container) Dump() []SectionDump {
	out := make([]SectionDump, 0, len(c.sections))
	for _, s := range c.sections {
		out = append(out, SectionDump{Name: s.name, Properties: s.Properties()})
	}
	return out
}
