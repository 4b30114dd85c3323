package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FieldKind tags how a form renders a field. The review engine itself treats
// every value as an opaque string.
type FieldKind string

const (
	FieldKindEnum      FieldKind = "enum"
	FieldKindShortText FieldKind = "short_text"
	FieldKindLongText  FieldKind = "long_text"
)

type FieldOption struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

type FieldDefinition struct {
	Name    string        `yaml:"name" json:"name"`
	Kind    FieldKind     `yaml:"kind" json:"kind"`
	Label   string        `yaml:"label" json:"label"`
	Options []FieldOption `yaml:"options,omitempty" json:"options,omitempty"`
}

// FieldCatalog is the static list of application fields and their labels.
type FieldCatalog struct {
	Fields []FieldDefinition `yaml:"fields" json:"fields"`

	byName map[string]FieldDefinition
}

// ParseFieldCatalog decodes and validates a YAML catalog document.
func ParseFieldCatalog(data []byte) (*FieldCatalog, error) {
	var catalog FieldCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse field catalog: %w", err)
	}

	catalog.byName = make(map[string]FieldDefinition, len(catalog.Fields))
	for i, field := range catalog.Fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			return nil, fmt.Errorf("field catalog: entry %d has no name", i)
		}
		if _, dup := catalog.byName[name]; dup {
			return nil, fmt.Errorf("field catalog: duplicate field %q", name)
		}
		switch field.Kind {
		case "":
			field.Kind = FieldKindShortText
		case FieldKindEnum, FieldKindShortText, FieldKindLongText:
		default:
			return nil, fmt.Errorf("field catalog: field %q has unknown kind %q", name, field.Kind)
		}
		if field.Kind == FieldKindEnum && len(field.Options) == 0 {
			return nil, fmt.Errorf("field catalog: enum field %q has no options", name)
		}
		field.Name = name
		catalog.Fields[i] = field
		catalog.byName[name] = field
	}
	return &catalog, nil
}

// LoadFieldCatalog reads the catalog file. A missing file yields an empty
// catalog, which accepts every field name.
func LoadFieldCatalog(path string) (*FieldCatalog, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("Field catalog %s not found, accepting any field name", path)
		return &FieldCatalog{byName: map[string]FieldDefinition{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read field catalog: %w", err)
	}
	return ParseFieldCatalog(data)
}

// Known reports whether name is a catalogued field. An empty catalog knows
// every name.
func (c *FieldCatalog) Known(name string) bool {
	if c == nil || len(c.byName) == 0 {
		return true
	}
	_, ok := c.byName[strings.TrimSpace(name)]
	return ok
}

func (c *FieldCatalog) Lookup(name string) (FieldDefinition, bool) {
	if c == nil {
		return FieldDefinition{}, false
	}
	field, ok := c.byName[strings.TrimSpace(name)]
	return field, ok
}

// OptionLabel returns the human readable label of an enum value, or the
// value itself when no label is configured.
func (c *FieldCatalog) OptionLabel(name, value string) string {
	field, ok := c.Lookup(name)
	if !ok {
		return value
	}
	for _, opt := range field.Options {
		if opt.Value == value {
			return opt.Label
		}
	}
	return value
}
