package schema

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/agentstation/cdmforge/pkg/errors"
)

// SourceSchema is one rationalized source schema: the already-normalized
// entity/attribute set extracted from a single standard or catalog.
type SourceSchema struct {
	SourceType string         `json:"source_type" yaml:"source_type"`
	Domain     string         `json:"domain" yaml:"domain"`
	Entities   []SourceEntity `json:"entities" yaml:"entities"`
}

// SourceEntity is one entity of a rationalized source schema.
type SourceEntity struct {
	EntityName      string            `json:"entity_name" yaml:"entity_name"`
	Description     string            `json:"description" yaml:"description"`
	BusinessContext string            `json:"business_context" yaml:"business_context"`
	SourceInfo      *SourceInfo       `json:"source_info,omitempty" yaml:"source_info,omitempty"`
	Attributes      []SourceAttribute `json:"attributes" yaml:"attributes"`
}

// SourceInfo identifies where a source entity came from within its source
// system.
type SourceInfo struct {
	Files  []string `json:"files" yaml:"files"`
	API    *string  `json:"api" yaml:"api"`
	Schema *string  `json:"schema" yaml:"schema"`
	Table  *string  `json:"table" yaml:"table"`
}

// SourceAttribute is one attribute of a source entity.
type SourceAttribute struct {
	AttributeName string   `json:"attribute_name" yaml:"attribute_name"`
	DataType      string   `json:"data_type" yaml:"data_type"`
	Required      bool     `json:"required" yaml:"required"`
	Description   string   `json:"description" yaml:"description"`
	SourceFiles   []string `json:"source_files_element,omitempty" yaml:"source_files_element,omitempty"`

	// Metadata carries optional binding information passed through to
	// attribute lineage when the attribute maps.
	Metadata *SourceAttributeMetadata `json:"source_metadata,omitempty" yaml:"source_metadata,omitempty"`
}

// SourceAttributeMetadata is optional per-attribute metadata from the
// source format converter.
type SourceAttributeMetadata struct {
	Binding json.RawMessage `json:"binding,omitempty" yaml:"binding,omitempty"`
}

// Attribute returns the source attribute with the given name, matched
// case-insensitively, or nil if the entity has no such attribute.
func (e *SourceEntity) Attribute(name string) *SourceAttribute {
	for i := range e.Attributes {
		if strings.EqualFold(e.Attributes[i].AttributeName, name) {
			return &e.Attributes[i]
		}
	}
	return nil
}

// LoadSourceSchema reads a rationalized source schema from a JSON file.
func LoadSourceSchema(path string) (*SourceSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var source SourceSchema
	if err := json.Unmarshal(data, &source); err != nil {
		return nil, errors.WrapParse("json", path, err)
	}

	return &source, nil
}
