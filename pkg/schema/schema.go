// Package schema defines the canonical data model that all sources are
// reconciled into, along with the source-side and foundation-side records
// it is built from.
//
// Entity and attribute names in the canonical schema are authoritative:
// reconciliation matches against them case-insensitively but never rewrites
// them. Lineage maps are pre-populated with one empty list per configured
// source-type at initialization, so downstream consumers can index them
// without nil checks.
package schema

import (
	"encoding/json"

	"github.com/agentstation/utc"
)

// CanonicalSchema is the single target entity-attribute model that all
// sources are reconciled into. It is created once per run, mutated in place
// by exactly one apply invocation, then persisted as an immutable snapshot.
type CanonicalSchema struct {
	Domain            string             `json:"domain" yaml:"domain"`
	DomainDescription string             `json:"domain_description" yaml:"domain_description"`
	Version           string             `json:"cdm_version" yaml:"cdm_version"`
	GeneratedDate     utc.Time           `json:"generated_date" yaml:"generated_date"`
	SourceFiles       map[string]string  `json:"source_files" yaml:"source_files"` // source-type -> rationalized filename
	Entities          []*CanonicalEntity `json:"entities" yaml:"entities"`
	Summary           *Summary           `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// CanonicalEntity is one entity of the canonical schema.
type CanonicalEntity struct {
	EntityName     string                     `json:"entity_name" yaml:"entity_name"`
	Description    string                     `json:"description" yaml:"description"`
	Classification string                     `json:"classification" yaml:"classification"`
	SourceLineage  map[string][]EntityLineage `json:"source_lineage" yaml:"source_lineage"`
	Attributes     []*CanonicalAttribute      `json:"attributes" yaml:"attributes"`

	// Relationships are copied opaquely from the foundation and never
	// re-validated against the entity set.
	Relationships []json.RawMessage `json:"relationships" yaml:"relationships"`
}

// CanonicalAttribute is one attribute of a canonical entity.
type CanonicalAttribute struct {
	AttributeName  string                        `json:"attribute_name" yaml:"attribute_name"`
	DataType       string                        `json:"data_type" yaml:"data_type"`
	MaxLength      *int                          `json:"max_length" yaml:"max_length"`
	Precision      *int                          `json:"precision" yaml:"precision"`
	Scale          *int                          `json:"scale" yaml:"scale"`
	Cardinality    string                        `json:"cardinality" yaml:"cardinality"`
	Required       bool                          `json:"required" yaml:"required"`
	Nullable       bool                          `json:"nullable" yaml:"nullable"`
	PK             bool                          `json:"pk" yaml:"pk"`
	Description    string                        `json:"description" yaml:"description"`
	BusinessRules  []*Rule                       `json:"business_rules" yaml:"business_rules"`
	ValidationRules []*Rule                      `json:"validation_rules" yaml:"validation_rules"`
	PossibleValues []string                      `json:"possible_values" yaml:"possible_values"`
	ExampleValues  []string                      `json:"example_values" yaml:"example_values"`
	DefaultValue   *string                       `json:"default_value" yaml:"default_value"`
	Classification string                        `json:"classification" yaml:"classification"`
	IsPII          bool                          `json:"is_pii" yaml:"is_pii"`
	IsPHI          bool                          `json:"is_phi" yaml:"is_phi"`
	SourceLineage  map[string][]AttributeLineage `json:"source_lineage" yaml:"source_lineage"`
}

// Rule is a business or validation rule attached to a canonical attribute.
// Identity is the rule text: merging the same text from a new source adds
// that source to the existing rule instead of creating a duplicate.
type Rule struct {
	Rule    string   `json:"rule" yaml:"rule"`
	Sources []string `json:"sources" yaml:"sources"`
}

// HasSource reports whether the rule already carries the given source-type.
func (r *Rule) HasSource(sourceType string) bool {
	for _, s := range r.Sources {
		if s == sourceType {
			return true
		}
	}
	return false
}

// AddSource adds a source-type to the rule's source set. Adding a
// source-type that is already present is a no-op.
func (r *Rule) AddSource(sourceType string) {
	if !r.HasSource(sourceType) {
		r.Sources = append(r.Sources, sourceType)
	}
}

// MergeRule merges a rule text from one source into a rule list, deduping
// on exact text. It returns the updated list.
func MergeRule(rules []*Rule, text, sourceType string) []*Rule {
	for _, r := range rules {
		if r.Rule == text {
			r.AddSource(sourceType)
			return rules
		}
	}
	return append(rules, &Rule{Rule: text, Sources: []string{sourceType}})
}

// EntityLineage records which source entity contributed to a canonical
// entity and through which files.
type EntityLineage struct {
	SourceEntity string   `json:"source_entity" yaml:"source_entity"`
	SourceFiles  []string `json:"source_files" yaml:"source_files"`
	API          *string  `json:"api" yaml:"api"`
	Schema       *string  `json:"schema" yaml:"schema"`
	Table        *string  `json:"table" yaml:"table"`
}

// AttributeLineage records which source attribute mapped onto a canonical
// attribute, with enough source metadata to audit the mapping.
type AttributeLineage struct {
	SourceEntity    string          `json:"source_entity" yaml:"source_entity"`
	SourceAttribute string          `json:"source_attribute" yaml:"source_attribute"`
	SourceFiles     []string        `json:"source_files" yaml:"source_files"`
	MappingType     string          `json:"mapping_type" yaml:"mapping_type"`
	Confidence      string          `json:"confidence" yaml:"confidence"`
	DataType        string          `json:"data_type" yaml:"data_type"`
	Required        *bool           `json:"required" yaml:"required"`
	Description     string          `json:"description" yaml:"description"`

	// Binding is optional terminology binding metadata passed through
	// opaquely from the source for downstream enrichment.
	Binding json.RawMessage `json:"binding,omitempty" yaml:"binding,omitempty"`
}

// Summary holds coverage statistics computed over a final canonical schema.
type Summary struct {
	TotalEntities             int            `json:"total_entities" yaml:"total_entities"`
	TotalAttributes           int            `json:"total_attributes" yaml:"total_attributes"`
	TotalRelationships        int            `json:"total_relationships" yaml:"total_relationships"`
	AttributeCoverageBySource map[string]int `json:"attribute_coverage_by_source" yaml:"attribute_coverage_by_source"`
}
