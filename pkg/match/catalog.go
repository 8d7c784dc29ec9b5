package match

import (
	"strings"

	"github.com/agentstation/cdmforge/pkg/constants"
	"github.com/agentstation/cdmforge/pkg/schema"
)

// CompactCatalog is a token-bounded projection of the canonical schema
// sent to matchers. Descriptions are truncated and data types coarsened to
// keep requests small; neither transformation touches the stored record.
type CompactCatalog struct {
	Domain   string          `json:"domain"`
	Entities []CompactEntity `json:"entities"`
}

// CompactEntity is one entity of the compact catalog.
type CompactEntity struct {
	EntityName     string             `json:"entity_name"`
	Description    string             `json:"description"`
	Classification string             `json:"classification"`
	Attributes     []CompactAttribute `json:"attributes"`
}

// CompactAttribute is one attribute of a compact entity.
type CompactAttribute struct {
	Name string `json:"name"`
	Type string `json:"type"` // coarse: string, number, date, boolean
	PK   bool   `json:"pk"`
	Desc string `json:"desc"`
}

// BuildCompactCatalog projects a canonical schema into a compact catalog.
func BuildCompactCatalog(canonical *schema.CanonicalSchema) *CompactCatalog {
	catalog := &CompactCatalog{
		Domain:   canonical.Domain,
		Entities: make([]CompactEntity, 0, len(canonical.Entities)),
	}

	for _, entity := range canonical.Entities {
		compact := CompactEntity{
			EntityName:     entity.EntityName,
			Description:    truncate(entity.Description, constants.MaxEntityDescription),
			Classification: entity.Classification,
			Attributes:     make([]CompactAttribute, 0, len(entity.Attributes)),
		}

		for _, attr := range entity.Attributes {
			compact.Attributes = append(compact.Attributes, CompactAttribute{
				Name: attr.AttributeName,
				Type: coarseType(attr.DataType),
				PK:   attr.PK,
				Desc: truncate(attr.Description, constants.MaxAttributeDescription),
			})
		}

		catalog.Entities = append(catalog.Entities, compact)
	}

	return catalog
}

// Entity returns the compact entity with the given name, matched
// case-insensitively, or nil.
func (c *CompactCatalog) Entity(name string) *CompactEntity {
	for i := range c.Entities {
		if strings.EqualFold(c.Entities[i].EntityName, name) {
			return &c.Entities[i]
		}
	}
	return nil
}

// Attribute returns the compact attribute with the given name, matched
// case-insensitively, or nil.
func (e *CompactEntity) Attribute(name string) *CompactAttribute {
	for i := range e.Attributes {
		if strings.EqualFold(e.Attributes[i].Name, name) {
			return &e.Attributes[i]
		}
	}
	return nil
}

// coarseType buckets a declared data type into the four coarse types the
// matcher sees. Unknown types fall back to string.
func coarseType(declared string) string {
	switch strings.ToUpper(declared) {
	case "VARCHAR", "CHAR", "TEXT", "STRING":
		return "string"
	case "INT", "INTEGER", "BIGINT", "SMALLINT", "DECIMAL", "NUMERIC", "FLOAT", "DOUBLE":
		return "number"
	case "DATE", "DATETIME", "TIMESTAMP":
		return "date"
	case "BOOLEAN", "BOOL":
		return "boolean"
	default:
		return "string"
	}
}

// truncate clips s to at most max bytes.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
