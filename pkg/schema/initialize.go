package schema

import (
	"strconv"
	"strings"

	"github.com/agentstation/utc"
)

// Initialize builds a canonical schema from a foundational schema, adding
// empty source-lineage scaffolding for every configured source-type to
// every entity and attribute. Combined type strings such as VARCHAR(50)
// are split into data_type and max_length; relationships are copied
// through unchanged.
func Initialize(foundation *Foundation, sourceTypes []string, domainDescription string) *CanonicalSchema {
	version := foundation.Version
	if version == "" {
		version = "1.0"
	}

	sourceFiles := make(map[string]string, len(sourceTypes))
	for _, st := range sourceTypes {
		sourceFiles[st] = ""
	}

	out := &CanonicalSchema{
		Domain:            foundation.Domain,
		DomainDescription: domainDescription,
		Version:           version,
		GeneratedDate:     utc.Now(),
		SourceFiles:       sourceFiles,
		Entities:          make([]*CanonicalEntity, 0, len(foundation.Entities)),
	}

	for _, entity := range foundation.Entities {
		canonical := &CanonicalEntity{
			EntityName:     entity.EntityName,
			Description:    entity.Description,
			Classification: entity.Classification,
			SourceLineage:  emptyEntityLineage(sourceTypes),
			Attributes:     make([]*CanonicalAttribute, 0, len(entity.Attributes)),
			Relationships:  entity.Relationships,
		}

		for _, attr := range entity.Attributes {
			dataType, maxLength := splitType(attr.Type)

			cardinality := "0..1"
			if attr.Required {
				cardinality = "1..1"
			}

			canonical.Attributes = append(canonical.Attributes, &CanonicalAttribute{
				AttributeName:   attr.Name,
				DataType:        dataType,
				MaxLength:       maxLength,
				Cardinality:     cardinality,
				Required:        attr.Required,
				Nullable:        !attr.Required,
				PK:              attr.PK,
				Description:     attr.Description,
				BusinessRules:   []*Rule{},
				ValidationRules: []*Rule{},
				ExampleValues:   []string{},
				Classification:  "Operational",
				SourceLineage:   emptyAttributeLineage(sourceTypes),
			})
		}

		out.Entities = append(out.Entities, canonical)
	}

	return out
}

func emptyEntityLineage(sourceTypes []string) map[string][]EntityLineage {
	lineage := make(map[string][]EntityLineage, len(sourceTypes))
	for _, st := range sourceTypes {
		lineage[st] = []EntityLineage{}
	}
	return lineage
}

func emptyAttributeLineage(sourceTypes []string) map[string][]AttributeLineage {
	lineage := make(map[string][]AttributeLineage, len(sourceTypes))
	for _, st := range sourceTypes {
		lineage[st] = []AttributeLineage{}
	}
	return lineage
}

// splitType splits a combined type declaration into a base type and an
// optional length: "VARCHAR(50)" -> ("VARCHAR", 50). For precision types
// like NUMERIC(10,2) the first number is taken as the length. A missing or
// empty declaration defaults to VARCHAR with no length.
func splitType(declared string) (string, *int) {
	declared = strings.TrimSpace(declared)
	if declared == "" {
		return "VARCHAR", nil
	}

	open := strings.Index(declared, "(")
	if open < 0 {
		return declared, nil
	}

	base := declared[:open]
	rest := declared[open+1:]
	close := strings.Index(rest, ")")
	if close < 0 {
		return base, nil
	}

	first := rest[:close]
	if comma := strings.Index(first, ","); comma >= 0 {
		first = first[:comma]
	}

	n, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil {
		return base, nil
	}
	return base, &n
}
