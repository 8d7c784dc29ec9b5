package match

import (
	"context"
	"strings"

	"github.com/agentstation/cdmforge/pkg/schema"
)

// NameMatcher is a deterministic Matcher that maps source attributes onto
// canonical attributes by exact case-insensitive name equality. It makes
// the pipeline runnable offline and the reconciliation core testable
// without an LLM in the loop.
type NameMatcher struct{}

// NewNameMatcher creates a NameMatcher.
func NewNameMatcher() *NameMatcher {
	return &NameMatcher{}
}

// Match resolves the source entity to the canonical entity of the same
// name. When no entity name matches, the canonical entity holding the
// largest number of same-named attributes wins. Attributes with no
// same-named counterpart anywhere become unmapped with a suggestion
// against the resolved entity.
func (n *NameMatcher) Match(_ context.Context, req *Request) (*EntityMapping, error) {
	entity := req.Entity
	target := req.Catalog.Entity(entity.EntityName)
	confidence := ConfidenceHigh
	reasoning := "exact entity name match"

	if target == nil {
		target = bestAttributeOverlap(req.Catalog, entity)
		confidence = ConfidenceMedium
		reasoning = "entity chosen by attribute name overlap"
	}

	mapping := &EntityMapping{
		SourceEntity:      entity.EntityName,
		AttributeMappings: make([]AttributeMapping, 0, len(entity.Attributes)),
	}

	if target == nil {
		mapping.EntityEvaluation = EntityEvaluation{
			Confidence: ConfidenceLow,
			Reasoning:  "no canonical entity shares a name or any attribute names",
		}
		for _, attr := range entity.Attributes {
			mapping.AttributeMappings = append(mapping.AttributeMappings, AttributeMapping{
				SourceAttribute: attr.AttributeName,
				Disposition:     DispositionUnmapped,
				Reason:          "no canonical entity resolved for source entity",
				ValidationRules: []string{},
				BusinessRules:   []string{},
			})
		}
		mapping.Summary = summarize(mapping)
		return mapping, nil
	}

	mapping.EntityEvaluation = EntityEvaluation{
		MapsToCDMEntity: target.EntityName,
		Confidence:      confidence,
		Reasoning:       reasoning,
	}

	for _, attr := range entity.Attributes {
		if hit := target.Attribute(attr.AttributeName); hit != nil {
			am := AttributeMapping{
				SourceAttribute: attr.AttributeName,
				Disposition:     DispositionMapped,
				CDMEntity:       target.EntityName,
				CDMAttribute:    hit.Name,
				MappingType:     MappingTypeDirect,
				Confidence:      ConfidenceHigh,
				ValidationRules: []string{},
				BusinessRules:   []string{},
			}
			if attr.Required {
				am.ValidationRules = append(am.ValidationRules, "Required")
			}
			mapping.AttributeMappings = append(mapping.AttributeMappings, am)
			continue
		}

		mapping.AttributeMappings = append(mapping.AttributeMappings, AttributeMapping{
			SourceAttribute:    attr.AttributeName,
			Disposition:        DispositionUnmapped,
			Reason:             "no attribute of the same name on " + target.EntityName,
			SuggestedCDMEntity: target.EntityName,
			SuggestedAttribute: strings.ToLower(attr.AttributeName),
			ValidationRules:    []string{},
			BusinessRules:      []string{},
		})
	}

	mapping.Summary = summarize(mapping)
	return mapping, nil
}

// bestAttributeOverlap returns the compact entity sharing the most
// attribute names with the source entity, or nil when nothing overlaps.
func bestAttributeOverlap(catalog *CompactCatalog, entity *schema.SourceEntity) *CompactEntity {
	var best *CompactEntity
	bestCount := 0

	for i := range catalog.Entities {
		candidate := &catalog.Entities[i]
		count := 0
		for _, attr := range entity.Attributes {
			if candidate.Attribute(attr.AttributeName) != nil {
				count++
			}
		}
		if count > bestCount {
			best = candidate
			bestCount = count
		}
	}

	return best
}

func summarize(m *EntityMapping) *MappingSummary {
	s := &MappingSummary{TotalAttributes: len(m.AttributeMappings)}
	for _, am := range m.AttributeMappings {
		switch am.Disposition {
		case DispositionMapped:
			s.Mapped++
			if am.RequiresReview {
				s.RequiresReview++
			}
		case DispositionUnmapped:
			s.Unmapped++
		}
	}
	return s
}
