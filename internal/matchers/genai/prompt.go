package genai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agentstation/cdmforge/pkg/match"
)

// buildPrompt renders the entity mapping prompt for one source entity. The
// compact catalog and the entity's attributes are embedded as indented
// JSON so the model sees the same field names it must emit.
func buildPrompt(req *match.Request) (string, error) {
	catalogJSON, err := json.MarshalIndent(req.Catalog, "", "  ")
	if err != nil {
		return "", err
	}
	attrsJSON, err := json.MarshalIndent(req.Entity.Attributes, "", "  ")
	if err != nil {
		return "", err
	}

	sourceUpper := strings.ToUpper(req.SourceType)
	description := req.Entity.Description
	if description == "" {
		description = "N/A"
	}
	businessContext := req.Entity.BusinessContext
	if businessContext == "" {
		businessContext = "N/A"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Map %s entity attributes to the CDM. Every source attribute MUST be accounted for.\n\n", sourceUpper)
	fmt.Fprintf(&b, "DOMAIN: %s\n", req.Domain)
	fmt.Fprintf(&b, "DOMAIN CONTEXT: %s\n\n", req.DomainDescription)
	fmt.Fprintf(&b, "SOURCE TYPE: %s\n", sourceUpper)
	fmt.Fprintf(&b, "SOURCE ENTITY: %s\n", req.Entity.EntityName)
	fmt.Fprintf(&b, "Description: %s\n", description)
	fmt.Fprintf(&b, "Business Context: %s\n", businessContext)
	fmt.Fprintf(&b, "Attributes to map: %d\n\n", len(req.Entity.Attributes))

	fmt.Fprintf(&b, `TASK:
1. For each source attribute, find the best matching CDM entity.attribute
2. Extract validation_rules and business_rules from source metadata
3. High Quality mapping is REQUIRED - review EACH AND EVERY ATTRIBUTE in SOURCE %s for a proper match in CDM, use all available information to make best match.
4. There should be few unmapped attributes. If one occurs, mark as gap (potential CDM addition needed).
5. If confidence is low for an attribute mapping, set requires_review=true and include review_reason.

CRITICAL: Every source attribute MUST appear in attribute_mappings with disposition "mapped" or "unmapped".

CDM CATALOG:
%s

SOURCE ATTRIBUTES:
%s

`, req.Entity.EntityName, catalogJSON, attrsJSON)

	fmt.Fprintf(&b, `OUTPUT (JSON only, no markdown):
{
  "source_type": %q,
  "source_entity": %q,
  "entity_evaluation": {
    "maps_to_cdm_entity": "Carrier",
    "confidence": "high",
    "reasoning": "..."
  },
  "attribute_mappings": [
    {
      "source_attribute": "carrier_code",
      "disposition": "mapped",
      "cdm_entity": "Carrier",
      "cdm_attribute": "carrier_code",
      "mapping_type": "direct",
      "confidence": "high",
      "requires_review": false,
      "validation_rules_extracted": ["Required", "Max length 10"],
      "business_rules_extracted": ["Must be unique within organization"]
    },
    {
      "source_attribute": "effective_date",
      "disposition": "mapped",
      "cdm_entity": "Carrier",
      "cdm_attribute": "effective_start_date",
      "mapping_type": "semantic_alias",
      "confidence": "low",
      "requires_review": true,
      "review_reason": "Semantic match uncertain",
      "validation_rules_extracted": [],
      "business_rules_extracted": []
    },
    {
      "source_attribute": "unknown_field",
      "disposition": "unmapped",
      "reason": "No semantic match in CDM - potential gap",
      "suggested_cdm_entity": "Carrier",
      "suggested_attribute_name": "unknown_field",
      "validation_rules_extracted": [],
      "business_rules_extracted": []
    }
  ],
  "summary": {
    "total_attributes": %d,
    "mapped": 0,
    "unmapped": 0,
    "requires_review": 0
  }
}

MAPPING TYPES:
- direct: Exact semantic match
- semantic_alias: Same concept, different name
- transformed: Requires data transformation
- conditional: Maps under certain conditions

CONFIDENCE LEVELS:
- high: Certain match based on name, type, and description
- medium: Reasonable match but some ambiguity
- low: Uncertain match - requires SME review

RULES:
- Match on semantic meaning, not just name similarity
- Use case-insensitive matching for entity/attribute names
- Extract validation_rules from source (Required, Max length, Format, etc.)
- Extract business_rules from source (Must be unique, Derived from X, etc.)
- Low confidence mappings: set requires_review=true with review_reason
- Unmapped = CDM gap requiring review
- Output ONLY valid JSON
`, req.SourceType, req.Entity.EntityName, len(req.Entity.Attributes))

	return b.String(), nil
}
