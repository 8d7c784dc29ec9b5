package match

import (
	"encoding/json"
	"os"

	"github.com/agentstation/utc"

	"github.com/agentstation/cdmforge/pkg/errors"
)

// MatchFile is the persisted output of matching one source against the
// canonical schema. Match files are independently resumable: a build can
// reuse a previously persisted match file instead of re-running the
// matcher for that source-type.
type MatchFile struct {
	SourceType           string          `json:"source_type"`
	SourceFile           string          `json:"source_file"`
	GeneratedTimestamp   utc.Time        `json:"generated_timestamp"`
	SourceEntityCount    int             `json:"source_entity_count"`
	SourceAttributeCount int             `json:"source_attribute_count"`
	Failures             []Failure       `json:"ai_failures"`
	EntityMappings       []EntityMapping `json:"entity_mappings"`
}

// Failure records a matcher failure for one source entity. A failure never
// aborts the source's processing; the remaining entities still run.
type Failure struct {
	SourceEntity   string   `json:"source_entity"`
	AttributeCount int      `json:"attribute_count"`
	Error          string   `json:"error"`
	Timestamp      utc.Time `json:"timestamp"`
}

// EntityMapping is a matcher's complete answer for one source entity.
type EntityMapping struct {
	SourceEntity      string             `json:"source_entity"`
	EntityEvaluation  EntityEvaluation   `json:"entity_evaluation"`
	AttributeMappings []AttributeMapping `json:"attribute_mappings"`
	Summary           *MappingSummary    `json:"summary,omitempty"`
}

// EntityEvaluation is the matcher's entity-level target guess.
type EntityEvaluation struct {
	MapsToCDMEntity string `json:"maps_to_cdm_entity"`
	Confidence      string `json:"confidence"`
	Reasoning       string `json:"reasoning"`
}

// AttributeMapping is one attribute-level disposition. For mapped
// dispositions CDMEntity and CDMAttribute are required; for unmapped
// dispositions Reason and the Suggested* hints are advisory.
type AttributeMapping struct {
	SourceAttribute string      `json:"source_attribute"`
	Disposition     Disposition `json:"disposition"`

	// Mapped fields
	CDMEntity      string `json:"cdm_entity,omitempty"`
	CDMAttribute   string `json:"cdm_attribute,omitempty"`
	MappingType    string `json:"mapping_type,omitempty"`
	Confidence     string `json:"confidence,omitempty"`
	RequiresReview bool   `json:"requires_review,omitempty"`
	ReviewReason   string `json:"review_reason,omitempty"`

	// Unmapped fields
	Reason             string `json:"reason,omitempty"`
	SuggestedCDMEntity string `json:"suggested_cdm_entity,omitempty"`
	SuggestedAttribute string `json:"suggested_attribute_name,omitempty"`

	// Rules extracted from source metadata, merged into the canonical
	// attribute on apply.
	ValidationRules []string `json:"validation_rules_extracted"`
	BusinessRules   []string `json:"business_rules_extracted"`
}

// MappingSummary is the matcher's self-reported accounting for one entity.
type MappingSummary struct {
	TotalAttributes int `json:"total_attributes"`
	Mapped          int `json:"mapped"`
	Unmapped        int `json:"unmapped"`
	RequiresReview  int `json:"requires_review"`
}

// Validate checks the structural invariants of a matcher response before
// it is accepted into a match file.
func (m *EntityMapping) Validate() error {
	if m.SourceEntity == "" {
		return errors.NewValidationError("source_entity", nil, "missing source entity name")
	}
	for i := range m.AttributeMappings {
		am := &m.AttributeMappings[i]
		if am.SourceAttribute == "" {
			return errors.NewValidationError("source_attribute", nil, "attribute mapping missing source attribute name")
		}
		if !am.Disposition.IsValid() {
			return errors.NewValidationError("disposition", am.Disposition, "unknown disposition for "+am.SourceAttribute)
		}
	}
	return nil
}

// Load reads a persisted match file from disk.
func Load(path string) (*MatchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var mf MatchFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, errors.WrapParse("json", path, err)
	}
	return &mf, nil
}
