package apply

import (
	"github.com/agentstation/utc"
	"github.com/google/uuid"
)

// Report is the disposition accounting for one apply invocation. It is the
// authoritative record of everything that went wrong: per-item problems
// accumulate here instead of aborting the run.
type Report struct {
	RunID               string             `json:"run_id"`
	GeneratedTimestamp  utc.Time           `json:"generated_timestamp"`
	SourcesApplied      []SourceCounts     `json:"sources_applied"`
	TotalMapped         int                `json:"total_mapped"`
	TotalUnmapped       int                `json:"total_unmapped"`
	TotalRequiresReview int                `json:"total_requires_review"`
	UnmappedFields      []UnmappedField    `json:"unmapped_fields"`
	RequiresReview      []ReviewField      `json:"requires_review_fields"`
	Errors              []ApplicationError `json:"application_errors"`
}

// SourceCounts is the per-source disposition tally.
type SourceCounts struct {
	SourceType     string `json:"source_type"`
	Mapped         int    `json:"mapped"`
	Unmapped       int    `json:"unmapped"`
	RequiresReview int    `json:"requires_review"`
}

// UnmappedField records one source attribute that found no canonical home,
// with any advisory suggestions the matcher offered.
type UnmappedField struct {
	SourceType         string `json:"source_type"`
	SourceEntity       string `json:"source_entity"`
	SourceAttribute    string `json:"source_attribute"`
	Reason             string `json:"reason"`
	SuggestedCDMEntity string `json:"suggested_cdm_entity,omitempty"`
	SuggestedAttribute string `json:"suggested_attribute_name,omitempty"`
}

// ReviewField records a mapping the matcher flagged for human review.
type ReviewField struct {
	SourceType      string `json:"source_type"`
	SourceEntity    string `json:"source_entity"`
	SourceAttribute string `json:"source_attribute"`
	CDMEntity       string `json:"cdm_entity"`
	CDMAttribute    string `json:"cdm_attribute"`
	MappingType     string `json:"mapping_type"`
	Confidence      string `json:"confidence"`
	ReviewReason    string `json:"review_reason"`
}

// ApplicationError records a match file entry that referenced an
// unresolvable canonical entity or attribute, or omitted a required field.
// Only the offending attribute mapping is dropped.
type ApplicationError struct {
	SourceType      string `json:"source_type"`
	SourceEntity    string `json:"source_entity"`
	SourceAttribute string `json:"source_attribute"`
	Error           string `json:"error"`
}

// newReport creates an empty report with a fresh run ID.
func newReport() *Report {
	return &Report{
		RunID:              uuid.NewString(),
		GeneratedTimestamp: utc.Now(),
		SourcesApplied:     []SourceCounts{},
		UnmappedFields:     []UnmappedField{},
		RequiresReview:     []ReviewField{},
		Errors:             []ApplicationError{},
	}
}

// HasGaps reports whether any unmapped fields, review items, or
// application errors were recorded.
func (r *Report) HasGaps() bool {
	return len(r.UnmappedFields) > 0 || len(r.RequiresReview) > 0 || len(r.Errors) > 0
}
