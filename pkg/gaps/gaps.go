// Package gaps derives advisory artifacts from a finished apply run: the
// gap report of unmapped and low-confidence outcomes, and the coverage
// summary embedded in the canonical snapshot. Nothing in this package
// mutates the canonical schema; suggestions are never merged back
// automatically.
package gaps

import (
	"sort"

	"github.com/agentstation/utc"

	"github.com/agentstation/cdmforge/pkg/apply"
	"github.com/agentstation/cdmforge/pkg/schema"
)

// Report is the advisory gap analysis for one build.
type Report struct {
	Domain             string             `json:"domain"`
	GeneratedTimestamp utc.Time           `json:"generated_timestamp"`
	Summary            Counts             `json:"summary"`
	UnmappedFields     []apply.UnmappedField    `json:"unmapped_fields"`
	RequiresReview     []apply.ReviewField      `json:"requires_review_fields"`
	Errors             []apply.ApplicationError `json:"application_errors"`
	SuggestedAdditions []SuggestedEntity  `json:"suggested_cdm_additions"`
}

// Counts summarizes gap volume, grouped by source-type.
type Counts struct {
	TotalUnmapped          int            `json:"total_unmapped"`
	TotalRequiresReview    int            `json:"total_requires_review"`
	TotalErrors            int            `json:"total_errors"`
	UnmappedBySource       map[string]int `json:"unmapped_by_source"`
	RequiresReviewBySource map[string]int `json:"requires_review_by_source"`
}

// SuggestedEntity groups suggested schema additions under the canonical
// entity the matcher proposed them for.
type SuggestedEntity struct {
	Entity              string               `json:"entity"`
	SuggestedAttributes []SuggestedAttribute `json:"suggested_attributes"`
}

// SuggestedAttribute is one proposed attribute addition and the source
// field that motivated it.
type SuggestedAttribute struct {
	Attribute string `json:"attribute"`
	Source    string `json:"source"` // "{source_type}.{source_entity}.{source_attribute}"
}

// Build derives a gap report from an application report. It returns nil
// when there is nothing to report: no unmapped fields, no review items,
// and no application errors.
func Build(report *apply.Report, domain string) *Report {
	if !report.HasGaps() {
		return nil
	}

	gap := &Report{
		Domain:             domain,
		GeneratedTimestamp: utc.Now(),
		Summary: Counts{
			TotalUnmapped:          len(report.UnmappedFields),
			TotalRequiresReview:    len(report.RequiresReview),
			TotalErrors:            len(report.Errors),
			UnmappedBySource:       map[string]int{},
			RequiresReviewBySource: map[string]int{},
		},
		UnmappedFields:     report.UnmappedFields,
		RequiresReview:     report.RequiresReview,
		Errors:             report.Errors,
		SuggestedAdditions: []SuggestedEntity{},
	}

	for _, field := range report.UnmappedFields {
		gap.Summary.UnmappedBySource[field.SourceType]++
	}
	for _, field := range report.RequiresReview {
		gap.Summary.RequiresReviewBySource[field.SourceType]++
	}

	// Bucket suggestions by proposed entity; only fields carrying both
	// hints qualify.
	buckets := map[string][]SuggestedAttribute{}
	for _, field := range report.UnmappedFields {
		if field.SuggestedCDMEntity == "" || field.SuggestedAttribute == "" {
			continue
		}
		buckets[field.SuggestedCDMEntity] = append(buckets[field.SuggestedCDMEntity], SuggestedAttribute{
			Attribute: field.SuggestedAttribute,
			Source:    field.SourceType + "." + field.SourceEntity + "." + field.SourceAttribute,
		})
	}

	entities := make([]string, 0, len(buckets))
	for entity := range buckets {
		entities = append(entities, entity)
	}
	sort.Strings(entities)

	for _, entity := range entities {
		gap.SuggestedAdditions = append(gap.SuggestedAdditions, SuggestedEntity{
			Entity:              entity,
			SuggestedAttributes: buckets[entity],
		})
	}

	return gap
}

// Summarize computes coverage statistics over a canonical schema: entity,
// attribute, and relationship totals plus, per source-type, how many
// attributes carry at least one lineage entry from that source.
func Summarize(canonical *schema.CanonicalSchema, sourceTypes []string) *schema.Summary {
	summary := &schema.Summary{
		AttributeCoverageBySource: make(map[string]int, len(sourceTypes)),
	}
	for _, st := range sourceTypes {
		summary.AttributeCoverageBySource[st] = 0
	}

	summary.TotalEntities = len(canonical.Entities)
	for _, entity := range canonical.Entities {
		summary.TotalAttributes += len(entity.Attributes)
		summary.TotalRelationships += len(entity.Relationships)

		for _, attr := range entity.Attributes {
			for _, st := range sourceTypes {
				if len(attr.SourceLineage[st]) > 0 {
					summary.AttributeCoverageBySource[st]++
				}
			}
		}
	}

	return summary
}
