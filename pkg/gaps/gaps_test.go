package gaps

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/cdmforge/pkg/apply"
	"github.com/agentstation/cdmforge/pkg/schema"
)

func TestBuildReturnsNilWhenClean(t *testing.T) {
	report := &apply.Report{TotalMapped: 10}
	assert.Nil(t, Build(report, "plan"))
}

func TestBuild(t *testing.T) {
	report := &apply.Report{
		UnmappedFields: []apply.UnmappedField{
			{
				SourceType:         "guardrails",
				SourceEntity:       "Plan",
				SourceAttribute:    "tier_count",
				SuggestedCDMEntity: "Plan",
				SuggestedAttribute: "tier_count",
			},
			{
				SourceType:         "x12",
				SourceEntity:       "LoopA",
				SourceAttribute:    "seg_01",
				SuggestedCDMEntity: "Carrier",
				SuggestedAttribute: "segment_code",
			},
			{
				// No suggestion hints: excluded from additions, still counted.
				SourceType:      "x12",
				SourceEntity:    "LoopB",
				SourceAttribute: "seg_02",
			},
		},
		RequiresReview: []apply.ReviewField{
			{SourceType: "guardrails", SourceAttribute: "effective_date"},
		},
		Errors: []apply.ApplicationError{
			{SourceType: "x12", SourceAttribute: "bad"},
		},
	}

	gap := Build(report, "plan")
	require.NotNil(t, gap)

	assert.Equal(t, "plan", gap.Domain)
	assert.False(t, gap.GeneratedTimestamp.IsZero())
	assert.Equal(t, 3, gap.Summary.TotalUnmapped)
	assert.Equal(t, 1, gap.Summary.TotalRequiresReview)
	assert.Equal(t, 1, gap.Summary.TotalErrors)
	assert.Equal(t, map[string]int{"guardrails": 1, "x12": 2}, gap.Summary.UnmappedBySource)
	assert.Equal(t, map[string]int{"guardrails": 1}, gap.Summary.RequiresReviewBySource)

	// Suggestions grouped by proposed entity, entities sorted.
	require.Len(t, gap.SuggestedAdditions, 2)
	assert.Equal(t, "Carrier", gap.SuggestedAdditions[0].Entity)
	assert.Equal(t, "Plan", gap.SuggestedAdditions[1].Entity)

	carrier := gap.SuggestedAdditions[0]
	require.Len(t, carrier.SuggestedAttributes, 1)
	assert.Equal(t, "segment_code", carrier.SuggestedAttributes[0].Attribute)
	assert.Equal(t, "x12.LoopA.seg_01", carrier.SuggestedAttributes[0].Source)
}

func TestBuildErrorsOnlyStillReports(t *testing.T) {
	report := &apply.Report{
		Errors: []apply.ApplicationError{{SourceType: "x12", Error: "boom"}},
	}

	gap := Build(report, "plan")
	require.NotNil(t, gap)
	assert.Equal(t, 1, gap.Summary.TotalErrors)
	assert.Empty(t, gap.SuggestedAdditions)
}

func TestSummarize(t *testing.T) {
	canonical := &schema.CanonicalSchema{
		Entities: []*schema.CanonicalEntity{
			{
				EntityName:    "Plan",
				Relationships: make([]json.RawMessage, 2),
				Attributes: []*schema.CanonicalAttribute{
					{
						AttributeName: "plan_id",
						SourceLineage: map[string][]schema.AttributeLineage{
							"guardrails": {{SourceAttribute: "PLAN_ID"}},
							"x12":        {},
						},
					},
					{
						AttributeName: "plan_name",
						SourceLineage: map[string][]schema.AttributeLineage{
							"guardrails": {},
							"x12":        {},
						},
					},
				},
			},
		},
	}

	summary := Summarize(canonical, []string{"guardrails", "x12"})

	assert.Equal(t, 1, summary.TotalEntities)
	assert.Equal(t, 2, summary.TotalAttributes)
	assert.Equal(t, 2, summary.TotalRelationships)
	assert.Equal(t, map[string]int{"guardrails": 1, "x12": 0}, summary.AttributeCoverageBySource)
}
