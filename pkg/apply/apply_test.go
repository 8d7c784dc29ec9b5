package apply

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/cdmforge/pkg/match"
	"github.com/agentstation/cdmforge/pkg/schema"
)

func planFoundation() *schema.Foundation {
	return &schema.Foundation{
		Domain: "plan",
		Entities: []schema.FoundationEntity{
			{
				EntityName: "Plan",
				Attributes: []schema.FoundationAttribute{
					{Name: "plan_id", Type: "VARCHAR(50)", Required: true, PK: true},
					{Name: "plan_name", Type: "VARCHAR(120)"},
					{Name: "effective_start_date", Type: "DATE"},
				},
			},
			{
				EntityName: "Member",
				Attributes: []schema.FoundationAttribute{
					{Name: "member_id", Type: "VARCHAR(50)", Required: true, PK: true},
				},
			},
		},
	}
}

func guardrailsSource() *schema.SourceSchema {
	api := "plans/v1"
	return &schema.SourceSchema{
		SourceType: "guardrails",
		Domain:     "plan",
		Entities: []schema.SourceEntity{
			{
				EntityName: "Plan",
				SourceInfo: &schema.SourceInfo{
					Files: []string{"plans.yaml"},
					API:   &api,
				},
				Attributes: []schema.SourceAttribute{
					{
						AttributeName: "PLAN_ID",
						DataType:      "string",
						Required:      true,
						Description:   "Plan identifier",
						SourceFiles:   []string{"plans.yaml"},
						Metadata: &schema.SourceAttributeMetadata{
							Binding: json.RawMessage(`{"path":"$.plan.id"}`),
						},
					},
					{AttributeName: "effective_date", DataType: "date"},
					{AttributeName: "tier_count", DataType: "number"},
				},
			},
		},
	}
}

func guardrailsMatchFile() *match.MatchFile {
	return &match.MatchFile{
		SourceType: "guardrails",
		SourceFile: "rationalized_guardrails_plan_20250101_090000.json",
		EntityMappings: []match.EntityMapping{
			{
				SourceEntity: "Plan",
				EntityEvaluation: match.EntityEvaluation{
					MapsToCDMEntity: "plan", // resolved case-insensitively
					Confidence:      match.ConfidenceHigh,
				},
				AttributeMappings: []match.AttributeMapping{
					{
						SourceAttribute: "PLAN_ID",
						Disposition:     match.DispositionMapped,
						CDMEntity:       "PLAN",
						CDMAttribute:    "Plan_Id",
						MappingType:     match.MappingTypeDirect,
						Confidence:      match.ConfidenceHigh,
						ValidationRules: []string{"Required"},
						BusinessRules:   []string{"Must be unique within organization"},
					},
					{
						SourceAttribute: "effective_date",
						Disposition:     match.DispositionMapped,
						CDMEntity:       "Plan",
						CDMAttribute:    "effective_start_date",
						MappingType:     match.MappingTypeSemanticAlias,
						Confidence:      match.ConfidenceLow,
						RequiresReview:  true,
					},
					{
						SourceAttribute:    "tier_count",
						Disposition:        match.DispositionUnmapped,
						Reason:             "No semantic match in CDM - potential gap",
						SuggestedCDMEntity: "Plan",
						SuggestedAttribute: "tier_count",
					},
				},
			},
		},
	}
}

func findAttr(t *testing.T, canonical *schema.CanonicalSchema, entityName, attrName string) *schema.CanonicalAttribute {
	t.Helper()
	for _, entity := range canonical.Entities {
		if entity.EntityName != entityName {
			continue
		}
		for _, attr := range entity.Attributes {
			if attr.AttributeName == attrName {
				return attr
			}
		}
	}
	t.Fatalf("attribute %s.%s not found", entityName, attrName)
	return nil
}

func TestApply(t *testing.T) {
	canonical := schema.Initialize(planFoundation(), []string{"guardrails"}, "")
	sources := map[string]*schema.SourceSchema{"guardrails": guardrailsSource()}
	matchFiles := map[string]*match.MatchFile{"guardrails": guardrailsMatchFile()}

	report := Apply(context.Background(), canonical, matchFiles, sources)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.TotalMapped)
	assert.Equal(t, 1, report.TotalUnmapped)
	assert.Equal(t, 1, report.TotalRequiresReview)
	assert.Empty(t, report.Errors)

	require.Len(t, report.SourcesApplied, 1)
	assert.Equal(t, "guardrails", report.SourcesApplied[0].SourceType)
	assert.Equal(t, 2, report.SourcesApplied[0].Mapped)

	assert.Equal(t, "rationalized_guardrails_plan_20250101_090000.json", canonical.SourceFiles["guardrails"])

	// Entity lineage carries source info from the rationalized source.
	plan := canonical.Entities[0]
	require.Len(t, plan.SourceLineage["guardrails"], 1)
	lineage := plan.SourceLineage["guardrails"][0]
	assert.Equal(t, "Plan", lineage.SourceEntity)
	assert.Equal(t, []string{"plans.yaml"}, lineage.SourceFiles)
	require.NotNil(t, lineage.API)
	assert.Equal(t, "plans/v1", *lineage.API)

	// Attribute lineage: names resolved case-insensitively, canonical
	// spelling untouched, binding passed through opaquely.
	planID := findAttr(t, canonical, "Plan", "plan_id")
	require.Len(t, planID.SourceLineage["guardrails"], 1)
	attrLineage := planID.SourceLineage["guardrails"][0]
	assert.Equal(t, "PLAN_ID", attrLineage.SourceAttribute)
	assert.Equal(t, "string", attrLineage.DataType)
	require.NotNil(t, attrLineage.Required)
	assert.True(t, *attrLineage.Required)
	assert.JSONEq(t, `{"path":"$.plan.id"}`, string(attrLineage.Binding))

	require.Len(t, planID.ValidationRules, 1)
	assert.Equal(t, "Required", planID.ValidationRules[0].Rule)
	assert.Equal(t, []string{"guardrails"}, planID.ValidationRules[0].Sources)
	require.Len(t, planID.BusinessRules, 1)

	// Review entry reports canonical names and the default reason.
	require.Len(t, report.RequiresReview, 1)
	review := report.RequiresReview[0]
	assert.Equal(t, "effective_start_date", review.CDMAttribute)
	assert.Equal(t, "Low confidence mapping", review.ReviewReason)

	// Unmapped entry carries the suggestion hints.
	require.Len(t, report.UnmappedFields, 1)
	assert.Equal(t, "tier_count", report.UnmappedFields[0].SourceAttribute)
	assert.Equal(t, "Plan", report.UnmappedFields[0].SuggestedCDMEntity)
}

func TestApplyIsIdempotent(t *testing.T) {
	canonical := schema.Initialize(planFoundation(), []string{"guardrails"}, "")
	sources := map[string]*schema.SourceSchema{"guardrails": guardrailsSource()}

	Apply(context.Background(), canonical, map[string]*match.MatchFile{"guardrails": guardrailsMatchFile()}, sources)
	Apply(context.Background(), canonical, map[string]*match.MatchFile{"guardrails": guardrailsMatchFile()}, sources)

	plan := canonical.Entities[0]
	assert.Len(t, plan.SourceLineage["guardrails"], 1, "entity lineage is upserted, not duplicated")

	planID := findAttr(t, canonical, "Plan", "plan_id")
	assert.Len(t, planID.SourceLineage["guardrails"], 1, "attribute lineage is upserted, not duplicated")
	assert.Len(t, planID.ValidationRules, 1, "rules dedup on text")
	assert.Equal(t, []string{"guardrails"}, planID.ValidationRules[0].Sources)
}

func TestApplyMergesRulesAcrossSources(t *testing.T) {
	canonical := schema.Initialize(planFoundation(), []string{"guardrails", "x12"}, "")

	mfFor := func(sourceType string) *match.MatchFile {
		return &match.MatchFile{
			SourceType: sourceType,
			SourceFile: "rationalized_" + sourceType + "_plan_20250101_090000.json",
			EntityMappings: []match.EntityMapping{
				{
					SourceEntity:     "Plan",
					EntityEvaluation: match.EntityEvaluation{MapsToCDMEntity: "Plan"},
					AttributeMappings: []match.AttributeMapping{
						{
							SourceAttribute: "plan_id",
							Disposition:     match.DispositionMapped,
							CDMEntity:       "Plan",
							CDMAttribute:    "plan_id",
							ValidationRules: []string{"Required"},
						},
					},
				},
			},
		}
	}

	report := Apply(context.Background(), canonical, map[string]*match.MatchFile{
		"x12":        mfFor("x12"),
		"guardrails": mfFor("guardrails"),
	}, nil)

	assert.Equal(t, 2, report.TotalMapped)

	planID := findAttr(t, canonical, "Plan", "plan_id")
	require.Len(t, planID.ValidationRules, 1, "same rule text from two sources stays one rule")
	// Sorted source-type processing keeps the source order deterministic.
	assert.Equal(t, []string{"guardrails", "x12"}, planID.ValidationRules[0].Sources)

	require.Len(t, report.SourcesApplied, 2)
	assert.Equal(t, "guardrails", report.SourcesApplied[0].SourceType)
	assert.Equal(t, "x12", report.SourcesApplied[1].SourceType)
}

func TestApplyRecordsErrorsWithoutCounting(t *testing.T) {
	canonical := schema.Initialize(planFoundation(), []string{"guardrails"}, "")

	mf := &match.MatchFile{
		SourceType: "guardrails",
		SourceFile: "src.json",
		EntityMappings: []match.EntityMapping{
			{
				SourceEntity:     "Plan",
				EntityEvaluation: match.EntityEvaluation{MapsToCDMEntity: "Plan"},
				AttributeMappings: []match.AttributeMapping{
					// Missing cdm_attribute.
					{SourceAttribute: "a1", Disposition: match.DispositionMapped, CDMEntity: "Plan"},
					// Unknown canonical entity.
					{SourceAttribute: "a2", Disposition: match.DispositionMapped, CDMEntity: "Invoice", CDMAttribute: "x"},
					// Unknown canonical attribute.
					{SourceAttribute: "a3", Disposition: match.DispositionMapped, CDMEntity: "Plan", CDMAttribute: "nope"},
					// One good mapping.
					{SourceAttribute: "a4", Disposition: match.DispositionMapped, CDMEntity: "Plan", CDMAttribute: "plan_id"},
					// One unmapped.
					{SourceAttribute: "a5", Disposition: match.DispositionUnmapped},
				},
			},
		},
	}

	report := Apply(context.Background(), canonical, map[string]*match.MatchFile{"guardrails": mf}, nil)

	require.Len(t, report.Errors, 3)
	assert.Equal(t, 1, report.TotalMapped)
	assert.Equal(t, 1, report.TotalUnmapped)

	// Every attribute mapping is accounted for exactly once.
	total := report.TotalMapped + report.TotalUnmapped + len(report.Errors)
	assert.Equal(t, 5, total)
}

func TestApplyUnresolvedEntityGuessIsNotAnError(t *testing.T) {
	canonical := schema.Initialize(planFoundation(), []string{"guardrails"}, "")

	mf := &match.MatchFile{
		SourceType: "guardrails",
		SourceFile: "src.json",
		EntityMappings: []match.EntityMapping{
			{
				SourceEntity:     "Plan",
				EntityEvaluation: match.EntityEvaluation{MapsToCDMEntity: "NoSuchEntity"},
				AttributeMappings: []match.AttributeMapping{
					{SourceAttribute: "plan_id", Disposition: match.DispositionMapped, CDMEntity: "Plan", CDMAttribute: "plan_id"},
				},
			},
		},
	}

	report := Apply(context.Background(), canonical, map[string]*match.MatchFile{"guardrails": mf}, nil)

	assert.Empty(t, report.Errors, "attribute mappings carry their own targets")
	assert.Equal(t, 1, report.TotalMapped)
	assert.Empty(t, canonical.Entities[0].SourceLineage["guardrails"])
}

func TestReportHasGaps(t *testing.T) {
	report := newReport()
	assert.False(t, report.HasGaps())

	report.UnmappedFields = append(report.UnmappedFields, UnmappedField{})
	assert.True(t, report.HasGaps())
}
