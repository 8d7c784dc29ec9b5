package match

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/cdmforge/pkg/schema"
)

func testCatalog() *CompactCatalog {
	return &CompactCatalog{
		Domain: "plan",
		Entities: []CompactEntity{
			{
				EntityName: "Plan",
				Attributes: []CompactAttribute{
					{Name: "plan_id"},
					{Name: "plan_name"},
					{Name: "effective_date"},
				},
			},
			{
				EntityName: "Member",
				Attributes: []CompactAttribute{
					{Name: "member_id"},
				},
			},
		},
	}
}

func TestNameMatcherExactEntity(t *testing.T) {
	matcher := NewNameMatcher()

	mapping, err := matcher.Match(context.Background(), &Request{
		Catalog: testCatalog(),
		Entity: &schema.SourceEntity{
			EntityName: "PLAN",
			Attributes: []schema.SourceAttribute{
				{AttributeName: "PLAN_ID", Required: true},
				{AttributeName: "plan_name"},
				{AttributeName: "tier_count"},
			},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Plan", mapping.EntityEvaluation.MapsToCDMEntity)
	assert.Equal(t, ConfidenceHigh, mapping.EntityEvaluation.Confidence)
	require.Len(t, mapping.AttributeMappings, 3)

	planID := mapping.AttributeMappings[0]
	assert.Equal(t, DispositionMapped, planID.Disposition)
	assert.Equal(t, "plan_id", planID.CDMAttribute, "canonical spelling wins")
	assert.Equal(t, []string{"Required"}, planID.ValidationRules)

	planName := mapping.AttributeMappings[1]
	assert.Equal(t, DispositionMapped, planName.Disposition)
	assert.Empty(t, planName.ValidationRules)

	tierCount := mapping.AttributeMappings[2]
	assert.Equal(t, DispositionUnmapped, tierCount.Disposition)
	assert.Equal(t, "Plan", tierCount.SuggestedCDMEntity)
	assert.Equal(t, "tier_count", tierCount.SuggestedAttribute)

	require.NotNil(t, mapping.Summary)
	assert.Equal(t, 3, mapping.Summary.TotalAttributes)
	assert.Equal(t, 2, mapping.Summary.Mapped)
	assert.Equal(t, 1, mapping.Summary.Unmapped)
}

func TestNameMatcherAttributeOverlapFallback(t *testing.T) {
	matcher := NewNameMatcher()

	mapping, err := matcher.Match(context.Background(), &Request{
		Catalog: testCatalog(),
		Entity: &schema.SourceEntity{
			EntityName: "BenefitPlan",
			Attributes: []schema.SourceAttribute{
				{AttributeName: "plan_id"},
				{AttributeName: "plan_name"},
			},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Plan", mapping.EntityEvaluation.MapsToCDMEntity)
	assert.Equal(t, ConfidenceMedium, mapping.EntityEvaluation.Confidence)
	assert.Equal(t, 2, mapping.Summary.Mapped)
}

func TestNameMatcherNoResolution(t *testing.T) {
	matcher := NewNameMatcher()

	mapping, err := matcher.Match(context.Background(), &Request{
		Catalog: testCatalog(),
		Entity: &schema.SourceEntity{
			EntityName: "Invoice",
			Attributes: []schema.SourceAttribute{
				{AttributeName: "invoice_number"},
			},
		},
	})
	require.NoError(t, err)

	assert.Empty(t, mapping.EntityEvaluation.MapsToCDMEntity)
	assert.Equal(t, ConfidenceLow, mapping.EntityEvaluation.Confidence)
	require.Len(t, mapping.AttributeMappings, 1)
	assert.Equal(t, DispositionUnmapped, mapping.AttributeMappings[0].Disposition)
	assert.Equal(t, 1, mapping.Summary.Unmapped)

	require.NoError(t, mapping.Validate())
}
