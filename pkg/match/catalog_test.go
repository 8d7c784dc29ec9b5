package match

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/cdmforge/pkg/constants"
	"github.com/agentstation/cdmforge/pkg/schema"
)

func TestBuildCompactCatalog(t *testing.T) {
	longEntityDesc := strings.Repeat("e", constants.MaxEntityDescription+40)
	longAttrDesc := strings.Repeat("a", constants.MaxAttributeDescription+40)

	canonical := &schema.CanonicalSchema{
		Domain: "plan",
		Entities: []*schema.CanonicalEntity{
			{
				EntityName:     "Plan",
				Description:    longEntityDesc,
				Classification: "Operational",
				Attributes: []*schema.CanonicalAttribute{
					{AttributeName: "plan_id", DataType: "VARCHAR", PK: true, Description: longAttrDesc},
					{AttributeName: "member_count", DataType: "INTEGER"},
					{AttributeName: "effective_date", DataType: "DATE"},
					{AttributeName: "active", DataType: "BOOLEAN"},
					{AttributeName: "payload", DataType: "BLOB"},
				},
			},
		},
	}

	catalog := BuildCompactCatalog(canonical)

	assert.Equal(t, "plan", catalog.Domain)
	require.Len(t, catalog.Entities, 1)

	entity := catalog.Entities[0]
	assert.Len(t, entity.Description, constants.MaxEntityDescription)
	require.Len(t, entity.Attributes, 5)

	assert.Len(t, entity.Attributes[0].Desc, constants.MaxAttributeDescription)
	assert.True(t, entity.Attributes[0].PK)

	wantTypes := []string{"string", "number", "date", "boolean", "string"}
	for i, want := range wantTypes {
		assert.Equal(t, want, entity.Attributes[i].Type, entity.Attributes[i].Name)
	}
}

func TestCompactCatalogLookup(t *testing.T) {
	catalog := &CompactCatalog{
		Entities: []CompactEntity{
			{EntityName: "Plan", Attributes: []CompactAttribute{{Name: "Plan_ID"}}},
		},
	}

	entity := catalog.Entity("PLAN")
	require.NotNil(t, entity, "entity lookup is case-insensitive")

	attr := entity.Attribute("plan_id")
	require.NotNil(t, attr, "attribute lookup is case-insensitive")
	assert.Equal(t, "Plan_ID", attr.Name)

	assert.Nil(t, catalog.Entity("Member"))
	assert.Nil(t, entity.Attribute("missing"))
}

func TestCoarseType(t *testing.T) {
	tests := []struct {
		declared string
		want     string
	}{
		{"varchar", "string"},
		{"TEXT", "string"},
		{"SMALLINT", "number"},
		{"NUMERIC", "number"},
		{"TIMESTAMP", "date"},
		{"BOOL", "boolean"},
		{"", "string"},
		{"GEOMETRY", "string"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, coarseType(tt.declared), tt.declared)
	}
}
