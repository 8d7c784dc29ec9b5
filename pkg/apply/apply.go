// Package apply implements the core merge algorithm of the reconciliation
// pipeline: folding one or more match files into the canonical schema,
// appending lineage, merging rules with source attribution, and keeping
// full disposition accounting.
//
// Entity and attribute resolution is always case-insensitive, and canonical
// names are never rewritten. Canonical entities and attributes are never
// removed; the algorithm only adds to or annotates them. Lineage writes are
// upserts keyed on the contributing source entity/attribute, so re-applying
// the same match file leaves the schema unchanged.
package apply

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/agentstation/cdmforge/pkg/logging"
	"github.com/agentstation/cdmforge/pkg/match"
	"github.com/agentstation/cdmforge/pkg/schema"
)

// index is the case-insensitive lookup over canonical entities and their
// attributes. It is built fresh per apply call and lives entirely outside
// the schema values, so nothing internal can leak into a serialized
// snapshot.
type index struct {
	entities map[string]*entityIndex
}

type entityIndex struct {
	entity     *schema.CanonicalEntity
	attributes map[string]*schema.CanonicalAttribute
}

func newIndex(canonical *schema.CanonicalSchema) *index {
	idx := &index{entities: make(map[string]*entityIndex, len(canonical.Entities))}
	for _, entity := range canonical.Entities {
		ei := &entityIndex{
			entity:     entity,
			attributes: make(map[string]*schema.CanonicalAttribute, len(entity.Attributes)),
		}
		for _, attr := range entity.Attributes {
			ei.attributes[strings.ToLower(attr.AttributeName)] = attr
		}
		idx.entities[strings.ToLower(entity.EntityName)] = ei
	}
	return idx
}

func (idx *index) entity(name string) (*entityIndex, bool) {
	ei, ok := idx.entities[strings.ToLower(name)]
	return ei, ok
}

func (ei *entityIndex) attribute(name string) (*schema.CanonicalAttribute, bool) {
	attr, ok := ei.attributes[strings.ToLower(name)]
	return attr, ok
}

// Apply merges all match files into the canonical schema and returns the
// disposition report. Sources are processed in sorted source-type order so
// lineage ordering and merged rule sources are reproducible across runs.
// The canonical schema is mutated in place.
func Apply(ctx context.Context, canonical *schema.CanonicalSchema, matchFiles map[string]*match.MatchFile, sources map[string]*schema.SourceSchema) *Report {
	log := logging.FromContext(ctx)
	idx := newIndex(canonical)
	report := newReport()

	sourceTypes := make([]string, 0, len(matchFiles))
	for st := range matchFiles {
		sourceTypes = append(sourceTypes, st)
	}
	sort.Strings(sourceTypes)

	for _, sourceType := range sourceTypes {
		mf := matchFiles[sourceType]
		counts := SourceCounts{SourceType: sourceType}

		canonical.SourceFiles[sourceType] = mf.SourceFile

		for i := range mf.EntityMappings {
			applyEntityMapping(idx, sourceType, &mf.EntityMappings[i], sourceEntityFor(sources, sourceType, mf.EntityMappings[i].SourceEntity), report, &counts)
		}

		report.SourcesApplied = append(report.SourcesApplied, counts)
		report.TotalMapped += counts.Mapped
		report.TotalUnmapped += counts.Unmapped
		report.TotalRequiresReview += counts.RequiresReview

		log.Info().
			Str("source_type", sourceType).
			Int("mapped", counts.Mapped).
			Int("unmapped", counts.Unmapped).
			Int("requires_review", counts.RequiresReview).
			Msg("Match file applied")
	}

	return report
}

// sourceEntityFor looks up the source entity behind an entity mapping so
// lineage can carry the source-side metadata. Missing lookups are fine;
// lineage is then recorded with what the match file alone provides.
func sourceEntityFor(sources map[string]*schema.SourceSchema, sourceType, entityName string) *schema.SourceEntity {
	source, ok := sources[sourceType]
	if !ok {
		return nil
	}
	for i := range source.Entities {
		if strings.EqualFold(source.Entities[i].EntityName, entityName) {
			return &source.Entities[i]
		}
	}
	return nil
}

func applyEntityMapping(idx *index, sourceType string, em *match.EntityMapping, sourceEntity *schema.SourceEntity, report *Report, counts *SourceCounts) {
	// Entity-level lineage. An unresolved entity guess is not an error by
	// itself; attribute mappings carry their own targets.
	if ei, ok := idx.entity(em.EntityEvaluation.MapsToCDMEntity); ok {
		upsertEntityLineage(ei.entity, sourceType, entityLineageFor(em.SourceEntity, sourceEntity))
	}

	for i := range em.AttributeMappings {
		am := &em.AttributeMappings[i]

		if am.Disposition == match.DispositionUnmapped {
			counts.Unmapped++
			report.UnmappedFields = append(report.UnmappedFields, UnmappedField{
				SourceType:         sourceType,
				SourceEntity:       em.SourceEntity,
				SourceAttribute:    am.SourceAttribute,
				Reason:             am.Reason,
				SuggestedCDMEntity: am.SuggestedCDMEntity,
				SuggestedAttribute: am.SuggestedAttribute,
			})
			continue
		}

		if am.CDMEntity == "" || am.CDMAttribute == "" {
			report.Errors = append(report.Errors, ApplicationError{
				SourceType:      sourceType,
				SourceEntity:    em.SourceEntity,
				SourceAttribute: am.SourceAttribute,
				Error:           fmt.Sprintf("mapped entry missing cdm_entity or cdm_attribute: entity=%q, attr=%q", am.CDMEntity, am.CDMAttribute),
			})
			continue
		}

		ei, ok := idx.entity(am.CDMEntity)
		if !ok {
			report.Errors = append(report.Errors, ApplicationError{
				SourceType:      sourceType,
				SourceEntity:    em.SourceEntity,
				SourceAttribute: am.SourceAttribute,
				Error:           "canonical entity not found: " + am.CDMEntity,
			})
			continue
		}

		attr, ok := ei.attribute(am.CDMAttribute)
		if !ok {
			report.Errors = append(report.Errors, ApplicationError{
				SourceType:      sourceType,
				SourceEntity:    em.SourceEntity,
				SourceAttribute: am.SourceAttribute,
				Error:           "canonical attribute not found: " + am.CDMEntity + "." + am.CDMAttribute,
			})
			continue
		}

		upsertAttributeLineage(attr, sourceType, attributeLineageFor(em.SourceEntity, am, sourceEntity))

		for _, rule := range am.ValidationRules {
			attr.ValidationRules = schema.MergeRule(attr.ValidationRules, rule, sourceType)
		}
		for _, rule := range am.BusinessRules {
			attr.BusinessRules = schema.MergeRule(attr.BusinessRules, rule, sourceType)
		}

		counts.Mapped++

		if am.RequiresReview {
			counts.RequiresReview++
			reason := am.ReviewReason
			if reason == "" {
				reason = "Low confidence mapping"
			}
			report.RequiresReview = append(report.RequiresReview, ReviewField{
				SourceType:      sourceType,
				SourceEntity:    em.SourceEntity,
				SourceAttribute: am.SourceAttribute,
				CDMEntity:       ei.entity.EntityName,
				CDMAttribute:    attr.AttributeName,
				MappingType:     am.MappingType,
				Confidence:      am.Confidence,
				ReviewReason:    reason,
			})
		}
	}
}

// entityLineageFor builds the lineage record for one source entity.
func entityLineageFor(sourceEntityName string, sourceEntity *schema.SourceEntity) schema.EntityLineage {
	lineage := schema.EntityLineage{
		SourceEntity: sourceEntityName,
		SourceFiles:  []string{},
	}
	if sourceEntity != nil && sourceEntity.SourceInfo != nil {
		info := sourceEntity.SourceInfo
		if info.Files != nil {
			lineage.SourceFiles = info.Files
		}
		lineage.API = info.API
		lineage.Schema = info.Schema
		lineage.Table = info.Table
	}
	return lineage
}

// attributeLineageFor builds the lineage record for one mapped attribute,
// including the binding passthrough when the source carries one.
func attributeLineageFor(sourceEntityName string, am *match.AttributeMapping, sourceEntity *schema.SourceEntity) schema.AttributeLineage {
	mappingType := am.MappingType
	if mappingType == "" {
		mappingType = match.MappingTypeDirect
	}
	confidence := am.Confidence
	if confidence == "" {
		confidence = match.ConfidenceMedium
	}

	lineage := schema.AttributeLineage{
		SourceEntity:    sourceEntityName,
		SourceAttribute: am.SourceAttribute,
		SourceFiles:     []string{},
		MappingType:     mappingType,
		Confidence:      confidence,
	}

	if sourceEntity != nil {
		if sourceAttr := sourceEntity.Attribute(am.SourceAttribute); sourceAttr != nil {
			if sourceAttr.SourceFiles != nil {
				lineage.SourceFiles = sourceAttr.SourceFiles
			}
			lineage.DataType = sourceAttr.DataType
			required := sourceAttr.Required
			lineage.Required = &required
			lineage.Description = sourceAttr.Description
			if sourceAttr.Metadata != nil && len(sourceAttr.Metadata.Binding) > 0 {
				lineage.Binding = sourceAttr.Metadata.Binding
			}
		}
	}

	return lineage
}

// upsertEntityLineage adds a lineage record, replacing any existing record
// for the same source entity so re-application stays idempotent.
func upsertEntityLineage(entity *schema.CanonicalEntity, sourceType string, lineage schema.EntityLineage) {
	existing := entity.SourceLineage[sourceType]
	for i := range existing {
		if strings.EqualFold(existing[i].SourceEntity, lineage.SourceEntity) {
			existing[i] = lineage
			return
		}
	}
	entity.SourceLineage[sourceType] = append(existing, lineage)
}

// upsertAttributeLineage adds a lineage record keyed on the contributing
// (source entity, source attribute) pair.
func upsertAttributeLineage(attr *schema.CanonicalAttribute, sourceType string, lineage schema.AttributeLineage) {
	existing := attr.SourceLineage[sourceType]
	for i := range existing {
		if strings.EqualFold(existing[i].SourceEntity, lineage.SourceEntity) &&
			strings.EqualFold(existing[i].SourceAttribute, lineage.SourceAttribute) {
			existing[i] = lineage
			return
		}
	}
	attr.SourceLineage[sourceType] = append(existing, lineage)
}
