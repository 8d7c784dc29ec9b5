package match

import (
	"context"

	"github.com/agentstation/utc"

	"github.com/agentstation/cdmforge/pkg/logging"
	"github.com/agentstation/cdmforge/pkg/schema"
)

// Generator produces one match file per source-type by invoking a Matcher
// once per source entity. A failure for one entity is recorded and the
// remaining entities still run; a single bad entity never aborts a source.
type Generator struct {
	matcher           Matcher
	domain            string
	domainDescription string
}

// NewGenerator creates a Generator that delegates correspondence decisions
// to the given Matcher.
func NewGenerator(matcher Matcher, domain, domainDescription string) *Generator {
	return &Generator{
		matcher:           matcher,
		domain:            domain,
		domainDescription: domainDescription,
	}
}

// Generate matches every entity of one source schema against the compact
// catalog and assembles the match file. Source entities are processed in
// source-file order. The context is checked between entities so a
// cancelled build stops promptly without losing completed mappings.
func (g *Generator) Generate(ctx context.Context, sourceType, sourceFile string, source *schema.SourceSchema, catalog *CompactCatalog) (*MatchFile, error) {
	totalAttrs := 0
	for _, entity := range source.Entities {
		totalAttrs += len(entity.Attributes)
	}

	mf := &MatchFile{
		SourceType:           sourceType,
		SourceFile:           sourceFile,
		GeneratedTimestamp:   utc.Now(),
		SourceEntityCount:    len(source.Entities),
		SourceAttributeCount: totalAttrs,
		Failures:             []Failure{},
		EntityMappings:       []EntityMapping{},
	}

	log := logging.FromContext(ctx)
	log.Info().
		Str("source_type", sourceType).
		Int("entities", len(source.Entities)).
		Int("attributes", totalAttrs).
		Msg("Generating match file")

	for i := range source.Entities {
		if err := ctx.Err(); err != nil {
			return mf, err
		}

		entity := &source.Entities[i]
		mapping, err := g.matcher.Match(ctx, &Request{
			Domain:            g.domain,
			DomainDescription: g.domainDescription,
			SourceType:        sourceType,
			Catalog:           catalog,
			Entity:            entity,
		})
		if err == nil {
			err = mapping.Validate()
		}
		if err != nil {
			log.Warn().
				Err(err).
				Str("source_type", sourceType).
				Str("source_entity", entity.EntityName).
				Msg("Matcher failed for entity")
			mf.Failures = append(mf.Failures, Failure{
				SourceEntity:   entity.EntityName,
				AttributeCount: len(entity.Attributes),
				Error:          err.Error(),
				Timestamp:      utc.Now(),
			})
			continue
		}

		// The matcher's attribute coverage is trusted, not enforced;
		// a shortfall only warns.
		if len(mapping.AttributeMappings) < len(entity.Attributes) {
			log.Warn().
				Str("source_type", sourceType).
				Str("source_entity", entity.EntityName).
				Int("expected", len(entity.Attributes)).
				Int("returned", len(mapping.AttributeMappings)).
				Msg("Matcher returned fewer dispositions than source attributes")
		}

		mf.EntityMappings = append(mf.EntityMappings, *mapping)

		log.Debug().
			Str("source_entity", entity.EntityName).
			Str("maps_to", mapping.EntityEvaluation.MapsToCDMEntity).
			Int("attribute_mappings", len(mapping.AttributeMappings)).
			Msg("Entity matched")
	}

	log.Info().
		Str("source_type", sourceType).
		Int("mapped_entities", len(mf.EntityMappings)).
		Int("failures", len(mf.Failures)).
		Msg("Match file generated")

	return mf, nil
}
