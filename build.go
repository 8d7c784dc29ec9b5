package cdmforge

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/agentstation/cdmforge/pkg/apply"
	"github.com/agentstation/cdmforge/pkg/errors"
	"github.com/agentstation/cdmforge/pkg/gaps"
	"github.com/agentstation/cdmforge/pkg/logging"
	"github.com/agentstation/cdmforge/pkg/match"
	"github.com/agentstation/cdmforge/pkg/registry"
	"github.com/agentstation/cdmforge/pkg/save"
	"github.com/agentstation/cdmforge/pkg/schema"
)

// Result is the outcome of one full CDM build: the reconciled schema, the
// reports, and the paths of every artifact written.
type Result struct {
	Schema      *schema.CanonicalSchema
	Disposition *apply.Report
	Gaps        *gaps.Report // nil when the build produced no gaps

	// MatchFiles maps source-type to the match file path used, whether
	// freshly generated or reused from a previous run.
	MatchFiles map[string]string

	InitializedPath string
	SchemaPath      string
	DispositionPath string
	GapsPath        string // empty when no gap report was written
}

// Summary returns a human-readable build summary.
func (r *Result) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Full CDM build: %s\n", r.Schema.Domain)
	if s := r.Schema.Summary; s != nil {
		fmt.Fprintf(&b, "  Entities:      %d\n", s.TotalEntities)
		fmt.Fprintf(&b, "  Attributes:    %d\n", s.TotalAttributes)
		fmt.Fprintf(&b, "  Relationships: %d\n", s.TotalRelationships)

		sources := make([]string, 0, len(s.AttributeCoverageBySource))
		for st := range s.AttributeCoverageBySource {
			sources = append(sources, st)
		}
		sort.Strings(sources)
		for _, st := range sources {
			fmt.Fprintf(&b, "  Coverage %-12s %d attributes mapped\n", st+":", s.AttributeCoverageBySource[st])
		}
	}
	fmt.Fprintf(&b, "  Mapped: %d  Unmapped: %d  Requires review: %d\n",
		r.Disposition.TotalMapped, r.Disposition.TotalUnmapped, r.Disposition.TotalRequiresReview)
	if n := len(r.Disposition.Errors); n > 0 {
		fmt.Fprintf(&b, "  Application errors: %d\n", n)
	}
	fmt.Fprintf(&b, "  Snapshot: %s\n", r.SchemaPath)
	if r.GapsPath != "" {
		fmt.Fprintf(&b, "  Gaps:     %s\n", r.GapsPath)
	}
	return b.String()
}

// Build runs the complete pipeline: discover, initialize, match, apply,
// gap-report, and persist.
func (b *builder) Build(ctx context.Context) (*Result, error) {
	log := logging.FromContext(ctx)
	opts := b.options

	// Discover rationalized sources.
	discovered := registry.Discover(opts.sourcesDir, opts.domain)
	if len(discovered) == 0 {
		return nil, errors.NewNotFoundError("rationalized sources", opts.domain)
	}

	sourceTypes := make([]string, 0, len(discovered))
	for st := range discovered {
		sourceTypes = append(sourceTypes, st)
	}
	sort.Strings(sourceTypes)

	log.Info().
		Str("domain", opts.domain).
		Strs("sources", sourceTypes).
		Msg("Discovered rationalized sources")

	// Initialize the canonical schema from the foundation.
	foundationPath := opts.foundationFile
	if foundationPath == "" {
		path, ok := registry.LatestFoundation(opts.foundationDir, opts.domain)
		if !ok {
			return nil, errors.NewNotFoundError("foundational schema", opts.domain)
		}
		foundationPath = path
	}

	foundation, err := schema.LoadFoundation(foundationPath)
	if err != nil {
		return nil, err
	}

	canonical := schema.Initialize(foundation, sourceTypes, opts.domainDescription)
	canonical.Domain = opts.domain

	result := &Result{
		Schema:     canonical,
		MatchFiles: make(map[string]string),
	}

	if result.InitializedPath, err = save.Initialized(opts.outputDir, canonical); err != nil {
		return nil, err
	}
	log.Info().
		Str("foundation", foundationPath).
		Int("entities", len(canonical.Entities)).
		Str("saved", result.InitializedPath).
		Msg("Initialized canonical schema")

	// Load the rationalized sources themselves.
	sources := make(map[string]*schema.SourceSchema, len(discovered))
	for st, path := range discovered {
		source, err := schema.LoadSourceSchema(path)
		if err != nil {
			return nil, err
		}
		sources[st] = source
	}

	// Generate or reuse one match file per source-type.
	matchFiles, err := b.collectMatchFiles(ctx, canonical, discovered, sources, sourceTypes, result)
	if err != nil {
		return nil, err
	}
	if len(matchFiles) == 0 {
		return nil, errors.NewNotFoundError("match files", opts.domain)
	}

	// Apply the match files and report gaps.
	result.Disposition = apply.Apply(ctx, canonical, matchFiles, sources)
	result.Gaps = gaps.Build(result.Disposition, opts.domain)
	canonical.Summary = gaps.Summarize(canonical, sourceTypes)

	// Persist the final artifacts under one shared timestamp.
	now := time.Now()
	if result.SchemaPath, err = save.Snapshot(opts.outputDir, canonical, save.WithTimestamp(now)); err != nil {
		return nil, err
	}
	if result.DispositionPath, err = save.Disposition(opts.outputDir, opts.domain, result.Disposition, save.WithTimestamp(now)); err != nil {
		return nil, err
	}
	if result.GapsPath, err = save.Gaps(opts.outputDir, opts.domain, result.Gaps, save.WithTimestamp(now)); err != nil {
		return nil, err
	}

	log.Info().
		Str("domain", opts.domain).
		Int("mapped", result.Disposition.TotalMapped).
		Int("unmapped", result.Disposition.TotalUnmapped).
		Int("requires_review", result.Disposition.TotalRequiresReview).
		Str("snapshot", result.SchemaPath).
		Msg("Full CDM build complete")

	return result, nil
}

// collectMatchFiles produces the per-source match files to apply, running
// the matcher for sources that need it and reusing persisted match files
// for the rest.
func (b *builder) collectMatchFiles(
	ctx context.Context,
	canonical *schema.CanonicalSchema,
	discovered map[string]string,
	sources map[string]*schema.SourceSchema,
	sourceTypes []string,
	result *Result,
) (map[string]*match.MatchFile, error) {
	log := logging.FromContext(ctx)
	opts := b.options

	catalog := match.BuildCompactCatalog(canonical)
	matchFiles := make(map[string]*match.MatchFile)

	var generator *match.Generator
	if opts.matcher != nil {
		generator = match.NewGenerator(opts.matcher, opts.domain, opts.domainDescription)
	}

	for _, st := range sourceTypes {
		existing, hasExisting := registry.FindMatchFile(opts.outputDir, st)

		generate := generator != nil && !opts.skipMatching
		if generate && opts.sourcesToMap != nil {
			generate = slices.Contains(opts.sourcesToMap, st)
		}
		if generate && opts.reuseMatches && hasExisting {
			generate = false
		}

		switch {
		case generate:
			mf, err := generator.Generate(ctx, st, discovered[st], sources[st], catalog)
			if err != nil {
				return nil, err
			}
			path, err := save.MatchFile(opts.outputDir, mf)
			if err != nil {
				return nil, err
			}
			matchFiles[st] = mf
			result.MatchFiles[st] = path

		case hasExisting:
			mf, err := match.Load(existing)
			if err != nil {
				return nil, err
			}
			log.Info().
				Str("source_type", st).
				Str("match_file", existing).
				Msg("Reusing persisted match file")
			matchFiles[st] = mf
			result.MatchFiles[st] = existing

		default:
			log.Warn().
				Str("source_type", st).
				Msg("No match file available for source, skipping")
		}
	}

	return matchFiles, nil
}
