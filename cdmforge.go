// Package cdmforge builds a full canonical data model (CDM) by reconciling
// rationalized source schemas against a foundational schema. A build runs
// the whole pipeline: discover rationalized sources on disk, initialize
// the canonical schema from the foundation, generate (or reuse) one match
// file per source via a pluggable matcher, apply the match files with full
// per-attribute lineage, and emit a disposition report, a gap report, and
// the final schema snapshot as timestamped JSON artifacts.
//
// Example usage:
//
//	builder, err := cdmforge.New(
//	    cdmforge.WithDomain("plan"),
//	    cdmforge.WithSourcesDir("output/plan/rationalized"),
//	    cdmforge.WithOutputDir("output/plan/full_cdm"),
//	    cdmforge.WithMatcher(matcher),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := builder.Build(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Summary())
package cdmforge

import (
	"context"

	"github.com/agentstation/cdmforge/pkg/errors"
	"github.com/agentstation/cdmforge/pkg/registry"
)

// Compile-time interface check to ensure proper implementation.
var _ Builder = (*builder)(nil)

// Builder runs full CDM builds for one configured domain.
type Builder interface {
	// Build runs the complete pipeline and returns the build result.
	Build(ctx context.Context) (*Result, error)

	// Discover returns the latest rationalized source file per
	// source-type without running a build.
	Discover() map[string]string
}

// builder is the internal implementation of the Builder interface.
type builder struct {
	options *options
}

// New creates a Builder with the given options. A domain is required;
// everything else has defaults or is optional.
func New(opts ...Option) (Builder, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	if options.domain == "" {
		return nil, &errors.ValidationError{
			Field:   "domain",
			Message: "domain is required, use WithDomain",
		}
	}
	return &builder{options: options}, nil
}

// Discover returns the latest rationalized source file per source-type.
func (b *builder) Discover() map[string]string {
	return registry.Discover(b.options.sourcesDir, b.options.domain)
}
