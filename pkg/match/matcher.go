// Package match owns the matcher side of the reconciliation pipeline:
// projecting the canonical schema into a compact catalog, delegating
// entity/attribute correspondence decisions to a pluggable Matcher, and
// assembling the per-source match file that the applier later merges.
//
// The Matcher is a black box to this package. It may be an LLM adapter, a
// deterministic rule table, or a human review surface; retry and timeout
// policy belongs to the adapter, never to the generator.
package match

import (
	"context"

	"github.com/agentstation/cdmforge/pkg/schema"
)

// Request carries everything a Matcher needs to decide how one source
// entity corresponds to the canonical schema.
type Request struct {
	Domain            string
	DomainDescription string
	SourceType        string
	Catalog           *CompactCatalog
	Entity            *schema.SourceEntity
}

// Matcher proposes entity and attribute correspondences for one source
// entity at a time. Implementations must return one attribute-level
// disposition per source attribute; the generator trusts that claim but
// warns when the returned count falls short.
type Matcher interface {
	Match(ctx context.Context, req *Request) (*EntityMapping, error)
}

// Disposition classifies a source attribute's reconciliation outcome.
type Disposition string

// Attribute dispositions.
const (
	DispositionMapped   Disposition = "mapped"
	DispositionUnmapped Disposition = "unmapped"
)

// IsValid reports whether the disposition is one of the known values.
func (d Disposition) IsValid() bool {
	return d == DispositionMapped || d == DispositionUnmapped
}

// String returns the string representation of the disposition.
func (d Disposition) String() string {
	return string(d)
}

// Mapping type constants describe how a source attribute maps onto a
// canonical attribute.
const (
	MappingTypeDirect        = "direct"
	MappingTypeSemanticAlias = "semantic_alias"
	MappingTypeTransformed   = "transformed"
	MappingTypeConditional   = "conditional"
)

// Confidence level constants.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)
