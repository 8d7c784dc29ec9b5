package cdmforge

import (
	"github.com/agentstation/cdmforge/pkg/errors"
	"github.com/agentstation/cdmforge/pkg/match"
)

// options configures a Builder.
type options struct {
	domain            string
	domainDescription string

	foundationFile string // explicit foundational schema, or "" to auto-discover
	foundationDir  string // searched when foundationFile is empty
	sourcesDir     string // rationalized source schemas
	outputDir      string // persisted artifacts

	matcher      match.Matcher
	sourcesToMap []string // nil means match every discovered source
	skipMatching bool     // reuse persisted match files only
	reuseMatches bool     // prefer persisted match files over re-matching
}

func defaultOptions() *options {
	return &options{
		foundationDir: "cdm",
		sourcesDir:    "rationalized",
		outputDir:     "full_cdm",
	}
}

// Option is a function that configures a Builder.
type Option func(*options) error

func (options *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	return options, nil
}

// newOptions returns builder options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithDomain sets the domain name. Required.
func WithDomain(domain string) Option {
	return func(o *options) error {
		if domain == "" {
			return &errors.ValidationError{
				Field:   "domain",
				Message: "cannot be empty",
			}
		}
		o.domain = domain
		return nil
	}
}

// WithDomainDescription sets the domain context passed to matchers.
func WithDomainDescription(description string) Option {
	return func(o *options) error {
		o.domainDescription = description
		return nil
	}
}

// WithFoundationFile sets an explicit foundational schema file, bypassing
// auto-discovery.
func WithFoundationFile(path string) Option {
	return func(o *options) error {
		o.foundationFile = path
		return nil
	}
}

// WithFoundationDir sets the directory searched for the latest foundational
// schema when no explicit file is given.
func WithFoundationDir(dir string) Option {
	return func(o *options) error {
		o.foundationDir = dir
		return nil
	}
}

// WithSourcesDir sets the directory holding rationalized source schemas.
func WithSourcesDir(dir string) Option {
	return func(o *options) error {
		o.sourcesDir = dir
		return nil
	}
}

// WithOutputDir sets the directory where artifacts are written.
func WithOutputDir(dir string) Option {
	return func(o *options) error {
		o.outputDir = dir
		return nil
	}
}

// WithMatcher sets the matcher used to generate match files.
func WithMatcher(matcher match.Matcher) Option {
	return func(o *options) error {
		if matcher == nil {
			return &errors.ValidationError{
				Field:   "matcher",
				Message: "cannot be nil",
			}
		}
		o.matcher = matcher
		return nil
	}
}

// WithSourcesToMap restricts matching to the named source-types. Sources
// outside the list still participate in the build through persisted match
// files when those exist.
func WithSourcesToMap(sourceTypes ...string) Option {
	return func(o *options) error {
		o.sourcesToMap = sourceTypes
		return nil
	}
}

// WithSkipMatching disables match generation entirely; the build uses
// persisted match files only.
func WithSkipMatching(skip bool) Option {
	return func(o *options) error {
		o.skipMatching = skip
		return nil
	}
}

// WithMatchFileReuse makes the build prefer a persisted match file over
// re-running the matcher for that source-type.
func WithMatchFileReuse(reuse bool) Option {
	return func(o *options) error {
		o.reuseMatches = reuse
		return nil
	}
}
