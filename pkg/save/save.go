// Package save persists the pipeline's JSON artifacts: canonical schema
// snapshots, match files, disposition reports, and gap reports. All
// artifacts are UTF-8 indented JSON with a fixed-width timestamp embedded
// in the filename, so "latest" comparisons stay lexicographic. Once
// written, artifacts are never mutated.
package save

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/agentstation/cdmforge/pkg/apply"
	"github.com/agentstation/cdmforge/pkg/constants"
	"github.com/agentstation/cdmforge/pkg/errors"
	"github.com/agentstation/cdmforge/pkg/gaps"
	"github.com/agentstation/cdmforge/pkg/match"
	"github.com/agentstation/cdmforge/pkg/registry"
	"github.com/agentstation/cdmforge/pkg/schema"
)

// Snapshot writes the final canonical schema as
// {domain}_full_{timestamp}.json and returns the path written.
func Snapshot(dir string, canonical *schema.CanonicalSchema, opts ...Option) (string, error) {
	options := Defaults().Apply(opts...)
	name := registry.NormalizeDomain(canonical.Domain) + "_full_" + stamp(options) + constants.ArtifactExt
	return writeJSON(dir, name, canonical)
}

// Initialized writes a freshly initialized canonical schema as
// {domain}_initialized_{timestamp}.json, a resume and debugging aid kept
// alongside the final snapshot.
func Initialized(dir string, canonical *schema.CanonicalSchema, opts ...Option) (string, error) {
	options := Defaults().Apply(opts...)
	name := registry.NormalizeDomain(canonical.Domain) + "_initialized_" + stamp(options) + constants.ArtifactExt
	return writeJSON(dir, name, canonical)
}

// MatchFile writes one source's match file as
// match_{source_type}_{timestamp}.json.
func MatchFile(dir string, mf *match.MatchFile, opts ...Option) (string, error) {
	options := Defaults().Apply(opts...)
	name := constants.MatchFilePrefix + "_" + mf.SourceType + "_" + stamp(options) + constants.ArtifactExt
	return writeJSON(dir, name, mf)
}

// Disposition writes the application report as
// disposition_{domain}_{timestamp}.json.
func Disposition(dir, domain string, report *apply.Report, opts ...Option) (string, error) {
	options := Defaults().Apply(opts...)
	name := constants.DispositionPrefix + "_" + registry.NormalizeDomain(domain) + "_" + stamp(options) + constants.ArtifactExt
	return writeJSON(dir, name, report)
}

// Gaps writes the gap report as gaps_{domain}_{timestamp}.json. A nil gap
// report writes nothing and returns an empty path.
func Gaps(dir, domain string, report *gaps.Report, opts ...Option) (string, error) {
	if report == nil {
		return "", nil
	}
	options := Defaults().Apply(opts...)
	name := constants.GapsPrefix + "_" + registry.NormalizeDomain(domain) + "_" + stamp(options) + constants.ArtifactExt
	return writeJSON(dir, name, report)
}

func stamp(options Options) string {
	return options.Timestamp().Format(constants.TimestampLayout)
}

func writeJSON(dir, name string, v any) (string, error) {
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return "", errors.WrapIO("create", dir, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", errors.WrapParse("json", name, err)
	}
	data = append(data, '\n')

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, constants.FilePermissions); err != nil {
		return "", errors.WrapIO("write", path, err)
	}
	return path, nil
}
