// Package registry discovers pipeline input files on disk: rationalized
// source schemas, previously generated match files, and foundational
// schemas. All discovery is best-effort filename parsing with no side
// effects; files that don't fit the naming conventions are silently
// skipped rather than treated as errors.
package registry

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/agentstation/cdmforge/pkg/constants"
)

// Discover finds the latest rationalized source file per source-type for a
// domain. Filenames follow the fixed convention
//
//	rationalized_{source_type}_{domain_with_underscores}_{YYYYMMDD}_{HHMMSS}.json
//
// The domain may span several underscore-separated tokens; everything
// between the source-type token and the trailing date/time tokens is
// reconstructed and compared case-insensitively. Because the timestamp
// format is fixed-width, the lexicographically greatest timestamp is the
// latest file. A missing directory yields an empty map, not an error.
func Discover(dir, domain string) map[string]string {
	discovered := make(map[string]string)
	wanted := NormalizeDomain(domain)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return discovered
	}

	latest := make(map[string]string) // source-type -> timestamp of chosen file

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), constants.ArtifactExt) {
			continue
		}

		stem := strings.TrimSuffix(entry.Name(), constants.ArtifactExt)
		parts := strings.Split(stem, "_")

		// rationalized / source / domain... / date / time
		if len(parts) < 5 || parts[0] != constants.RationalizedPrefix {
			continue
		}

		sourceType := strings.ToLower(parts[1])
		fileDomain := strings.ToLower(strings.Join(parts[2:len(parts)-2], "_"))
		if fileDomain != wanted {
			continue
		}

		timestamp := strings.Join(parts[len(parts)-2:], "_")
		if existing, ok := latest[sourceType]; !ok || timestamp > existing {
			latest[sourceType] = timestamp
			discovered[sourceType] = filepath.Join(dir, entry.Name())
		}
	}

	return discovered
}

// ExistingMatchFiles finds the latest persisted match file per source-type
// in dir. Match files are named match_{source_type}_{timestamp}.json.
func ExistingMatchFiles(dir string) map[string]string {
	existing := make(map[string]string)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return existing
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), constants.ArtifactExt) {
			continue
		}

		stem := strings.TrimSuffix(entry.Name(), constants.ArtifactExt)
		parts := strings.Split(stem, "_")
		if len(parts) < 2 || parts[0] != constants.MatchFilePrefix {
			continue
		}

		sourceType := parts[1]
		current, ok := existing[sourceType]
		if !ok || entry.Name() > filepath.Base(current) {
			existing[sourceType] = filepath.Join(dir, entry.Name())
		}
	}

	return existing
}

// FindMatchFile returns the latest match file for one source-type, or
// false if none exists.
func FindMatchFile(dir, sourceType string) (string, bool) {
	path, ok := ExistingMatchFiles(dir)[sourceType]
	return path, ok
}

// LatestFoundation finds the newest foundational schema file for a domain
// in dir, excluding pipeline output artifacts that share the domain prefix.
// Foundational files are named {domain}_{...}_{YYYYMMDD}_{HHMMSS}.json.
func LatestFoundation(dir, domain string) (string, bool) {
	prefix := NormalizeDomain(domain) + "_"

	// Output artifacts that embed the domain in their names and must not
	// be mistaken for a foundation.
	excluded := []string{"_full_", "_initialized_", constants.DispositionPrefix + "_", constants.GapsPrefix + "_"}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	var bestName string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, constants.ArtifactExt) {
			continue
		}
		if !strings.HasPrefix(strings.ToLower(name), prefix) {
			continue
		}

		skip := false
		for _, ex := range excluded {
			if strings.Contains(name, ex) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}

		if timestampOf(name) > timestampOf(bestName) {
			bestName = name
		}
	}

	if bestName == "" {
		return "", false
	}
	return filepath.Join(dir, bestName), true
}

// timestampOf extracts the trailing date_time tokens from a filename,
// or "" when the name has too few tokens to carry one.
func timestampOf(name string) string {
	if name == "" {
		return ""
	}
	stem := strings.TrimSuffix(name, constants.ArtifactExt)
	parts := strings.Split(stem, "_")
	if len(parts) < 2 {
		return ""
	}
	return strings.Join(parts[len(parts)-2:], "_")
}

// NormalizeDomain lowercases a domain name and replaces spaces with
// underscores, matching how domains are embedded in artifact filenames.
func NormalizeDomain(domain string) string {
	return strings.ToLower(strings.ReplaceAll(domain, " ", "_"))
}
