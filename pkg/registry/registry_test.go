package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	return path
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()

	older := "rationalized_guardrails_plan_20250101_090000.json"
	newer := "rationalized_guardrails_plan_20250301_120000.json"
	touch(t, dir, older)
	touch(t, dir, newer)
	touch(t, dir, "rationalized_x12_plan_20250102_080000.json")

	// Wrong domain, wrong prefix, and malformed names are skipped.
	touch(t, dir, "rationalized_x12_claims_20250102_080000.json")
	touch(t, dir, "match_guardrails_20250101_090000.json")
	touch(t, dir, "notes.json")
	touch(t, dir, "readme.txt")

	discovered := Discover(dir, "Plan")
	require.Len(t, discovered, 2)
	assert.Equal(t, filepath.Join(dir, newer), discovered["guardrails"], "latest timestamp wins")
	assert.Contains(t, discovered, "x12")
}

func TestDiscoverMultiTokenDomain(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "rationalized_ncpdp_pharmacy_benefits_20250601_000000.json")
	touch(t, dir, "rationalized_ncpdp_other_domain_20250601_000000.json")

	discovered := Discover(dir, "Pharmacy Benefits")
	require.Len(t, discovered, 1)
	assert.Contains(t, discovered, "ncpdp")
}

func TestDiscoverMissingDir(t *testing.T) {
	discovered := Discover(filepath.Join(t.TempDir(), "nope"), "plan")
	assert.Empty(t, discovered)
}

func TestExistingMatchFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "match_guardrails_20250101_090000.json")
	latest := touch(t, dir, "match_guardrails_20250301_120000.json")
	touch(t, dir, "disposition_plan_20250101_090000.json")

	existing := ExistingMatchFiles(dir)
	require.Len(t, existing, 1)
	assert.Equal(t, latest, existing["guardrails"])

	path, ok := FindMatchFile(dir, "guardrails")
	assert.True(t, ok)
	assert.Equal(t, latest, path)

	_, ok = FindMatchFile(dir, "x12")
	assert.False(t, ok)
}

func TestLatestFoundation(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "plan_cdm_20250101_090000.json")
	latest := touch(t, dir, "plan_cdm_20250301_120000.json")

	// Pipeline outputs sharing the domain prefix must not be picked up.
	touch(t, dir, "plan_full_20250401_120000.json")
	touch(t, dir, "plan_initialized_20250401_120000.json")
	touch(t, dir, "disposition_plan_20250401_120000.json")
	touch(t, dir, "gaps_plan_20250401_120000.json")

	path, ok := LatestFoundation(dir, "plan")
	require.True(t, ok)
	assert.Equal(t, latest, path)
}

func TestLatestFoundationNone(t *testing.T) {
	_, ok := LatestFoundation(t.TempDir(), "plan")
	assert.False(t, ok)
}

func TestNormalizeDomain(t *testing.T) {
	assert.Equal(t, "pharmacy_benefits", NormalizeDomain("Pharmacy Benefits"))
	assert.Equal(t, "plan", NormalizeDomain("plan"))
}
