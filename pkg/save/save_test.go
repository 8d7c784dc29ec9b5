package save

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/cdmforge/pkg/apply"
	"github.com/agentstation/cdmforge/pkg/gaps"
	"github.com/agentstation/cdmforge/pkg/match"
	"github.com/agentstation/cdmforge/pkg/schema"
)

var testStamp = time.Date(2025, 3, 1, 12, 30, 45, 0, time.UTC)

func TestSnapshot(t *testing.T) {
	dir := t.TempDir()
	canonical := &schema.CanonicalSchema{Domain: "Pharmacy Benefits"}

	path, err := Snapshot(dir, canonical, WithTimestamp(testStamp))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "pharmacy_benefits_full_20250301_123045.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"domain": "Pharmacy Benefits"`)
}

func TestInitialized(t *testing.T) {
	dir := t.TempDir()
	canonical := &schema.CanonicalSchema{Domain: "plan"}

	path, err := Initialized(dir, canonical, WithTimestamp(testStamp))
	require.NoError(t, err)
	assert.Equal(t, "plan_initialized_20250301_123045.json", filepath.Base(path))
}

func TestMatchFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	mf := &match.MatchFile{
		SourceType: "guardrails",
		SourceFile: "rationalized_guardrails_plan_20250101_090000.json",
		Failures:   []match.Failure{},
		EntityMappings: []match.EntityMapping{
			{
				SourceEntity: "Plan",
				AttributeMappings: []match.AttributeMapping{
					{
						SourceAttribute: "plan_id",
						Disposition:     match.DispositionMapped,
						CDMEntity:       "Plan",
						CDMAttribute:    "plan_id",
						ValidationRules: []string{"Required"},
						BusinessRules:   []string{},
					},
				},
			},
		},
	}

	path, err := MatchFile(dir, mf, WithTimestamp(testStamp))
	require.NoError(t, err)
	assert.Equal(t, "match_guardrails_20250301_123045.json", filepath.Base(path))

	loaded, err := match.Load(path)
	require.NoError(t, err)
	assert.Equal(t, mf.SourceType, loaded.SourceType)
	require.Len(t, loaded.EntityMappings, 1)
	assert.Equal(t, match.DispositionMapped, loaded.EntityMappings[0].AttributeMappings[0].Disposition)
}

func TestDisposition(t *testing.T) {
	dir := t.TempDir()

	path, err := Disposition(dir, "plan", &apply.Report{RunID: "r1"}, WithTimestamp(testStamp))
	require.NoError(t, err)
	assert.Equal(t, "disposition_plan_20250301_123045.json", filepath.Base(path))
}

func TestGaps(t *testing.T) {
	dir := t.TempDir()

	path, err := Gaps(dir, "plan", &gaps.Report{Domain: "plan"}, WithTimestamp(testStamp))
	require.NoError(t, err)
	assert.Equal(t, "gaps_plan_20250301_123045.json", filepath.Base(path))
}

func TestGapsNilReportWritesNothing(t *testing.T) {
	dir := t.TempDir()

	path, err := Gaps(dir, "plan", nil, WithTimestamp(testStamp))
	require.NoError(t, err)
	assert.Empty(t, path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")

	_, err := Snapshot(dir, &schema.CanonicalSchema{Domain: "plan"}, WithTimestamp(testStamp))
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
