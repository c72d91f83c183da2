package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/am-report-server/internal/domain"
)

const sampleReport = `=== RUN_METADATA ===
machine=EOS_M290
material=Ti-6Al-4V

=== SVD_ANALYSIS ===
total_components=12
mode1_energy_ratio=0.83

=== ICA_ANALYSIS ===
problematic_count=3

=== PROCESS_HEALTH ===
overall_status=MODERATE_RISK
health_score=0.72
energy_concentration_status=WARNING
mode1_energy_pct=67.5
category_balance_status=MOTION_DOMINANT
critical_issues:
  - IC-04 kurtosis spike in recoater axis
warnings:
  - Mode 3 energy drift after layer 240
  - Shield gas flow variance above baseline
recommendation=Inspect recoater blade before next build

=== APPENDIX ===
notes=none
`

func TestExtract_FullSection(t *testing.T) {
	extractor := NewSectionExtractor()

	record := extractor.Extract(sampleReport)
	require.NotNil(t, record)

	assert.Equal(t, domain.MODERATE_RISK, record.OverallStatus)
	assert.InDelta(t, 0.72, record.HealthScore, 0.0001)
	assert.Equal(t, domain.WARNING, record.EnergyStatus)
	assert.InDelta(t, 67.5, record.Mode1EnergyPct, 0.0001)
	assert.Equal(t, domain.MOTION_DOMINANT, record.BalanceStatus)
	assert.Equal(t, []string{"IC-04 kurtosis spike in recoater axis"}, record.CriticalIssues)
	assert.Equal(t, []string{
		"Mode 3 energy drift after layer 240",
		"Shield gas flow variance above baseline",
	}, record.Warnings)
	assert.Equal(t, "Inspect recoater blade before next build", record.Recommendation)
}

func TestExtract_SectionAbsent(t *testing.T) {
	extractor := NewSectionExtractor()

	record := extractor.Extract("=== SVD_ANALYSIS ===\nmode1_energy_ratio=0.9\n")

	assert.Equal(t, domain.STATUS_UNKNOWN, record.OverallStatus)
	assert.Zero(t, record.HealthScore)
	assert.Equal(t, domain.ENERGY_UNKNOWN, record.EnergyStatus)
	assert.Zero(t, record.Mode1EnergyPct)
	assert.Equal(t, domain.BALANCE_UNKNOWN, record.BalanceStatus)
	assert.Empty(t, record.CriticalIssues)
	assert.Empty(t, record.Warnings)
	assert.Empty(t, record.Recommendation)
}

func TestExtract_EmptyInput(t *testing.T) {
	extractor := NewSectionExtractor()

	record := extractor.Extract("")
	assert.Equal(t, domain.STATUS_UNKNOWN, record.OverallStatus)
}

func TestExtract_SectionAtEOF(t *testing.T) {
	extractor := NewSectionExtractor()

	record := extractor.Extract("=== PROCESS_HEALTH ===\noverall_status=HEALTHY\nhealth_score=0.93")
	assert.Equal(t, domain.HEALTHY, record.OverallStatus)
	assert.InDelta(t, 0.93, record.HealthScore, 0.0001)
}

func TestExtract_MalformedScore(t *testing.T) {
	extractor := NewSectionExtractor()

	// "0.7.2" matches the field pattern but fails float parsing; the score
	// keeps its default.
	record := extractor.Extract("=== PROCESS_HEALTH ===\noverall_status=HEALTHY\nhealth_score=0.7.2\n")
	assert.Equal(t, domain.HEALTHY, record.OverallStatus)
	assert.Zero(t, record.HealthScore)
}

func TestExtract_UnrecognizedStatusPassesThrough(t *testing.T) {
	extractor := NewSectionExtractor()

	record := extractor.Extract("=== PROCESS_HEALTH ===\noverall_status=CATASTROPHIC\n")
	assert.Equal(t, domain.OverallStatus("CATASTROPHIC"), record.OverallStatus)
	assert.Equal(t, domain.STATUS_UNKNOWN, record.OverallStatus.Normalize())
}

func TestExtract_BulletListStopsAtNonBullet(t *testing.T) {
	extractor := NewSectionExtractor()

	raw := "=== PROCESS_HEALTH ===\n" +
		"critical_issues:\n" +
		"  - first issue\n" +
		"  - second issue\n" +
		"warnings:\n" +
		"  - only warning\n"

	record := extractor.Extract(raw)
	assert.Equal(t, []string{"first issue", "second issue"}, record.CriticalIssues)
	assert.Equal(t, []string{"only warning"}, record.Warnings)
}

func TestExtract_EmptyBulletLists(t *testing.T) {
	extractor := NewSectionExtractor()

	record := extractor.Extract("=== PROCESS_HEALTH ===\ncritical_issues:\nwarnings:\n")
	assert.Empty(t, record.CriticalIssues)
	assert.Empty(t, record.Warnings)
}

func TestExtractComponentSummary(t *testing.T) {
	extractor := NewSectionExtractor()

	// The ICA counts live outside the PROCESS_HEALTH section and are found by
	// a whole-text scan.
	summary := extractor.ExtractComponentSummary(sampleReport)
	assert.Equal(t, 12, summary.TotalComponents)
	assert.Equal(t, 3, summary.ProblematicCount)
	assert.InDelta(t, 25.0, summary.ProblematicRatio(), 0.0001)
}

func TestExtractComponentSummary_Absent(t *testing.T) {
	extractor := NewSectionExtractor()

	summary := extractor.ExtractComponentSummary("no counts here")
	assert.Zero(t, summary.TotalComponents)
	assert.Zero(t, summary.ProblematicCount)
	assert.Zero(t, summary.ProblematicRatio())
}

func TestExtractComponentSummary_Clamped(t *testing.T) {
	extractor := NewSectionExtractor()

	summary := extractor.ExtractComponentSummary("total_components=8\nproblematic_count=12\n")
	assert.Equal(t, 8, summary.TotalComponents)
	assert.Equal(t, 8, summary.ProblematicCount)
	assert.InDelta(t, 100.0, summary.ProblematicRatio(), 0.0001)
}
