package service

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/am-report-server/internal/domain"
)

// SectionExtractor parses the PROCESS_HEALTH section of an LLM-ready
// diagnostic report. It implements the domain.HealthExtractor interface as a
// pure text transformation: a missing section, missing field, or malformed
// number falls back to the documented default and never produces an error.
type SectionExtractor struct{}

// NewSectionExtractor creates a new section extractor
func NewSectionExtractor() *SectionExtractor {
	return &SectionExtractor{}
}

var (
	// The health section runs from its marker to the next section marker or EOF.
	healthSectionPattern = regexp.MustCompile(`(?s)=== PROCESS_HEALTH ===\n(.*?)(?:\n===|$)`)

	overallStatusPattern = regexp.MustCompile(`overall_status=(\w+)`)
	healthScorePattern   = regexp.MustCompile(`health_score=([\d.]+)`)
	energyStatusPattern  = regexp.MustCompile(`energy_concentration_status=(\w+)`)
	mode1EnergyPattern   = regexp.MustCompile(`mode1_energy_pct=([\d.]+)`)
	balanceStatusPattern = regexp.MustCompile(`category_balance_status=(\w+)`)
	recommendationPattern = regexp.MustCompile(`recommendation=(.+)`)

	criticalIssuesPattern = regexp.MustCompile(`critical_issues:\n((?:  - .+\n?)*)`)
	warningsPattern       = regexp.MustCompile(`warnings:\n((?:  - .+\n?)*)`)
	bulletPattern         = regexp.MustCompile(`  - (.+)`)

	totalComponentsPattern  = regexp.MustCompile(`total_components=(\d+)`)
	problematicCountPattern = regexp.MustCompile(`problematic_count=(\d+)`)
)

// Extract locates the PROCESS_HEALTH section and returns its structured form.
// An absent marker is the defined "no health data present" state, not an
// error: the all-defaults record comes back.
func (e *SectionExtractor) Extract(raw string) *domain.HealthRecord {
	record := domain.NewHealthRecord()

	section := healthSectionPattern.FindStringSubmatch(raw)
	if section == nil {
		return record
	}
	body := section[1]

	// Enum tokens pass through untouched here; downstream consumers normalize
	// unrecognized tokens to UNKNOWN.
	if m := overallStatusPattern.FindStringSubmatch(body); m != nil {
		record.OverallStatus = domain.OverallStatus(m[1])
	}
	if m := energyStatusPattern.FindStringSubmatch(body); m != nil {
		record.EnergyStatus = domain.EnergyStatus(m[1])
	}
	if m := balanceStatusPattern.FindStringSubmatch(body); m != nil {
		record.BalanceStatus = domain.BalanceStatus(m[1])
	}

	// A value that matches the pattern but fails numeric parsing is treated
	// as absent.
	if m := healthScorePattern.FindStringSubmatch(body); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			record.HealthScore = v
		}
	}
	if m := mode1EnergyPattern.FindStringSubmatch(body); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			record.Mode1EnergyPct = v
		}
	}

	if m := recommendationPattern.FindStringSubmatch(body); m != nil {
		record.Recommendation = strings.TrimSpace(m[1])
	}

	record.CriticalIssues = extractBulletList(body, criticalIssuesPattern)
	record.Warnings = extractBulletList(body, warningsPattern)

	return record
}

// ExtractComponentSummary scans the entire input for the independent
// component (ICA) counts. These fields may appear outside the health section,
// so this pass is independent of the section delimiter.
func (e *SectionExtractor) ExtractComponentSummary(raw string) domain.ComponentSummary {
	total := 0
	problematic := 0

	if m := totalComponentsPattern.FindStringSubmatch(raw); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			total = v
		}
	}
	if m := problematicCountPattern.FindStringSubmatch(raw); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			problematic = v
		}
	}

	return domain.NewComponentSummary(total, problematic)
}

// extractBulletList collects the indented bullet lines that immediately
// follow a list header, stopping at the first non-bullet line. An absent
// header yields an empty sequence.
func extractBulletList(body string, header *regexp.Regexp) []string {
	m := header.FindStringSubmatch(body)
	if m == nil {
		return []string{}
	}

	items := []string{}
	for _, bullet := range bulletPattern.FindAllStringSubmatch(m[1], -1) {
		items = append(items, strings.TrimSpace(bullet[1]))
	}
	return items
}
