// Package domain contains core business entities and types for additive
// manufacturing (AM) process health reporting. The types model the
// PROCESS_HEALTH section of an LLM-ready diagnostic report produced by the
// upstream statistical analysis stage (SVD/ICA/DMD signal decomposition over
// L-PBF build telemetry).
package domain

import "errors"

// OverallStatus represents the overall process health state carried by the
// PROCESS_HEALTH section. The zero-information value is STATUS_UNKNOWN; a
// missing or unrecognized token must never fail the pipeline.
type OverallStatus string

const (
	HEALTHY        OverallStatus = "HEALTHY"
	MODERATE_RISK  OverallStatus = "MODERATE_RISK"
	HIGH_RISK      OverallStatus = "HIGH_RISK"
	STATUS_UNKNOWN OverallStatus = "UNKNOWN"
)

// EnergyStatus represents the energy concentration state derived from the
// dominant SVD mode share (Mode1 >80% stable, 50~80% warning, <50% unstable).
type EnergyStatus string

const (
	STABLE         EnergyStatus = "STABLE"
	WARNING        EnergyStatus = "WARNING"
	UNSTABLE       EnergyStatus = "UNSTABLE"
	ENERGY_UNKNOWN EnergyStatus = "UNKNOWN"
)

// BalanceStatus represents the sensor category balance between motion
// (galvo/servo) and gas/atmosphere signal groups.
type BalanceStatus string

const (
	BALANCED        BalanceStatus = "BALANCED"
	MOTION_DOMINANT BalanceStatus = "MOTION_DOMINANT"
	GAS_DOMINANT    BalanceStatus = "GAS_DOMINANT"
	BALANCE_UNKNOWN BalanceStatus = "UNKNOWN"
)

// RiskTier is the discrete three-valued classification of process health.
// It is always derived from a HealthRecord, never parsed or stored on its own.
type RiskTier string

const (
	TIER_HEALTHY       RiskTier = "HEALTHY"
	TIER_MODERATE_RISK RiskTier = "MODERATE_RISK"
	TIER_HIGH_RISK     RiskTier = "HIGH_RISK"
)

// AnalysisType selects the report template variant.
type AnalysisType string

const (
	ANALYSIS_FULL  AnalysisType = "full"  // 10 graph artifacts attached
	ANALYSIS_BRIEF AnalysisType = "brief" // text-only
)

// ModelTier selects the generation backend model.
type ModelTier string

const (
	MODEL_FLASH_LITE ModelTier = "flash-lite"
	MODEL_FLASH      ModelTier = "flash"
	MODEL_PRO        ModelTier = "pro"
)

// Validation errors for report data integrity
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidAnalysisType = errors.New("invalid analysis type")
	ErrInvalidModelTier    = errors.New("invalid model tier")
)

// IsValid reports whether the status is one of the closed set of tokens the
// upstream analysis emits.
func (s OverallStatus) IsValid() bool {
	switch s {
	case HEALTHY, MODERATE_RISK, HIGH_RISK, STATUS_UNKNOWN:
		return true
	default:
		return false
	}
}

// Normalize maps any unrecognized token to STATUS_UNKNOWN. The extractor
// passes tokens through untouched, so downstream consumers normalize instead
// of rejecting.
func (s OverallStatus) Normalize() OverallStatus {
	if s.IsValid() {
		return s
	}
	return STATUS_UNKNOWN
}

func (s OverallStatus) String() string {
	return string(s)
}

// IsValid reports whether the energy status token is recognized.
func (s EnergyStatus) IsValid() bool {
	switch s {
	case STABLE, WARNING, UNSTABLE, ENERGY_UNKNOWN:
		return true
	default:
		return false
	}
}

// Normalize maps any unrecognized token to ENERGY_UNKNOWN.
func (s EnergyStatus) Normalize() EnergyStatus {
	if s.IsValid() {
		return s
	}
	return ENERGY_UNKNOWN
}

func (s EnergyStatus) String() string {
	return string(s)
}

// IsValid reports whether the balance status token is recognized.
func (s BalanceStatus) IsValid() bool {
	switch s {
	case BALANCED, MOTION_DOMINANT, GAS_DOMINANT, BALANCE_UNKNOWN:
		return true
	default:
		return false
	}
}

// Normalize maps any unrecognized token to BALANCE_UNKNOWN.
func (s BalanceStatus) Normalize() BalanceStatus {
	if s.IsValid() {
		return s
	}
	return BALANCE_UNKNOWN
}

func (s BalanceStatus) String() string {
	return string(s)
}

func (t RiskTier) String() string {
	return string(t)
}

// IsValid reports whether the analysis type is supported.
func (a AnalysisType) IsValid() bool {
	switch a {
	case ANALYSIS_FULL, ANALYSIS_BRIEF:
		return true
	default:
		return false
	}
}

func (a AnalysisType) String() string {
	return string(a)
}

// IsValid reports whether the model tier is supported.
func (m ModelTier) IsValid() bool {
	switch m {
	case MODEL_FLASH_LITE, MODEL_FLASH, MODEL_PRO:
		return true
	default:
		return false
	}
}

func (m ModelTier) String() string {
	return string(m)
}

// ModelID resolves the tier to the concrete backend model identifier.
// Unrecognized tiers fall back to the flash model.
func (m ModelTier) ModelID() string {
	switch m {
	case MODEL_FLASH_LITE:
		return "gemini-2.5-flash-lite"
	case MODEL_PRO:
		return "gemini-2.5-pro"
	default:
		return "gemini-2.5-flash"
	}
}

// HealthRecord is the structured form of the PROCESS_HEALTH section. A record
// is created fresh per input text, is immutable once produced, and carries
// defaults (UNKNOWN / zero / empty) for anything the source text omits.
type HealthRecord struct {
	OverallStatus    OverallStatus `json:"overall_status"`
	HealthScore      float64       `json:"health_score"`
	EnergyStatus     EnergyStatus  `json:"energy_concentration_status"`
	Mode1EnergyPct   float64       `json:"mode1_energy_pct"`
	BalanceStatus    BalanceStatus `json:"category_balance_status"`
	CriticalIssues   []string      `json:"critical_issues"`
	Warnings         []string      `json:"warnings"`
	Recommendation   string        `json:"recommendation"`
}

// NewHealthRecord returns a record with every field at its documented default.
func NewHealthRecord() *HealthRecord {
	return &HealthRecord{
		OverallStatus:  STATUS_UNKNOWN,
		HealthScore:    0.0,
		EnergyStatus:   ENERGY_UNKNOWN,
		Mode1EnergyPct: 0.0,
		BalanceStatus:  BALANCE_UNKNOWN,
		CriticalIssues: []string{},
		Warnings:       []string{},
		Recommendation: "",
	}
}

// ComponentSummary aggregates the independent component (ICA) analysis counts
// scanned from the whole report text rather than the PROCESS_HEALTH section.
type ComponentSummary struct {
	TotalComponents  int `json:"total_components"`
	ProblematicCount int `json:"problematic_count"`
}

// NewComponentSummary builds a summary, clamping problematic to total when an
// inconsistent source reports more problematic components than exist.
// Propagating a ratio above 100% is a data-quality defect, not a valid state.
func NewComponentSummary(total, problematic int) ComponentSummary {
	if total < 0 {
		total = 0
	}
	if problematic < 0 {
		problematic = 0
	}
	if problematic > total {
		problematic = total
	}
	return ComponentSummary{TotalComponents: total, ProblematicCount: problematic}
}

// ProblematicRatio returns the problematic share in percent, 0 when no
// components were reported.
func (s ComponentSummary) ProblematicRatio() float64 {
	if s.TotalComponents <= 0 {
		return 0.0
	}
	return float64(s.ProblematicCount) / float64(s.TotalComponents) * 100.0
}
