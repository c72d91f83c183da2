package service

import (
	"github.com/sirupsen/logrus"

	"github.com/am-report-server/internal/domain"
)

// Risk tier boundaries, half-open and evaluated in priority order.
const (
	highRiskThreshold = 0.60 // below: HIGH_RISK
	healthyThreshold  = 0.85 // at or above: HEALTHY
)

// RiskClassifierService derives the discrete risk tier and display state from
// a health record. It implements the domain.RiskClassifier interface and is
// pure and total: every real-valued score maps to exactly one tier.
type RiskClassifierService struct {
	logger *logrus.Logger
}

// NewRiskClassifierService creates a new risk classifier
func NewRiskClassifierService(logger *logrus.Logger) *RiskClassifierService {
	return &RiskClassifierService{logger: logger}
}

// Classify returns the risk tier with its display label and glyph. A valid,
// non-UNKNOWN overall_status from the record is authoritative; the numeric
// boundaries are the derivation rule for everything else.
func (c *RiskClassifierService) Classify(record *domain.HealthRecord) (domain.RiskTier, string, string) {
	tier := c.deriveTier(record)
	label, glyph := displayState(tier)

	c.logger.WithFields(logrus.Fields{
		"overall_status": record.OverallStatus,
		"health_score":   record.HealthScore,
		"risk_tier":      tier,
	}).Debug("Classified process health")

	return tier, label, glyph
}

// ClassifyScore derives the tier from a bare score, for records assembled
// from caller-supplied numeric context rather than parsed text.
func (c *RiskClassifierService) ClassifyScore(score float64) domain.RiskTier {
	switch {
	case score < highRiskThreshold:
		return domain.TIER_HIGH_RISK
	case score < healthyThreshold:
		return domain.TIER_MODERATE_RISK
	default:
		return domain.TIER_HEALTHY
	}
}

func (c *RiskClassifierService) deriveTier(record *domain.HealthRecord) domain.RiskTier {
	switch record.OverallStatus.Normalize() {
	case domain.HEALTHY:
		return domain.TIER_HEALTHY
	case domain.MODERATE_RISK:
		return domain.TIER_MODERATE_RISK
	case domain.HIGH_RISK:
		return domain.TIER_HIGH_RISK
	}

	// Status absent or unrecognized: fall back to the score boundaries.
	return c.ClassifyScore(record.HealthScore)
}

// displayState maps a tier onto its fixed human-facing (label, glyph) pair.
func displayState(tier domain.RiskTier) (string, string) {
	switch tier {
	case domain.TIER_HEALTHY:
		return "healthy", "🟢"
	case domain.TIER_MODERATE_RISK:
		return "caution", "🟡"
	default:
		return "danger", "🔴"
	}
}
