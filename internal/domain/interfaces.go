package domain

// HealthExtractor parses raw diagnostic report text into structured records.
// Implementations are pure text transformations: missing or malformed input
// yields defaults, never an error.
type HealthExtractor interface {
	// Extract locates the PROCESS_HEALTH section and returns its structured
	// form. An absent section returns the all-defaults record.
	Extract(raw string) *HealthRecord

	// ExtractComponentSummary scans the entire text for the independent
	// component counts, which may appear outside the health section.
	ExtractComponentSummary(raw string) ComponentSummary
}

// RiskClassifier derives the discrete risk tier and its display state from a
// health record. Implementations are pure and total over all inputs.
type RiskClassifier interface {
	// Classify honors a valid, non-UNKNOWN overall status as authoritative
	// and otherwise derives the tier from the health score.
	Classify(record *HealthRecord) (RiskTier, string, string)

	// ClassifyScore derives the tier from a bare score, for records assembled
	// from caller-supplied numeric context rather than parsed text.
	ClassifyScore(score float64) RiskTier
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetBackendConfig() *BackendConfig
	Validate() error
}
