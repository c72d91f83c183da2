// Package archive provides persistent storage for generated analysis reports
// so the host can list and re-download past runs. The core pipeline itself
// has no persistence requirement; archiving is a host-side feature and is
// always best effort.
package archive

import (
	"context"
	"io"
	"time"
)

// ReportRecord represents one archived report generation run.
type ReportRecord struct {
	ID           int64     `json:"id,omitempty"`
	RequestID    string    `json:"request_id"`
	Model        string    `json:"model"`
	AnalysisType string    `json:"analysis_type"`
	RiskTier     string    `json:"risk_tier"`
	HealthScore  float64   `json:"health_score"`
	Report       string    `json:"report"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store defines the interface for report archive operations.
type Store interface {
	// Save appends a generated report to the archive and assigns its ID.
	Save(ctx context.Context, record *ReportRecord) error

	// Get retrieves an archived report by ID. Returns domain.ErrNotFound
	// semantics as (nil, nil) when the ID does not exist.
	Get(ctx context.Context, id int64) (*ReportRecord, error)

	// List returns archived reports, newest first, with pagination.
	List(ctx context.Context, limit, offset int) ([]*ReportRecord, error)

	// Count returns the total number of archived reports.
	Count(ctx context.Context) (int64, error)

	// ExportJSON writes the full archive as a JSON document.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// Close releases the underlying database resources.
	Close() error
}

// Export is the JSON export envelope for the whole archive.
type Export struct {
	Version    string          `json:"version"`
	ExportedAt time.Time       `json:"exported_at"`
	Count      int             `json:"count"`
	Reports    []*ReportRecord `json:"reports"`
}
