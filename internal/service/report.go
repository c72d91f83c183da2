package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/am-report-server/internal/archive"
	"github.com/am-report-server/internal/domain"
	"github.com/am-report-server/internal/prompts"
	"github.com/am-report-server/pkg/genai"
)

// ReportService orchestrates the extraction -> classification -> binding ->
// assembly -> generation pipeline. The stages run in exactly that order for a
// given input; each consumes the prior stage's output.
type ReportService struct {
	logger     *logrus.Logger
	extractor  domain.HealthExtractor
	classifier domain.RiskClassifier
	binder     *TemplateBinder
	assembler  *PromptAssembler
	generator  genai.Generator
	store      archive.Store // optional report archive
	options    genai.GenerationOptions
}

// NewReportService creates a new report service. The store may be nil when
// archiving is disabled.
func NewReportService(
	logger *logrus.Logger,
	extractor domain.HealthExtractor,
	classifier domain.RiskClassifier,
	generator genai.Generator,
	store archive.Store,
	options genai.GenerationOptions,
) *ReportService {
	return &ReportService{
		logger:     logger,
		extractor:  extractor,
		classifier: classifier,
		binder:     NewTemplateBinder(),
		assembler:  NewPromptAssembler(),
		generator:  generator,
		store:      store,
		options:    options,
	}
}

// BuildContext carries caller-supplied context bound into the report. The
// timestamp is supplied here so the binder itself stays free of hidden
// non-determinism.
type BuildContext struct {
	ProcessType    string    `json:"process_type"`
	Machine        string    `json:"machine"`
	Material       string    `json:"material"`
	ShapeOriginal  string    `json:"shape_original"`
	ShapeProcessed string    `json:"shape_processed"`
	ResolutionSec  string    `json:"dt_sec"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// GenerateReportParams parameters for report generation
type GenerateReportParams struct {
	RawText   string              `json:"raw_text"`
	Analysis  domain.AnalysisType `json:"analysis_type"`
	Model     domain.ModelTier    `json:"model"`
	Context   BuildContext        `json:"context"`
	Artifacts []genai.Artifact    `json:"artifacts,omitempty"`
}

// GenerateReportResult result of a full pipeline run
type GenerateReportResult struct {
	RequestID      string                  `json:"request_id"`
	Record         *domain.HealthRecord    `json:"process_health"`
	Summary        domain.ComponentSummary `json:"component_summary"`
	RiskTier       domain.RiskTier         `json:"risk_tier"`
	RiskLabel      string                  `json:"risk_label"`
	RiskGlyph      string                  `json:"risk_glyph"`
	Report         string                  `json:"report"`
	Markdown       string                  `json:"markdown"`
	ProcessingTime time.Duration           `json:"processing_time"`
}

// ParseResult result of extraction and classification without generation
type ParseResult struct {
	Record    *domain.HealthRecord    `json:"process_health"`
	Summary   domain.ComponentSummary `json:"component_summary"`
	RiskTier  domain.RiskTier         `json:"risk_tier"`
	RiskLabel string                  `json:"risk_label"`
	RiskGlyph string                  `json:"risk_glyph"`
}

// JSONExport is the machine-readable export of a generated report.
type JSONExport struct {
	Timestamp     time.Time            `json:"timestamp"`
	Model         string               `json:"model"`
	AnalysisType  domain.AnalysisType  `json:"analysis_type"`
	ProcessHealth *domain.HealthRecord `json:"process_health"`
	Report        string               `json:"report"`
}

// Parse runs extraction and classification only, for upload-time preview.
func (s *ReportService) Parse(raw string) *ParseResult {
	record := s.extractor.Extract(raw)
	summary := s.extractor.ExtractComponentSummary(raw)
	tier, label, glyph := s.classifier.Classify(record)

	return &ParseResult{
		Record:    record,
		Summary:   summary,
		RiskTier:  tier,
		RiskLabel: label,
		RiskGlyph: glyph,
	}
}

// GenerateReport performs the complete analysis report workflow
func (s *ReportService) GenerateReport(ctx context.Context, params *GenerateReportParams) (*GenerateReportResult, error) {
	startTime := time.Now()
	requestID := uuid.New().String()

	if err := s.validateParams(params); err != nil {
		return nil, fmt.Errorf("invalid input parameters: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"request_id":    requestID,
		"analysis_type": params.Analysis,
		"model":         params.Model,
		"input_bytes":   len(params.RawText),
		"artifacts":     len(params.Artifacts),
	}).Info("Starting report generation")

	// Step 1: extract the health section and component summary
	record := s.extractor.Extract(params.RawText)
	summary := s.extractor.ExtractComponentSummary(params.RawText)

	// Step 2: classify into a risk tier
	tier, label, glyph := s.classifier.Classify(record)

	// Step 3: bind extracted and caller-supplied values into the template
	template := prompts.ForAnalysisType(params.Analysis)
	values := s.buildValues(record, summary, glyph, params.Context)
	bound := s.binder.Bind(template, values)

	// Step 4: assemble the generation request
	request, err := s.assembler.Assemble(template, bound, params.RawText, params.Artifacts)
	if err != nil {
		return nil, err
	}
	request.Model = params.Model.ModelID()
	request.Options = s.options

	// Step 5: call the generation backend (the single suspension point)
	report, err := s.generator.Generate(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("generating report: %w", err)
	}

	result := &GenerateReportResult{
		RequestID:      requestID,
		Record:         record,
		Summary:        summary,
		RiskTier:       tier,
		RiskLabel:      label,
		RiskGlyph:      glyph,
		Report:         report,
		Markdown:       s.buildMarkdown(report, record, tier, params),
		ProcessingTime: time.Since(startTime),
	}

	// Step 6: archive the generated report (best effort)
	if s.store != nil {
		archived := &archive.ReportRecord{
			RequestID:    requestID,
			Model:        params.Model.String(),
			AnalysisType: params.Analysis.String(),
			RiskTier:     tier.String(),
			HealthScore:  record.HealthScore,
			Report:       report,
		}
		if err := s.store.Save(ctx, archived); err != nil {
			s.logger.WithError(err).WithField("request_id", requestID).Warn("Failed to archive report")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"request_id":      requestID,
		"risk_tier":       tier,
		"report_bytes":    len(report),
		"processing_time": result.ProcessingTime,
	}).Info("Report generation completed")

	return result, nil
}

// ExportJSON builds the JSON export document for a completed run.
func (s *ReportService) ExportJSON(result *GenerateReportResult, params *GenerateReportParams) ([]byte, error) {
	export := JSONExport{
		Timestamp:     params.Context.GeneratedAt,
		Model:         params.Model.String(),
		AnalysisType:  params.Analysis,
		ProcessHealth: result.Record,
		Report:        result.Report,
	}
	return json.MarshalIndent(export, "", "  ")
}

// validateParams enforces the request contract before any pipeline work.
func (s *ReportService) validateParams(params *GenerateReportParams) error {
	if params.RawText == "" {
		return domain.NewValidationError("raw_text", "diagnostic report text is required", "")
	}
	if !params.Analysis.IsValid() {
		return domain.NewValidationError("analysis_type", "must be full or brief", string(params.Analysis))
	}
	if !params.Model.IsValid() {
		return domain.NewValidationError("model", "must be flash-lite, flash or pro", string(params.Model))
	}
	return nil
}

// buildValues assembles the placeholder values map from the extracted record,
// the component summary, and the caller context. Anything not supplied here
// binds to the fallback sentinel.
func (s *ReportService) buildValues(
	record *domain.HealthRecord,
	summary domain.ComponentSummary,
	glyph string,
	buildCtx BuildContext,
) map[string]string {
	values := map[string]string{
		"overall_status":        record.OverallStatus.Normalize().String(),
		"health_score":          fmt.Sprintf("%.2f", record.HealthScore),
		"energy_status":         record.EnergyStatus.Normalize().String(),
		"mode1_energy_pct":      fmt.Sprintf("%.1f", record.Mode1EnergyPct),
		"ica_problematic_ratio": fmt.Sprintf("%.0f", summary.ProblematicRatio()),
		"risk_emoji":            glyph,
	}

	if len(record.CriticalIssues) > 0 {
		values["critical_issues"] = strings.Join(record.CriticalIssues, "; ")
	}
	if len(record.Warnings) > 0 {
		values["warnings"] = strings.Join(record.Warnings, "; ")
	}
	if record.Recommendation != "" {
		values["recommendation"] = record.Recommendation
	}

	setIfPresent(values, "process_type", buildCtx.ProcessType)
	setIfPresent(values, "machine", buildCtx.Machine)
	setIfPresent(values, "material", buildCtx.Material)
	setIfPresent(values, "shape_original", buildCtx.ShapeOriginal)
	setIfPresent(values, "shape_processed", buildCtx.ShapeProcessed)
	setIfPresent(values, "dt_sec", buildCtx.ResolutionSec)

	return values
}

func setIfPresent(values map[string]string, key, value string) {
	if value != "" {
		values[key] = value
	}
}

// buildMarkdown wraps the generated report with the metadata preamble.
func (s *ReportService) buildMarkdown(
	report string,
	record *domain.HealthRecord,
	tier domain.RiskTier,
	params *GenerateReportParams,
) string {
	var b strings.Builder

	b.WriteString("# AM Process Analysis Report\n\n")
	fmt.Fprintf(&b, "**Generated:** %s\n", params.Context.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Model:** %s\n", params.Model)
	fmt.Fprintf(&b, "**Analysis type:** %s\n", params.Analysis)
	fmt.Fprintf(&b, "**Process health:** %s (score: %.2f, tier: %s)\n",
		record.OverallStatus.Normalize(), record.HealthScore, tier)
	b.WriteString("\n---\n\n")
	b.WriteString(report)

	return b.String()
}
