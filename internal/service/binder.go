package service

import (
	"regexp"

	"github.com/am-report-server/internal/prompts"
)

// FallbackSentinel substitutes any placeholder with no bound value, signaling
// "not available" rather than a numeric zero.
const FallbackSentinel = "-"

// TemplateBinder substitutes named placeholders in a report template with
// caller-supplied values. Binding always succeeds: a missing value yields the
// fallback sentinel, never an error.
type TemplateBinder struct{}

// NewTemplateBinder creates a new template binder
func NewTemplateBinder() *TemplateBinder {
	return &TemplateBinder{}
}

var bindPattern = regexp.MustCompile(`\{([a-z][a-z0-9_]*)\}`)

// Bind produces the bound document. Substitution is a single pass over the
// template body: a substituted value is never re-scanned for placeholder
// syntax, so user-controlled free text cannot inject further substitutions.
// The template's structure (tables, headings, checklists) is fixed; only slot
// interiors change. Binding is deterministic and idempotent for identical
// (template, values) pairs.
func (b *TemplateBinder) Bind(template *prompts.Template, values map[string]string) string {
	return bindPattern.ReplaceAllStringFunc(template.Body, func(match string) string {
		name := match[1 : len(match)-1]
		if value, ok := values[name]; ok {
			return value
		}
		return FallbackSentinel
	})
}
