// Package genai provides the client for the external text-generation backend.
// The backend is treated as a black box: it accepts an ordered list of content
// parts plus generation options and returns a single text blob. All failure
// classification happens here so callers only ever see domain.BackendError.
package genai

import "context"

// Artifact is an opaque auxiliary item (a supplementary graph image) passed
// alongside text. The core never interprets artifact bytes.
type Artifact struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// Part is one element of the ordered request payload: either text or an
// artifact, never both.
type Part struct {
	Text     string    `json:"text,omitempty"`
	Artifact *Artifact `json:"artifact,omitempty"`
}

// TextPart builds a text content part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// ArtifactPart builds an artifact content part.
func ArtifactPart(a Artifact) Part {
	return Part{Artifact: &a}
}

// GenerationOptions carries the sampling parameters forwarded to the backend.
type GenerationOptions struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"top_p"`
	TopK            int     `json:"top_k"`
	MaxOutputTokens int     `json:"max_output_tokens"`
}

// DefaultGenerationOptions returns the sampling parameters used when the
// configuration does not override them.
func DefaultGenerationOptions() GenerationOptions {
	return GenerationOptions{
		Temperature:     0.7,
		TopP:            0.95,
		TopK:            20,
		MaxOutputTokens: 86384,
	}
}

// Request is the assembled generation request: a concrete model identifier,
// the ordered content parts, and the sampling options.
type Request struct {
	Model   string            `json:"model"`
	Parts   []Part            `json:"parts"`
	Options GenerationOptions `json:"options"`
}

// Generator is the minimal contract for the generation backend. The call is
// atomic and synchronous: no streaming, no partial results, no built-in retry.
type Generator interface {
	Generate(ctx context.Context, req *Request) (string, error)
}
