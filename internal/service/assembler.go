package service

import (
	"fmt"

	"github.com/am-report-server/internal/domain"
	"github.com/am-report-server/internal/prompts"
	"github.com/am-report-server/pkg/genai"
)

// Payload markers separating the bound instructions from the supporting data
// and the attached artifacts.
const (
	dataBeginMarker      = "\n\n--- ANALYSIS DATA BEGIN ---\n"
	dataEndMarker        = "\n--- ANALYSIS DATA END ---\n"
	artifactsBeginMarker = "\n--- ATTACHED GRAPHS (10) ---\n"
)

// PromptAssembler composes the bound template, the raw supporting data, and
// the optional artifact sequence into a generation request. It enforces the
// exactly-N-or-zero artifact policy before any request is constructed.
type PromptAssembler struct{}

// NewPromptAssembler creates a new prompt assembler
func NewPromptAssembler() *PromptAssembler {
	return &PromptAssembler{}
}

// Assemble builds the ordered payload: instructions, data-begin marker,
// supporting data, data-end marker, and — for artifact-bearing variants —
// the artifacts block. A wrong artifact count for the template variant is a
// caller precondition violation and is rejected up front, never truncated or
// padded.
func (a *PromptAssembler) Assemble(
	template *prompts.Template,
	boundInstructions string,
	supportingData string,
	artifacts []genai.Artifact,
) (*genai.Request, error) {
	if len(artifacts) != template.ArtifactCount {
		return nil, fmt.Errorf("assembling request: %w",
			domain.NewArtifactCountError(template.Name, template.ArtifactCount, len(artifacts)))
	}

	parts := []genai.Part{
		genai.TextPart(boundInstructions),
		genai.TextPart(dataBeginMarker),
		genai.TextPart(supportingData),
		genai.TextPart(dataEndMarker),
	}

	if len(artifacts) > 0 {
		parts = append(parts, genai.TextPart(artifactsBeginMarker))
		for _, artifact := range artifacts {
			parts = append(parts, genai.ArtifactPart(artifact))
		}
	}

	return &genai.Request{
		Parts:   parts,
		Options: genai.DefaultGenerationOptions(),
	}, nil
}
