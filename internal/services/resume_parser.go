package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"alfredoptarigan/resume-parser/internal/models"
)

type ResumeParser interface {
	Parse(ctx context.Context, resumeText string) (*models.ParsedResume, error)
}

type resumeParser struct {
	geminiService GeminiService
	promptBuilder *PromptBuilder
	maxAttempts   int
}

func NewResumeParser(geminiService GeminiService, maxAttempts int) ResumeParser {
	return &resumeParser{
		geminiService: geminiService,
		promptBuilder: NewPromptBuilder(),
		maxAttempts:   maxAttempts,
	}
}

// Parse sends the resume text to the model. Only a failed model call is an
// error; an undecodable answer degrades to EmptyParsedResume.
func (p *resumeParser) Parse(ctx context.Context, resumeText string) (*models.ParsedResume, error) {
	prompt := p.promptBuilder.BuildResumeExtractionPrompt(resumeText)

	response, err := p.geminiService.GenerateJSONWithRetry(ctx, prompt, 0.1, p.maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("failed to extract resume fields: %w", err)
	}

	return DecodeParsedResume(response), nil
}

// DecodeParsedResume turns a raw model answer into a ParsedResume.
func DecodeParsedResume(response string) *models.ParsedResume {
	jsonStr := extractJSON(response)

	var parsed models.ParsedResume
	err := json.Unmarshal([]byte(jsonStr), &parsed)
	if err == nil {
		return &parsed
	}
	log.Warn().Err(err).Msg("Model response is not valid JSON, attempting repair")

	parsed = models.ParsedResume{}
	if err := json.Unmarshal([]byte(repairJSON(jsonStr)), &parsed); err == nil {
		return &parsed
	}

	log.Warn().Int("chars", len(response)).Msg("Could not decode model response, using empty resume")
	return models.EmptyParsedResume()
}

// extractJSON strips markdown fences and returns the outermost JSON object.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		return text[start : end+1]
	}

	return text
}

var (
	trailingCommas    = regexp.MustCompile(`,\s*([}\]])`)
	singleQuotedKeys  = regexp.MustCompile(`'([^']*)'\s*:`)
	singleQuotedValue = regexp.MustCompile(`:\s*'([^']*)'`)
)

func repairJSON(s string) string {
	s = trailingCommas.ReplaceAllString(s, "$1")
	s = singleQuotedKeys.ReplaceAllString(s, `"$1":`)
	s = singleQuotedValue.ReplaceAllString(s, `: "$1"`)
	return s
}
