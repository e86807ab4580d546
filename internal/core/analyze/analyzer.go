package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mojisejr/oeng-api/internal/core/llm"
	"github.com/mojisejr/oeng-api/internal/shared/utils"
)

// Analyzer turns one English sentence into a structured coaching report.
// The call has no side effects of its own: a failure leaves nothing behind
// and may be retried.
type Analyzer struct {
	llmService *llm.Service
}

func NewAnalyzer(llmService *llm.Service) *Analyzer {
	return &Analyzer{llmService: llmService}
}

// Analyze validates the input, calls the model, and parses the JSON report.
func (a *Analyzer) Analyze(ctx context.Context, sentence, userTranslation, sentenceContext string) (*Analysis, error) {
	sentence = strings.TrimSpace(sentence)
	if sentence == "" {
		return nil, newError(ErrInvalidInput, fmt.Errorf("sentence is empty"))
	}
	if len(sentence) > MaxSentenceLen {
		return nil, newError(ErrInvalidInput, fmt.Errorf("sentence exceeds %d characters", MaxSentenceLen))
	}

	raw, err := a.llmService.GenerateResponse(ctx, buildSystemPrompt(), buildUserPrompt(sentence, userTranslation, sentenceContext))
	if err != nil {
		code := classifyProviderError(err)
		utils.LogError("LLM call failed", err, map[string]interface{}{
			"provider": a.llmService.GetProviderName(),
			"code":     string(code),
		})
		return nil, newError(code, err)
	}

	analysis, err := parseAnalysis(raw)
	if err != nil {
		utils.LogError("Failed to parse analysis response", err, map[string]interface{}{
			"provider": a.llmService.GetProviderName(),
		})
		return nil, newError(ErrParsing, err)
	}

	return analysis, nil
}

// parseAnalysis strips markdown code fences, unmarshals the JSON report and
// checks the seven-section contract.
func parseAnalysis(raw string) (*Analysis, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	// First pass against a loose map so missing sections and wrongly typed
	// arrays are rejected before the struct decode papers over them.
	var shape map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &shape); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}

	for _, key := range []string{"translation", "grammar", "spelling", "vocabulary", "alternatives", "context_fit", "overall"} {
		section, ok := shape[key]
		if !ok {
			return nil, fmt.Errorf("missing section %q", key)
		}
		switch key {
		case "grammar", "spelling", "vocabulary", "alternatives":
			if !isJSONArray(section) {
				return nil, fmt.Errorf("section %q must be an array", key)
			}
		}
	}

	var analysis Analysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil {
		return nil, fmt.Errorf("failed to decode analysis: %w", err)
	}

	return &analysis, nil
}

func isJSONArray(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return strings.HasPrefix(s, "[")
}

// classifyProviderError maps a provider error to a typed code by pattern
// matching the message. Heuristic: the providers expose no structured
// error contract.
func classifyProviderError(err error) ErrorCode {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota"),
		strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "status: 429"),
		strings.Contains(msg, "resource_exhausted"):
		return ErrQuotaExceeded
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "deadline exceeded"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "request failed"):
		return ErrNetwork
	default:
		return ErrAPI
	}
}
