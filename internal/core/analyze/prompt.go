package analyze

import (
	"fmt"
	"strings"
)

// buildSystemPrompt creates the system prompt for sentence analysis.
func buildSystemPrompt() string {
	return `You are an English coach for Thai learners. Analyze the learner's English sentence and return ONLY a valid JSON object with this exact structure:

{
  "translation": {
    "suggested": "Natural Thai translation of the sentence",
    "critique": "Critique of the learner's own translation, or empty string if none was given"
  },
  "grammar": [
    {"original": "text as written", "corrected": "corrected text", "reason": "why"}
  ],
  "spelling": [
    {"original": "misspelled word", "corrected": "correct spelling", "reason": "why"}
  ],
  "vocabulary": [
    {"word": "notable word", "meaning": "meaning in Thai", "part_of_speech": "noun/verb/...", "example": "example sentence"}
  ],
  "alternatives": ["more natural phrasing 1", "more natural phrasing 2"],
  "context_fit": {"appropriate": true, "comment": "does the sentence fit the stated context"},
  "overall": {"score": 85, "summary": "one-paragraph overall assessment"}
}

IMPORTANT RULES:
1. Return ONLY the JSON object, no markdown, no explanation, no code blocks
2. All seven top-level keys must always be present; use empty arrays when there is nothing to report
3. overall.score is an integer from 0 to 100
4. Keep every array ordered by importance`
}

// buildUserPrompt assembles the learner's submission.
func buildUserPrompt(sentence, userTranslation, context string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "English sentence: %s\n", sentence)
	if userTranslation != "" {
		fmt.Fprintf(&b, "Learner's own Thai translation: %s\n", userTranslation)
	}
	if context != "" {
		fmt.Fprintf(&b, "Context the sentence will be used in: %s\n", context)
	}
	return b.String()
}
