package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/NouctheCo/Casskai-sub005/internal/common"
)

// ParsedSuggestion is the decoded account suggestion extracted from a
// provider response. Degraded marks results recovered by pattern search
// rather than strict JSON, which carry a fixed lower confidence.
type ParsedSuggestion struct {
	AccountCode string
	AccountName string
	Reason      string
	Confidence  float64
	Degraded    bool
}

const (
	// degradedConfidence is assigned when only a bare account code could
	// be mined from free text.
	degradedConfidence = 60
	// defaultConfidence is assigned when the JSON omits a confidence.
	defaultConfidence = 70
)

var accountCodePattern = regexp.MustCompile(`\b(\d{6})\b`)

// ParseAccountResponse extracts an account suggestion from provider output.
// It accepts a strict JSON object found anywhere in the text, or falls back
// to mining a bare 6-digit account code. Anything else is ErrUnparsable.
func ParseAccountResponse(content string) (ParsedSuggestion, error) {
	content = cleanMarkdownWrapper(content)

	if raw, ok := extractJSONObject(content); ok {
		var jsonResp struct {
			AccountCode string  `json:"account_code"`
			AccountName string  `json:"account_name"`
			Confidence  float64 `json:"confidence"`
			Reason      string  `json:"reason"`
		}
		if err := json.Unmarshal([]byte(raw), &jsonResp); err == nil && jsonResp.AccountCode != "" {
			confidence := jsonResp.Confidence
			if confidence <= 0 {
				confidence = defaultConfidence
			}
			reason := jsonResp.Reason
			if reason == "" {
				reason = "Suggestion IA"
			}
			return ParsedSuggestion{
				AccountCode: jsonResp.AccountCode,
				AccountName: jsonResp.AccountName,
				Confidence:  confidence,
				Reason:      reason,
			}, nil
		}
	}

	if match := accountCodePattern.FindStringSubmatch(content); match != nil {
		return ParsedSuggestion{
			AccountCode: match[1],
			AccountName: "Compte suggéré par IA",
			Confidence:  degradedConfidence,
			Reason:      "Extraction texte IA",
			Degraded:    true,
		}, nil
	}

	return ParsedSuggestion{}, common.ErrUnparsable
}

// extractJSONObject returns the outermost {...} span in the text, if any.
func extractJSONObject(content string) (string, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return content[start : end+1], true
}

// cleanMarkdownWrapper strips ```json fences providers add despite
// instructions not to.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		if idx := strings.Index(content, "\n"); idx != -1 {
			content = content[idx+1:]
		}
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}

	return strings.TrimSpace(content)
}
