package classifier

import (
	"encoding/json"
	"fmt"
	"strings"
)

// classificationItem is one slot of the structured response. is_calculation is
// kept raw because models return it as a bool or as "True"/"False" strings;
// anything else is a per-record failure, never a silent default.
type classificationItem struct {
	QnAID            string          `json:"qna_id"`
	Domain           string          `json:"domain"`
	Subdomain        string          `json:"subdomain"`
	Reason           string          `json:"reason"`
	IsCalculationRaw json.RawMessage `json:"is_calculation"`
}

func (i classificationItem) isCalculation() (bool, error) {
	if len(i.IsCalculationRaw) == 0 {
		return false, fmt.Errorf("missing is_calculation field")
	}

	var b bool
	if err := json.Unmarshal(i.IsCalculationRaw, &b); err == nil {
		return b, nil
	}

	var s string
	if err := json.Unmarshal(i.IsCalculationRaw, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}

	return false, fmt.Errorf("invalid is_calculation value: %s", string(i.IsCalculationRaw))
}

// parseClassifications extracts the JSON array from a raw model response.
// Models wrap output in code fences or reasoning tags, so the first '[' and
// the last ']' bound the payload.
func parseClassifications(raw string) ([]classificationItem, error) {
	cleaned := stripReasoningTags(stripCodeFences(raw))

	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	var items []classificationItem
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal classification array: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("response contained an empty classification array")
	}
	return items, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "```json"))
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "```"))
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}

func stripReasoningTags(s string) string {
	if start := strings.Index(s, "<think>"); start != -1 {
		if end := strings.Index(s, "</think>"); end != -1 && end > start {
			s = strings.TrimSpace(s[:start] + s[end+len("</think>"):])
		}
	}
	return s
}
