package classifier

import (
	"fmt"
	"strings"

	"exambank/internal/domain"
	"exambank/internal/quota"
)

// buildSystemPrompt embeds the allowed taxonomy and pins the response
// contract: one JSON object per question, correlated by the echoed qna_id.
func buildSystemPrompt(taxonomy quota.Taxonomy) string {
	var sb strings.Builder
	for _, entry := range taxonomy {
		sb.WriteString(entry.Domain)
		sb.WriteString("\n")
		for i, sd := range entry.Subdomains {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, sd.Name)
			if sd.Description != "" {
				fmt.Fprintf(&sb, "   - %s\n", sd.Description)
			}
		}
	}

	return fmt.Sprintf(`You are an expert at classifying exam questions into a fixed taxonomy.
Classify each question into exactly one domain and one subdomain from the
taxonomy below, and decide whether solving it requires calculation.

### Taxonomy
%s
Classification rules:
- Judge by the question's core concept, terminology, calculation target and examples.
- If a specific academic theory or model appears, classify into its field.
- When in doubt, pick the single most relevant subdomain.

Respond with ONLY a JSON array, one object per question, in this exact format.
Question IDs are given as "file_id_tag" and must be echoed back unchanged.

[
{
  "qna_id": "file_id_tag",
  "domain": "domain name",
  "subdomain": "subdomain name",
  "reason": "short justification focused on key terms and evidence",
  "is_calculation": true
}
]`, sb.String())
}

// buildUserPrompt renders one batch of questions. Options are included only
// for multiple-choice records.
func buildUserPrompt(batch []*domain.Question) string {
	var sb strings.Builder
	for _, q := range batch {
		fmt.Fprintf(&sb, "\nQuestion ID: %s\n", q.ID())
		if q.Title != "" {
			fmt.Fprintf(&sb, "Book: %s\n", q.Title)
		}
		if q.Chapter != "" {
			fmt.Fprintf(&sb, "Chapter: %s\n", q.Chapter)
		}
		fmt.Fprintf(&sb, "Question: %s\n", q.Question)
		if len(q.Options) > 0 {
			fmt.Fprintf(&sb, "Options:\n%s\n", strings.Join(q.Options, "\n"))
		}
		fmt.Fprintf(&sb, "Answer: %s\n", q.Answer)
		fmt.Fprintf(&sb, "Explanation: %s\n", q.Explanation)
		sb.WriteString("====================\n")
	}
	return sb.String()
}
