package prompt

import (
	"strings"

	"argos/internal/domain"
)

const (
	Preamble  = "SYSTEM: You are Argos, a market intelligence assistant. Use only the information below."
	separator = "\n---\n"
)

// CleanInsight reduces an insight to its text and deep-insight text.
func CleanInsight(r domain.Record) string {
	return strings.TrimSpace(r.Body + "\n" + r.Extended)
}

// CleanArticle reduces an article to its title and body. The "Untitled"
// placeholder contributes nothing.
func CleanArticle(r domain.Record) string {
	title := r.Title
	if r.TitleMissing {
		title = ""
	}
	return strings.TrimSpace(title + "\n" + r.Body)
}

// Assemble builds the context document sent to the model. Output depends only
// on its arguments; records that clean to nothing are omitted.
func Assemble(report string, insights, articles []domain.Record, message string) string {
	lines := []string{
		Preamble,
		separator,
		"## Full Report\n",
		strings.TrimSpace(report),
		separator,
		"## Insights Used\n",
	}
	lines = append(lines, bullets(insights, CleanInsight)...)
	lines = append(lines, separator, "## Articles Used\n")
	lines = append(lines, bullets(articles, CleanArticle)...)
	lines = append(lines, separator, "## User Message\n", strings.TrimSpace(message))
	return strings.Join(lines, "\n")
}

func bullets(recs []domain.Record, clean func(domain.Record) string) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		if text := clean(r); text != "" {
			out = append(out, "- "+text)
		}
	}
	return out
}
