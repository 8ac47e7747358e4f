// Package citation finds the insight and article ids a report cites inline,
// e.g. "rates are falling (AB1234X 9QZ7T)".
package citation

import "regexp"

var (
	// Groups do not nest: the first ')' closes the group.
	groupPattern   = regexp.MustCompile(`\(([^)]*)\)`)
	insightPattern = regexp.MustCompile(`\b[A-Z0-9]{7}\b`)
	articlePattern = regexp.MustCompile(`\b[A-Z0-9]{5}\b`)
)

// Set holds the unique ids cited by a document in first-seen order.
type Set struct {
	InsightIDs []string `json:"insight_ids"`
	ArticleIDs []string `json:"article_ids"`
}

// Empty reports whether nothing was cited.
func (s Set) Empty() bool {
	return len(s.InsightIDs) == 0 && len(s.ArticleIDs) == 0
}

// Limit caps each list at n ids. n <= 0 leaves the set untouched.
func (s Set) Limit(n int) Set {
	if n <= 0 {
		return s
	}
	if len(s.InsightIDs) > n {
		s.InsightIDs = s.InsightIDs[:n]
	}
	if len(s.ArticleIDs) > n {
		s.ArticleIDs = s.ArticleIDs[:n]
	}
	return s
}

// Extract scans text for parenthesized citation groups. Tokens of exactly
// seven uppercase letters or digits are insight ids, tokens of exactly five
// are article ids. Anything else inside a group is ignored.
func Extract(text string) Set {
	set := Set{InsightIDs: []string{}, ArticleIDs: []string{}}
	seenInsight := map[string]struct{}{}
	seenArticle := map[string]struct{}{}
	for _, group := range groupPattern.FindAllStringSubmatch(text, -1) {
		body := group[1]
		for _, id := range insightPattern.FindAllString(body, -1) {
			if _, ok := seenInsight[id]; !ok {
				seenInsight[id] = struct{}{}
				set.InsightIDs = append(set.InsightIDs, id)
			}
		}
		for _, id := range articlePattern.FindAllString(body, -1) {
			if _, ok := seenArticle[id]; !ok {
				seenArticle[id] = struct{}{}
				set.ArticleIDs = append(set.ArticleIDs, id)
			}
		}
	}
	return set
}
