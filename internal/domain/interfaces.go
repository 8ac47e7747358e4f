package domain

import (
	"context"
	"time"
)

// Kind tells insights apart from news articles.
type Kind string

const (
	KindInsight Kind = "insight"
	KindArticle Kind = "article"
)

// CollectionKind describes what a named collection holds.
type CollectionKind string

const (
	CollectionSummary  CollectionKind = "summary"
	CollectionFull     CollectionKind = "full"
	CollectionInsights CollectionKind = "insights"
)

// Record is the canonical shape of an article or insight, regardless of the
// store that produced it.
type Record struct {
	ID    string `json:"id"`
	Kind  Kind   `json:"kind"`
	Title string `json:"title"`
	// TitleMissing is set when Title holds the "Untitled" placeholder.
	TitleMissing bool           `json:"-"`
	Body         string         `json:"text"`
	Extended     string         `json:"deep_insights,omitempty"`
	Source       string         `json:"source"`
	Collection   string         `json:"collection,omitempty"`
	PublishedAt  *time.Time     `json:"date,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// CollectionHandle names one queryable collection. Provider is empty for the
// insights store.
type CollectionHandle struct {
	Name     string
	Kind     CollectionKind
	Provider string
}

// RecordKind maps the collection kind onto the kind of record it yields.
func (h CollectionHandle) RecordKind() Kind {
	if h.Kind == CollectionInsights {
		return KindInsight
	}
	return KindArticle
}

// SourceLabel is the provider when there is one, else the collection name.
func (h CollectionHandle) SourceLabel() string {
	if h.Provider != "" {
		return h.Provider
	}
	return h.Name
}

// QueryRequest is one logical list/search request.
type QueryRequest struct {
	Keyword string
	Filters map[string]string
	Limit   int
}

// Completer submits a prompt to a language model and returns its text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
