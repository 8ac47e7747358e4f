package retrieval

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"argos/internal/domain"
)

// Source is the part of a collection adapter the merger needs.
type Source interface {
	Handle() domain.CollectionHandle
	Query(ctx context.Context, req domain.QueryRequest) []domain.Record
}

// Options tunes a single Search call.
type Options struct {
	// Dedupe drops repeated ids, keeping the first occurrence in source order.
	Dedupe bool
}

// Merger fans one logical request out over several collections and folds the
// results into a single, date-ordered list.
type Merger struct {
	logger *zap.Logger
}

func NewMerger(logger *zap.Logger) *Merger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Merger{logger: logger}
}

// Search asks every source for up to req.Limit records, concatenates them in
// source order, optionally dedupes, sorts newest first (undated last) and
// truncates to req.Limit. Ties keep concatenation order.
func (m *Merger) Search(ctx context.Context, sources []Source, req domain.QueryRequest, opts Options) []domain.Record {
	if req.Limit <= 0 || len(sources) == 0 {
		return []domain.Record{}
	}
	slots := make([][]domain.Record, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			slots[i] = src.Query(gctx, req)
			return nil
		})
	}
	_ = g.Wait()

	var merged []domain.Record
	for i, recs := range slots {
		m.logger.Debug("collection results",
			zap.String("collection", sources[i].Handle().Name),
			zap.Int("count", len(recs)))
		merged = append(merged, recs...)
	}
	if opts.Dedupe {
		merged = dedupe(merged)
	}
	SortByDate(merged)
	if len(merged) > req.Limit {
		merged = merged[:req.Limit]
	}
	if merged == nil {
		merged = []domain.Record{}
	}
	return merged
}

// SortByDate orders records newest first; records without a date go last.
func SortByDate(recs []domain.Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i].PublishedAt, recs[j].PublishedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}

func dedupe(recs []domain.Record) []domain.Record {
	seen := make(map[string]struct{}, len(recs))
	out := recs[:0]
	for _, r := range recs {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}
