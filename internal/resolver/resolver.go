package resolver

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"argos/internal/collection"
	"argos/internal/domain"
)

// Link is one step of a fallback chain.
type Link interface {
	Name() string
	Lookup(ctx context.Context, id string) collection.Hit
}

// Getter is the point-lookup side of a collection adapter.
type Getter interface {
	Handle() domain.CollectionHandle
	Get(ctx context.Context, id string) collection.Hit
}

// StoreLink resolves ids against one vector-store collection.
type StoreLink struct {
	Getter Getter
}

func (l StoreLink) Name() string { return l.Getter.Handle().Name }

func (l StoreLink) Lookup(ctx context.Context, id string) collection.Hit {
	return l.Getter.Get(ctx, id)
}

// RecordReader reads archived records from disk.
type RecordReader interface {
	ReadRecord(asset string, kind domain.Kind, id string) (domain.Record, error)
}

// FileLink resolves ids against the on-disk research archive. An empty Asset
// searches every asset.
type FileLink struct {
	Reader RecordReader
	Asset  string
	Kind   domain.Kind
}

func (l FileLink) Name() string { return "archive" }

func (l FileLink) Lookup(ctx context.Context, id string) collection.Hit {
	if err := ctx.Err(); err != nil {
		return collection.Hit{Status: collection.Failed, Err: err}
	}
	rec, err := l.Reader.ReadRecord(l.Asset, l.Kind, id)
	switch {
	case err == nil:
		return collection.Hit{Record: rec, Status: collection.Found}
	case errors.Is(err, domain.ErrNotFound):
		return collection.Hit{Status: collection.NotFound}
	default:
		return collection.Hit{Status: collection.Failed, Err: err}
	}
}

// Resolver walks fallback chains. It never returns an error: an id that no
// link can produce is reported as unresolved.
type Resolver struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{logger: logger}
}

// Resolve tries each link in order and returns the first record found.
func (r *Resolver) Resolve(ctx context.Context, id string, kind domain.Kind, chain []Link) (domain.Record, bool) {
	for _, link := range chain {
		hit := link.Lookup(ctx, id)
		switch hit.Status {
		case collection.Found:
			if hit.Record.Kind == "" {
				hit.Record.Kind = kind
			}
			return hit.Record, true
		case collection.Failed:
			r.logger.Debug("link failed",
				zap.String("link", link.Name()),
				zap.String("id", id),
				zap.Error(hit.Err))
		}
	}
	r.logger.Info("unresolved citation", zap.String("id", id), zap.String("kind", string(kind)))
	return domain.Record{}, false
}

// Resolution is the outcome of ResolveAll.
type Resolution struct {
	// Records are in the order of the requested ids.
	Records    []domain.Record
	Unresolved []string
}

// ResolveAll resolves ids concurrently against the same chain.
func (r *Resolver) ResolveAll(ctx context.Context, ids []string, kind domain.Kind, chain []Link) Resolution {
	type slot struct {
		rec domain.Record
		ok  bool
	}
	slots := make([]slot, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, id := range ids {
		g.Go(func() error {
			rec, ok := r.Resolve(gctx, id, kind, chain)
			slots[i] = slot{rec: rec, ok: ok}
			return nil
		})
	}
	_ = g.Wait()

	res := Resolution{Records: []domain.Record{}, Unresolved: []string{}}
	for i, s := range slots {
		if s.ok {
			res.Records = append(res.Records, s.rec)
		} else {
			res.Unresolved = append(res.Unresolved, ids[i])
		}
	}
	return res
}
