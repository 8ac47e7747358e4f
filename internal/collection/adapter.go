package collection

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"argos/internal/domain"
	"argos/internal/vectorstore"
)

// Status tags the outcome of a point lookup.
type Status int

const (
	NotFound Status = iota
	Found
	Failed
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case Failed:
		return "failed"
	default:
		return "not_found"
	}
}

// Hit is the tagged result of Adapter.Get. Err is set only when Status is Failed.
type Hit struct {
	Record domain.Record
	Status Status
	Err    error
}

// Adapter binds one collection of a vector store and turns its rows into
// normalized records. Store failures never escape: they are logged and
// surface as an empty result or a Failed hit.
type Adapter struct {
	handle domain.CollectionHandle
	store  vectorstore.Store
	logger *zap.Logger
}

func New(handle domain.CollectionHandle, store vectorstore.Store, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		handle: handle,
		store:  store,
		logger: logger.With(zap.String("collection", handle.Name)),
	}
}

func (a *Adapter) Handle() domain.CollectionHandle { return a.handle }

// Query returns up to req.Limit records. It never returns an error.
func (a *Adapter) Query(ctx context.Context, req domain.QueryRequest) []domain.Record {
	rows, err := a.store.Query(ctx, a.handle.Name, vectorstore.Query{
		Text:  req.Keyword,
		Where: req.Filters,
		Limit: req.Limit,
	})
	if err != nil {
		a.logger.Warn("collection query failed", zap.String("keyword", req.Keyword), zap.Error(err))
		return nil
	}
	records := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := a.normalize(row)
		if err != nil {
			a.logger.Warn("dropping malformed row", zap.Error(err))
			continue
		}
		records = append(records, rec)
		if req.Limit > 0 && len(records) == req.Limit {
			break
		}
	}
	return records
}

// Get looks up a single id.
func (a *Adapter) Get(ctx context.Context, id string) Hit {
	rows, err := a.store.Get(ctx, a.handle.Name, []string{id})
	if err != nil {
		if !errors.Is(err, vectorstore.ErrCollectionNotFound) {
			a.logger.Warn("collection get failed", zap.String("id", id), zap.Error(err))
		}
		return Hit{Status: Failed, Err: err}
	}
	for _, row := range rows {
		if row.ID != "" && row.ID != id {
			continue
		}
		rec, err := a.normalize(vectorstore.Row{ID: id, Document: row.Document, Metadata: row.Metadata})
		if err != nil {
			return Hit{Status: Failed, Err: err}
		}
		return Hit{Record: rec, Status: Found}
	}
	return Hit{Status: NotFound}
}

func (a *Adapter) normalize(row vectorstore.Row) (domain.Record, error) {
	fields := make(map[string]any, len(row.Metadata)+1)
	for k, v := range row.Metadata {
		fields[k] = v
	}
	if row.Document != "" {
		fields[domain.DocumentField] = row.Document
	}
	rec, err := domain.Normalize(row.ID, fields, a.handle.SourceLabel())
	if err != nil {
		return domain.Record{}, err
	}
	rec.Kind = a.handle.RecordKind()
	rec.Collection = a.handle.Name
	return rec, nil
}
