package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"argos/internal/collection"
	"argos/internal/domain"
	"argos/internal/vectorstore"
	"argos/internal/vectorstore/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeLink struct {
	name  string
	hits  map[string]collection.Hit
	calls int
}

func (f *fakeLink) Name() string { return f.name }

func (f *fakeLink) Lookup(_ context.Context, id string) collection.Hit {
	f.calls++
	if h, ok := f.hits[id]; ok {
		return h
	}
	return collection.Hit{Status: collection.NotFound}
}

type mapReader map[string]domain.Record

func (m mapReader) ReadRecord(asset string, kind domain.Kind, id string) (domain.Record, error) {
	if asset == "BROKEN" {
		return domain.Record{}, errors.New("permission denied")
	}
	if r, ok := m[asset+"/"+id]; ok {
		return r, nil
	}
	return domain.Record{}, domain.ErrNotFound
}

func TestResolveFirstFoundWins(t *testing.T) {
	r := New(zaptest.NewLogger(t))
	first := &fakeLink{name: "first", hits: map[string]collection.Hit{"AB1234X": {Status: collection.Failed, Err: errors.New("timeout")}}}
	second := &fakeLink{name: "second", hits: map[string]collection.Hit{"AB1234X": {Status: collection.Found, Record: domain.Record{ID: "AB1234X", Body: "second"}}}}
	third := &fakeLink{name: "third", hits: map[string]collection.Hit{"AB1234X": {Status: collection.Found, Record: domain.Record{ID: "AB1234X", Body: "third"}}}}

	rec, ok := r.Resolve(context.Background(), "AB1234X", domain.KindInsight, []Link{first, second, third})
	require.True(t, ok)
	assert.Equal(t, "second", rec.Body)
	assert.Equal(t, domain.KindInsight, rec.Kind)
	assert.Equal(t, 0, third.calls)
}

func TestResolveExhaustedChain(t *testing.T) {
	r := New(nil)
	_, ok := r.Resolve(context.Background(), "ZZZZZ", domain.KindArticle, []Link{&fakeLink{name: "a"}, &fakeLink{name: "b"}})
	assert.False(t, ok)

	_, ok = r.Resolve(context.Background(), "ZZZZZ", domain.KindArticle, nil)
	assert.False(t, ok)
}

func TestStoreLinkThenFileLink(t *testing.T) {
	store := memory.NewStorage()
	store.Add("insights", vectorstore.Row{ID: "AB1234X", Document: "from store"})
	adapter := collection.New(domain.CollectionHandle{Name: "insights", Kind: domain.CollectionInsights}, store, nil)
	reader := mapReader{"EURUSD/CD56789": {ID: "CD56789", Body: "from disk"}}
	chain := []Link{StoreLink{Getter: adapter}, FileLink{Reader: reader, Asset: "EURUSD", Kind: domain.KindInsight}}

	r := New(nil)
	rec, ok := r.Resolve(context.Background(), "AB1234X", domain.KindInsight, chain)
	require.True(t, ok)
	assert.Equal(t, "from store", rec.Body)

	rec, ok = r.Resolve(context.Background(), "CD56789", domain.KindInsight, chain)
	require.True(t, ok)
	assert.Equal(t, "from disk", rec.Body)
	assert.Equal(t, domain.KindInsight, rec.Kind)
}

func TestFileLinkStatuses(t *testing.T) {
	reader := mapReader{"EURUSD/A1B2C": {ID: "A1B2C"}}
	ctx := context.Background()

	assert.Equal(t, collection.Found, FileLink{Reader: reader, Asset: "EURUSD"}.Lookup(ctx, "A1B2C").Status)
	assert.Equal(t, collection.NotFound, FileLink{Reader: reader, Asset: "EURUSD"}.Lookup(ctx, "ZZZZZ").Status)
	assert.Equal(t, collection.Failed, FileLink{Reader: reader, Asset: "BROKEN"}.Lookup(ctx, "A1B2C").Status)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Equal(t, collection.Failed, FileLink{Reader: reader, Asset: "EURUSD"}.Lookup(cancelled, "A1B2C").Status)
}

func TestResolveAllKeepsCitationOrder(t *testing.T) {
	hits := map[string]collection.Hit{}
	for _, id := range []string{"A1B2C", "D3E4F", "G5H6I", "J7K8L"} {
		hits[id] = collection.Hit{Status: collection.Found, Record: domain.Record{ID: id}}
	}
	reader := mapReader{}
	for id, h := range hits {
		reader["EURUSD/"+id] = h.Record
	}
	chain := []Link{FileLink{Reader: reader, Asset: "EURUSD", Kind: domain.KindArticle}}

	res := New(nil).ResolveAll(context.Background(), []string{"J7K8L", "MISSN", "A1B2C", "G5H6I", "D3E4F"}, domain.KindArticle, chain)
	var got []string
	for _, r := range res.Records {
		got = append(got, r.ID)
	}
	assert.Equal(t, []string{"J7K8L", "A1B2C", "G5H6I", "D3E4F"}, got)
	assert.Equal(t, []string{"MISSN"}, res.Unresolved)
}

func TestResolveAllEmpty(t *testing.T) {
	res := New(nil).ResolveAll(context.Background(), nil, domain.KindInsight, nil)
	assert.Empty(t, res.Records)
	assert.Empty(t, res.Unresolved)
	assert.NotNil(t, res.Records)
}
