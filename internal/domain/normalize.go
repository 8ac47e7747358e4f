package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Untitled is the title given to records that carry neither title nor headline.
const Untitled = "Untitled"

// DocumentField is the field under which adapters hand the row document to Normalize.
const DocumentField = "document"

var (
	titleFields = []string{"title", "headline"}
	dateFields  = []string{"date", "pub_date", "published_date", "publication_date"}
	bodyFields  = []string{"text", "content", "summary", DocumentField}
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"20060102",
	time.RFC1123Z,
	time.RFC1123,
}

// Normalize maps a raw row onto a Record. key is the store-provided id and
// wins over an "id" field. Only a missing id is an error; every other field
// degrades to its zero value.
func Normalize(key string, fields map[string]any, source string) (Record, error) {
	id := strings.TrimSpace(key)
	if id == "" {
		id = stringField(fields, "id")
	}
	if id == "" {
		return Record{}, ErrMissingID
	}
	r := Record{
		ID:       id,
		Kind:     KindArticle,
		Source:   source,
		Body:     firstString(fields, bodyFields),
		Extended: stringField(fields, "deep_insights"),
		Metadata: passThrough(fields),
	}
	r.Title = firstString(fields, titleFields)
	if r.Title == "" {
		r.Title = Untitled
		r.TitleMissing = true
	}
	for _, f := range dateFields {
		if t, ok := ParseTime(fields[f]); ok {
			r.PublishedAt = &t
			break
		}
	}
	return r, nil
}

// ParseTime accepts the date shapes seen across providers: ISO strings with or
// without zone, compact dates, RFC1123 and unix seconds.
func ParseTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), !x.IsZero()
	case float64:
		return time.Unix(int64(x), 0).UTC(), true
	case int:
		return time.Unix(int64(x), 0).UTC(), true
	case int64:
		return time.Unix(x, 0).UTC(), true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
		if len(s) >= 9 {
			if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
				return time.Unix(secs, 0).UTC(), true
			}
		}
	}
	return time.Time{}, false
}

// passThrough drops the adapter-injected document so Metadata only carries
// what the store returned as metadata.
func passThrough(fields map[string]any) map[string]any {
	if _, ok := fields[DocumentField]; !ok {
		return fields
	}
	out := make(map[string]any, len(fields)-1)
	for k, v := range fields {
		if k != DocumentField {
			out[k] = v
		}
	}
	return out
}

func firstString(fields map[string]any, keys []string) string {
	for _, k := range keys {
		if s := stringField(fields, k); s != "" {
			return s
		}
	}
	return ""
}

func stringField(fields map[string]any, key string) string {
	v, ok := fields[key]
	if !ok || v == nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case []byte:
		return strings.TrimSpace(string(x))
	case map[string]any, []any:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
