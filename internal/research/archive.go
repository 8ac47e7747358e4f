package research

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"argos/internal/domain"
)

var (
	// ErrAssetNotFound means the asset has no reports directory.
	ErrAssetNotFound = fmt.Errorf("asset does not exist: %w", domain.ErrNotFound)
	// ErrNoReport means the reports directory holds no usable report.
	ErrNoReport = fmt.Errorf("no report files: %w", domain.ErrNotFound)
)

// Report formats in order of preference.
var reportFormats = []string{"md", "html", "pdf"}

type Report struct {
	Filename string
	Path     string
	Format   string
	ModTime  time.Time
}

// Archive is the generated-output tree:
//
//	{dir}/{asset}/reports/*.md|html|pdf
//	{dir}/{asset}/insights/{id}.json
//	{dir}/{asset}/articles/{id}.json
type Archive struct {
	dir string
}

func NewArchive(dir string) *Archive {
	return &Archive{dir: dir}
}

// AssetDirs lists asset directories in name order.
func (a *Archive) AssetDirs() ([]string, error) {
	return subdirs(a.dir)
}

// LatestReport picks the newest report of the most preferred format present.
// Hidden files and editor lock files (".", "~") are skipped.
func (a *Archive) LatestReport(asset string) (Report, error) {
	return a.latest(asset, reportFormats)
}

// LatestMarkdownReport returns the newest markdown report and its content.
func (a *Archive) LatestMarkdownReport(asset string) (Report, string, error) {
	r, err := a.latest(asset, reportFormats[:1])
	if err != nil {
		return Report{}, "", err
	}
	content, err := a.ReadContent(r)
	if err != nil {
		return Report{}, "", err
	}
	return r, content, nil
}

// ReadContent reads a report file as text.
func (a *Archive) ReadContent(r Report) (string, error) {
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return "", fmt.Errorf("read report %s: %w", r.Filename, err)
	}
	return string(data), nil
}

func (a *Archive) latest(asset string, formats []string) (Report, error) {
	if err := checkName(asset); err != nil {
		return Report{}, err
	}
	dir := filepath.Join(a.dir, asset, "reports")
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return Report{}, fmt.Errorf("%s: %w", asset, ErrAssetNotFound)
	}
	if err != nil {
		return Report{}, fmt.Errorf("list reports for %s: %w", asset, err)
	}
	byFormat := map[string][]Report{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~") {
			continue
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
		info, err := e.Info()
		if err != nil {
			continue
		}
		byFormat[ext] = append(byFormat[ext], Report{
			Filename: name,
			Path:     filepath.Join(dir, name),
			Format:   ext,
			ModTime:  info.ModTime(),
		})
	}
	for _, f := range formats {
		reports := byFormat[f]
		if len(reports) == 0 {
			continue
		}
		sort.Slice(reports, func(i, j int) bool {
			if !reports[i].ModTime.Equal(reports[j].ModTime) {
				return reports[i].ModTime.After(reports[j].ModTime)
			}
			return reports[i].Filename > reports[j].Filename
		})
		return reports[0], nil
	}
	return Report{}, fmt.Errorf("%s: %w", asset, ErrNoReport)
}

// ReadRecord loads {asset}/{insights|articles}/{id}.json. An empty asset
// searches every asset directory in name order.
func (a *Archive) ReadRecord(asset string, kind domain.Kind, id string) (domain.Record, error) {
	if err := checkName(id); err != nil {
		return domain.Record{}, err
	}
	assets := []string{asset}
	if asset == "" {
		var err error
		if assets, err = a.AssetDirs(); err != nil {
			return domain.Record{}, err
		}
	} else if err := checkName(asset); err != nil {
		return domain.Record{}, err
	}
	for _, as := range assets {
		path := filepath.Join(a.dir, as, recordDir(kind), id+".json")
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return domain.Record{}, err
		}
		var fields map[string]any
		if err := json.Unmarshal(data, &fields); err != nil {
			return domain.Record{}, fmt.Errorf("parse %s: %w", path, err)
		}
		rec, err := domain.Normalize(id, fields, "archive")
		if err != nil {
			return domain.Record{}, err
		}
		rec.Kind = kind
		rec.Collection = as
		return rec, nil
	}
	return domain.Record{}, fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
}

func recordDir(kind domain.Kind) string {
	if kind == domain.KindInsight {
		return "insights"
	}
	return "articles"
}
