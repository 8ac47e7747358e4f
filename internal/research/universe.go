// Package research reads and writes the on-disk research tree: the asset
// universe with its strategies, the research domain catalogue and the
// generated-output archive.
package research

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"argos/internal/domain"
)

const (
	strategyFile      = "strategy.md"
	linkedDomainsFile = "linked_research_domains.yaml"
)

type Asset struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	HasStrategy bool   `json:"has_strategy"`
}

type Strategy struct {
	AssetID         string   `json:"asset_id"`
	Content         string   `json:"strategy"`
	ResearchDomains []string `json:"research_domains"`
}

type linkedDomains struct {
	ResearchDomains []string `yaml:"research_domains"`
}

// Universe is the directory of tradable assets, one subdirectory per asset.
type Universe struct {
	dir string
}

func NewUniverse(dir string) *Universe {
	return &Universe{dir: dir}
}

// Assets lists asset directories in name order. A missing universe is empty.
func (u *Universe) Assets() ([]Asset, error) {
	names, err := subdirs(u.dir)
	if err != nil {
		return nil, err
	}
	assets := make([]Asset, 0, len(names))
	for _, name := range names {
		assets = append(assets, Asset{
			ID:          name,
			Name:        name,
			HasStrategy: fileExists(filepath.Join(u.dir, name, strategyFile)),
		})
	}
	return assets, nil
}

// Strategy returns the asset's strategy and linked research domains. A missing
// or unreadable domains file yields an empty list.
func (u *Universe) Strategy(asset string) (Strategy, error) {
	dir, err := u.assetDir(asset)
	if err != nil {
		return Strategy{}, err
	}
	content, err := os.ReadFile(filepath.Join(dir, strategyFile))
	if errors.Is(err, fs.ErrNotExist) {
		return Strategy{}, fmt.Errorf("strategy for %s: %w", asset, domain.ErrNotFound)
	}
	if err != nil {
		return Strategy{}, fmt.Errorf("read strategy for %s: %w", asset, err)
	}
	s := Strategy{AssetID: asset, Content: string(content), ResearchDomains: []string{}}
	if data, err := os.ReadFile(filepath.Join(dir, linkedDomainsFile)); err == nil {
		var linked linkedDomains
		if yaml.Unmarshal(data, &linked) == nil && linked.ResearchDomains != nil {
			s.ResearchDomains = linked.ResearchDomains
		}
	}
	return s, nil
}

// SaveStrategy writes both strategy files, creating the asset directory.
func (u *Universe) SaveStrategy(asset, content string, domains []string) error {
	dir, err := u.assetDir(asset)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create asset dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, strategyFile), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write strategy: %w", err)
	}
	if domains == nil {
		domains = []string{}
	}
	data, err := yaml.Marshal(linkedDomains{ResearchDomains: domains})
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, linkedDomainsFile), data, 0o644); err != nil {
		return fmt.Errorf("write linked domains: %w", err)
	}
	return nil
}

func (u *Universe) assetDir(asset string) (string, error) {
	if err := checkName(asset); err != nil {
		return "", err
	}
	return filepath.Join(u.dir, asset), nil
}

// checkName rejects names that would escape their parent directory.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("name %q: %w", name, domain.ErrInvalidInput)
	}
	return nil
}

func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
