package research

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"argos/internal/domain"
)

const (
	descriptionFile = "description.md"
	tasksFile       = "research_tasks.yaml"
)

type Domain struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Tasks       []any  `json:"tasks,omitempty"`
}

// Domains is the catalogue of research domains, one subdirectory each.
type Domains struct {
	dir string
}

func NewDomains(dir string) *Domains {
	return &Domains{dir: dir}
}

func (d *Domains) List() ([]Domain, error) {
	names, err := subdirs(d.dir)
	if err != nil {
		return nil, err
	}
	out := make([]Domain, 0, len(names))
	for _, name := range names {
		out = append(out, Domain{ID: name, Name: name, Description: d.description(name)})
	}
	return out, nil
}

// Get returns a domain with its task list. Tasks are passed through as parsed.
func (d *Domains) Get(id string) (Domain, error) {
	if err := checkName(id); err != nil {
		return Domain{}, err
	}
	info, err := os.Stat(filepath.Join(d.dir, id))
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.IsDir()) {
		return Domain{}, fmt.Errorf("research domain %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return Domain{}, err
	}
	out := Domain{ID: id, Name: id, Description: d.description(id), Tasks: []any{}}
	if data, err := os.ReadFile(filepath.Join(d.dir, id, tasksFile)); err == nil {
		var parsed struct {
			Tasks []any `yaml:"tasks"`
		}
		if yaml.Unmarshal(data, &parsed) == nil && parsed.Tasks != nil {
			out.Tasks = parsed.Tasks
		}
	}
	return out, nil
}

func (d *Domains) description(id string) string {
	data, err := os.ReadFile(filepath.Join(d.dir, id, descriptionFile))
	if err != nil {
		return ""
	}
	return string(data)
}
