// Package catalog loads and watches the dataset manifest: the YAML
// document listing every dataset the indexer should ingest, optionally
// extended by a remote catalog index fetched at load time.
package catalog

import "time"

// Dataset is a single entry in the manifest: a name, a human title, a
// source entities URL, the set of source names this dataset aggregates
// (for composite datasets), and the last_export version stamp used to
// decide whether a resync is needed.
type Dataset struct {
	Name        string
	Title       string
	EntitiesURL string
	DeltaURL    string
	Load        bool
	SourceNames []string
	LastExport  time.Time
	Namespace   bool
}

// manifestDataset is the YAML shape of a single datasets[] entry.
type manifestDataset struct {
	Name        string   `yaml:"name"`
	Title       string   `yaml:"title"`
	LastExport  string   `yaml:"last_export"`
	EntitiesURL string   `yaml:"entities_url"`
	DeltaURL    string   `yaml:"delta_url"`
	Load        *bool    `yaml:"load"`
	Sources     []string `yaml:"sources"`
	Externals   []string `yaml:"externals"`
	Namespace   bool     `yaml:"namespace"`
	Resources   []struct {
		Path string `yaml:"path"`
		URL  string `yaml:"url"`
	} `yaml:"resources"`
}

func (m manifestDataset) toDataset() Dataset {
	d := Dataset{
		Name:        m.Name,
		Title:       m.Title,
		EntitiesURL: m.EntitiesURL,
		DeltaURL:    m.DeltaURL,
		Load:        m.Load == nil || *m.Load,
		Namespace:   m.Namespace,
	}
	if d.Title == "" {
		d.Title = m.Name
	}
	d.LastExport, _ = parseISO(m.LastExport)
	d.SourceNames = append(append([]string{}, m.Sources...), m.Externals...)
	if len(d.SourceNames) == 0 {
		d.SourceNames = []string{m.Name}
	}
	for _, r := range m.Resources {
		if r.Path == "entities.ftm.json" {
			d.EntitiesURL = r.URL
		}
		if r.Path == "entities.delta.json" {
			d.DeltaURL = r.URL
		}
	}
	return d
}

func parseISO(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, nil
}

// Version formats a dataset's LastExport as the compact timestamp used
// in versioned index names. Lexicographic order on these strings matches
// chronological order, which the delta planner relies on.
func (d Dataset) Version() string {
	if d.LastExport.IsZero() {
		return "0"
	}
	return d.LastExport.UTC().Format("20060102150405")
}

// IsComposite reports whether this dataset aggregates other source
// datasets rather than carrying its own entities directly.
func (d Dataset) IsComposite() bool {
	return len(d.SourceNames) > 1 || (len(d.SourceNames) == 1 && d.SourceNames[0] != d.Name)
}
