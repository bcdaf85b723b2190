package catalog

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Manifest is the parsed manifest.yml document: a schedule hint, zero or
// more directly declared datasets, and an optional External block that
// side-loads a whole remote catalog (the OpenSanctions collection index)
// rather than hand-listing every dataset.
type Manifest struct {
	Schedule string            `yaml:"schedule"`
	External *ExternalManifest `yaml:"external"`
	Datasets []manifestDataset `yaml:"datasets"`
}

// ExternalManifest fetches a remote index of datasets and merges them
// into the manifest.
type ExternalManifest struct {
	URL       string `yaml:"url"`
	Type      string `yaml:"type"`
	Scope     string `yaml:"scope"`
	Namespace bool   `yaml:"namespace"`
}

type externalIndex struct {
	Datasets []struct {
		Name       string   `json:"name"`
		Title      string   `json:"title"`
		LastExport string   `json:"last_export"`
		Sources    []string `json:"sources"`
		Externals  []string `json:"externals"`
		Resources  []struct {
			Path string `json:"path"`
			URL  string `json:"url"`
		} `json:"resources"`
	} `json:"datasets"`
}

// LoadManifest reads and parses the manifest file at path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// Resolve expands the manifest into the concrete dataset list, fetching
// the external index (if configured) over httpClient with the given
// timeout. Directly declared datasets come first, externally fetched
// ones are appended after them.
func (m *Manifest) Resolve(httpClient *http.Client, timeout time.Duration) ([]Dataset, error) {
	out := make([]Dataset, 0, len(m.Datasets))
	for _, d := range m.Datasets {
		out = append(out, d.toDataset())
	}
	if m.External == nil {
		return out, nil
	}
	if m.External.Type != "opensanctions" {
		return nil, fmt.Errorf("unsupported external manifest type %q", m.External.Type)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	req, err := http.NewRequest(http.MethodGet, m.External.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build external manifest request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch external manifest: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("external manifest fetch: status %d", resp.StatusCode)
	}
	var idx externalIndex
	if err := json.NewDecoder(resp.Body).Decode(&idx); err != nil {
		return nil, fmt.Errorf("decode external manifest: %w", err)
	}
	for _, ds := range idx.Datasets {
		sources := append(append([]string{}, ds.Sources...), ds.Externals...)
		if len(sources) == 0 {
			sources = []string{ds.Name}
		}
		entitiesURL, deltaURL := "", ""
		for _, r := range ds.Resources {
			if r.Path == "entities.ftm.json" {
				entitiesURL = r.URL
			}
			if r.Path == "entities.delta.json" {
				deltaURL = r.URL
			}
		}
		lastExport, _ := parseISO(ds.LastExport)
		title := ds.Title
		if title == "" {
			title = ds.Name
		}
		out = append(out, Dataset{
			Name:        ds.Name,
			Title:       title,
			EntitiesURL: entitiesURL,
			DeltaURL:    deltaURL,
			Load:        true,
			SourceNames: sources,
			LastExport:  lastExport,
			Namespace:   m.External.Namespace,
		})
	}
	return out, nil
}
