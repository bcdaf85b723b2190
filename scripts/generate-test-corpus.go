//go:build ignore

// Generates a synthetic entity corpus for load testing: an NDJSON entity
// stream plus a manifest pointing at it.
// Usage: go run scripts/generate-test-corpus.go -entities 10000 -output testdata/corpus
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

var (
	numEntities = flag.Int("entities", 10000, "Number of entities to generate")
	outputDir   = flag.String("output", "testdata/corpus", "Output directory")
	seed        = flag.Int64("seed", 42, "Random seed for reproducibility")
)

var firstNames = []string{
	"Vladimir", "Elena", "Mohammed", "Li", "Fatima", "Ivan", "Maria",
	"Chen", "Aisha", "Sergei", "Olga", "Ahmed", "Wei", "Natalia", "Omar",
}

var lastNames = []string{
	"Petrov", "Ivanova", "Al-Rashid", "Wang", "Hassan", "Volkov",
	"Sokolova", "Zhang", "Karimov", "Orlov", "Fedorova", "Nasser", "Liu",
}

var companyRoots = []string{
	"Gazprom", "Vostok", "Meridian", "Atlas", "Polaris", "Horizon",
	"Sever", "Delta", "Crown", "Pacific", "Baltic", "Orion",
}

var companySuffixes = []string{"OOO", "LLC", "Ltd", "GmbH", "AO", "JSC", "Holding"}

var countries = []string{"ru", "cn", "ir", "sy", "us", "gb", "de", "ae", "tr", "kz"}

type wireEntity struct {
	ID         string              `json:"id"`
	Schema     string              `json:"schema"`
	Caption    string              `json:"caption,omitempty"`
	Properties map[string][]string `json:"properties"`
	Datasets   []string            `json:"datasets"`
	Referents  []string            `json:"referents,omitempty"`
	Target     bool                `json:"target"`
	FirstSeen  string              `json:"first_seen"`
	LastSeen   string              `json:"last_seen"`
	LastChange string              `json:"last_change"`
}

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create output dir: %v\n", err)
		os.Exit(1)
	}

	entitiesPath := filepath.Join(*outputDir, "entities.ndjson")
	f, err := os.Create(entitiesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create %s: %v\n", entitiesPath, err)
		os.Exit(1)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < *numEntities; i++ {
		var e wireEntity
		if rng.Intn(3) == 0 {
			e = company(rng, i)
		} else {
			e = person(rng, i)
		}
		seen := base.AddDate(0, 0, rng.Intn(2000))
		e.Datasets = []string{"synthetic"}
		e.FirstSeen = seen.Format(time.RFC3339)
		e.LastSeen = seen.AddDate(0, 0, rng.Intn(365)).Format(time.RFC3339)
		e.LastChange = e.LastSeen
		if rng.Intn(10) == 0 {
			e.Referents = []string{fmt.Sprintf("syn-ref-%d", i)}
		}
		if err := enc.Encode(e); err != nil {
			fmt.Fprintf(os.Stderr, "write entity: %v\n", err)
			os.Exit(1)
		}
	}

	manifest := fmt.Sprintf(`datasets:
  - name: synthetic
    title: Synthetic load-test corpus
    load: true
    version: "%s"
    entities_url: file://%s
`, time.Now().UTC().Format("20060102150405"), entitiesPath)

	manifestPath := filepath.Join(*outputDir, "manifest.yml")
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write manifest: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %d entities in %s\n", *numEntities, entitiesPath)
	fmt.Printf("Manifest written to %s\n", manifestPath)
}

func person(rng *rand.Rand, i int) wireEntity {
	first := firstNames[rng.Intn(len(firstNames))]
	last := lastNames[rng.Intn(len(lastNames))]
	name := first + " " + last
	birth := fmt.Sprintf("%d-%02d-%02d", 1940+rng.Intn(60), 1+rng.Intn(12), 1+rng.Intn(28))
	return wireEntity{
		ID:      fmt.Sprintf("syn-p-%06d", i),
		Schema:  "Person",
		Caption: name,
		Properties: map[string][]string{
			"name":        {name},
			"birthDate":   {birth},
			"nationality": {countries[rng.Intn(len(countries))]},
		},
		Target: rng.Intn(4) == 0,
	}
}

func company(rng *rand.Rand, i int) wireEntity {
	name := companyRoots[rng.Intn(len(companyRoots))] + " " + companySuffixes[rng.Intn(len(companySuffixes))]
	return wireEntity{
		ID:      fmt.Sprintf("syn-c-%06d", i),
		Schema:  "Company",
		Caption: name,
		Properties: map[string][]string{
			"name":               {name},
			"jurisdiction":       {countries[rng.Intn(len(countries))]},
			"registrationNumber": {fmt.Sprintf("%09d", rng.Intn(1_000_000_000))},
		},
		Target: rng.Intn(6) == 0,
	}
}
