//go:build ignore

// Compares two `go test -bench` output files and fails when the current
// run regresses more than 20% in ns/op against the baseline.
// Usage: go run scripts/bench-compare.go <current.txt> <baseline.txt>
package main

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
)

const regressionThreshold = 0.20

var benchLine = regexp.MustCompile(`^(Benchmark\S+)\s+\d+\s+([\d.]+) ns/op`)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: bench-compare <current.txt> <baseline.txt>")
		os.Exit(2)
	}

	current, err := parse(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	baseline, err := parse(os.Args[2])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	failed := false
	for name, cur := range current {
		base, ok := baseline[name]
		if !ok {
			fmt.Printf("NEW   %-50s %10.1f ns/op\n", name, cur)
			continue
		}
		delta := (cur - base) / base
		switch {
		case delta > regressionThreshold:
			fmt.Printf("SLOW  %-50s %10.1f -> %10.1f ns/op (+%.0f%%)\n", name, base, cur, delta*100)
			failed = true
		case delta < -0.10:
			fmt.Printf("FAST  %-50s %10.1f -> %10.1f ns/op (%.0f%%)\n", name, base, cur, delta*100)
		default:
			fmt.Printf("OK    %-50s %10.1f -> %10.1f ns/op\n", name, base, cur)
		}
	}

	if failed {
		fmt.Println("\nbenchmark regression detected")
		os.Exit(1)
	}
}

func parse(path string) (map[string]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	out := map[string]float64{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		m := benchLine.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		ns, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		out[m[1]] = ns
	}
	return out, sc.Err()
}
