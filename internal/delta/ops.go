package delta

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"os"
	"strings"

	"github.com/sentryscreen/sentryscreen/internal/entity"
	retry "github.com/sentryscreen/sentryscreen/internal/errors"
)

// Record is one {op, entity} change the indexer applies to the target
// index.
type Record struct {
	Op     Op
	Entity *entity.Entity
}

// deltaLine is the NDJSON shape of a single delta-stream record.
type deltaLine struct {
	Op     string         `json:"op"`
	Entity map[string]any `json:"entity"`
}

// Ops streams every record the plan implies, in application order: full
// ingestion yields ADD for every entity in the dataset's entities_url;
// a delta plan replays each delta URL in ascending-version order, and
// within a URL, records are yielded in stream order.
func (f *Fetcher) Ops(ctx context.Context, p *Plan) iter.Seq2[Record, error] {
	if p.Full {
		return f.streamFull(ctx, p.Dataset.EntitiesURL)
	}
	return f.streamDeltas(ctx, p.DeltaURLs)
}

func (f *Fetcher) streamFull(ctx context.Context, url string) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		body, closeFn, err := f.open(ctx, url)
		if err != nil {
			yield(Record{}, err)
			return
		}
		defer closeFn()

		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			var data map[string]any
			if err := json.Unmarshal([]byte(line), &data); err != nil {
				if !yield(Record{}, fmt.Errorf("decode full entity line: %w", err)) {
					return
				}
				continue
			}
			e, err := entity.FromJSON(data)
			if err != nil {
				if !yield(Record{}, fmt.Errorf("build entity: %w", err)) {
					return
				}
				continue
			}
			if !yield(Record{Op: OpAdd, Entity: e}, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(Record{}, fmt.Errorf("read entities stream: %w", err))
		}
	}
}

func (f *Fetcher) streamDeltas(ctx context.Context, urls []string) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for _, url := range urls {
			body, closeFn, err := f.open(ctx, url)
			if err != nil {
				if !yield(Record{}, err) {
					return
				}
				continue
			}

			scanner := bufio.NewScanner(body)
			scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
			cont := true
			for cont && scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				var dl deltaLine
				if err := json.Unmarshal([]byte(line), &dl); err != nil {
					cont = yield(Record{}, fmt.Errorf("decode delta line: %w", err))
					continue
				}
				op := Op(strings.ToUpper(dl.Op))
				var e *entity.Entity
				if _, hasSchema := dl.Entity["schema"]; hasSchema {
					e, err = entity.FromJSON(dl.Entity)
					if err != nil {
						cont = yield(Record{}, fmt.Errorf("build delta entity: %w", err))
						continue
					}
				} else if id, ok := dl.Entity["id"].(string); ok {
					e = entity.New(id, "")
				}
				if e == nil {
					cont = yield(Record{}, fmt.Errorf("delta record missing id"))
					continue
				}
				cont = yield(Record{Op: op, Entity: e}, nil)
			}
			scanErr := scanner.Err()
			closeFn()
			if scanErr != nil {
				if !yield(Record{}, fmt.Errorf("read delta stream %s: %w", url, scanErr)) {
					return
				}
			}
			if !cont {
				return
			}
		}
	}
}

// open returns a reader over url's body. file:// URLs read straight from
// disk, the form local manifests and test corpora use. HTTP fetches are
// retried with exponential backoff; a source outage mid-run should not
// immediately fail a whole reindex.
func (f *Fetcher) open(ctx context.Context, url string) (io.Reader, func(), error) {
	if path, ok := strings.CutPrefix(url, "file://"); ok {
		fh, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", path, err)
		}
		return fh, func() { fh.Close() }, nil
	}
	resp, err := retry.RetryWithResult(ctx, retry.DefaultRetryConfig(), func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("build request for %s: %w", url, err)
		}
		resp, err := f.httpClient().Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", url, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return resp.Body, func() { resp.Body.Close() }, nil
}
