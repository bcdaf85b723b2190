package catalog

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sentryscreen/sentryscreen/internal/apierr"
)

// Catalog is the live, in-memory view of the manifest: the resolved
// dataset list plus an fsnotify watcher that reloads it whenever the
// manifest file changes on disk. Lookup results are memoized with a small
// LRU since Get sits on every request path.
type Catalog struct {
	path       string
	httpClient *http.Client
	timeout    time.Duration
	log        *slog.Logger

	mu       sync.RWMutex
	datasets map[string]Dataset
	order    []string

	lookupCache *lru.Cache[string, Dataset]

	watcher  *fsnotify.Watcher
	stop     chan struct{}
	done     chan struct{}
	onChange func()
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithHTTPClient overrides the client used to fetch external manifests.
func WithHTTPClient(c *http.Client) Option { return func(cat *Catalog) { cat.httpClient = c } }

// WithTimeout sets the external-manifest fetch timeout.
func WithTimeout(d time.Duration) Option { return func(cat *Catalog) { cat.timeout = d } }

// WithLogger sets the catalog's logger.
func WithLogger(l *slog.Logger) Option { return func(cat *Catalog) { cat.log = l } }

// WithOnChange registers a callback invoked after every successful
// reload.
func WithOnChange(fn func()) Option { return func(cat *Catalog) { cat.onChange = fn } }

// New loads the manifest at path and returns a ready Catalog. Call Watch
// to start hot-reloading.
func New(path string, opts ...Option) (*Catalog, error) {
	cat := &Catalog{
		path:    path,
		timeout: 30 * time.Second,
		log:     slog.Default(),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(cat)
	}
	cache, err := lru.New[string, Dataset](256)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup cache: %w", err)
	}
	cat.lookupCache = cache
	if err := cat.reload(); err != nil {
		return nil, err
	}
	return cat, nil
}

func (c *Catalog) reload() error {
	m, err := LoadManifest(c.path)
	if err != nil {
		return err
	}
	datasets, err := m.Resolve(c.httpClient, c.timeout)
	if err != nil {
		return fmt.Errorf("resolve manifest: %w", err)
	}
	byName := make(map[string]Dataset, len(datasets))
	order := make([]string, 0, len(datasets))
	for _, d := range datasets {
		byName[d.Name] = d
		order = append(order, d.Name)
	}
	c.mu.Lock()
	c.datasets = byName
	c.order = order
	c.mu.Unlock()
	c.lookupCache.Purge()
	if c.onChange != nil {
		c.onChange()
	}
	return nil
}

// Get returns the named dataset, or a KindNotFound *apierr.ScreenError if
// it is not in the catalog.
func (c *Catalog) Get(name string) (Dataset, error) {
	if d, ok := c.lookupCache.Get(name); ok {
		return d, nil
	}
	c.mu.RLock()
	d, ok := c.datasets[name]
	c.mu.RUnlock()
	if !ok {
		return Dataset{}, apierr.NotFound(fmt.Sprintf("dataset %q not found", name))
	}
	c.lookupCache.Add(name, d)
	return d, nil
}

// All returns every dataset in manifest order.
func (c *Catalog) All() []Dataset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Dataset, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.datasets[name])
	}
	return out
}

// Names returns the dataset names in manifest order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...)
}

// Watch starts a background goroutine that reloads the manifest whenever
// its containing directory reports a write or rename for the manifest
// file. Watching the directory rather than the file survives
// rename-into-place editors.
func (c *Catalog) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create manifest watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(c.path)); err != nil {
		w.Close()
		return fmt.Errorf("watch manifest dir: %w", err)
	}
	c.watcher = w
	go c.watchLoop()
	return nil
}

func (c *Catalog) watchLoop() {
	defer close(c.done)
	defer c.watcher.Close()
	for {
		select {
		case <-c.stop:
			return
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(c.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := c.reload(); err != nil {
				c.log.Error("manifest reload failed", "error", err)
			} else {
				c.log.Info("manifest reloaded", "datasets", len(c.order))
			}
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.log.Error("manifest watch error", "error", err)
		}
	}
}

// Stop halts the watch goroutine, if running, and waits for it to exit.
func (c *Catalog) Stop() {
	if c.watcher == nil {
		return
	}
	close(c.stop)
	<-c.done
}
