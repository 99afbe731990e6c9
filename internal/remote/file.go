package remote

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/vyrodovalexey/avconfig/internal/observability"
	"github.com/vyrodovalexey/avconfig/internal/util"
)

// FileClient resolves each namespace to a YAML file named
// <dir>/<namespace>.yaml and watches the directory for changes. File
// edits turn into change notifications on the affected namespace after
// a debounce delay.
type FileClient struct {
	dir           string
	watcher       *fsnotify.Watcher
	logger        observability.Logger
	debounceDelay time.Duration

	mu        sync.Mutex
	configs   map[string]*fileConfig
	timers    map[string]*time.Timer
	running   bool
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// FileOption is a functional option for configuring the file client.
type FileOption func(*FileClient)

// WithFileLogger sets the logger for the file client.
func WithFileLogger(logger observability.Logger) FileOption {
	return func(c *FileClient) {
		c.logger = logger
	}
}

// WithFileDebounceDelay sets the debounce delay for file changes.
func WithFileDebounceDelay(delay time.Duration) FileOption {
	return func(c *FileClient) {
		c.debounceDelay = delay
	}
}

// NewFileClient creates a file-backed client rooted at dir.
func NewFileClient(dir string, opts ...FileOption) (*FileClient, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	c := &FileClient{
		dir:           absDir,
		watcher:       fsWatcher,
		logger:        observability.NopLogger(),
		debounceDelay: 100 * time.Millisecond,
		configs:       make(map[string]*fileConfig),
		timers:        make(map[string]*time.Timer),
		stopCh:        make(chan struct{}),
		stoppedCh:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// GetConfig loads the namespace's file. A read failure wraps the
// underlying error; a malformed file fails with util.ErrConfigInvalid.
func (c *FileClient) GetConfig(namespace string) (Config, error) {
	c.mu.Lock()
	if cfg, ok := c.configs[namespace]; ok {
		c.mu.Unlock()
		return cfg, nil
	}
	c.mu.Unlock()

	values, err := c.loadNamespace(namespace)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cfg, ok := c.configs[namespace]; ok {
		return cfg, nil
	}
	cfg := &fileConfig{namespace: namespace, values: values}
	c.configs[namespace] = cfg
	return cfg, nil
}

// Start begins watching the namespace directory.
func (c *FileClient) Start() error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = true
	c.mu.Unlock()

	if err := c.watcher.Add(c.dir); err != nil {
		return err
	}

	c.logger.Info("started watching namespace directory",
		observability.String("dir", c.dir),
	)

	go c.watch()

	return nil
}

// Stop stops watching and releases the underlying watcher.
func (c *FileClient) Stop() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false
	for _, timer := range c.timers {
		timer.Stop()
	}
	c.mu.Unlock()

	close(c.stopCh)
	<-c.stoppedCh

	return c.watcher.Close()
}

// watch is the main watch loop.
func (c *FileClient) watch() {
	defer close(c.stoppedCh)

	for {
		select {
		case <-c.stopCh:
			c.logger.Info("file client watch stopped")
			return

		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			c.handleFileEvent(event)

		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.logger.Error("file client watch error",
				observability.Error(err),
			)
		}
	}
}

// handleFileEvent schedules a debounced reload for the namespace whose
// file changed.
func (c *FileClient) handleFileEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}

	namespace := namespaceFromPath(event.Name)
	if namespace == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	if _, loaded := c.configs[namespace]; !loaded {
		return
	}

	c.logger.Debug("namespace file changed",
		observability.String("namespace", namespace),
		observability.String("op", event.Op.String()),
	)

	if timer, ok := c.timers[namespace]; ok {
		timer.Stop()
	}
	c.timers[namespace] = time.AfterFunc(c.debounceDelay, func() {
		c.reload(namespace)
	})
}

// reload re-reads one namespace file and notifies its listeners.
func (c *FileClient) reload(namespace string) {
	values, err := c.loadNamespace(namespace)
	if err != nil {
		c.logger.Error("failed to reload namespace",
			observability.String("namespace", namespace),
			observability.Error(err),
		)
		return
	}

	c.mu.Lock()
	cfg, ok := c.configs[namespace]
	c.mu.Unlock()
	if !ok {
		return
	}

	cfg.replace(values)

	c.logger.Info("namespace reloaded",
		observability.String("namespace", namespace),
	)
}

// loadNamespace reads and flattens the namespace's YAML file.
func (c *FileClient) loadNamespace(namespace string) (map[string]string, error) {
	path := filepath.Join(c.dir, namespace+".yaml")

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, util.WrapError(err, "failed to read namespace file "+path)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: namespace file %s: %v", util.ErrConfigInvalid, path, err)
	}

	values := make(map[string]string)
	flattenYAML("", raw, values)
	return values, nil
}

// namespaceFromPath maps a watched file path back to its namespace.
func namespaceFromPath(path string) string {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ".yaml") {
		return ""
	}
	return strings.TrimSuffix(base, ".yaml")
}

// flattenYAML flattens nested mappings into dotted keys. Sequences are
// rendered as comma-separated values.
func flattenYAML(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch value := v.(type) {
		case map[string]any:
			flattenYAML(key, value, out)
		case []any:
			parts := make([]string, len(value))
			for i, item := range value {
				parts[i] = fmt.Sprintf("%v", item)
			}
			out[key] = strings.Join(parts, ",")
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprintf("%v", value)
		}
	}
}

// fileConfig is one file-backed namespace.
type fileConfig struct {
	namespace string
	mu        sync.RWMutex
	values    map[string]string
	listeners []ChangeListener
}

// Property returns the value for key.
func (c *fileConfig) Property(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// PropertyNames returns all known keys.
func (c *fileConfig) PropertyNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.values))
	for k := range c.values {
		names = append(names, k)
	}
	return names
}

// AddChangeListener subscribes listener to future changes.
func (c *fileConfig) AddChangeListener(listener ChangeListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, listener)
}

// replace swaps the value set and notifies listeners of every change.
func (c *fileConfig) replace(values map[string]string) {
	c.mu.Lock()
	changes := Diff(c.namespace, c.values, values)
	c.values = values
	listeners := make([]ChangeListener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, change := range changes {
		notify(listeners, change)
	}
}
