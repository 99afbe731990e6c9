package consul

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	consulapi "github.com/hashicorp/consul/api"

	"github.com/vyrodovalexey/avconfig/internal/observability"
	"github.com/vyrodovalexey/avconfig/internal/remote"
)

// Backoff bounds for failed blocking queries.
const (
	watchBackoffBase = 500 * time.Millisecond
	watchBackoffMax  = 30 * time.Second
)

// Options configures the Consul client.
type Options struct {
	// Address is the Consul agent address (host:port).
	Address string
	// Token is an optional ACL token.
	Token string
	// Datacenter is an optional target datacenter.
	Datacenter string
	// Prefix is the KV path under which namespaces live.
	Prefix string
	// WaitTime bounds each blocking query. Zero uses the agent default.
	WaitTime time.Duration
}

// Option is a functional option for configuring the client.
type Option func(*Client)

// WithLogger sets the logger for the client.
func WithLogger(logger observability.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client resolves namespaces from the Consul KV store and keeps them
// current with blocking queries.
type Client struct {
	kv         *consulapi.KV
	prefix     string
	datacenter string
	waitTime   time.Duration
	logger     observability.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	configs map[string]*consulConfig
}

// NewClient creates a Consul-backed client.
func NewClient(opts Options, copts ...Option) (*Client, error) {
	apiConfig := consulapi.DefaultConfig()
	if opts.Address != "" {
		apiConfig.Address = opts.Address
	}
	if opts.Token != "" {
		apiConfig.Token = opts.Token
	}

	api, err := consulapi.NewClient(apiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		kv:         api.KV(),
		prefix:     strings.Trim(opts.Prefix, "/"),
		datacenter: opts.Datacenter,
		waitTime:   opts.WaitTime,
		logger:     observability.NopLogger(),
		ctx:        ctx,
		cancel:     cancel,
		configs:    make(map[string]*consulConfig),
	}

	for _, opt := range copts {
		opt(c)
	}

	return c, nil
}

// GetConfig fetches the namespace's KV subtree and starts a watch for
// it. Fetch failures are returned to the caller untouched.
func (c *Client) GetConfig(namespace string) (remote.Config, error) {
	c.mu.Lock()
	if cfg, ok := c.configs[namespace]; ok {
		c.mu.Unlock()
		return cfg, nil
	}
	c.mu.Unlock()

	base := c.namespacePrefix(namespace)
	pairs, meta, err := c.kv.List(base, c.queryOptions(0).WithContext(c.ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch namespace %s from consul: %w", namespace, err)
	}

	cfg := &consulConfig{
		namespace: namespace,
		values:    propertiesFromPairs(base, pairs),
	}

	c.mu.Lock()
	if existing, ok := c.configs[namespace]; ok {
		c.mu.Unlock()
		return existing, nil
	}
	c.configs[namespace] = cfg
	c.mu.Unlock()

	go c.watchNamespace(namespace, cfg, meta.LastIndex)

	return cfg, nil
}

// Close stops all namespace watches.
func (c *Client) Close() error {
	c.cancel()
	return nil
}

// watchNamespace runs blocking queries against the namespace prefix and
// publishes the diff whenever the modify index advances.
func (c *Client) watchNamespace(namespace string, cfg *consulConfig, lastIndex uint64) {
	base := c.namespacePrefix(namespace)
	backoff := watchBackoffBase

	for {
		if c.ctx.Err() != nil {
			return
		}

		pairs, meta, err := c.kv.List(base, c.queryOptions(lastIndex).WithContext(c.ctx))
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			c.logger.Error("consul watch query failed",
				observability.String("namespace", namespace),
				observability.Error(err),
			)
			select {
			case <-time.After(backoff):
			case <-c.ctx.Done():
				return
			}
			backoff *= 2
			if backoff > watchBackoffMax {
				backoff = watchBackoffMax
			}
			continue
		}
		backoff = watchBackoffBase

		// Index regression means the raft state was rebuilt; restart
		// from scratch per Consul's watch guidance.
		if meta.LastIndex < lastIndex {
			lastIndex = 0
			continue
		}
		if meta.LastIndex == lastIndex {
			continue
		}
		lastIndex = meta.LastIndex

		cfg.replace(propertiesFromPairs(base, pairs))

		c.logger.Debug("namespace updated from consul",
			observability.String("namespace", namespace),
		)
	}
}

// queryOptions builds blocking query options for the given wait index.
func (c *Client) queryOptions(waitIndex uint64) *consulapi.QueryOptions {
	return &consulapi.QueryOptions{
		Datacenter: c.datacenter,
		WaitIndex:  waitIndex,
		WaitTime:   c.waitTime,
	}
}

// namespacePrefix returns the KV path of one namespace.
func (c *Client) namespacePrefix(namespace string) string {
	if c.prefix == "" {
		return namespace + "/"
	}
	return c.prefix + "/" + namespace + "/"
}

// propertiesFromPairs converts a KV subtree to dotted property names.
func propertiesFromPairs(base string, pairs consulapi.KVPairs) map[string]string {
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key := strings.TrimPrefix(pair.Key, base)
		if key == "" || strings.HasSuffix(key, "/") {
			continue
		}
		values[strings.ReplaceAll(key, "/", ".")] = string(pair.Value)
	}
	return values
}

// consulConfig is one Consul-backed namespace.
type consulConfig struct {
	namespace string
	mu        sync.RWMutex
	values    map[string]string
	listeners []remote.ChangeListener
}

// Property returns the value for key.
func (c *consulConfig) Property(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// PropertyNames returns all known keys.
func (c *consulConfig) PropertyNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.values))
	for k := range c.values {
		names = append(names, k)
	}
	return names
}

// AddChangeListener subscribes listener to future changes.
func (c *consulConfig) AddChangeListener(listener remote.ChangeListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, listener)
}

// replace swaps the value set and notifies listeners of every change.
func (c *consulConfig) replace(values map[string]string) {
	c.mu.Lock()
	changes := remote.Diff(c.namespace, c.values, values)
	c.values = values
	listeners := make([]remote.ChangeListener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, change := range changes {
		for _, listener := range listeners {
			listener(change)
		}
	}
}
