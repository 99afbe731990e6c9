package compose

import (
	"sync"

	"github.com/vyrodovalexey/avconfig/internal/observability"
	"github.com/vyrodovalexey/avconfig/internal/property"
	"github.com/vyrodovalexey/avconfig/internal/remote"
)

// Engine owns one composition context: the namespace registry, the
// adapter factory, the wiring guard, and the bootstrap state. It is
// constructed explicitly and passed by reference; nothing in this
// package is process-global.
type Engine struct {
	client   remote.Client
	registry *Registry
	guard    *Guard
	factory  *sourceFactory
	logger   observability.Logger
	metrics  *observability.Metrics
	deferred *observability.DeferredLogger

	// warnRawNamespaces surfaces the degraded-compatibility path (raw
	// placeholder names used verbatim) at most once.
	warnRawNamespaces sync.Once

	// deferredEnabled routes bootstrap logging through the deferred
	// buffer until the non-eager trigger replays it.
	deferredMu      sync.Mutex
	deferredEnabled bool

	wiredMu sync.Mutex
	wired   map[*ConfigSource]struct{}
}

// EngineOption is a functional option for configuring the engine.
type EngineOption func(*Engine)

// WithLogger sets the logger for the engine.
func WithLogger(logger observability.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics sets the metrics sink for the engine.
func WithMetrics(metrics *observability.Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = metrics
	}
}

// NewEngine creates an engine backed by the given remote client.
func NewEngine(client remote.Client, opts ...EngineOption) *Engine {
	e := &Engine{
		client:   client,
		registry: NewRegistry(),
		guard:    NewGuard(),
		factory:  newSourceFactory(client),
		logger:   observability.NopLogger(),
		deferred: observability.NewDeferredLogger(),
		wired:    make(map[*ConfigSource]struct{}),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Register appends pre-resolved namespaces under priority. It reports
// whether any new (priority, namespace) pair was added.
func (e *Engine) Register(namespaces []string, priority int) bool {
	return e.registry.Register(namespaces, priority)
}

// RegisterIn resolves placeholder references in namespace names against
// chain, then registers the resolved names under priority.
//
// With a nil chain there is no substitution context: names are used
// verbatim and, if any contains placeholder syntax, a one-time warning
// is logged. With a chain present, an unresolvable reference is fatal.
func (e *Engine) RegisterIn(chain *property.Sources, namespaces []string, priority int) (bool, error) {
	if chain == nil {
		for _, namespace := range namespaces {
			if property.ContainsPlaceholder(namespace) {
				e.warnRawNamespaces.Do(func() {
					e.logger.Warn("namespace placeholder is not supported without a property source chain, using raw name",
						observability.String("namespace", namespace),
					)
				})
				break
			}
		}
		return e.registry.Register(namespaces, priority), nil
	}

	resolved := make([]string, len(namespaces))
	for i, namespace := range namespaces {
		name, err := chain.ResolveRequiredPlaceholders(namespace)
		if err != nil {
			return false, err
		}
		resolved[i] = name
	}
	return e.registry.Register(resolved, priority), nil
}

// OnContainerInit composes the registered namespaces into the main
// composite, splices it into chain, and wires live updates for the
// container identified by containerID. publish receives one event per
// remote change notification and must be safe for concurrent calls.
//
// The call is idempotent per composite name (chain level) and per
// container identity (wiring level); a redundant call is silently
// absorbed. A fatal composition error aborts initialization and is
// returned synchronously.
func (e *Engine) OnContainerInit(containerID string, chain *property.Sources, publish func(remote.Change)) error {
	if err := e.initializePropertySources(chain); err != nil {
		return err
	}
	e.initializeAutoUpdate(containerID, publish)
	return nil
}

// initializePropertySources builds and splices the main composite. The
// registered namespaces are drained in ascending priority and
// registration order within a priority; a second pass without new
// registrations therefore composes an empty set.
func (e *Engine) initializePropertySources(chain *property.Sources) error {
	if chain.Contains(PropertySourceName) {
		// already initialized
		return nil
	}

	namespaces := make([]string, 0, e.registry.Len())
	for _, reg := range e.registry.drain() {
		namespaces = append(namespaces, reg.namespace)
	}

	composite, err := e.build(
		PropertySourceName,
		chain.BoolProperty(PropertyNamesCacheKey, false),
		namespaces,
	)
	if err != nil {
		return err
	}

	splice(chain, composite, chain.BoolProperty(OverrideSystemPropertiesKey, true))

	if e.metrics != nil {
		e.metrics.RecordComposition("main")
		e.metrics.SetNamespacesLoaded(len(e.factory.allSources()))
	}

	e.logger.Info("composed remote property sources",
		observability.String("source", PropertySourceName),
		observability.Int("namespaces", composite.Size()),
	)
	return nil
}

// build composes the given namespaces, in order, into a composite with
// the given name. With the key cache enabled, every sub-source's change
// notifications invalidate the cache so keys added later stay visible
// through the composite.
func (e *Engine) build(name string, cacheEnabled bool, namespaces []string) (compositeSource, error) {
	var composite compositeSource
	if cacheEnabled {
		composite = property.NewCachedComposite(name)
	} else {
		composite = property.NewComposite(name)
	}

	for _, namespace := range namespaces {
		src, err := e.factory.get(namespace)
		if err != nil {
			return nil, err
		}
		composite.Add(src)

		if cached, ok := composite.(*property.CachedComposite); ok {
			src.AddChangeListener(func(remote.Change) {
				cached.Invalidate()
			})
		}
	}

	return composite, nil
}

// compositeSource is the builder-facing surface shared by the plain and
// cached composite variants.
type compositeSource interface {
	property.Source
	Add(src property.Source)
	Size() int
}

// initializeAutoUpdate attaches one change listener per adapter that
// republishes remote notifications through publish. Wiring is guarded
// per container identity, independent of composite identity, because
// listener subscription is a side effect that must not be duplicated by
// an unrelated initialization pass.
func (e *Engine) initializeAutoUpdate(containerID string, publish func(remote.Change)) {
	if !e.guard.TryAcquire(containerID) {
		return
	}

	for _, src := range e.factory.allSources() {
		e.wiredMu.Lock()
		if _, ok := e.wired[src]; ok {
			e.wiredMu.Unlock()
			continue
		}
		e.wired[src] = struct{}{}
		e.wiredMu.Unlock()

		// The listener runs on the remote client's delivery goroutines
		// and must not take engine locks around the publish call.
		src.AddChangeListener(func(change remote.Change) {
			if e.metrics != nil {
				e.metrics.RecordChangeEvent(change.Namespace, change.ChangeType.String())
			}
			publish(change)
		})
	}

	e.logger.Debug("wired live configuration updates",
		observability.String("container", containerID),
	)
}

// Reset clears all accumulated state. For tests.
func (e *Engine) Reset() {
	e.registry.Reset()
	e.guard.Reset()
	e.factory.reset()
	e.wiredMu.Lock()
	e.wired = make(map[*ConfigSource]struct{})
	e.wiredMu.Unlock()
}
