// Package main is the entry point for the avconfig demo client.
//
// It composes one or more remote namespaces into an ordered property
// source chain, prints the merged view, then streams live change
// events until interrupted.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/vyrodovalexey/avconfig/internal/compose"
	"github.com/vyrodovalexey/avconfig/internal/observability"
	"github.com/vyrodovalexey/avconfig/internal/property"
	"github.com/vyrodovalexey/avconfig/internal/remote"
	"github.com/vyrodovalexey/avconfig/internal/remote/consul"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	backend      string
	namespaces   string
	dir          string
	consulAddr   string
	consulPrefix string
	metricsAddr  string
	logLevel     string
	logFormat    string
	showVersion  bool
}

func main() {
	flags := parseFlags()

	if flags.showVersion {
		printVersion()
		return
	}

	logger := initLogger(flags)
	defer func() { _ = logger.Sync() }()

	metrics := observability.NewMetrics("avconfig")

	client, cleanup, err := initClient(flags, logger)
	if err != nil {
		logger.Fatal("failed to initialize remote client",
			observability.Error(err),
		)
	}
	defer cleanup()

	chain := buildChain()
	engine := compose.NewEngine(client,
		compose.WithLogger(logger),
		compose.WithMetrics(metrics),
	)

	if err := runComposition(engine, chain, flags, logger); err != nil {
		logger.Fatal("composition failed",
			observability.Error(err),
		)
	}

	printMergedView(chain, logger)
	serveMetrics(flags.metricsAddr, metrics, logger)
	waitForShutdown(logger)
}

// parseFlags parses command line flags.
func parseFlags() cliFlags {
	backend := flag.String("backend", getEnvOrDefault("AVCONFIG_BACKEND", "memory"),
		"Remote backend (memory, file, consul)")
	namespaces := flag.String("namespaces", getEnvOrDefault("AVCONFIG_NAMESPACES", "application"),
		"Comma-separated namespaces, highest precedence first")
	dir := flag.String("dir", getEnvOrDefault("AVCONFIG_DIR", "configs"),
		"Namespace directory for the file backend")
	consulAddr := flag.String("consul-addr", getEnvOrDefault("AVCONFIG_CONSUL_ADDR", "127.0.0.1:8500"),
		"Consul agent address for the consul backend")
	consulPrefix := flag.String("consul-prefix", getEnvOrDefault("AVCONFIG_CONSUL_PREFIX", "avconfig"),
		"Consul KV prefix for the consul backend")
	metricsAddr := flag.String("metrics-addr", getEnvOrDefault("AVCONFIG_METRICS_ADDR", ""),
		"Metrics listen address (empty disables the endpoint)")
	logLevel := flag.String("log-level", getEnvOrDefault("AVCONFIG_LOG_LEVEL", "info"),
		"Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", getEnvOrDefault("AVCONFIG_LOG_FORMAT", "console"),
		"Log format (json, console)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	return cliFlags{
		backend:      *backend,
		namespaces:   *namespaces,
		dir:          *dir,
		consulAddr:   *consulAddr,
		consulPrefix: *consulPrefix,
		metricsAddr:  *metricsAddr,
		logLevel:     *logLevel,
		logFormat:    *logFormat,
		showVersion:  *showVersion,
	}
}

// printVersion prints version information and exits.
func printVersion() {
	fmt.Printf("avconfig version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// initLogger creates the logger from CLI flags.
func initLogger(flags cliFlags) observability.Logger {
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  flags.logLevel,
		Format: flags.logFormat,
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

// initClient creates the remote client selected by the backend flag.
func initClient(flags cliFlags, logger observability.Logger) (remote.Client, func(), error) {
	switch flags.backend {
	case "memory":
		client := remote.NewMemoryClient()
		seedDemoNamespaces(client, flags)
		return client, func() {}, nil

	case "file":
		client, err := remote.NewFileClient(flags.dir,
			remote.WithFileLogger(logger),
		)
		if err != nil {
			return nil, nil, err
		}
		if err := client.Start(); err != nil {
			return nil, nil, err
		}
		return client, func() { _ = client.Stop() }, nil

	case "consul":
		client, err := consul.NewClient(consul.Options{
			Address:  flags.consulAddr,
			Prefix:   flags.consulPrefix,
			WaitTime: 5 * time.Minute,
		}, consul.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return client, func() { _ = client.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q", flags.backend)
	}
}

// seedDemoNamespaces populates the memory backend so the demo has
// something to show, then mutates a key periodically to exercise live
// updates.
func seedDemoNamespaces(client *remote.MemoryClient, flags cliFlags) {
	for _, namespace := range strings.Split(flags.namespaces, ",") {
		namespace = strings.TrimSpace(namespace)
		if namespace == "" {
			continue
		}
		client.Seed(namespace, map[string]string{
			"demo.source":  namespace,
			"demo.timeout": "30",
		})
	}

	first := strings.TrimSpace(strings.Split(flags.namespaces, ",")[0])
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			client.Config(first).SetProperty("demo.updated", time.Now().Format(time.RFC3339))
		}
	}()
}

// buildChain creates the ambient property source chain: the process
// environment is the only pre-existing source.
func buildChain() *property.Sources {
	return property.NewSources(property.NewSystemEnvSource())
}

// runComposition drives the bootstrap and main composition passes and
// wires live-update logging.
func runComposition(engine *compose.Engine, chain *property.Sources, flags cliFlags, logger observability.Logger) error {
	// Eager trigger first, then the regular bootstrap trigger; both are
	// flag-gated and cooperate through the chain.
	if err := engine.PostProcessEnvironment(chain); err != nil {
		return err
	}
	if err := engine.OnBootstrapInit(chain); err != nil {
		return err
	}

	namespaces := make([]string, 0, 4)
	for _, namespace := range strings.Split(flags.namespaces, ",") {
		if trimmed := strings.TrimSpace(namespace); trimmed != "" {
			namespaces = append(namespaces, trimmed)
		}
	}
	if _, err := engine.RegisterIn(chain, namespaces, 0); err != nil {
		return err
	}

	containerID := uuid.NewString()
	return engine.OnContainerInit(containerID, chain, func(change remote.Change) {
		logger.Info("configuration changed",
			observability.String("namespace", change.Namespace),
			observability.String("key", change.PropertyName),
			observability.String("old", change.OldValue),
			observability.String("new", change.NewValue),
			observability.String("type", change.ChangeType.String()),
		)
	})
}

// printMergedView logs the composed chain and the merged key view.
func printMergedView(chain *property.Sources, logger observability.Logger) {
	logger.Info("property source chain",
		observability.Strings("sources", chain.Names()),
	)

	composite, ok := chain.Get(compose.PropertySourceName)
	if !ok {
		return
	}
	for _, key := range composite.PropertyNames() {
		value, _ := chain.Property(key)
		logger.Info("merged property",
			observability.String("key", key),
			observability.String("value", value),
		)
	}
}

// serveMetrics exposes the Prometheus endpoint when configured.
func serveMetrics(addr string, metrics *observability.Metrics, logger observability.Logger) {
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("serving metrics",
			observability.String("addr", addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed",
				observability.Error(err),
			)
		}
	}()
}

// waitForShutdown blocks until SIGINT or SIGTERM.
func waitForShutdown(logger observability.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("shutting down",
		observability.String("signal", sig.String()),
	)
}

// getEnvOrDefault returns the environment value or a default.
func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
