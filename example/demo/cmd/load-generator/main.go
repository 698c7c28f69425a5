package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"

	"github.com/docstorekit/docstore-go/clienttest"
	"github.com/docstorekit/docstore-go/docstore"
	"github.com/docstorekit/docstore-go/docstore/oteladapters"
	"github.com/docstorekit/docstore-go/docstore/sqlengine"
	"github.com/docstorekit/docstore-go/example/shared/config"
)

const (
	defaultRate            = 30
	defaultInitialDocs     = 1000
	defaultScenarioWeights = "50,38,10,2" // ingest, search, cleanup, chaos
	defaultBackend         = "postgres"

	scenarioCount = 4
)

type Config struct {
	Rate                 int
	ObservabilityEnabled bool
	InitialDocs          int
	ScenarioWeights      []int
	Backend              string
}

func main() {
	cfg := parseFlags()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Initialize observability (if enabled)
	var engineOptions []sqlengine.Option
	if cfg.ObservabilityEnabled {
		obsConfig := cfg.NewObservabilityConfig()
		if obsConfig.Logger != nil {
			engineOptions = append(engineOptions, sqlengine.WithLogger(obsConfig.Logger))
		}
		if obsConfig.ContextualLogger != nil {
			engineOptions = append(engineOptions, sqlengine.WithContextualLogger(obsConfig.ContextualLogger))
		}
		if obsConfig.MetricsCollector != nil {
			engineOptions = append(engineOptions, sqlengine.WithMetrics(obsConfig.MetricsCollector))
		}
		if obsConfig.TracingCollector != nil {
			engineOptions = append(engineOptions, sqlengine.WithTracing(obsConfig.TracingCollector))
		}
		log.Printf("Observability enabled: metrics=%v, tracing=%v, logging=%v",
			obsConfig.MetricsCollector != nil,
			obsConfig.TracingCollector != nil,
			obsConfig.Logger != nil || obsConfig.ContextualLogger != nil)
	}

	// Initialize the storage engine for the selected backend
	engine, err := buildEngine(ctx, cfg, engineOptions)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}
	defer func() { _ = engine.Close() }()

	// Initialize the instrumented client over the engine
	clientOptions := docstore.Options{
		Hosts:    []string{"localhost:27830", "localhost:27831"},
		Database: demoDatabaseName,
		Topology: docstore.TopologySharded,
		Backend:  engine,
	}
	if cfg.ObservabilityEnabled {
		// *slog.Logger satisfies the client's Logger interface directly;
		// warn level mutes the per-command info lines
		clientOptions.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}

	client, err := clienttest.NewEventClientWithOptions(ctx, &clientOptions)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	// Initialize load generator
	loadGen := NewLoadGenerator(client, cfg)

	// Start load generation in a goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := loadGen.Start(ctx); err != nil {
			errChan <- fmt.Errorf("load generator failed: %w", err)
		}
	}()

	log.Printf("Document store load generator started (backend: %s)", cfg.Backend)
	log.Printf("Configuration: rate=%d req/s, initial_docs=%d, scenario_weights=%v",
		cfg.Rate, cfg.InitialDocs, cfg.ScenarioWeights)
	log.Printf("Press Ctrl+C to stop...")

	// Wait for shutdown signal or error
	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()
	case err := <-errChan:
		log.Printf("Error occurred: %v", err)
		cancel()
	}

	// Give some time for graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := loadGen.Stop(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Printf("Load generator stopped")
}

// buildEngine creates the storage engine for the configured backend: a pgx
// pool against the demo Postgres by default, an in-memory SQLite handle for
// dockerless runs.
func buildEngine(ctx context.Context, cfg Config, engineOptions []sqlengine.Option) (*sqlengine.Engine, error) {
	if cfg.Backend == "sqlite" {
		return sqlengine.NewEngineFromSQLDB(config.SQLiteMemoryDemoConfig(), sqlengine.DialectSQLite, engineOptions...)
	}

	pgxPool, err := pgxpool.NewWithConfig(ctx, config.PostgresPGXPoolDemoConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if pingErr := pgxPool.Ping(ctx); pingErr != nil {
		pgxPool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", pingErr)
	}

	engine, err := sqlengine.NewEngineFromPGXPool(pgxPool, engineOptions...)
	if err != nil {
		pgxPool.Close()
		return nil, err
	}

	return engine, nil
}

func parseFlags() Config {
	var (
		rate            = flag.Int("rate", defaultRate, "Requests per second")
		observability   = flag.Bool("observability-enabled", false, "Enable OpenTelemetry observability")
		initialDocs     = flag.Int("initial-docs", defaultInitialDocs, "Number of documents to seed initially")
		scenarioWeights = flag.String("scenario-weights", defaultScenarioWeights, "Comma-separated weights for ingest,search,cleanup,chaos scenarios")
		backend         = flag.String("backend", defaultBackend, "Storage backend: postgres or sqlite")
	)

	flag.Parse()

	if *rate < 1 {
		log.Fatalf("Invalid rate %d: must be at least 1", *rate)
	}

	if *backend != "postgres" && *backend != "sqlite" {
		log.Fatalf("Invalid backend '%s': must be postgres or sqlite", *backend)
	}

	// Parse scenario weights
	weights, err := parseScenarioWeights(*scenarioWeights)
	if err != nil {
		log.Fatalf("Invalid scenario weights '%s': %v", *scenarioWeights, err)
	}

	return Config{
		Rate:                 *rate,
		ObservabilityEnabled: *observability,
		InitialDocs:          *initialDocs,
		ScenarioWeights:      weights,
		Backend:              *backend,
	}
}

func parseScenarioWeights(weightsStr string) ([]int, error) {
	parts := strings.Split(weightsStr, ",")
	if len(parts) != scenarioCount {
		return nil, fmt.Errorf("expected %d weights, got %d", scenarioCount, len(parts))
	}

	weights := make([]int, scenarioCount)
	total := 0
	for i, part := range parts {
		weight, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid weight '%s': %w", part, err)
		}
		if weight < 0 || weight > 100 {
			return nil, fmt.Errorf("weight %d out of range [0, 100]", weight)
		}
		weights[i] = weight
		total += weight
	}

	if total != 100 {
		return nil, fmt.Errorf("weights must sum to 100, got %d", total)
	}

	return weights, nil
}

// ObservabilityConfig holds the observability adapters for the storage engine.
type ObservabilityConfig struct {
	Logger           sqlengine.Logger
	ContextualLogger sqlengine.ContextualLogger
	MetricsCollector sqlengine.MetricsCollector
	TracingCollector sqlengine.TracingCollector
}

func (c Config) NewObservabilityConfig() ObservabilityConfig {
	if !c.ObservabilityEnabled {
		return ObservabilityConfig{}
	}

	// Create real OpenTelemetry providers for the load generator
	_, err := config.NewDemoObservabilityConfig()
	if err != nil {
		log.Printf("Failed to create observability providers: %v", err)
		return ObservabilityConfig{}
	}
	// Note: Providers are set globally in OpenTelemetry, no need to store reference

	// Create real OpenTelemetry adapters
	tracer := otel.Tracer("docstore-load-generator")
	meter := otel.Meter("docstore-load-generator")

	metricsCollector := oteladapters.NewMetricsCollector(meter)
	tracingCollector := oteladapters.NewEngineTracingCollector(tracer)
	contextualLogger := oteladapters.NewSlogBridgeLogger("docstore-load-generator")

	return ObservabilityConfig{
		Logger:           nil, // Using contextual logger instead
		ContextualLogger: contextualLogger,
		MetricsCollector: metricsCollector,
		TracingCollector: tracingCollector,
	}
}
