// Package main implements a load generator for testing the document store
// client with configurable request rates and realistic inventory scenarios.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/docstorekit/docstore-go/clienttest"
	"github.com/docstorekit/docstore-go/docstore"
	"github.com/docstorekit/docstore-go/docstore/event"
)

const (
	demoDatabaseName   = "demo"
	demoCollectionName = "inventory"

	skuKeySpace   = 1000
	batchKeySpace = 100

	seedBatchSize    = 100
	operationTimeout = 5 * time.Second
)

var demoCategories = []string{"electronics", "books", "garden", "toys", "grocery"}

var scenarioNames = []string{"ingest", "search", "cleanup", "chaos"}

// LoadGenerator orchestrates realistic load generation against the document
// store with configurable request rates and inventory scenarios. It drives an
// instrumented client, so the command event stream can be inspected while the
// load is running.
type LoadGenerator struct {
	client *clienttest.EventClient
	config Config

	// Rate limiting
	ticker   *time.Ticker
	stopChan chan struct{}
	wg       sync.WaitGroup

	// Metrics and state
	requestCount int64
	errorCount   int64
	startTime    time.Time
	mu           sync.RWMutex
}

// NewLoadGenerator creates a new LoadGenerator instance with the provided instrumented client and configuration.
func NewLoadGenerator(client *clienttest.EventClient, config Config) *LoadGenerator {
	return &LoadGenerator{
		client:   client,
		config:   config,
		stopChan: make(chan struct{}),
	}
}

// Start begins load generation with the configured request rate.
// It runs until the context is cancelled or Stop() is called.
func (lg *LoadGenerator) Start(ctx context.Context) error {
	lg.mu.Lock()
	lg.startTime = time.Now()
	lg.requestCount = 0
	lg.errorCount = 0
	lg.mu.Unlock()

	if err := lg.seedInitialDocuments(ctx); err != nil {
		return fmt.Errorf("seeding initial documents failed: %w", err)
	}

	// Calculate an interval between requests based on the target rate
	interval := time.Second / time.Duration(lg.config.Rate)
	lg.ticker = time.NewTicker(interval)
	defer lg.ticker.Stop()

	log.Printf("Load generator starting with %d requests/second (interval: %v), initial goroutines: %d", lg.config.Rate, interval, runtime.NumGoroutine())

	// Start the stats and instrumentation reporting goroutine
	lg.wg.Add(1)
	go lg.statsReporter(ctx)

	// Main load generation loop
	for {
		select {
		case <-ctx.Done():
			log.Printf("Load generator stopping due to context cancellation")
			return ctx.Err()

		case <-lg.stopChan:
			log.Printf("Load generator stopping due to stop signal")
			return nil

		case <-lg.ticker.C:
			lg.wg.Add(1)
			go lg.executeScenario(ctx)
		}
	}
}

// Stop gracefully shuts down the load generator.
func (lg *LoadGenerator) Stop(ctx context.Context) error {
	close(lg.stopChan)

	// Wait for all goroutines to finish with timeout
	done := make(chan struct{})
	go func() {
		lg.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		lg.logFinalStats()
		return nil
	case <-ctx.Done():
		lg.logFinalStats()
		return fmt.Errorf("shutdown timeout exceeded")
	}
}

// seedInitialDocuments fills the demo collection, so search scenarios have
// data to hit from the first tick on. Seeding is arrangement traffic, not
// generated load, so its events are cleared afterward.
func (lg *LoadGenerator) seedInitialDocuments(ctx context.Context) error {
	remaining := lg.config.InitialDocs

	for remaining > 0 {
		size := seedBatchSize
		if remaining < size {
			size = remaining
		}

		docs := make([]docstore.Document, 0, size)
		for range size {
			docs = append(docs, lg.randomDocument())
		}

		opCtx, cancel := context.WithTimeout(ctx, operationTimeout)
		_, err := lg.collection().InsertMany(opCtx, docs)
		cancel()

		if err != nil {
			return err
		}

		remaining -= size
	}

	lg.client.CommandEvents.Clear()

	log.Printf("Seeded %d documents into %s.%s", lg.config.InitialDocs, demoDatabaseName, demoCollectionName)

	return nil
}

// collection returns the handle the scenarios operate on.
func (lg *LoadGenerator) collection() *docstore.Collection {
	return lg.client.Database(demoDatabaseName).Collection(demoCollectionName)
}

// executeScenario runs a single load generation scenario based on configured weights.
func (lg *LoadGenerator) executeScenario(ctx context.Context) {
	defer lg.wg.Done()

	scenarioType := lg.selectScenario()

	var err error
	switch scenarioType {
	case "ingest":
		err = lg.runIngestScenario(ctx)
	case "search":
		err = lg.runSearchScenario(ctx)
	case "cleanup":
		err = lg.runCleanupScenario(ctx)
	case "chaos":
		err = lg.runChaosScenario(ctx)
	default:
		err = fmt.Errorf("unknown scenario type: %s", scenarioType)
	}

	// Update internal counters
	lg.mu.Lock()
	lg.requestCount++
	if err != nil {
		lg.errorCount++
		log.Printf("Scenario error (%s): %v", scenarioType, err)
	}
	lg.mu.Unlock()
}

// selectScenario chooses a scenario type based on configured weights.
func (lg *LoadGenerator) selectScenario() string {
	// Generate random number 0-99
	r := rand.Intn(100) //nolint:gosec // Demo code - weak random is acceptable

	// Apply weights: [ingest, search, cleanup, chaos]
	// Example: [50, 38, 10, 2] -> ingest: 0-49, search: 50-87, cleanup: 88-97, chaos: 98-99
	bound := 0
	for i, weight := range lg.config.ScenarioWeights {
		bound += weight
		if r < bound {
			return scenarioNames[i]
		}
	}

	return scenarioNames[0]
}

// runIngestScenario inserts a small batch of inventory documents.
func (lg *LoadGenerator) runIngestScenario(ctx context.Context) error {
	// Create timeout context for this operation
	opCtx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	batchSize := rand.Intn(3) + 1 //nolint:gosec // Demo code - weak random is acceptable

	docs := make([]docstore.Document, 0, batchSize)
	for range batchSize {
		docs = append(docs, lg.randomDocument())
	}

	_, err := lg.collection().InsertMany(opCtx, docs)

	return err
}

// runSearchScenario queries the collection by category or by article number.
func (lg *LoadGenerator) runSearchScenario(ctx context.Context) error {
	// Create timeout context for this operation
	opCtx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	// Randomly choose between a broad category search and a point lookup
	var filter docstore.Document
	if rand.Intn(2) == 0 { //nolint:gosec // Demo code - weak random is acceptable
		filter = docstore.Document{"category": lg.randomCategory()}
	} else {
		filter = docstore.Document{"sku": lg.randomSKU()}
	}

	_, err := lg.collection().Find(opCtx, filter)

	return err
}

// runCleanupScenario deletes one random ingest batch. Ingest keeps refilling
// the key space, so the population stays roughly stable.
func (lg *LoadGenerator) runCleanupScenario(ctx context.Context) error {
	// Create timeout context for this operation
	opCtx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	_, err := lg.collection().DeleteMany(opCtx, docstore.Document{"batch": lg.randomBatch()})

	return err
}

// runChaosScenario arms a one-shot fail point on the find command and triggers
// it, so the command event stream always carries some failed executions to
// inspect. A concurrent search scenario may consume the fail point first; in
// that case the failure surfaces there and this find succeeds.
func (lg *LoadGenerator) runChaosScenario(ctx context.Context) error {
	// Create timeout context for this operation
	opCtx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	body := docstore.Document{
		"mode": docstore.Document{"times": 1},
		"data": docstore.Document{
			"failCommands": []any{docstore.CommandFind},
			"errorMessage": "induced demo failure",
		},
	}

	if _, err := lg.client.RunCommand(opCtx, "", docstore.Command{Name: docstore.CommandConfigureFailPoint, Body: body}); err != nil {
		return err
	}

	_, err := lg.collection().Find(opCtx, docstore.Document{"category": lg.randomCategory()})
	if errors.Is(err, docstore.ErrCommandFailed) {
		// The induced failure is the expected outcome
		return nil
	}

	return err
}

// randomDocument builds one inventory document over the fixed key space.
func (lg *LoadGenerator) randomDocument() docstore.Document {
	return docstore.Document{
		"sku":      lg.randomSKU(),
		"category": lg.randomCategory(),
		"batch":    lg.randomBatch(),
		"quantity": rand.Intn(500) + 1, //nolint:gosec // Demo code - weak random is acceptable
		"updated":  time.Now().UTC().Format(time.RFC3339),
	}
}

// randomSKU picks an article number from the fixed key space, so lookups keep
// hitting existing documents.
func (lg *LoadGenerator) randomSKU() string {
	skuNum := rand.Intn(skuKeySpace) + 1 //nolint:gosec // Demo code - weak random is acceptable
	return fmt.Sprintf("sku-%06d", skuNum)
}

func (lg *LoadGenerator) randomBatch() int {
	return rand.Intn(batchKeySpace) + 1 //nolint:gosec // Demo code - weak random is acceptable
}

func (lg *LoadGenerator) randomCategory() string {
	return demoCategories[rand.Intn(len(demoCategories))] //nolint:gosec // Demo code - weak random is acceptable
}

// statsReporter logs throughput and instrumentation snapshots periodically.
func (lg *LoadGenerator) statsReporter(ctx context.Context) {
	defer lg.wg.Done()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-lg.stopChan:
			return
		case <-ticker.C:
			lg.logCurrentStats()
			lg.logInstrumentationSnapshot()
		}
	}
}

// logCurrentStats logs current performance statistics.
func (lg *LoadGenerator) logCurrentStats() {
	lg.mu.RLock()
	duration := time.Since(lg.startTime)
	requests := lg.requestCount
	errorTotal := lg.errorCount
	lg.mu.RUnlock()

	goroutineCount := runtime.NumGoroutine()

	if duration > 0 && requests > 0 {
		rps := float64(requests) / duration.Seconds()
		errorRate := float64(errorTotal) / float64(requests) * 100
		log.Printf("Stats: %d requests in %v (%.1f req/s), %d errors (%.1f%%), %d goroutines",
			requests, duration.Truncate(time.Second), rps, errorTotal, errorRate, goroutineCount)
	}
}

// logInstrumentationSnapshot drains the client's event queues and summarizes
// what the command monitoring observed since the last snapshot.
func (lg *LoadGenerator) logInstrumentationSnapshot() {
	var started, succeeded, failed int
	var slowest time.Duration
	slowestName := "-"

	for {
		ev, ok := lg.client.CommandEvents.PopFront()
		if !ok {
			break
		}

		switch typed := ev.(type) {
		case *event.CommandStartedEvent:
			started++
		case *event.CommandSucceededEvent:
			succeeded++
			if typed.Duration > slowest {
				slowest = typed.Duration
				slowestName = typed.Name
			}
		case *event.CommandFailedEvent:
			failed++
		}
	}

	poolClears := 0
	for {
		if _, ok := lg.client.PoolClearedEvents.PopFront(); !ok {
			break
		}
		poolClears++
	}

	log.Printf("Instrumentation: %d started, %d succeeded, %d failed, %d pool clears, slowest: %s (%v)",
		started, succeeded, failed, poolClears, slowestName, slowest.Truncate(time.Microsecond))
}

// logFinalStats logs final performance statistics.
func (lg *LoadGenerator) logFinalStats() {
	lg.mu.RLock()
	duration := time.Since(lg.startTime)
	requests := lg.requestCount
	errorTotal := lg.errorCount
	lg.mu.RUnlock()

	goroutineCount := runtime.NumGoroutine()

	if duration > 0 && requests > 0 {
		rps := float64(requests) / duration.Seconds()
		errorRate := float64(errorTotal) / float64(requests) * 100
		log.Printf("Final Stats: %d requests in %v (%.1f req/s), %d errors (%.1f%%), %d goroutines",
			requests, duration.Truncate(time.Second), rps, errorTotal, errorRate, goroutineCount)
	}
}
