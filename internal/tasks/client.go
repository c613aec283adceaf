// Package tasks delivers overdue notices through a backlite queue backed
// by a dedicated SQLite database, kept separate from the main library
// database so queue churn never contends with request traffic.
package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

// Client owns the tasks database and the backlite runner built on it.
type Client struct {
	client *backlite.Client
	db     *sql.DB
	config Config

	mu      sync.RWMutex
	started bool
}

// NewClient opens the tasks database next to the main library database
// (librarium.db gets librarium-tasks.db) and prepares the queue runner.
// Queues still need to be registered before Start.
func NewClient(mainDBPath string, cfg Config) (*Client, error) {
	cfg = cfg.normalized()

	ext := filepath.Ext(mainDBPath)
	tasksDBPath := mainDBPath[:len(mainDBPath)-len(ext)] + "-tasks" + ext

	// WAL keeps notice enqueues from blocking behind worker polling
	db, err := sql.Open("sqlite3", tasksDBPath+"?_journal=WAL&_timeout=5000&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open tasks database: %w", err)
	}

	// Each worker holds a connection while delivering; the extras cover
	// the poller, cleanup and enqueues from the overdue scanner.
	db.SetMaxOpenConns(cfg.Workers + 5)
	db.SetMaxIdleConns(cfg.Workers + 2)
	db.SetConnMaxLifetime(time.Hour)

	client, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          &stdLogger{},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create backlite client: %w", err)
	}

	if err := client.Install(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to install backlite schema: %w", err)
	}

	return &Client{
		client: client,
		db:     db,
		config: cfg,
	}, nil
}

// Register registers task queues with the runner. Must be called before
// Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.client.Register(q)
	}
}

// Start begins delivering queued notices. Non-blocking; run it in a
// goroutine and use Stop for graceful shutdown.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	log.Printf("Notice queue started with %d worker(s)", c.config.Workers)
	c.client.Start(ctx)
}

// Stop waits for in-flight deliveries to finish. Returns false if the
// context expired first; undelivered notices stay queued for the next run.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.RLock()
	if !c.started {
		c.mu.RUnlock()
		return true
	}
	c.mu.RUnlock()

	log.Println("Stopping notice queue...")
	success := c.client.Stop(ctx)
	if success {
		log.Println("Notice queue stopped gracefully")
	} else {
		log.Println("Notice queue stop timed out, pending notices remain queued")
	}
	return success
}

// Close releases the tasks database. Call after Stop.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Add starts an operation to enqueue one or more tasks.
func (c *Client) Add(tasks ...backlite.Task) *backlite.TaskAddOp {
	return c.client.Add(tasks...)
}

// stdLogger implements backlite.Logger using standard library log.
type stdLogger struct{}

func (l *stdLogger) Info(message string, params ...any) {
	log.Printf("[TASK] "+message, params...)
}

func (l *stdLogger) Error(message string, params ...any) {
	log.Printf("[TASK ERROR] "+message, params...)
}
