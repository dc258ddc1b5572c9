// Package jobs coordinates background artifact generation. Its single
// correctness property: for any (fingerprint, class) key there is at most
// one generation task in flight, no matter how many requests arrive
// concurrently. Callers never block on a generator - GetOrStart answers at
// cache-lookup latency and the slow work runs in its own goroutine.
package jobs

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"news-enricher/internal/cache"
	apperrors "news-enricher/internal/common/errors"
	"news-enricher/internal/common/logging"
	"news-enricher/internal/fingerprint"
)

// State is the lifecycle of an in-flight generation task.
type State int

const (
	StateRunning State = iota
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Record tracks one in-flight generation task. Records exist only while a
// task is running or cooling down after a failure; a completed task's record
// is removed so a future cache expiry can trigger fresh generation.
type Record struct {
	Fingerprint fingerprint.Fingerprint
	Class       cache.Class
	State       State
	StartedAt   time.Time
	Err         error
}

// Status is the caller-visible outcome of GetOrStart.
type Status int

const (
	// StatusReady means the payload was served from cache.
	StatusReady Status = iota
	// StatusPending means a background task is running (or was just started)
	// and the caller should poll again later.
	StatusPending
	// StatusFailed means the last generation for this key failed and the
	// retry cooldown has not elapsed.
	StatusFailed
)

// Result is what GetOrStart hands back synchronously.
type Result struct {
	Status  Status
	Payload string
	Err     error
}

// Generator produces the artifact payload for one key. It is treated as an
// opaque external call: it either returns a payload or an error, and the
// coordinator enforces the wall-clock timeout around it.
type Generator func(ctx context.Context) (string, error)

// shardCount spreads record mutations across locks keyed by fingerprint so
// unrelated keys never contend.
const shardCount = 32

type shard struct {
	mu      sync.Mutex
	records map[string]*Record
}

// Options configures a Coordinator.
type Options struct {
	// Timeout bounds each generation task's wall clock. Zero means 60s.
	Timeout time.Duration
	// Cooldown is how long a failed key refuses retries. Zero means 30s.
	Cooldown time.Duration
	// Logger defaults to the global logger.
	Logger logging.Logger
}

// Coordinator owns the job records and runs generators asynchronously,
// committing results to the tiered cache.
type Coordinator struct {
	cache    *cache.TieredCache
	shards   [shardCount]*shard
	timeout  time.Duration
	cooldown time.Duration
	logger   logging.Logger
	wg       sync.WaitGroup
}

func NewCoordinator(tc *cache.TieredCache, opts Options) *Coordinator {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	cooldown := opts.Cooldown
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	c := &Coordinator{
		cache:    tc,
		timeout:  timeout,
		cooldown: cooldown,
		logger:   logger,
	}
	for i := range c.shards {
		c.shards[i] = &shard{records: make(map[string]*Record)}
	}
	return c
}

func (c *Coordinator) shardFor(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return c.shards[h.Sum32()%shardCount]
}

// GetOrStart returns the cached payload if present, otherwise ensures a
// background generation task exists for the key and reports its state.
// It never waits on the generator.
func (c *Coordinator) GetOrStart(ctx context.Context, fp fingerprint.Fingerprint, class cache.Class, gen Generator) Result {
	if payload, found := c.cache.Get(ctx, fp, class); found {
		return Result{Status: StatusReady, Payload: payload}
	}

	key := cache.Key(fp, class)
	s := c.shardFor(key)

	s.mu.Lock()
	if rec, exists := s.records[key]; exists {
		state, recErr := rec.State, rec.Err
		s.mu.Unlock()
		if state == StateFailed {
			return Result{Status: StatusFailed, Err: recErr}
		}
		return Result{Status: StatusPending}
	}

	// A completing task writes the cache before removing its record, so a
	// key with no record may have gained a payload since the check above.
	// Re-checking under the lock closes that window.
	if payload, found := c.cache.Get(ctx, fp, class); found {
		s.mu.Unlock()
		return Result{Status: StatusReady, Payload: payload}
	}

	rec := &Record{
		Fingerprint: fp,
		Class:       class,
		State:       StateRunning,
		StartedAt:   time.Now(),
	}
	s.records[key] = rec
	s.mu.Unlock()

	c.wg.Add(1)
	go c.run(key, s, rec, gen)

	return Result{Status: StatusPending}
}

// run executes one generation task to completion or timeout.
func (c *Coordinator) run(key string, s *shard, rec *Record, gen Generator) {
	defer c.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	started := time.Now()

	// The generator runs in its own goroutine so the deadline fires even
	// against a generator that never checks its context. The channel is
	// buffered: a straggler's eventual result is dropped, never committed.
	type genResult struct {
		payload string
		err     error
	}
	resCh := make(chan genResult, 1)
	go func() {
		payload, err := gen(ctx)
		resCh <- genResult{payload: payload, err: err}
	}()

	var payload string
	var err error
	select {
	case res := <-resCh:
		payload, err = res.payload, res.err
		// A result arriving after the deadline is discarded: no partial or
		// late payload is ever committed.
		if err == nil && ctx.Err() != nil {
			err = ctx.Err()
		}
	case <-ctx.Done():
		err = ctx.Err()
	}

	if err != nil {
		c.fail(key, s, rec, err)
		return
	}

	// Commit order matters: the cache write happens before the record is
	// removed, so any caller who sees no record is guaranteed to see the
	// payload on its cache check.
	writeCtx, writeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	c.cache.Set(writeCtx, rec.Fingerprint, rec.Class, payload, rec.Class.TTL())
	writeCancel()

	s.mu.Lock()
	rec.State = StateDone
	delete(s.records, key)
	s.mu.Unlock()

	c.logger.Debug("generation complete",
		logging.String("key", key),
		logging.Duration("elapsed", time.Since(started)),
	)
}

// fail marks the record failed and schedules its removal after the cooldown,
// so the next request after the cooldown retries instead of a thundering
// herd hammering a failing generator.
func (c *Coordinator) fail(key string, s *shard, rec *Record, cause error) {
	var jobErr error
	if errors.Is(cause, context.DeadlineExceeded) {
		jobErr = apperrors.GenerationTimeoutError("artifact generation").WithContext("key", key)
	} else {
		jobErr = apperrors.GenerationFailedError("artifact generation failed", cause).WithContext("key", key)
	}

	s.mu.Lock()
	rec.State = StateFailed
	rec.Err = jobErr
	s.mu.Unlock()

	c.logger.Warn("generation failed",
		logging.String("key", key),
		logging.Err(cause),
	)

	time.AfterFunc(c.cooldown, func() {
		s.mu.Lock()
		if current, exists := s.records[key]; exists && current == rec {
			delete(s.records, key)
		}
		s.mu.Unlock()
	})
}

// InFlight counts records across all shards, for health reporting.
func (c *Coordinator) InFlight() int {
	total := 0
	for _, s := range c.shards {
		s.mu.Lock()
		total += len(s.records)
		s.mu.Unlock()
	}
	return total
}

// Wait blocks until all running generation tasks finish. Used on shutdown
// and by tests; requests never call this.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}
