package visits

import (
	"Shortr-Backend/internal/domain"
	"Shortr-Backend/internal/geo"
	"Shortr-Backend/internal/repository"
	"Shortr-Backend/pkg/useragent"
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Visit is one redirect event queued for asynchronous recording.
type Visit struct {
	LinkID    int64
	ShortCode string
	IP        string
	UserAgent string
	VisitedAt time.Time
}

// Config holds configuration for the visit processor.
type Config struct {
	WorkerCount     int           // Number of worker goroutines
	BufferSize      int           // Size of the job queue buffer
	RetryAttempts   int           // Retry attempts for the counter increment
	RetryDelay      time.Duration // Base delay between retries
	ShutdownTimeout time.Duration // Time to wait for graceful shutdown
	LookupTimeout   time.Duration // Upper bound on a single geo lookup
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		WorkerCount:     3,
		BufferSize:      1000,
		RetryAttempts:   3,
		RetryDelay:      time.Second,
		ShutdownTimeout: 30 * time.Second,
		LookupTimeout:   3 * time.Second,
	}
}

// Processor records visits off the request path. The redirect response is
// never blocked by it: Submit is non-blocking and the caller never observes
// completion or failure of the pipeline. The counter increment runs before
// and independently of geo enrichment.
type Processor struct {
	config   Config
	storage  repository.Storage
	geo      geo.Provider
	log      *zap.Logger
	jobQueue chan *Visit
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	mu       sync.RWMutex
}

// NewProcessor creates a new visit processor.
func NewProcessor(storage repository.Storage, provider geo.Provider, log *zap.Logger, config Config) *Processor {
	ctx, cancel := context.WithCancel(context.Background())

	return &Processor{
		config:   config,
		storage:  storage,
		geo:      provider,
		log:      log,
		jobQueue: make(chan *Visit, config.BufferSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the worker pool.
func (p *Processor) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("processor already started")
	}

	p.log.Info("starting visit processor",
		zap.Int("workers", p.config.WorkerCount),
		zap.Int("buffer_size", p.config.BufferSize),
	)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.started = true
	return nil
}

// Stop drains the queue and shuts the workers down, waiting at most
// ShutdownTimeout so in-flight increments are not lost.
func (p *Processor) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return fmt.Errorf("processor not started")
	}

	p.log.Info("stopping visit processor")

	// The queue is closed from here on, so the processor must read as
	// stopped on every return path: a later Submit reaching the send case
	// would panic on the closed channel.
	close(p.jobQueue)
	p.started = false

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info("visit processor stopped gracefully")
	case <-time.After(p.config.ShutdownTimeout):
		p.cancel()
		p.log.Warn("visit processor shutdown timeout reached")
		return fmt.Errorf("shutdown timeout reached")
	}

	p.cancel()
	return nil
}

// Submit queues a visit for recording. It never blocks: when the queue is
// full the visit is dropped and an error returned for the caller to log.
func (p *Processor) Submit(visit *Visit) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.started {
		return fmt.Errorf("processor not started")
	}

	select {
	case p.jobQueue <- visit:
		p.log.Debug("visit submitted for recording", zap.String("short_code", visit.ShortCode))
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("processor is shutting down")
	default:
		p.log.Error("visit queue is full, dropping visit",
			zap.String("short_code", visit.ShortCode),
			zap.Int("queue_size", len(p.jobQueue)),
		)
		return fmt.Errorf("visit queue is full")
	}
}

func (p *Processor) worker(workerID int) {
	defer p.wg.Done()

	log := p.log.With(zap.Int("worker_id", workerID))
	log.Info("visit worker started")

	for visit := range p.jobQueue {
		p.process(log, visit)
	}

	log.Info("visit worker stopped")
}

// process records one visit: counter first, enrichment after. A failed
// lookup still leaves a details row with empty geo fields.
func (p *Processor) process(log *zap.Logger, visit *Visit) {
	p.incrementWithRetry(log, visit)

	details := &domain.LinkDetails{
		LinkID:    visit.LinkID,
		IP:        visit.IP,
		UserAgent: visit.UserAgent,
		Date:      visit.VisitedAt,
	}

	if parser := useragent.GetGlobalParser(); parser != nil {
		details.DeviceType = parser.Parse(visit.UserAgent).DeviceType
	} else {
		details.DeviceType = useragent.DetectDeviceType(visit.UserAgent)
	}

	lookupCtx, cancel := context.WithTimeout(p.ctx, p.config.LookupTimeout)
	location, err := p.geo.Lookup(lookupCtx, visit.IP)
	cancel()

	if err != nil {
		log.Warn("geo lookup failed, recording visit without location",
			zap.String("short_code", visit.ShortCode),
			zap.String("ip", visit.IP),
			zap.Error(err),
		)
	} else {
		details.Continent = location.Continent
		details.CountryCode = location.CountryCode
		details.CountryName = location.CountryName
		details.RegionCode = location.RegionCode
		details.RegionName = location.RegionName
		details.City = location.City
		details.Latitude = location.Latitude
		details.Longitude = location.Longitude
		details.CountryEmoji = location.CountryEmoji
	}

	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.storage.SaveVisitDetails(saveCtx, details); err != nil {
		log.Error("failed to save visit details",
			zap.String("short_code", visit.ShortCode),
			zap.Error(err),
		)
	}
}

// incrementWithRetry performs the counter increment with retries and
// exponential backoff. The increment must not depend on anything that
// comes after it, so it runs first and its failure is only logged.
func (p *Processor) incrementWithRetry(log *zap.Logger, visit *Visit) {
	var lastErr error

	for attempt := 1; attempt <= p.config.RetryAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := p.storage.IncrementVisit(ctx, visit.ShortCode)
		cancel()

		if err == nil {
			if attempt > 1 {
				log.Info("visit increment succeeded after retry",
					zap.String("short_code", visit.ShortCode),
					zap.Int("attempt", attempt),
				)
			}
			return
		}

		lastErr = err
		log.Warn("visit increment failed",
			zap.String("short_code", visit.ShortCode),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", p.config.RetryAttempts),
			zap.Error(err),
		)

		if attempt == p.config.RetryAttempts {
			break
		}

		delay := p.config.RetryDelay * time.Duration(1<<(attempt-1))
		select {
		case <-time.After(delay):
		case <-p.ctx.Done():
			return
		}
	}

	log.Error("visit increment failed after all retries",
		zap.String("short_code", visit.ShortCode),
		zap.Int("attempts", p.config.RetryAttempts),
		zap.Error(lastErr),
	)
}

// Stats returns processor statistics.
func (p *Processor) Stats() map[string]interface{} {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return map[string]interface{}{
		"started":        p.started,
		"queue_length":   len(p.jobQueue),
		"queue_capacity": cap(p.jobQueue),
		"worker_count":   p.config.WorkerCount,
	}
}
