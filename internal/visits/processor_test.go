package visits

import (
	"Shortr-Backend/internal/domain"
	"Shortr-Backend/internal/geo"
	"Shortr-Backend/internal/repository/memory"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubProvider returns a fixed location or error.
type stubProvider struct {
	mu       sync.Mutex
	location *geo.Location
	err      error
	calls    int
}

func (p *stubProvider) Lookup(_ context.Context, _ string) (*geo.Location, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.location, nil
}

func testConfig() Config {
	return Config{
		WorkerCount:     2,
		BufferSize:      100,
		RetryAttempts:   2,
		RetryDelay:      time.Millisecond,
		ShutdownTimeout: 5 * time.Second,
		LookupTimeout:   time.Second,
	}
}

func saveLink(t *testing.T, storage *memory.MemStorage, code string) *domain.Link {
	t.Helper()
	ctx := context.Background()

	link := &domain.Link{LongURL: "https://example.com"}
	require.NoError(t, storage.SaveLink(ctx, link))
	require.NoError(t, storage.SetShortCode(ctx, link.ID, code))
	link.ShortCode = code
	return link
}

func TestProcessor_Lifecycle(t *testing.T) {
	storage := memory.New()
	provider := &stubProvider{location: &geo.Location{}}
	p := NewProcessor(storage, provider, zap.NewNop(), testConfig())

	t.Run("submit_before_start_fails", func(t *testing.T) {
		err := p.Submit(&Visit{ShortCode: "abc"})
		assert.Error(t, err)
	})

	t.Run("double_start_fails", func(t *testing.T) {
		require.NoError(t, p.Start())
		assert.Error(t, p.Start())
	})

	t.Run("stop_drains_and_stops", func(t *testing.T) {
		require.NoError(t, p.Stop())
		assert.Error(t, p.Stop())
	})
}

func TestProcessor_RecordsVisit(t *testing.T) {
	storage := memory.New()
	link := saveLink(t, storage, "abc")

	provider := &stubProvider{location: &geo.Location{
		Continent:    "Europe",
		CountryCode:  "DE",
		CountryName:  "Germany",
		City:         "Berlin",
		Latitude:     52.52,
		Longitude:    13.405,
		CountryEmoji: "🇩🇪",
	}}

	p := NewProcessor(storage, provider, zap.NewNop(), testConfig())
	require.NoError(t, p.Start())
	defer p.Stop()

	require.NoError(t, p.Submit(&Visit{
		LinkID:    link.ID,
		ShortCode: link.ShortCode,
		IP:        "203.0.113.10",
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 14_0 like Mac OS X)",
		VisitedAt: time.Now(),
	}))

	require.Eventually(t, func() bool {
		found, err := storage.FindByCode(context.Background(), "abc")
		return err == nil && found.VisitCount == 1 && len(storage.DetailsFor(link.ID)) == 1
	}, 2*time.Second, 10*time.Millisecond, "visit should be counted and detailed")

	details := storage.DetailsFor(link.ID)[0]
	assert.Equal(t, "203.0.113.10", details.IP)
	assert.Equal(t, "DE", details.CountryCode)
	assert.Equal(t, "Berlin", details.City)
	assert.Equal(t, "mobile", details.DeviceType)
}

func TestProcessor_GeoFailureStillCountsVisit(t *testing.T) {
	storage := memory.New()
	link := saveLink(t, storage, "abc")

	provider := &stubProvider{err: errors.New("provider unreachable")}

	p := NewProcessor(storage, provider, zap.NewNop(), testConfig())
	require.NoError(t, p.Start())
	defer p.Stop()

	require.NoError(t, p.Submit(&Visit{
		LinkID:    link.ID,
		ShortCode: link.ShortCode,
		IP:        "203.0.113.10",
		UserAgent: "curl/8.0",
		VisitedAt: time.Now(),
	}))

	require.Eventually(t, func() bool {
		found, err := storage.FindByCode(context.Background(), "abc")
		return err == nil && found.VisitCount == 1 && len(storage.DetailsFor(link.ID)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// The details row is persisted without geo fields.
	details := storage.DetailsFor(link.ID)[0]
	assert.Empty(t, details.CountryCode)
	assert.Empty(t, details.City)
	assert.False(t, details.HasGeo())
	assert.Equal(t, "203.0.113.10", details.IP)
}

func TestProcessor_ConcurrentSubmits(t *testing.T) {
	storage := memory.New()
	link := saveLink(t, storage, "abc")

	provider := &stubProvider{location: &geo.Location{CountryCode: "US"}}

	cfg := testConfig()
	cfg.WorkerCount = 4
	cfg.BufferSize = 200

	p := NewProcessor(storage, provider, zap.NewNop(), cfg)
	require.NoError(t, p.Start())

	const visitors = 100
	var wg sync.WaitGroup
	wg.Add(visitors)
	for i := 0; i < visitors; i++ {
		go func() {
			defer wg.Done()
			_ = p.Submit(&Visit{
				LinkID:    link.ID,
				ShortCode: link.ShortCode,
				IP:        "203.0.113.10",
				UserAgent: "Mozilla/5.0",
				VisitedAt: time.Now(),
			})
		}()
	}
	wg.Wait()

	// Stop drains the queue before returning.
	require.NoError(t, p.Stop())

	found, err := storage.FindByCode(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(visitors), found.VisitCount)
	assert.Len(t, storage.DetailsFor(link.ID), visitors)
}

// blockingStorage wedges IncrementVisit until release is closed.
type blockingStorage struct {
	*memory.MemStorage
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStorage) IncrementVisit(ctx context.Context, code string) error {
	s.entered <- struct{}{}
	<-s.release
	return s.MemStorage.IncrementVisit(ctx, code)
}

func TestProcessor_SubmitAfterTimedOutStop(t *testing.T) {
	storage := &blockingStorage{
		MemStorage: memory.New(),
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	link := saveLink(t, storage.MemStorage, "abc")
	defer close(storage.release)

	cfg := testConfig()
	cfg.WorkerCount = 1
	cfg.ShutdownTimeout = 20 * time.Millisecond

	p := NewProcessor(storage, &stubProvider{location: &geo.Location{}}, zap.NewNop(), cfg)
	require.NoError(t, p.Start())

	require.NoError(t, p.Submit(&Visit{
		LinkID:    link.ID,
		ShortCode: link.ShortCode,
		IP:        "203.0.113.10",
		VisitedAt: time.Now(),
	}))

	// Wait until the worker is wedged inside the store, then time Stop out.
	<-storage.entered
	err := p.Stop()
	require.Error(t, err)

	// The processor is stopped; further submits must fail, never panic.
	assert.NotPanics(t, func() {
		assert.Error(t, p.Submit(&Visit{ShortCode: link.ShortCode}))
	})
	assert.NotPanics(t, func() {
		assert.Error(t, p.Stop())
	})
}

func TestProcessor_FullQueueDropsVisit(t *testing.T) {
	storage := memory.New()
	provider := &stubProvider{location: &geo.Location{}}

	cfg := testConfig()
	cfg.WorkerCount = 1
	cfg.BufferSize = 1

	p := NewProcessor(storage, provider, zap.NewNop(), cfg)
	// Never started: workers are not draining, so the buffer fills up.
	p.started = true

	require.NoError(t, p.Submit(&Visit{ShortCode: "abc"}))
	err := p.Submit(&Visit{ShortCode: "abc"})
	assert.Error(t, err, "submit into a full queue must fail instead of blocking")
}

func TestProcessor_Stats(t *testing.T) {
	storage := memory.New()
	provider := &stubProvider{location: &geo.Location{}}
	p := NewProcessor(storage, provider, zap.NewNop(), testConfig())

	stats := p.Stats()
	assert.Equal(t, false, stats["started"])
	assert.Equal(t, 100, stats["queue_capacity"])

	require.NoError(t, p.Start())
	defer p.Stop()

	stats = p.Stats()
	assert.Equal(t, true, stats["started"])
	assert.Equal(t, 2, stats["worker_count"])
}
