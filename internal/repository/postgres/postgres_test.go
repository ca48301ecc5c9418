package postgres

import (
	"Shortr-Backend/internal/domain"
	"Shortr-Backend/internal/repository"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestStorage(t *testing.T) *PostgresStorage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("shortr_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Link{}, &domain.LinkDetails{}))

	return New(db, zap.NewNop())
}

func createLink(t *testing.T, s *PostgresStorage, longURL, code string) *domain.Link {
	t.Helper()
	ctx := context.Background()

	link := &domain.Link{LongURL: longURL}
	require.NoError(t, s.SaveLink(ctx, link))
	require.NotZero(t, link.ID)
	require.NoError(t, s.SetShortCode(ctx, link.ID, code))
	link.ShortCode = code
	return link
}

func TestPostgresStorage_Links(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	t.Run("save_and_find_by_code", func(t *testing.T) {
		link := createLink(t, s, "https://example.com/page", "pg1")

		found, err := s.FindByCode(ctx, "pg1")
		require.NoError(t, err)
		assert.Equal(t, link.ID, found.ID)
		assert.Equal(t, "https://example.com/page", found.LongURL)
	})

	t.Run("find_unknown_code", func(t *testing.T) {
		_, err := s.FindByCode(ctx, "missing")
		assert.ErrorIs(t, err, repository.ErrLinkNotFound)
	})

	t.Run("delete_link", func(t *testing.T) {
		link := createLink(t, s, "https://example.com/doomed", "del1")

		require.NoError(t, s.DeleteLink(ctx, link.ID))

		_, err := s.FindByCode(ctx, "del1")
		assert.ErrorIs(t, err, repository.ErrLinkNotFound)

		assert.ErrorIs(t, s.DeleteLink(ctx, link.ID), repository.ErrLinkNotFound)
	})

	t.Run("find_by_ids", func(t *testing.T) {
		a := createLink(t, s, "https://example.com/a", "ids-a")
		b := createLink(t, s, "https://example.com/b", "ids-b")

		links, err := s.FindByIDs(ctx, []int64{a.ID, b.ID, 999999})
		require.NoError(t, err)
		assert.Len(t, links, 2)
	})
}

func TestPostgresStorage_SetOwner(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	t.Run("claims_unowned", func(t *testing.T) {
		link := createLink(t, s, "https://example.com", "own1")

		require.NoError(t, s.SetOwner(ctx, link.ShortCode, 7))

		found, err := s.FindByCode(ctx, link.ShortCode)
		require.NoError(t, err)
		require.NotNil(t, found.OwnerID)
		assert.Equal(t, int64(7), *found.OwnerID)
	})

	t.Run("does_not_steal", func(t *testing.T) {
		link := createLink(t, s, "https://example.com", "own2")
		require.NoError(t, s.SetOwner(ctx, link.ShortCode, 7))

		// A different user claiming the same code is a silent no-op.
		require.NoError(t, s.SetOwner(ctx, link.ShortCode, 8))

		found, err := s.FindByCode(ctx, link.ShortCode)
		require.NoError(t, err)
		require.NotNil(t, found.OwnerID)
		assert.Equal(t, int64(7), *found.OwnerID)
	})

	t.Run("unknown_code", func(t *testing.T) {
		err := s.SetOwner(ctx, "missing", 7)
		assert.ErrorIs(t, err, repository.ErrLinkNotFound)
	})
}

func TestPostgresStorage_IncrementVisit(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	t.Run("unknown_code", func(t *testing.T) {
		err := s.IncrementVisit(ctx, "missing")
		assert.ErrorIs(t, err, repository.ErrLinkNotFound)
	})

	t.Run("concurrent_increments", func(t *testing.T) {
		link := createLink(t, s, "https://example.com", "cnt1")

		const visitors = 50
		var wg sync.WaitGroup
		wg.Add(visitors)
		for i := 0; i < visitors; i++ {
			go func() {
				defer wg.Done()
				assert.NoError(t, s.IncrementVisit(ctx, link.ShortCode))
			}()
		}
		wg.Wait()

		found, err := s.FindByCode(ctx, link.ShortCode)
		require.NoError(t, err)
		assert.Equal(t, int64(visitors), found.VisitCount)
	})
}

func TestPostgresStorage_VisitDetails(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	link := createLink(t, s, "https://example.com", "det1")

	details := &domain.LinkDetails{
		LinkID:      link.ID,
		IP:          "203.0.113.10",
		CountryCode: "DE",
		City:        "Berlin",
		UserAgent:   "Mozilla/5.0",
		DeviceType:  "desktop",
		Date:        time.Now(),
	}
	require.NoError(t, s.SaveVisitDetails(ctx, details))
	assert.NotZero(t, details.ID)
}

func TestPostgresStorage_Users(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	t.Run("create_and_fetch", func(t *testing.T) {
		user, err := s.CreateUser(ctx, "user@example.com", "hash")
		require.NoError(t, err)
		assert.NotZero(t, user.ID)

		found, err := s.GetUserByEmail(ctx, "user@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
	})

	t.Run("duplicate_email", func(t *testing.T) {
		_, err := s.CreateUser(ctx, "dup@example.com", "hash")
		require.NoError(t, err)

		_, err = s.CreateUser(ctx, "dup@example.com", "other")
		assert.ErrorIs(t, err, repository.ErrEmailExists)
	})

	t.Run("unknown_user", func(t *testing.T) {
		_, err := s.GetUserByID(ctx, 999999)
		assert.ErrorIs(t, err, repository.ErrUserNotFound)
	})
}
