package postgres

import (
	"Shortr-Backend/internal/domain"
	"Shortr-Backend/internal/repository"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PostgresStorage implements the Storage interface on top of PostgreSQL.
type PostgresStorage struct {
	db  *gorm.DB
	log *zap.Logger
}

// New creates a new PostgreSQL storage instance.
func New(db *gorm.DB, log *zap.Logger) *PostgresStorage {
	return &PostgresStorage{
		db:  db,
		log: log,
	}
}

// --- User Methods ---

// CreateUser inserts a new user with the given email and password hash.
func (s *PostgresStorage) CreateUser(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		s.log.Error("failed to check email existence", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, repository.ErrEmailExists
	}

	user := domain.User{
		Email:        email,
		PasswordHash: passwordHash,
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		s.log.Error("failed to create user", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("created new user", zap.Int64("user_id", user.ID))
	return &user, nil
}

// GetUserByEmail fetches a user by email.
func (s *PostgresStorage) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User

	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrUserNotFound
	}
	if err != nil {
		s.log.Error("failed to get user by email", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// GetUserByID fetches a user by id.
func (s *PostgresStorage) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User

	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrUserNotFound
	}
	if err != nil {
		s.log.Error("failed to get user by id", zap.Int64("user_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// UpdateUser persists changes to an existing user.
func (s *PostgresStorage) UpdateUser(ctx context.Context, user *domain.User) error {
	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		s.log.Error("failed to update user", zap.Int64("user_id", user.ID), zap.Error(err))
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// --- Link Methods ---

// SaveLink inserts a new link and fills in its store-assigned id.
func (s *PostgresStorage) SaveLink(ctx context.Context, link *domain.Link) error {
	if err := s.db.WithContext(ctx).Create(link).Error; err != nil {
		s.log.Error("failed to save link", zap.String("long_url", link.LongURL), zap.Error(err))
		return fmt.Errorf("failed to save link: %w", err)
	}

	s.log.Info("saved new link", zap.Int64("link_id", link.ID))
	return nil
}

// SetShortCode persists the code derived from the assigned id.
func (s *PostgresStorage) SetShortCode(ctx context.Context, id int64, code string) error {
	result := s.db.WithContext(ctx).Model(&domain.Link{}).Where("id = ?", id).Update("short_code", code)
	if result.Error != nil {
		s.log.Error("failed to set short code", zap.Int64("link_id", id), zap.Error(result.Error))
		return fmt.Errorf("failed to set short code: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrLinkNotFound
	}
	return nil
}

// DeleteLink removes a link row by id.
func (s *PostgresStorage) DeleteLink(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&domain.Link{}, id)
	if result.Error != nil {
		s.log.Error("failed to delete link", zap.Int64("link_id", id), zap.Error(result.Error))
		return fmt.Errorf("failed to delete link: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrLinkNotFound
	}
	return nil
}

// FindByCode fetches a link by its short code.
func (s *PostgresStorage) FindByCode(ctx context.Context, code string) (*domain.Link, error) {
	var link domain.Link

	err := s.db.WithContext(ctx).Where("short_code = ?", code).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrLinkNotFound
	}
	if err != nil {
		s.log.Error("failed to get link", zap.String("short_code", code), zap.Error(err))
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return &link, nil
}

// FindByIDs fetches the links matching the given ids. Ids without a link
// are silently omitted from the result.
func (s *PostgresStorage) FindByIDs(ctx context.Context, ids []int64) ([]*domain.Link, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var links []*domain.Link
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&links).Error
	if err != nil {
		s.log.Error("failed to find links by ids", zap.Int("id_count", len(ids)), zap.Error(err))
		return nil, fmt.Errorf("failed to find links by ids: %w", err)
	}

	return links, nil
}

// FindByOwner returns all links owned by the given user.
func (s *PostgresStorage) FindByOwner(ctx context.Context, ownerID int64) ([]*domain.Link, error) {
	var links []*domain.Link

	err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).
		Order("created_at DESC").Find(&links).Error
	if err != nil {
		s.log.Error("failed to list owner links", zap.Int64("owner_id", ownerID), zap.Error(err))
		return nil, fmt.Errorf("failed to list owner links: %w", err)
	}

	return links, nil
}

// SetOwner performs the conditional ownership write as a single UPDATE so
// concurrent sync calls cannot race each other into stealing a link.
func (s *PostgresStorage) SetOwner(ctx context.Context, code string, ownerID int64) error {
	result := s.db.WithContext(ctx).Model(&domain.Link{}).
		Where("short_code = ? AND (owner_id IS NULL OR owner_id = ?)", code, ownerID).
		Update("owner_id", ownerID)
	if result.Error != nil {
		s.log.Error("failed to set link owner", zap.String("short_code", code), zap.Error(result.Error))
		return fmt.Errorf("failed to set link owner: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		// Either the code is unknown or the link belongs to someone else.
		// Only the former is reported; the latter is a silent no-op.
		var count int64
		if err := s.db.WithContext(ctx).Model(&domain.Link{}).Where("short_code = ?", code).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check link existence: %w", err)
		}
		if count == 0 {
			return repository.ErrLinkNotFound
		}
	}

	return nil
}

// IncrementVisit bumps the visit counter with an atomic SQL add.
func (s *PostgresStorage) IncrementVisit(ctx context.Context, code string) error {
	result := s.db.WithContext(ctx).Model(&domain.Link{}).
		Where("short_code = ?", code).
		Update("visit_count", gorm.Expr("visit_count + 1"))
	if result.Error != nil {
		s.log.Error("failed to increment visit count", zap.String("short_code", code), zap.Error(result.Error))
		return fmt.Errorf("failed to increment visit count: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrLinkNotFound
	}

	return nil
}

// --- Visit Detail Methods ---

// SaveVisitDetails stores one per-visit record.
func (s *PostgresStorage) SaveVisitDetails(ctx context.Context, details *domain.LinkDetails) error {
	if err := s.db.WithContext(ctx).Create(details).Error; err != nil {
		s.log.Error("failed to save visit details", zap.Int64("link_id", details.LinkID), zap.Error(err))
		return fmt.Errorf("failed to save visit details: %w", err)
	}

	return nil
}
