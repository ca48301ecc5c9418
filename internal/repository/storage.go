package repository

import (
	"Shortr-Backend/internal/domain"
	"context"
	"errors"
)

var (
	ErrLinkNotFound = errors.New("link not found")
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already registered")
)

// Storage is the persistence boundary for links, visit details and users.
// All methods must be safe for concurrent use. IncrementVisit is an atomic
// add; implementations must never realize it as read-modify-write.
type Storage interface {
	// User methods
	CreateUser(ctx context.Context, email, passwordHash string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error

	// Link methods
	SaveLink(ctx context.Context, link *domain.Link) error
	SetShortCode(ctx context.Context, id int64, code string) error
	// DeleteLink removes a link row. Only used to clean up a link whose
	// short code could not be persisted; links are never deleted through
	// the public surface.
	DeleteLink(ctx context.Context, id int64) error
	FindByCode(ctx context.Context, code string) (*domain.Link, error)
	FindByIDs(ctx context.Context, ids []int64) ([]*domain.Link, error)
	FindByOwner(ctx context.Context, ownerID int64) ([]*domain.Link, error)
	// SetOwner attaches ownerID to the link when it is unowned or already
	// owned by that user. A link owned by someone else is left untouched
	// and no error is returned; the write is a single conditional update.
	SetOwner(ctx context.Context, code string, ownerID int64) error
	IncrementVisit(ctx context.Context, code string) error

	// Visit detail methods
	SaveVisitDetails(ctx context.Context, details *domain.LinkDetails) error
}
