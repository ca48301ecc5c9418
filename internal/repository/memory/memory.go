package memory

import (
	"Shortr-Backend/internal/domain"
	"Shortr-Backend/internal/repository"
	"context"
	"sync"
	"time"
)

// MemStorage is an in-memory Storage implementation used in tests and
// local runs. The mutex is the single mutation discipline, which makes
// IncrementVisit an atomic add.
type MemStorage struct {
	mu            sync.RWMutex
	linksByID     map[int64]*domain.Link
	linksByCode   map[string]*domain.Link
	details       []*domain.LinkDetails
	usersByID     map[int64]*domain.User
	usersByEmail  map[string]*domain.User
	linkCounter   int64
	userCounter   int64
	detailCounter int64
}

func New() *MemStorage {
	return &MemStorage{
		linksByID:    make(map[int64]*domain.Link),
		linksByCode:  make(map[string]*domain.Link),
		usersByID:    make(map[int64]*domain.User),
		usersByEmail: make(map[string]*domain.User),
	}
}

// --- User Methods ---

func (s *MemStorage) CreateUser(_ context.Context, email, passwordHash string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByEmail[email]; exists {
		return nil, repository.ErrEmailExists
	}

	s.userCounter++
	user := &domain.User{
		ID:           s.userCounter,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	s.usersByID[user.ID] = user
	s.usersByEmail[email] = user

	return user, nil
}

func (s *MemStorage) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.usersByEmail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (s *MemStorage) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.usersByID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (s *MemStorage) UpdateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.usersByID[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	s.usersByID[user.ID] = user
	s.usersByEmail[user.Email] = user
	return nil
}

// --- Link Methods ---

func (s *MemStorage) SaveLink(_ context.Context, link *domain.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.linkCounter++
	link.ID = s.linkCounter
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}
	s.linksByID[link.ID] = link

	return nil
}

func (s *MemStorage) SetShortCode(_ context.Context, id int64, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.linksByID[id]
	if !ok {
		return repository.ErrLinkNotFound
	}
	link.ShortCode = code
	s.linksByCode[code] = link

	return nil
}

func (s *MemStorage) DeleteLink(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.linksByID[id]
	if !ok {
		return repository.ErrLinkNotFound
	}
	delete(s.linksByID, id)
	if link.ShortCode != "" {
		delete(s.linksByCode, link.ShortCode)
	}

	return nil
}

func (s *MemStorage) FindByCode(_ context.Context, code string) (*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	link, ok := s.linksByCode[code]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	cp := *link
	return &cp, nil
}

func (s *MemStorage) FindByIDs(_ context.Context, ids []int64) ([]*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int64]bool, len(ids))
	var links []*domain.Link
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if link, ok := s.linksByID[id]; ok {
			cp := *link
			links = append(links, &cp)
		}
	}

	return links, nil
}

func (s *MemStorage) FindByOwner(_ context.Context, ownerID int64) ([]*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var links []*domain.Link
	for _, link := range s.linksByID {
		if link.IsOwnedBy(ownerID) {
			cp := *link
			links = append(links, &cp)
		}
	}

	return links, nil
}

func (s *MemStorage) SetOwner(_ context.Context, code string, ownerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.linksByCode[code]
	if !ok {
		return repository.ErrLinkNotFound
	}
	// Links owned by a different user are left untouched.
	if link.OwnerID != nil && *link.OwnerID != ownerID {
		return nil
	}
	link.OwnerID = &ownerID

	return nil
}

func (s *MemStorage) IncrementVisit(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.linksByCode[code]
	if !ok {
		return repository.ErrLinkNotFound
	}
	link.VisitCount++

	return nil
}

// --- Visit Detail Methods ---

func (s *MemStorage) SaveVisitDetails(_ context.Context, details *domain.LinkDetails) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.detailCounter++
	details.ID = s.detailCounter
	s.details = append(s.details, details)

	return nil
}

// DetailsFor returns stored visit records for a link. Test helper.
func (s *MemStorage) DetailsFor(linkID int64) []*domain.LinkDetails {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.LinkDetails
	for _, d := range s.details {
		if d.LinkID == linkID {
			out = append(out, d)
		}
	}
	return out
}
