// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"strings"
	"time"

	"liberty/internal/models"
)

// UserRepoStub is an in-memory user repository implementation for tests
// that don't need a real database, such as avatar processing.
type UserRepoStub struct {
	items  map[uint]*models.User
	nextID uint
}

// NewUserRepoStub creates an empty in-memory user repository stub.
func NewUserRepoStub() *UserRepoStub {
	return &UserRepoStub{items: make(map[uint]*models.User), nextID: 1}
}

// Add inserts a user directly, assigning an ID when unset.
func (s *UserRepoStub) Add(user *models.User) *models.User {
	if user.ID == 0 {
		user.ID = s.nextID
		s.nextID++
	}
	user.CreatedAt = time.Now().UTC()
	s.items[user.ID] = user
	return user
}

// GetByID fetches a user by primary key.
func (s *UserRepoStub) GetByID(_ context.Context, id uint) (*models.User, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, models.NewNotFoundError("User", id)
	}
	return item, nil
}

// GetByEmail fetches a user by email, returning nil when absent.
func (s *UserRepoStub) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, item := range s.items {
		if item.Email == email {
			return item, nil
		}
	}
	return nil, nil
}

// GetByUsername fetches a user by username, returning nil when absent.
func (s *UserRepoStub) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, item := range s.items {
		if item.Username == username {
			return item, nil
		}
	}
	return nil, nil
}

// Create stores a new user.
func (s *UserRepoStub) Create(_ context.Context, user *models.User) error {
	s.Add(user)
	return nil
}

// Update replaces the stored user.
func (s *UserRepoStub) Update(_ context.Context, user *models.User) error {
	if _, ok := s.items[user.ID]; !ok {
		return models.NewNotFoundError("User", user.ID)
	}
	s.items[user.ID] = user
	return nil
}

// Search matches usernames containing the query.
func (s *UserRepoStub) Search(_ context.Context, query string, limit, _ int) ([]models.User, error) {
	var out []models.User
	for _, item := range s.items {
		if strings.Contains(strings.ToLower(item.Username), strings.ToLower(query)) {
			out = append(out, *item)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// SetGlobalRole updates the stored role.
func (s *UserRepoStub) SetGlobalRole(_ context.Context, id uint, role models.GlobalRole) error {
	item, ok := s.items[id]
	if !ok {
		return models.NewNotFoundError("User", id)
	}
	item.GlobalRole = role
	return nil
}

// SetBadges replaces the stored badge set.
func (s *UserRepoStub) SetBadges(_ context.Context, id uint, badges []string) error {
	item, ok := s.items[id]
	if !ok {
		return models.NewNotFoundError("User", id)
	}
	item.Badges = badges
	return nil
}

// IncrementWarningCount bumps and returns the warning counter.
func (s *UserRepoStub) IncrementWarningCount(_ context.Context, id uint) (uint, error) {
	item, ok := s.items[id]
	if !ok {
		return 0, models.NewNotFoundError("User", id)
	}
	item.WarningCount++
	return item.WarningCount, nil
}

// SetBanned updates ban state and reason.
func (s *UserRepoStub) SetBanned(_ context.Context, id uint, banned bool, reason string) error {
	item, ok := s.items[id]
	if !ok {
		return models.NewNotFoundError("User", id)
	}
	item.IsBanned = banned
	item.BannedReason = reason
	if banned {
		now := time.Now().UTC()
		item.BannedAt = &now
	} else {
		item.BannedAt = nil
	}
	return nil
}

// Delete removes a user.
func (s *UserRepoStub) Delete(_ context.Context, id uint) error {
	if _, ok := s.items[id]; !ok {
		return models.NewNotFoundError("User", id)
	}
	delete(s.items, id)
	return nil
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t interface {
	Helper()
	Fatalf(string, ...any)
}, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// TinyJPEG returns an in-memory JPEG byte slice with the requested dimensions.
func TinyJPEG(t interface {
	Helper()
	Fatalf(string, ...any)
}, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 80}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}
