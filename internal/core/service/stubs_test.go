package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/tubehub/user-service/internal/core/domain"
	"github.com/tubehub/user-service/internal/core/ports"
	"github.com/tubehub/user-service/internal/pkg/password"
)

func init() {
	password.Cost = bcrypt.MinCost
}

// ---------------------------------------------------------------------------
// User repository
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	nextID  int
	creates int

	findByIDErr error // forced failure for FindByID
	createErr   error
	setErr      error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.WatchHistory = append([]string(nil), u.WatchHistory...)
	return &clone
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findByIDErr != nil {
		return nil, r.findByIDErr
	}
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByIdentifier(_ context.Context, username, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Create(_ context.Context, in ports.NewUser) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, u := range r.users {
		if u.Username == in.Username || u.Email == in.Email {
			return nil, domain.ErrUserExists
		}
	}
	hash, err := password.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	r.nextID++
	r.creates++
	u := &domain.User{
		ID:           fmt.Sprintf("user-%d", r.nextID),
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		Avatar:       in.Avatar.URL,
		AvatarID:     in.Avatar.PublicID,
		PasswordHash: hash,
	}
	if in.CoverImage != nil {
		u.CoverImage = in.CoverImage.URL
		u.CoverImageID = in.CoverImage.PublicID
	}
	r.users[u.ID] = u
	return cloneUser(u), nil
}

func (r *stubUserRepo) SetRefreshToken(_ context.Context, id, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setErr != nil {
		return r.setErr
	}
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.RefreshToken = token
	return nil
}

func (r *stubUserRepo) SwapRefreshToken(_ context.Context, id, current, next string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.RefreshToken != current {
		return domain.ErrRefreshTokenReused
	}
	u.RefreshToken = next
	return nil
}

func (r *stubUserRepo) ClearRefreshToken(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.RefreshToken = ""
	return nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id, plain string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	hash, err := password.Hash(plain)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (r *stubUserRepo) UpdateAccount(_ context.Context, id, fullName, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	for otherID, other := range r.users {
		if otherID != id && other.Email == email {
			return nil, domain.ErrUserExists
		}
	}
	u.FullName, u.Email = fullName, email
	return cloneUser(u), nil
}

func (r *stubUserRepo) UpdateAvatar(_ context.Context, id string, m domain.Media) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Avatar, u.AvatarID = m.URL, m.PublicID
	return cloneUser(u), nil
}

func (r *stubUserRepo) UpdateCoverImage(_ context.Context, id string, m domain.Media) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.CoverImage, u.CoverImageID = m.URL, m.PublicID
	return cloneUser(u), nil
}

func (r *stubUserRepo) stored(id string) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneUser(r.users[id])
}

// ---------------------------------------------------------------------------
// Media store / janitor / throttle
// ---------------------------------------------------------------------------

type stubMedia struct {
	uploadErr map[string]error // by folder
	deleteErr error
	uploaded  []string
	deleted   []string
	n         int
}

func (m *stubMedia) Upload(_ context.Context, _ domain.MediaFile, folder string) (*domain.Media, error) {
	if err := m.uploadErr[folder]; err != nil {
		return nil, err
	}
	m.n++
	id := fmt.Sprintf("%s/obj-%d", folder, m.n)
	m.uploaded = append(m.uploaded, id)
	return &domain.Media{URL: "https://cdn.test/" + id, PublicID: id}, nil
}

func (m *stubMedia) Delete(_ context.Context, publicID string) error {
	m.deleted = append(m.deleted, publicID)
	return m.deleteErr
}

type stubJanitor struct {
	discarded []string
}

func (j *stubJanitor) Discard(publicID string) {
	j.discarded = append(j.discarded, publicID)
}

type stubThrottle struct {
	failures map[string]int
	limit    int
	err      error
}

func newStubThrottle(limit int) *stubThrottle {
	return &stubThrottle{failures: make(map[string]int), limit: limit}
}

func (t *stubThrottle) Allowed(_ context.Context, id string) (bool, error) {
	if t.err != nil {
		return false, t.err
	}
	return t.failures[id] < t.limit, nil
}

func (t *stubThrottle) RecordFailure(_ context.Context, id string) error {
	t.failures[id]++
	return t.err
}

func (t *stubThrottle) Reset(_ context.Context, id string) error {
	delete(t.failures, id)
	return t.err
}

var errStore = errors.New("store unavailable")

func avatarFile() *domain.MediaFile {
	return &domain.MediaFile{Name: "avatar.png", ContentType: "image/png"}
}
