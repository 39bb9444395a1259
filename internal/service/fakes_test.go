package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"user-account-service/internal/core/auth"
	"user-account-service/internal/core/cache"
	"user-account-service/internal/domain"
	"user-account-service/pkg/utils"
)

func init() { utils.HashCost = bcrypt.MinCost }

var (
	adminRole  = domain.Role{ID: 1, Name: domain.RoleAdmin}
	memberRole = domain.Role{ID: 2, Name: domain.RoleMember}
)

// fakeUserRepo stores copies so the service cannot mutate stored rows
// without going through Update/SoftDelete, the same as a real database.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
	roles map[uint]domain.Role
	calls map[string]int

	findErr   error
	updateErr error
	deleteErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users: map[string]domain.User{},
		roles: map[uint]domain.Role{adminRole.ID: adminRole, memberRole.ID: memberRole},
		calls: map[string]int{},
	}
}

func (f *fakeUserRepo) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeUserRepo) get(id string) (domain.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	return u, ok
}

func (f *fakeUserRepo) put(u domain.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	f.users[u.ID] = u
}

func (f *fakeUserRepo) withRole(u domain.User) *domain.User {
	u.Role = f.roles[u.RoleID]
	return &u
}

func (f *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["Create"]++
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return domain.ErrEmailExists
		}
	}
	u.CreatedAt = time.Now()
	f.users[u.ID] = *u
	return nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["FindByEmail"]++
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, u := range f.users {
		if u.Email == email {
			return f.withRole(u), nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByIDWithRole(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["FindByIDWithRole"]++
	if f.findErr != nil {
		return nil, f.findErr
	}
	u, ok := f.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, nil
	}
	return f.withRole(u), nil
}

func (f *fakeUserRepo) live() []domain.User {
	var out []domain.User
	for _, u := range f.users {
		if u.DeletedAt == nil {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (f *fakeUserRepo) List(_ context.Context, offset, limit int) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["List"]++
	all := f.live()
	if offset >= len(all) {
		return nil, nil
	}
	end := min(offset+limit, len(all))
	out := make([]domain.User, 0, end-offset)
	for _, u := range all[offset:end] {
		out = append(out, *f.withRole(u))
	}
	return out, nil
}

func (f *fakeUserRepo) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["Count"]++
	return int64(len(f.live())), nil
}

func (f *fakeUserRepo) Update(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["Update"]++
	if f.updateErr != nil {
		return f.updateErr
	}
	stored, ok := f.users[u.ID]
	if !ok || stored.IsDeleted() {
		return domain.ErrUserNotFound
	}
	stored.Email = u.Email
	stored.Name = u.Name
	stored.IsActive = u.IsActive
	stored.UpdatedAt = time.Now()
	f.users[u.ID] = stored
	return nil
}

func (f *fakeUserRepo) SoftDelete(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["SoftDelete"]++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	stored := f.users[u.ID]
	stored.DeletedAt = u.DeletedAt
	stored.IsActive = false
	f.users[u.ID] = stored
	return nil
}

func (f *fakeUserRepo) AssignRole(_ context.Context, userID string, roleID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["AssignRole"]++
	u := f.users[userID]
	u.RoleID = roleID
	f.users[userID] = u
	return nil
}

type fakeRoleRepo struct{ roles map[string]domain.Role }

func newFakeRoleRepo(roles ...domain.Role) *fakeRoleRepo {
	f := &fakeRoleRepo{roles: map[string]domain.Role{}}
	for _, r := range roles {
		f.roles[r.Name] = r
	}
	return f
}

func (f *fakeRoleRepo) FindByName(_ context.Context, name string) (*domain.Role, error) {
	r, ok := f.roles[name]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (f *fakeRoleRepo) Seed(_ context.Context, roles ...domain.Role) error {
	for _, r := range roles {
		if _, ok := f.roles[r.Name]; !ok {
			f.roles[r.Name] = r
		}
	}
	return nil
}

type published struct {
	topic   string
	payload any
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, topic string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, published{topic: topic, payload: payload})
	return nil
}

func newTestCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := cache.NewRedisClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = rdb.Close() })
	return cache.New(cache.NewRedis(rdb), zap.NewNop()), mr
}

func newTestJWTer() *auth.JWTer {
	return &auth.JWTer{Secret: []byte("test-secret"), Issuer: "test", TTL: 15 * time.Minute, RefreshTTL: 24 * time.Hour}
}

func strPtr(s string) *string { return &s }

func seedUser(repo *fakeUserRepo, id, email string, role domain.Role) *domain.User {
	u := domain.User{ID: id, Email: email, Password: "hash", Name: strPtr("name-" + id), RoleID: role.ID, IsActive: true}
	repo.put(u)
	return repo.withRole(u)
}

func requireKeys(t *testing.T, mr *miniredis.Miniredis, want ...string) {
	t.Helper()
	got := mr.Keys()
	if len(want) == 0 {
		require.Empty(t, got)
		return
	}
	require.ElementsMatch(t, want, got)
}

// cacheProbe reads and writes cache entries directly, bypassing the service.
type cacheProbe struct {
	t  *testing.T
	mr *miniredis.Miniredis
}

func (p *cacheProbe) set(key string, v any) {
	p.t.Helper()
	b, err := json.Marshal(v)
	require.NoError(p.t, err)
	require.NoError(p.t, p.mr.Set(key, string(b)))
}

func (p *cacheProbe) get(key string, dst any) {
	p.t.Helper()
	raw, err := p.mr.Get(key)
	require.NoError(p.t, err)
	require.NoError(p.t, json.Unmarshal([]byte(raw), dst))
}
