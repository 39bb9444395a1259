package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"user-account-service/internal/core/cache"
	"user-account-service/internal/core/events"
	"user-account-service/internal/domain"
)

type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

type UserSnapshot struct {
	ID    string  `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
	Role  string  `json:"role"`
}

type UserListItem struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	Name     *string `json:"name"`
	Role     string  `json:"role"`
	IsActive bool    `json:"is_active"`
}

type UserListResponse struct {
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
	Users []UserListItem `json:"users"`
}

type ListParams struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

type UserUpdate struct {
	Email    Optional[string] `json:"email"`
	Name     Optional[string] `json:"name"`
	IsActive Optional[bool]   `json:"is_active"`
}

type UserService struct {
	repo  domain.UserRepository
	cache *cache.Cache
	pub   EventPublisher
	log   *zap.Logger
	now   func() time.Time
}

func NewUserService(repo domain.UserRepository, c *cache.Cache, pub EventPublisher, l *zap.Logger) *UserService {
	if l == nil {
		l = zap.NewNop()
	}
	return &UserService{repo: repo, cache: c, pub: pub, log: l.Named("user"), now: time.Now}
}

func (s *UserService) GetUser(ctx context.Context, id string, requester *domain.User) (*UserSnapshot, error) {
	if err := SelfOrAdminRequired(requester, id); err != nil {
		return nil, err
	}
	return cache.GetOrLoadJSON(s.cache, ctx, cache.UserKey(id), cache.UserTTL,
		func(ctx context.Context) (*UserSnapshot, error) {
			u, err := s.repo.FindByIDWithRole(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("load user %s: %w", id, err)
			}
			if u == nil {
				return nil, domain.ErrUserNotFound
			}
			return toSnapshot(u), nil
		})
}

func (s *UserService) ListUsers(ctx context.Context, p ListParams, requester *domain.User) (*UserListResponse, error) {
	if err := AdminRequired(requester); err != nil {
		return nil, err
	}
	if p.Page < 1 || p.Size < 1 {
		return nil, fmt.Errorf("page and size must be >= 1: %w", domain.ErrInvalidInput)
	}
	return cache.GetOrLoadJSON(s.cache, ctx, cache.UserListKey(p), cache.UserListTTL,
		func(ctx context.Context) (*UserListResponse, error) {
			users, err := s.repo.List(ctx, (p.Page-1)*p.Size, p.Size)
			if err != nil {
				return nil, fmt.Errorf("list users: %w", err)
			}
			total, err := s.repo.Count(ctx)
			if err != nil {
				return nil, fmt.Errorf("count users: %w", err)
			}
			out := &UserListResponse{Total: total, Page: p.Page, Size: p.Size, Users: make([]UserListItem, 0, len(users))}
			for _, u := range users {
				out.Users = append(out.Users, UserListItem{
					ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role.Name, IsActive: u.IsActive,
				})
			}
			return out, nil
		})
}

// UpdateUser applies only the fields present in upd. A non-admin touching
// is_active fails before anything is applied.
func (s *UserService) UpdateUser(ctx context.Context, id string, upd UserUpdate, requester *domain.User) (*domain.User, error) {
	if err := SelfOrAdminRequired(requester, id); err != nil {
		return nil, err
	}
	u, err := s.repo.FindByIDWithRole(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", id, err)
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	if upd.IsActive.Set {
		if err := canChangeIsActive(requester); err != nil {
			return nil, err
		}
	}

	if v, ok := upd.Email.Get(); ok {
		u.Email = normalizeEmail(v)
	}
	if v, ok := upd.Name.Get(); ok {
		u.Name = &v
	}
	if v, ok := upd.IsActive.Get(); ok {
		u.IsActive = v
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update user %s: %w", id, err)
	}
	s.invalidate(ctx, id)
	return u, nil
}

// DeleteUser soft-deletes the user, drops its cache entries and then publishes
// user.deleted. A publish failure is returned after the row is already deleted.
func (s *UserService) DeleteUser(ctx context.Context, id string, requester *domain.User) error {
	if err := SelfOrAdminRequired(requester, id); err != nil {
		return err
	}
	u, err := s.repo.FindByIDWithRole(ctx, id)
	if err != nil {
		return fmt.Errorf("load user %s: %w", id, err)
	}
	if u == nil {
		return domain.ErrUserNotFound
	}

	now := s.now().UTC()
	u.DeletedAt = &now
	u.IsActive = false
	if err := s.repo.SoftDelete(ctx, u); err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	s.invalidate(ctx, id)

	if err := s.pub.Publish(ctx, events.TopicUserDeleted, events.NewUserDeleted(u.ID)); err != nil {
		return fmt.Errorf("publish user.deleted for %s: %w", id, err)
	}
	s.log.Info("user deleted", zap.String("user_id", id))
	return nil
}

// invalidate runs after every successful write, whether or not the changed
// fields appear in list entries.
func (s *UserService) invalidate(ctx context.Context, id string) {
	s.cache.Delete(ctx, cache.UserKey(id))
	s.cache.DeletePattern(ctx, cache.UserListGlob)
}

func toSnapshot(u *domain.User) *UserSnapshot {
	return &UserSnapshot{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role.Name}
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
