package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"user-account-service/internal/core/auth"
	"user-account-service/internal/domain"
	"user-account-service/pkg/utils"
)

type SignupInput struct {
	Email    string
	Password string
	Name     *string
}

type AuthService struct {
	users domain.UserRepository
	roles domain.RoleRepository
	jwt   *auth.JWTer
	log   *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(users domain.UserRepository, roles domain.RoleRepository, j *auth.JWTer, l *zap.Logger) *AuthService {
	if l == nil {
		l = zap.NewNop()
	}
	return &AuthService{users: users, roles: roles, jwt: j, log: l.Named("auth")}
}

// Signup registers a Member. It issues no tokens; callers sign in afterwards.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) error {
	if len(in.Password) > utils.MaxPasswordBytes {
		return fmt.Errorf("password longer than %d bytes: %w", utils.MaxPasswordBytes, domain.ErrInvalidInput)
	}
	email := normalizeEmail(in.Email)
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("lookup email: %w", err)
	}
	if existing != nil {
		return domain.ErrEmailExists
	}

	role, err := s.roles.FindByName(ctx, domain.RoleMember)
	if err != nil {
		return fmt.Errorf("lookup role %s: %w", domain.RoleMember, err)
	}
	if role == nil {
		return fmt.Errorf("%s: %w", domain.RoleMember, domain.ErrRoleNotFound)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u := &domain.User{
		ID:       utils.NewID(),
		Email:    email,
		Password: hash,
		Name:     in.Name,
		RoleID:   role.ID,
		IsActive: true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return err
	}
	s.log.Info("user signed up", zap.String("user_id", u.ID))
	return nil
}

// Signin returns the same error for an unknown email, a wrong password and an
// inactive account. A bcrypt comparison runs in every case.
func (s *AuthService) Signin(ctx context.Context, email, password string) (*auth.TokenPair, error) {
	u, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	hash := s.dummy()
	if u != nil {
		hash = u.Password
	}
	if !utils.CheckPassword(password, hash) || u == nil || !u.IsActive || u.IsDeleted() {
		return nil, domain.ErrInvalidCredentials
	}
	return s.issue(u.ID)
}

// Refresh exchanges a refresh token for a new pair, provided its subject is
// still an active user.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.jwt.Parse(refreshToken, auth.TypeRefresh)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	if _, err := s.activeUser(ctx, claims.Subject); err != nil {
		return nil, err
	}
	return s.issue(claims.Subject)
}

// Authenticate resolves an access token to the active user it names.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*domain.User, error) {
	claims, err := s.jwt.Parse(accessToken, auth.TypeAccess)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	return s.activeUser(ctx, claims.Subject)
}

// BootstrapAdmin grants the Admin role to an existing account. A missing
// account is not an error: the operator may sign up later and restart.
func (s *AuthService) BootstrapAdmin(ctx context.Context, email string) error {
	if email == "" {
		return nil
	}
	u, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if u == nil {
		s.log.Warn("bootstrap admin not found", zap.String("email", email))
		return nil
	}
	if u.IsAdmin() {
		return nil
	}
	role, err := s.roles.FindByName(ctx, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if role == nil {
		return fmt.Errorf("%s: %w", domain.RoleAdmin, domain.ErrRoleNotFound)
	}
	if err := s.users.AssignRole(ctx, u.ID, role.ID); err != nil {
		return err
	}
	s.log.Info("bootstrap admin granted", zap.String("user_id", u.ID))
	return nil
}

func (s *AuthService) activeUser(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.FindByIDWithRole(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", id, err)
	}
	if u == nil || !u.IsActive {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *AuthService) issue(uid string) (*auth.TokenPair, error) {
	pair, err := s.jwt.IssuePair(uid)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	return pair, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := utils.HashPassword("timing-equaliser")
		if err != nil {
			s.log.Error("dummy hash", zap.Error(err))
		}
		s.dummyHash = h
	})
	return s.dummyHash
}
