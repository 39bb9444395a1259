package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"user-account-service/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	err := r.db.WithContext(ctx).Omit("Role").Create(u).Error
	if isDupKey(err) {
		return domain.ErrEmailExists
	}
	return err
}

// FindByEmail includes soft-deleted rows: their email still holds the unique index.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Preload("Role").First(&u, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) FindByIDWithRole(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).
		Preload("Role").
		Where("deleted_at IS NULL").
		First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context, offset, limit int) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).
		Preload("Role").
		Where("deleted_at IS NULL").
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&users).Error
	return users, err
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Where("deleted_at IS NULL").Count(&total).Error
	return total, err
}

// Update writes only the editable columns and never touches a soft-deleted
// row: a copy loaded before a concurrent delete gets ErrUserNotFound instead
// of clearing deleted_at.
func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ? AND deleted_at IS NULL", u.ID).
		Updates(map[string]any{
			"email":      u.Email,
			"name":       u.Name,
			"is_active":  u.IsActive,
			"updated_at": now,
		})
	if isDupKey(res.Error) {
		return domain.ErrEmailExists
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	u.UpdatedAt = now
	return nil
}

// SoftDelete persists DeletedAt/IsActive already set on u; the row is kept.
func (r *UserRepo) SoftDelete(ctx context.Context, u *domain.User) error {
	return r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{"deleted_at": u.DeletedAt, "is_active": false}).Error
}

// AssignRole is used by the admin bootstrap at startup.
func (r *UserRepo) AssignRole(ctx context.Context, userID string, roleID uint) error {
	return r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", userID).Update("role_id", roleID).Error
}

// isDupKey relies on TranslateError, which postgres, mysql and sqlite
// dialectors all implement.
func isDupKey(err error) bool { return errors.Is(err, gorm.ErrDuplicatedKey) }
