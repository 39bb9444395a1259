package database

import (
	"context"

	"gorm.io/gorm"

	"user-account-service/internal/domain"
)

// Migrate creates or updates the roles and users tables. Default roles are
// seeded separately through RoleRepository.Seed.
func Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(&domain.Role{}, &domain.User{})
}
