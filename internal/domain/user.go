package domain

import (
	"context"
	"time"
)

const (
	RoleAdmin  = "Admin"
	RoleMember = "Member"
)

type Role struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Role) TableName() string { return "roles" }

// User is the persisted account. DeletedAt is a plain nullable column rather than
// gorm.DeletedAt so soft-deleted rows stay visible to lookups that need them
// (signup email checks) and are filtered explicitly elsewhere.
type User struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	Email     string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string     `gorm:"size:255;not null" json:"-"`
	Name      *string    `gorm:"size:100;index" json:"name"`
	RoleID    uint       `gorm:"not null;index" json:"-"`
	Role      Role       `gorm:"foreignKey:RoleID" json:"role"`
	IsActive  bool       `gorm:"not null;default:true;index" json:"isActive"`
	CreatedAt time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

func (u *User) IsAdmin() bool { return u.Role.Name == RoleAdmin }

func (u *User) IsDeleted() bool { return u.DeletedAt != nil }

// UserRepository returns (nil, nil) when a lookup finds nothing.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	// FindByIDWithRole skips soft-deleted rows.
	FindByIDWithRole(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, offset, limit int) ([]User, error)
	Count(ctx context.Context) (int64, error)
	// Update persists Email, Name and IsActive. It returns ErrUserNotFound when
	// the row is missing or soft-deleted.
	Update(ctx context.Context, u *User) error
	SoftDelete(ctx context.Context, u *User) error
	AssignRole(ctx context.Context, userID string, roleID uint) error
}

type RoleRepository interface {
	FindByName(ctx context.Context, name string) (*Role, error)
	Seed(ctx context.Context, roles ...Role) error
}

var DefaultRoles = []Role{
	{Name: RoleAdmin, Description: "Full access to every account"},
	{Name: RoleMember, Description: "Access to own account only"},
}
