package domain

import "errors"

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")
	ErrRoleNotFound       = errors.New("role not found")
	ErrAdminRequired      = errors.New("admin permission required")
	ErrAccessDenied       = errors.New("access denied")
	ErrIsActiveForbidden  = errors.New("is_active can only be changed by an admin")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidInput       = errors.New("invalid input")
)
