package service

import "user-account-service/internal/domain"

// AdminRequired passes only for identities holding the Admin role.
func AdminRequired(identity *domain.User) error {
	if identity == nil || !identity.IsAdmin() {
		return domain.ErrAdminRequired
	}
	return nil
}

// SelfOrAdminRequired passes for Admins and for the target user acting on itself.
func SelfOrAdminRequired(identity *domain.User, targetID string) error {
	if identity == nil {
		return domain.ErrAccessDenied
	}
	if identity.IsAdmin() || identity.ID == targetID {
		return nil
	}
	return domain.ErrAccessDenied
}

// canChangeIsActive holds for Admins only, including on their own record.
func canChangeIsActive(requester *domain.User) error {
	if requester == nil || !requester.IsAdmin() {
		return domain.ErrIsActiveForbidden
	}
	return nil
}
