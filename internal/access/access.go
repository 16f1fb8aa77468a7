// Package access decides whether an authenticated caller may perform an action.
//
// Ownership predicates deliberately answer "allowed" when the addressed post
// cannot be resolved, so the handler that runs next reports the 400 or 404.
package access

import (
	"context"
	"errors"

	"github.com/hugh/go-companies/internal/database/models"
	"github.com/hugh/go-companies/internal/store"
)

// Caller is the authenticated identity a request runs as.
type Caller struct {
	ID        uint
	Role      models.Role
	CompanyID *uint
}

// PostRef addresses a post by an id taken from a path or payload. Valid is
// false when the raw id was not an integer.
type PostRef struct {
	ID    uint
	Valid bool
}

// PostLookup is the part of the post store the predicates need.
type PostLookup interface {
	Get(ctx context.Context, id uint) (*models.Post, error)
}

// IsAdminTier reports whether role may use the administrative endpoints.
func IsAdminTier(role models.Role) bool {
	switch role {
	case models.RoleSuperAdmin, models.RoleAdmin:
		return true
	case models.RoleClient:
		return false
	default:
		return false
	}
}

// CanCreateUserWithRole reports whether a caller with role may create a user
// of the requested role.
func CanCreateUserWithRole(role, requested models.Role) bool {
	if !requested.Valid() {
		return false
	}
	switch role {
	case models.RoleSuperAdmin:
		return true
	case models.RoleAdmin:
		return requested == models.RoleClient
	case models.RoleClient:
		return false
	default:
		return false
	}
}

// CanCreatePostFor reports whether caller may create a post owned by ownerID.
func CanCreatePostFor(caller Caller, ownerID uint) bool {
	switch caller.Role {
	case models.RoleSuperAdmin, models.RoleAdmin:
		return true
	case models.RoleClient:
		return ownerID == caller.ID
	default:
		return false
	}
}

// CanAccessPost allows admin tier callers and the post owner. An unparseable
// id or a missing post is allowed.
func CanAccessPost(ctx context.Context, posts PostLookup, caller Caller, ref PostRef) (bool, error) {
	if IsAdminTier(caller.Role) {
		return true, nil
	}
	if !ref.Valid {
		return true, nil
	}

	post, err := posts.Get(ctx, ref.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return true, nil
		}
		return false, err
	}

	return post.UserID == caller.ID, nil
}

// CanBulkUpdatePosts walks refs in order. The first unparseable or missing
// post allows the whole request; the first post owned by someone else denies it.
func CanBulkUpdatePosts(ctx context.Context, posts PostLookup, caller Caller, refs []PostRef) (bool, error) {
	if IsAdminTier(caller.Role) {
		return true, nil
	}

	for _, ref := range refs {
		if !ref.Valid {
			return true, nil
		}

		post, err := posts.Get(ctx, ref.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return true, nil
			}
			return false, err
		}

		if post.UserID != caller.ID {
			return false, nil
		}
	}

	return true, nil
}
