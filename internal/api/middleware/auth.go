package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hugh/go-companies/internal/access"
	"github.com/hugh/go-companies/internal/auth"
	"github.com/hugh/go-companies/internal/database/models"
)

type contextKey string

const (
	UserIDKey      contextKey = "user_id"
	UserRoleKey    contextKey = "user_role"
	UserCompanyKey contextKey = "user_company_id"
)

// UserResolver loads the account a token was issued for.
type UserResolver interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

// Auth validates the bearer token and reloads its user. Deleted, soft
// deleted and deactivated accounts are rejected even while their token is
// still valid. Role and company come from the stored row, not the claims.
func Auth(tokens auth.TokenService, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string

			authHeader := r.Header.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				token = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			}

			// X-Auth-Token for clients that cannot set Authorization
			if token == "" {
				token = r.Header.Get("X-Auth-Token")
			}

			if token == "" {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			claims, err := tokens.ValidateToken(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			user, err := users.GetUserByID(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, auth.ErrUserNotFound) {
					writeError(w, http.StatusUnauthorized, "Unauthorized")
					return
				}
				slog.ErrorContext(r.Context(), "failed to load token user",
					"error", err,
					"user_id", claims.UserID,
					"request_id", GetRequestID(r.Context()),
				)
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if !user.IsActive || user.IsDeleted {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, UserIDKey, user.ID)
			ctx = context.WithValue(ctx, UserRoleKey, user.UserType)
			ctx = context.WithValue(ctx, UserCompanyKey, user.CompanyID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Helper functions to extract values from context
func GetUserID(ctx context.Context) uint {
	if id, ok := ctx.Value(UserIDKey).(uint); ok {
		return id
	}
	return 0
}

func GetUserRole(ctx context.Context) models.Role {
	if role, ok := ctx.Value(UserRoleKey).(models.Role); ok {
		return role
	}
	return ""
}

// GetUserCompanyID returns the caller's company, nil when it has none.
func GetUserCompanyID(ctx context.Context) *uint {
	if id, ok := ctx.Value(UserCompanyKey).(*uint); ok {
		return id
	}
	return nil
}

// CallerFrom builds the access control identity from the request context.
func CallerFrom(ctx context.Context) access.Caller {
	return access.Caller{
		ID:        GetUserID(ctx),
		Role:      GetUserRole(ctx),
		CompanyID: GetUserCompanyID(ctx),
	}
}

// RequireAdminTier lets admins and super admins through.
func RequireAdminTier(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !access.IsAdminTier(GetUserRole(r.Context())) {
			writeError(w, http.StatusForbidden, "Forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}
