package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hugh/go-companies/internal/access"
	"github.com/hugh/go-companies/internal/api/dto"
	"github.com/hugh/go-companies/internal/api/validation"
)

// maxPeekBody bounds how much of a request body is buffered for inspection.
const maxPeekBody = 1 << 20

// RequirePostOwner allows admin tier callers and the owner of the post named
// by the {id} path parameter.
func RequirePostOwner(posts access.PostLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := validation.ParsePathID(chi.URLParam(r, "id"))
			ref := access.PostRef{ID: id, Valid: ok}

			allowed, err := access.CanAccessPost(r.Context(), posts, CallerFrom(r.Context()), ref)
			if err != nil {
				slog.ErrorContext(r.Context(), "post ownership check failed", "error", err, "request_id", GetRequestID(r.Context()))
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if !allowed {
				writeError(w, http.StatusForbidden, "Forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireBulkPostOwner inspects posts_to_update and allows the request when
// the caller owns every addressed post. The body is restored for the handler;
// an unparsable body is rejected with 400.
func RequireBulkPostOwner(posts access.PostLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := CallerFrom(r.Context())
			if access.IsAdminTier(caller.Role) {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBody+1))
			if err != nil || len(body) > maxPeekBody {
				writeError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			// The handler decodes with the same rules, so a body that fails
			// here can never reach it unchecked.
			var req dto.BulkUpdateRequest
			if err := dto.Decode(bytes.NewReader(body), &req); err != nil {
				writeError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			refs := make([]access.PostRef, 0, len(req.PostsToUpdate))
			for _, entry := range req.PostsToUpdate {
				id, ok := validation.ParseID(entry.ID)
				refs = append(refs, access.PostRef{ID: id, Valid: ok})
			}

			allowed, err := access.CanBulkUpdatePosts(r.Context(), posts, caller, refs)
			if err != nil {
				slog.ErrorContext(r.Context(), "bulk post ownership check failed", "error", err, "request_id", GetRequestID(r.Context()))
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if !allowed {
				writeError(w, http.StatusForbidden, "Forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
