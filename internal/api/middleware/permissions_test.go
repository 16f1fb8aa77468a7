package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hugh/go-companies/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequirePostOwner(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()

	other := testutil.CreateTestUser(t, tc.DB, "client", tc.Company)
	own := testutil.CreateTestPost(t, tc.DB, tc.Client, "mine")
	foreign := testutil.CreateTestPost(t, tc.DB, other, "theirs")

	r := chi.NewRouter()
	r.Use(Auth(tc.JWTService, tc.AuthService))
	r.With(RequirePostOwner(tc.Stores.Posts)).Patch("/posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name     string
		token    string
		id       string
		expected int
	}{
		{"owner", tc.ClientToken, strconv.Itoa(int(own.ID)), http.StatusOK},
		{"other owner", tc.ClientToken, strconv.Itoa(int(foreign.ID)), http.StatusForbidden},
		{"admin on foreign post", tc.AdminToken, strconv.Itoa(int(foreign.ID)), http.StatusOK},
		{"super admin on foreign post", tc.SuperAdminToken, strconv.Itoa(int(foreign.ID)), http.StatusOK},
		{"missing post passes through", tc.ClientToken, "9999", http.StatusOK},
		{"non-integer id passes through", tc.ClientToken, "abc", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.AuthenticatedRequest(t, http.MethodPatch, "/posts/"+tt.id, nil, tt.token)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.expected, rec.Code)
		})
	}
}

func TestRequireBulkPostOwner(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()

	other := testutil.CreateTestUser(t, tc.DB, "client", tc.Company)
	own := testutil.CreateTestPost(t, tc.DB, tc.Client, "mine")
	own2 := testutil.CreateTestPost(t, tc.DB, tc.Client, "mine too")
	foreign := testutil.CreateTestPost(t, tc.DB, other, "theirs")

	var seenBody string
	r := chi.NewRouter()
	r.Use(Auth(tc.JWTService, tc.AuthService))
	r.With(RequireBulkPostOwner(tc.Stores.Posts)).Patch("/posts/bulk", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		seenBody = string(body)
		w.WriteHeader(http.StatusOK)
	})

	entries := func(ids ...string) string {
		parts := make([]string, 0, len(ids))
		for _, id := range ids {
			parts = append(parts, `{"id":`+id+`,"title":"x"}`)
		}
		return `{"posts_to_update":[` + strings.Join(parts, ",") + `]}`
	}
	idOf := func(id uint) string { return strconv.Itoa(int(id)) }

	tests := []struct {
		name     string
		token    string
		body     string
		expected int
	}{
		{"all owned", tc.ClientToken, entries(idOf(own.ID), idOf(own2.ID)), http.StatusOK},
		{"one foreign", tc.ClientToken, entries(idOf(own.ID), idOf(foreign.ID)), http.StatusForbidden},
		{"foreign after missing", tc.ClientToken, entries("9999", idOf(foreign.ID)), http.StatusOK},
		{"foreign after invalid id", tc.ClientToken, entries(`"abc"`, idOf(foreign.ID)), http.StatusOK},
		{"admin", tc.AdminToken, entries(idOf(foreign.ID)), http.StatusOK},
		{"malformed body rejected", tc.ClientToken, `{"posts_to_update":`, http.StatusBadRequest},
		{"trailing data rejected", tc.ClientToken, entries(idOf(foreign.ID)) + ` x`, http.StatusBadRequest},
		{"second value rejected", tc.ClientToken, entries(idOf(own.ID)) + entries(idOf(foreign.ID)), http.StatusBadRequest},
		{"trailing whitespace allowed", tc.ClientToken, entries(idOf(own.ID)) + "\n", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seenBody = ""
			req := testutil.AuthenticatedRequest(t, http.MethodPatch, "/posts/bulk", tt.body, tt.token)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.expected, rec.Code)
			if tt.expected == http.StatusOK {
				assert.Equal(t, tt.body, seenBody)
			}
		})
	}
}
