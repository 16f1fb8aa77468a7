package api_test

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hugh/go-companies/internal/api"
	"github.com/hugh/go-companies/internal/auth"
	"github.com/hugh/go-companies/internal/database/models"
	"github.com/hugh/go-companies/internal/events"
	"github.com/hugh/go-companies/internal/testutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*api.Router, *testutil.TestSetup, *events.Recorder) {
	tc := testutil.NewTestContext(t)
	recorder := &events.Recorder{}

	router := api.NewRouter(api.RouterConfig{
		DB:              tc.DB,
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		JWTService:      tc.JWTService,
		AuthService:     auth.NewService(tc.Stores.Users, tc.JWTService),
		Stores:          tc.Stores,
		Events:          recorder,
		MetricsRegistry: prometheus.NewRegistry(),
		RateLimitReqs:   1000,
		RateLimitWindow: time.Minute,
	})
	t.Cleanup(router.Close)

	return router, tc, recorder
}

func TestRouter_Guards(t *testing.T) {
	router, tc, _ := setupRouter(t)
	defer tc.Cleanup()

	post := testutil.CreateTestPost(t, tc.DB, tc.Admin, "admin post")

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
	}{
		{"health is public", "GET", "/health", "", http.StatusOK},
		{"ready is public", "GET", "/ready", "", http.StatusOK},
		{"metrics is public", "GET", "/metrics", "", http.StatusOK},
		{"companies need a token", "GET", "/companies/all/partial", "", http.StatusUnauthorized},
		{"companies need admin tier", "GET", "/companies/all/partial", tc.ClientToken, http.StatusForbidden},
		{"admin lists companies", "GET", "/companies/all/partial", tc.AdminToken, http.StatusOK},
		{"trailing slash tolerated", "GET", "/companies/all/partial/", tc.AdminToken, http.StatusOK},
		{"super admin lists users", "GET", "/users/all/", tc.SuperAdminToken, http.StatusOK},
		{"client cannot list users", "GET", "/users/all", tc.ClientToken, http.StatusForbidden},
		{"client cannot list all posts", "GET", "/posts/all/", tc.ClientToken, http.StatusForbidden},
		{"client reads own account", "GET", "/users/user/account", tc.ClientToken, http.StatusOK},
		{"client reads own company", "GET", "/companies/my_company/", tc.ClientToken, http.StatusOK},
		{"client reads company posts", "GET", "/posts/company", tc.ClientToken, http.StatusOK},
		{"client cannot read foreign post", "GET", fmt.Sprintf("/posts/post/%d", post.ID), tc.ClientToken, http.StatusForbidden},
		{"admin reads any post", "GET", fmt.Sprintf("/posts/post/%d", post.ID), tc.AdminToken, http.StatusOK},
		{"client cannot read users", "GET", fmt.Sprintf("/users/user/%d", tc.Admin.ID), tc.ClientToken, http.StatusForbidden},
		{"company 5000 is missing", "GET", "/companies/company/5000", tc.AdminToken, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.AuthenticatedRequest(t, tt.method, tt.path, nil, tt.token)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			testutil.AssertStatus(t, rr, tt.wantStatus)
		})
	}
}

func TestRouter_LoginThenUseToken(t *testing.T) {
	router, tc, recorder := setupRouter(t)
	defer tc.Cleanup()

	body := map[string]string{"email": "client@email.com", "password": testutil.TestPassword}
	req := testutil.UnauthenticatedRequest(t, "POST", "/users/user/login/", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	var login struct {
		Token string `json:"token"`
	}
	testutil.ParseJSONResponse(t, rr, &login)

	create := map[string]interface{}{"title": "via router", "text": "hello"}
	req = testutil.AuthenticatedRequest(t, "POST", "/posts/post/create/", create, login.Token)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)

	forbidden := map[string]interface{}{"title": "for admin", "text": "hello", "user_id": tc.Admin.ID}
	req = testutil.AuthenticatedRequest(t, "POST", "/posts/post/create", forbidden, login.Token)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	assert.JSONEq(t, `{"message":"You're can't create post for another user"}`, rr.Body.String())

	assert.Equal(t, []events.Type{events.PostCreated}, recorder.Types())
}

func TestRouter_MetricsExposeRoutes(t *testing.T) {
	router, tc, _ := setupRouter(t)
	defer tc.Cleanup()

	req := testutil.AuthenticatedRequest(t, "GET", "/companies/company/5000", nil, tc.AdminToken)
	router.ServeHTTP(httptest.NewRecorder(), req)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Contains(t, rr.Body.String(), `route="/companies/company/{id}",status="404"`)
}

func TestRouter_DeletedAccountsLoseAccess(t *testing.T) {
	router, tc, _ := setupRouter(t)
	defer tc.Cleanup()

	ctx := testutil.TestContext(t)
	admin := testutil.CreateTestUser(t, tc.DB, models.RoleAdmin, nil)
	adminToken := tc.TokenFor(t, admin)
	client := testutil.CreateTestUser(t, tc.DB, models.RoleClient, tc.Company)
	clientToken := tc.TokenFor(t, client)

	get := func(path, token string) int {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, testutil.AuthenticatedRequest(t, "GET", path, nil, token))
		return rr.Code
	}

	require.Equal(t, http.StatusOK, get("/users/all", adminToken))
	require.NoError(t, tc.Stores.Users.SoftDelete(ctx, admin.ID))
	assert.Equal(t, http.StatusUnauthorized, get("/users/all", adminToken))

	// a soft deleted admin can no longer delete anyone
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, testutil.AuthenticatedRequest(t, "DELETE", fmt.Sprintf("/users/user/%d", tc.Client.ID), nil, adminToken))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)

	require.Equal(t, http.StatusOK, get("/users/user/account", clientToken))
	require.NoError(t, tc.Stores.Users.Delete(ctx, client.ID))
	assert.Equal(t, http.StatusUnauthorized, get("/users/user/account", clientToken))
}

func TestRouter_BulkUpdateRejectsSmuggledBody(t *testing.T) {
	router, tc, _ := setupRouter(t)
	defer tc.Cleanup()

	victim := testutil.CreateTestPost(t, tc.DB, tc.Admin, "victim")
	body := fmt.Sprintf(`{"posts_to_update":[{"id":%d,"title":"hacked"}]} x`, victim.ID)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, testutil.AuthenticatedRequest(t, "PATCH", "/posts/bulk_update", body, tc.ClientToken))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	post, err := tc.Stores.Posts.Get(testutil.TestContext(t), victim.ID)
	require.NoError(t, err)
	assert.Equal(t, "victim", post.Title)
}

func TestRouter_RateLimitsPerUser(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()

	router := api.NewRouter(api.RouterConfig{
		DB:              tc.DB,
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		JWTService:      tc.JWTService,
		AuthService:     tc.AuthService,
		Stores:          tc.Stores,
		RateLimitReqs:   2,
		RateLimitWindow: time.Minute,
	})
	t.Cleanup(router.Close)

	get := func(token string) int {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, testutil.AuthenticatedRequest(t, "GET", "/users/user/account", nil, token))
		return rr.Code
	}

	// Both users share the test client address but not a bucket.
	assert.Equal(t, http.StatusOK, get(tc.ClientToken))
	assert.Equal(t, http.StatusOK, get(tc.ClientToken))
	assert.Equal(t, http.StatusTooManyRequests, get(tc.ClientToken))
	assert.Equal(t, http.StatusOK, get(tc.AdminToken))
}
