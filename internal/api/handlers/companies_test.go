package handlers_test

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hugh/go-companies/internal/api/dto"
	"github.com/hugh/go-companies/internal/api/handlers"
	"github.com/hugh/go-companies/internal/api/middleware"
	"github.com/hugh/go-companies/internal/database/models"
	"github.com/hugh/go-companies/internal/events"
	"github.com/hugh/go-companies/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupCompanyTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup, *events.Recorder) {
	tc := testutil.NewTestContext(t)
	recorder := &events.Recorder{}

	r := chi.NewRouter()
	r.Use(middleware.Auth(tc.JWTService, tc.AuthService))

	handler := handlers.NewCompanyHandler(tc.Stores.Companies, tc.Stores.Users, tc.Stores.Posts, recorder, discardLogger())
	r.Get("/companies/my_company", handler.MyCompany)
	r.Get("/companies/all/{view}", handler.List)
	r.Post("/companies/company/create", handler.Create)
	r.Get("/companies/company/{id}", handler.Get)
	r.Patch("/companies/company/{id}", handler.Update)

	return r, tc, recorder
}

func TestCompanyHandler_ListPartial(t *testing.T) {
	router, tc, _ := setupCompanyTestRouter(t)
	defer tc.Cleanup()

	testutil.CreateTestCompany(t, tc.DB, "Newer", time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC))

	req := testutil.AuthenticatedRequest(t, "GET", "/companies/all/partial", nil, tc.AdminToken)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	testutil.AssertStatus(t, rr, http.StatusOK)

	var resp []dto.CompanyResponse
	testutil.ParseJSONResponse(t, rr, &resp)
	require.Len(t, resp, 2)
	// newest first
	assert.Equal(t, "Newer", resp[0].Name)
	assert.Equal(t, "2023-05-01", resp[0].DateCreated)
	assert.Equal(t, "Test Company", resp[1].Name)
}

func TestCompanyHandler_ListFull(t *testing.T) {
	router, tc, _ := setupCompanyTestRouter(t)
	defer tc.Cleanup()

	empty := testutil.CreateTestCompany(t, tc.DB, "Empty Inc", time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC))
	colleague := testutil.CreateTestUser(t, tc.DB, models.RoleClient, tc.Company)
	first := testutil.CreateTestPost(t, tc.DB, tc.Client, "first")
	second := testutil.CreateTestPost(t, tc.DB, tc.Client, "second")
	// posts by company-less users never show up
	testutil.CreateTestPost(t, tc.DB, tc.Admin, "admin post")

	req := testutil.AuthenticatedRequest(t, "GET", "/companies/all/full", nil, tc.SuperAdminToken)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	testutil.AssertStatus(t, rr, http.StatusOK)

	var resp []dto.CompanyFullResponse
	testutil.ParseJSONResponse(t, rr, &resp)
	require.Len(t, resp, 2)

	assert.Equal(t, tc.Company.ID, resp[0].ID)
	require.Len(t, resp[0].Employees, 2)
	assert.Equal(t, tc.Client.ID, resp[0].Employees[0].ID)
	require.Len(t, resp[0].Employees[0].Posts, 2)
	assert.Equal(t, first.ID, resp[0].Employees[0].Posts[0].ID)
	assert.Equal(t, second.ID, resp[0].Employees[0].Posts[1].ID)
	assert.Equal(t, colleague.ID, resp[0].Employees[1].ID)
	assert.NotNil(t, resp[0].Employees[1].Posts)
	assert.Empty(t, resp[0].Employees[1].Posts)

	assert.Equal(t, empty.ID, resp[1].ID)
	assert.NotNil(t, resp[1].Employees)
	assert.Contains(t, rr.Body.String(), `"employees":[]`)
}

func TestCompanyHandler_ListInvalidView(t *testing.T) {
	router, tc, _ := setupCompanyTestRouter(t)
	defer tc.Cleanup()

	req := testutil.AuthenticatedRequest(t, "GET", "/companies/all/brief", nil, tc.AdminToken)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	assert.JSONEq(t, `{"error":"View option must be partial or full not brief"}`, rr.Body.String())
}

func TestCompanyHandler_Get(t *testing.T) {
	router, tc, _ := setupCompanyTestRouter(t)
	defer tc.Cleanup()

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "existing company",
			path:       fmt.Sprintf("/companies/company/%d", tc.Company.ID),
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing company",
			path:       "/companies/company/5000",
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"Company with id=5000 does not exist"}`,
		},
		{
			name:       "non-integer id",
			path:       "/companies/company/abc",
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"Company with id=abc does not exist"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.AuthenticatedRequest(t, "GET", tt.path, nil, tc.AdminToken)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			testutil.AssertStatus(t, rr, tt.wantStatus)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rr.Body.String())
				return
			}

			var resp dto.CompanyResponse
			testutil.ParseJSONResponse(t, rr, &resp)
			assert.Equal(t, "Test Company", resp.Name)
			assert.Equal(t, "2020-01-02", resp.DateCreated)
		})
	}
}

func TestCompanyHandler_Create(t *testing.T) {
	router, tc, recorder := setupCompanyTestRouter(t)
	defer tc.Cleanup()

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantField  string
	}{
		{
			name: "valid company",
			body: map[string]interface{}{
				"name":         "Acme",
				"url":          "https://acme.example.com",
				"address":      "1 Road",
				"date_created": "2001-09-09",
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing name",
			body:       map[string]interface{}{"date_created": "2001-09-09"},
			wantStatus: http.StatusBadRequest,
			wantField:  "name",
		},
		{
			name:       "bad date",
			body:       map[string]interface{}{"name": "Acme", "date_created": "09/09/2001"},
			wantStatus: http.StatusBadRequest,
			wantField:  "date_created",
		},
		{
			name:       "bad url",
			body:       map[string]interface{}{"name": "Acme", "url": "not a url", "date_created": "2001-09-09"},
			wantStatus: http.StatusBadRequest,
			wantField:  "url",
		},
		{
			name:       "malformed json",
			body:       `{"name":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.AuthenticatedRequest(t, "POST", "/companies/company/create", tt.body, tc.AdminToken)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			testutil.AssertStatus(t, rr, tt.wantStatus)

			switch {
			case tt.wantStatus == http.StatusCreated:
				var resp dto.CompanyResponse
				testutil.ParseJSONResponse(t, rr, &resp)
				assert.NotZero(t, resp.ID)
				assert.Equal(t, "Acme", resp.Name)
				assert.Equal(t, "2001-09-09", resp.DateCreated)
				assert.Nil(t, resp.Logo)
			case tt.wantField != "":
				var resp dto.ErrorResponse
				testutil.ParseJSONResponse(t, rr, &resp)
				assert.Equal(t, "Validation failed", resp.Error)
				assert.Contains(t, resp.Details, tt.wantField)
			default:
				assert.JSONEq(t, `{"error":"Invalid request body"}`, rr.Body.String())
			}
		})
	}

	assert.Equal(t, []events.Type{events.CompanyCreated}, recorder.Types())
}

func TestCompanyHandler_Update(t *testing.T) {
	router, tc, recorder := setupCompanyTestRouter(t)
	defer tc.Cleanup()

	path := fmt.Sprintf("/companies/company/%d", tc.Company.ID)
	req := testutil.AuthenticatedRequest(t, "PATCH", path, map[string]interface{}{"address": "New Street 5"}, tc.AdminToken)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.JSONEq(t, fmt.Sprintf(`{"message":"Successfully update company with id=%d"}`, tc.Company.ID), rr.Body.String())

	company, err := tc.Stores.Companies.Get(testutil.TestContext(t), tc.Company.ID)
	require.NoError(t, err)
	assert.Equal(t, "New Street 5", company.Address)
	assert.Equal(t, "Test Company", company.Name)
	assert.Equal(t, []events.Type{events.CompanyUpdated}, recorder.Types())

	t.Run("missing company", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "PATCH", "/companies/company/77", map[string]interface{}{"name": "x"}, tc.AdminToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusNotFound)
		assert.JSONEq(t, `{"error":"Company with id=77 does not exist"}`, rr.Body.String())
	})

	t.Run("blank name", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "PATCH", path, map[string]interface{}{"name": " "}, tc.AdminToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}

func TestCompanyHandler_MyCompany(t *testing.T) {
	router, tc, _ := setupCompanyTestRouter(t)
	defer tc.Cleanup()

	t.Run("member", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/companies/my_company", nil, tc.ClientToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp dto.CompanyResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, tc.Company.ID, resp.ID)
	})

	t.Run("no company", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/companies/my_company", nil, tc.AdminToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusNotFound)
		assert.JSONEq(t, fmt.Sprintf(`{"error":"User with id=%d has no company"}`, tc.Admin.ID), rr.Body.String())
	})

	t.Run("follows the stored company, not the token", func(t *testing.T) {
		globex := testutil.CreateTestCompany(t, tc.DB, "Globex", time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC))
		mover := testutil.CreateTestUser(t, tc.DB, models.RoleClient, tc.Company)
		token := tc.TokenFor(t, mover)

		mover.CompanyID = &globex.ID
		require.NoError(t, tc.Stores.Users.Update(testutil.TestContext(t), mover))

		req := testutil.AuthenticatedRequest(t, "GET", "/companies/my_company", nil, token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp dto.CompanyResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, globex.ID, resp.ID)
	})
}
