package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hugh/go-companies/internal/auth"
	"github.com/hugh/go-companies/internal/database/models"
	"github.com/hugh/go-companies/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestPassword is the plaintext password of every user created here.
const TestPassword = "testpassword123"

var seq atomic.Int64

func next() int64 {
	return seq.Add(1)
}

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// Every connection to :memory: is a separate database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.Company{},
		&models.User{},
		&models.Post{},
		&models.AuditEvent{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// CreateTestCompany creates a company founded on the given date
func CreateTestCompany(t *testing.T, db *gorm.DB, name string, founded time.Time) *models.Company {
	t.Helper()

	company := &models.Company{
		Name:        name,
		URL:         "https://example.com",
		Address:     "1 Test Street",
		DateCreated: founded,
	}

	if err := db.Create(company).Error; err != nil {
		t.Fatalf("failed to create test company: %v", err)
	}

	return company
}

// CreateTestUser creates a user with the given role, optionally attached to company
func CreateTestUser(t *testing.T, db *gorm.DB, role models.Role, company *models.Company) *models.User {
	t.Helper()
	return createUser(t, db, fmt.Sprintf("%s-%d@example.com", role, next()), role, company)
}

func createUser(t *testing.T, db *gorm.DB, email string, role models.Role, company *models.Company) *models.User {
	t.Helper()

	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     string(role),
		UserType:     role,
		IsActive:     true,
		IsSuperAdmin: role == models.RoleSuperAdmin,
	}
	if company != nil {
		user.CompanyID = &company.ID
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateTestPost creates a post owned by user
func CreateTestPost(t *testing.T, db *gorm.DB, user *models.User, title string) *models.Post {
	t.Helper()

	post := &models.Post{
		Title:  title,
		UserID: user.ID,
		Text:   "text of " + title,
		Topic:  "general",
	}

	if err := db.Create(post).Error; err != nil {
		t.Fatalf("failed to create test post: %v", err)
	}

	return post
}

// CreateTestJWTService creates a JWT service for testing
func CreateTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key-for-testing", 24*time.Hour)
}

// GenerateTestToken generates a valid JWT token for the given user
func GenerateTestToken(t *testing.T, jwtService *auth.JWTService, user *models.User) string {
	t.Helper()

	token, err := jwtService.GenerateToken(user.ID, user.Email, user.UserType)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}

	return token
}

// AuthenticatedRequest creates an HTTP request with authentication
func AuthenticatedRequest(t *testing.T, method, path string, body interface{}, token string) *http.Request {
	t.Helper()

	reqBody := bytes.NewBuffer(nil)
	switch b := body.(type) {
	case nil:
	case string:
		reqBody.WriteString(b)
	default:
		jsonData, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody.Write(jsonData)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// UnauthenticatedRequest creates an HTTP request without authentication
func UnauthenticatedRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	return AuthenticatedRequest(t, method, path, body, "")
}

// AssertStatus checks if the response has the expected status code
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, rr.Code, rr.Body.String())
	}
}

// ParseJSONResponse parses the response body into the given struct
func ParseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, rr.Body.String())
	}
}

// TestContext creates a context with a timeout for tests
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestSetup holds all the common test dependencies
type TestSetup struct {
	DB          *gorm.DB
	JWTService  *auth.JWTService
	AuthService *auth.Service
	Stores      *store.Stores
	Company     *models.Company

	SuperAdmin *models.User
	Admin      *models.User
	Client     *models.User

	SuperAdminToken string
	AdminToken      string
	ClientToken     string
}

// NewTestContext creates a seeded database with one company and one user per
// role. The client belongs to the company; the admins do not.
func NewTestContext(t *testing.T) *TestSetup {
	t.Helper()

	db := SetupTestDB(t)
	jwtService := CreateTestJWTService()
	company := CreateTestCompany(t, db, "Test Company", time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC))

	superAdmin := createUser(t, db, "super_admin@email.com", models.RoleSuperAdmin, nil)
	admin := createUser(t, db, "admin@email.com", models.RoleAdmin, nil)
	client := createUser(t, db, "client@email.com", models.RoleClient, company)
	stores := store.New(db, nil)

	return &TestSetup{
		DB:              db,
		JWTService:      jwtService,
		AuthService:     auth.NewService(stores.Users, jwtService),
		Stores:          stores,
		Company:         company,
		SuperAdmin:      superAdmin,
		Admin:           admin,
		Client:          client,
		SuperAdminToken: GenerateTestToken(t, jwtService, superAdmin),
		AdminToken:      GenerateTestToken(t, jwtService, admin),
		ClientToken:     GenerateTestToken(t, jwtService, client),
	}
}

// TokenFor returns a token for an arbitrary user
func (ts *TestSetup) TokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	return GenerateTestToken(t, ts.JWTService, user)
}

// Cleanup closes the test database
func (ts *TestSetup) Cleanup() {
	if ts.DB != nil {
		sqlDB, err := ts.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}
