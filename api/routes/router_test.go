package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	usersvc "github.com/fashionmart/fashionmart-backend/internal/users"
	pkgauth "github.com/fashionmart/fashionmart-backend/pkg/auth"
	"github.com/fashionmart/fashionmart-backend/pkg/config"
	"github.com/fashionmart/fashionmart-backend/pkg/db/models"
	"github.com/fashionmart/fashionmart-backend/pkg/enums"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "router-test-secret", Issuer: "fashionmart", ExpirationMinutes: 15},
	}
}

func newTestRouter(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := conn.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	users, err := usersvc.NewService(usersvc.NewRepository(conn))
	if err != nil {
		t.Fatalf("users service: %v", err)
	}

	router := NewRouter(testConfig(), nil, nil, nil, nil, nil, Services{Users: users})
	return router, conn
}

type memoryIdemStore struct {
	data map[string]string
}

func (m *memoryIdemStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", goredis.Nil
}

func (m *memoryIdemStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	str, _ := value.(string)
	m.data[key] = str
	return nil
}

func (m *memoryIdemStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	m.data[key] = str
	return true, nil
}

func (m *memoryIdemStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (m *memoryIdemStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func mintToken(t *testing.T, userID uuid.UUID, role enums.Role) string {
	t.Helper()
	token, err := pkgauth.NewAccessToken(testConfig().JWT, userID, role)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestRouter_HealthLive(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"success":true`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestRouter_RequiresAuth(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRouter_ProfileRoundTrip(t *testing.T) {
	router, conn := newTestRouter(t)

	user := models.User{
		ID:           uuid.New(),
		Email:        "shopper@example.com",
		PasswordHash: "x",
		FirstName:    "Ada",
		LastName:     "Lin",
		Role:         enums.RoleCustomer,
		IsActive:     true,
	}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, user.ID, enums.RoleCustomer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "shopper@example.com") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), `"password`) {
		t.Fatal("password hash leaked in response")
	}
}

func TestRouter_OrderCreationRequiresIdempotencyKey(t *testing.T) {
	store := &memoryIdemStore{data: make(map[string]string)}
	router := NewRouter(testConfig(), nil, nil, nil, store, nil, Services{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{"items":[]}`))
	req.Header.Set("Authorization", "Bearer "+mintToken(t, uuid.New(), enums.RoleCustomer))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without idempotency key, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Idempotency-Key") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	if len(store.data) != 0 {
		t.Fatalf("expected nothing stored, got %d records", len(store.data))
	}
}

func TestRouter_RoleGates(t *testing.T) {
	router, conn := newTestRouter(t)

	customer := models.User{
		ID:           uuid.New(),
		Email:        "gate@example.com",
		PasswordHash: "x",
		FirstName:    "Gate",
		LastName:     "Check",
		Role:         enums.RoleCustomer,
		IsActive:     true,
	}
	if err := conn.Create(&customer).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/staff/orders/pending", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, customer.ID, enums.RoleCustomer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, customer.ID, enums.RoleCustomer))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
