package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"eaiser/internal/auth"
	"eaiser/internal/config"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type stubVerifier struct {
	ident auth.Identity
	err   error
}

func (s *stubVerifier) Verify(ctx context.Context, token string) (auth.Identity, error) {
	if s.err != nil {
		return auth.Identity{}, s.err
	}
	return s.ident, nil
}

type testApp struct {
	router http.Handler
	db     *gorm.DB
	jwt    *auth.JWT
	google *stubVerifier
}

func newTestApp(t *testing.T, dsn string) *testApp {
	t.Helper()
	if dsn == "" {
		dsn = fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	}
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(&auth.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	jwtSvc, err := auth.NewJWT("test-secret")
	if err != nil {
		t.Fatalf("NewJWT error: %v", err)
	}
	google := &stubVerifier{}
	svc := &auth.Service{Store: &auth.GormStore{DB: gdb}, JWT: jwtSvc, Verifier: google}

	return &testApp{
		router: NewRouter(config.Config{}, svc, jwtSvc),
		db:     gdb,
		jwt:    jwtSvc,
		google: google,
	}
}

func (a *testApp) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return out
}

func TestHealthRoutes(t *testing.T) {
	app := newTestApp(t, "")

	rr := app.do(t, http.MethodGet, "/", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /: got %d", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["ok"] != true {
		t.Fatalf("unexpected banner: %v", body)
	}

	rr = app.do(t, http.MethodGet, "/health", nil, nil)
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("GET /health: got %d %q", rr.Code, rr.Body.String())
	}
}

func TestSignupEndpoint(t *testing.T) {
	app := newTestApp(t, "")

	rr := app.do(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"fullName": "Alice", "email": "alice@example.com", "password": "secret123",
	}, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("signup: got %d body=%s", rr.Code, rr.Body.String())
	}
	if decodeBody(t, rr)["message"] != "User created" {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
	// no token on signup
	if strings.Contains(rr.Body.String(), "token") {
		t.Fatalf("signup response leaked a token: %s", rr.Body.String())
	}

	// missing field
	rr = app.do(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"email": "bob@example.com", "password": "secret123",
	}, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing field: got %d", rr.Code)
	}

	// duplicate, different case
	rr = app.do(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"fullName": "Mallory", "email": "ALICE@example.com", "password": "other",
	}, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("duplicate: got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestLoginEndpoint(t *testing.T) {
	app := newTestApp(t, "")

	app.do(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"fullName": "Alice", "email": "alice@example.com", "password": "secret123",
	}, nil)

	rr := app.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "Alice@Example.com", "password": "secret123",
	}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("login: got %d body=%s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("no token in response: %s", rr.Body.String())
	}
	user, _ := body["user"].(map[string]any)
	if user["email"] != "alice@example.com" || user["fullName"] != "Alice" {
		t.Fatalf("unexpected user: %v", user)
	}
	if _, leaked := user["passwordHash"]; leaked {
		t.Fatal("password hash leaked in response")
	}

	// wrong password and unknown email are identical failures
	wrongPw := app.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "alice@example.com", "password": "nope",
	}, nil)
	noUser := app.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "ghost@example.com", "password": "nope",
	}, nil)
	if wrongPw.Code != http.StatusBadRequest || noUser.Code != http.StatusBadRequest {
		t.Fatalf("expected 400/400, got %d/%d", wrongPw.Code, noUser.Code)
	}
	if wrongPw.Body.String() != noUser.Body.String() {
		t.Fatalf("failure bodies differ: %q vs %q", wrongPw.Body.String(), noUser.Body.String())
	}
}

func TestGoogleEndpoint(t *testing.T) {
	app := newTestApp(t, "")
	app.google.ident = auth.Identity{Email: "fed@example.com", FullName: "Fed User"}

	rr := app.do(t, http.MethodPost, "/api/auth/google", map[string]string{"idToken": "provider-token"}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("google: got %d body=%s", rr.Code, rr.Body.String())
	}
	if token, _ := decodeBody(t, rr)["token"].(string); token == "" {
		t.Fatalf("no token: %s", rr.Body.String())
	}

	// same identity again does not create a second account
	rr = app.do(t, http.MethodPost, "/api/auth/google", map[string]string{"idToken": "provider-token"}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("google repeat: got %d", rr.Code)
	}
	var count int64
	if err := app.db.Model(&auth.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one user, got %d", count)
	}

	// missing token
	rr = app.do(t, http.MethodPost, "/api/auth/google", map[string]string{}, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing idToken: got %d", rr.Code)
	}

	// provider rejection
	app.google.err = auth.ErrInvalidProviderToken
	rr = app.do(t, http.MethodPost, "/api/auth/google", map[string]string{"idToken": "bad"}, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("invalid provider token: got %d", rr.Code)
	}

	// provider identity without an email claim
	app.google.err = auth.ErrMissingEmail
	rr = app.do(t, http.MethodPost, "/api/auth/google", map[string]string{"idToken": "no-email"}, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing email claim: got %d", rr.Code)
	}
}

func TestMeEndpoint(t *testing.T) {
	app := newTestApp(t, "")

	app.do(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"fullName": "Alice", "email": "alice@example.com", "password": "secret123",
	}, nil)
	login := app.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "alice@example.com", "password": "secret123",
	}, nil)
	token, _ := decodeBody(t, login)["token"].(string)

	// no header
	rr := app.do(t, http.MethodGet, "/api/auth/me", nil, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("no header: got %d", rr.Code)
	}

	// garbage token
	rr = app.do(t, http.MethodGet, "/api/auth/me", nil, map[string]string{"Authorization": "Bearer junk"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: got %d", rr.Code)
	}

	// valid token
	rr = app.do(t, http.MethodGet, "/api/auth/me", nil, map[string]string{"Authorization": "Bearer " + token})
	if rr.Code != http.StatusOK {
		t.Fatalf("me: got %d body=%s", rr.Code, rr.Body.String())
	}
	user, _ := decodeBody(t, rr)["user"].(map[string]any)
	if user["email"] != "alice@example.com" {
		t.Fatalf("unexpected user: %v", user)
	}

	// valid token, record gone
	if err := app.db.Where("email = ?", "alice@example.com").Delete(&auth.User{}).Error; err != nil {
		t.Fatalf("delete user: %v", err)
	}
	rr = app.do(t, http.MethodGet, "/api/auth/me", nil, map[string]string{"Authorization": "Bearer " + token})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("deleted subject: got %d", rr.Code)
	}
}

// Two simultaneous signups for the same email through the full HTTP
// stack: exactly one 201, the other 400.
func TestSignup_ConcurrentDuplicate(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "app.db") + "?_busy_timeout=5000"
	app := newTestApp(t, dsn)

	codes := make([]int, 2)
	var wg sync.WaitGroup
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rr := app.do(t, http.MethodPost, "/api/auth/signup", map[string]string{
				"fullName": "Racer", "email": "race@example.com", "password": "pw123456",
			}, nil)
			codes[i] = rr.Code
		}(i)
	}
	wg.Wait()

	var created, rejected int
	for _, c := range codes {
		switch c {
		case http.StatusCreated:
			created++
		case http.StatusBadRequest:
			rejected++
		default:
			t.Fatalf("unexpected status %d", c)
		}
	}
	if created != 1 || rejected != 1 {
		t.Fatalf("expected one 201 and one 400, got %v", codes)
	}

	var count int64
	if err := app.db.Model(&auth.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one record, got %d", count)
	}
}
