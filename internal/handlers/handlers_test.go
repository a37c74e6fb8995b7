package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"kodbank/internal/middleware"
	"kodbank/internal/models"
	"kodbank/internal/services"
	"kodbank/internal/storage"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// In-memory stores emulating the MySQL layer, including the uniqueness
// constraint and the user→token delete cascade.

type memTokenStore struct {
	tokens []models.UserToken
}

func (m *memTokenStore) Save(_ context.Context, token string, uid int, expiry time.Time) error {
	m.tokens = append(m.tokens, models.UserToken{TID: len(m.tokens) + 1, Token: token, UID: uid, Expiry: expiry})
	return nil
}

func (m *memTokenStore) DeleteExpired(_ context.Context, before time.Time, limit int) (int64, error) {
	var kept []models.UserToken
	var removed int64
	for _, tok := range m.tokens {
		if removed < int64(limit) && tok.Expiry.Before(before) {
			removed++
			continue
		}
		kept = append(kept, tok)
	}
	m.tokens = kept
	return removed, nil
}

func (m *memTokenStore) countForUser(uid int) int {
	count := 0
	for _, tok := range m.tokens {
		if tok.UID == uid {
			count++
		}
	}
	return count
}

type memUserStore struct {
	users  map[int]*models.User
	nextID int
	tokens *memTokenStore
}

func newMemUserStore(tokens *memTokenStore) *memUserStore {
	return &memUserStore{users: make(map[int]*models.User), nextID: 1, tokens: tokens}
}

func (m *memUserStore) Create(_ context.Context, user *models.User) (int, error) {
	for _, existing := range m.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return 0, storage.ErrDuplicateIdentity
		}
	}
	stored := *user
	stored.UID = m.nextID
	m.nextID++
	m.users[stored.UID] = &stored
	return stored.UID, nil
}

func (m *memUserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	for _, user := range m.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memUserStore) FindBalance(_ context.Context, username string) (string, error) {
	user, err := m.FindByUsername(context.Background(), username)
	if err != nil {
		return "", err
	}
	return user.Balance, nil
}

func (m *memUserStore) Delete(_ context.Context, uid int) error {
	if _, ok := m.users[uid]; !ok {
		return storage.ErrNotFound
	}
	delete(m.users, uid)
	var kept []models.UserToken
	for _, tok := range m.tokens.tokens {
		if tok.UID != uid {
			kept = append(kept, tok)
		}
	}
	m.tokens.tokens = kept
	return nil
}

type testEnv struct {
	server     *httptest.Server
	userStore  *memUserStore
	tokenStore *memTokenStore
	userSvc    *services.UserService
	tokenSvc   *services.TokenService
}

func newTestEnv(t *testing.T, ttl time.Duration) *testEnv {
	t.Helper()

	logger := zerolog.Nop()
	tokenStore := &memTokenStore{}
	userStore := newMemUserStore(tokenStore)

	hasher := services.NewPasswordHasher(10)
	userSvc := services.NewUserService(userStore, hasher, logger)
	tokenSvc := services.NewTokenService("test-secret", ttl, tokenStore, logger)

	authHandler := NewAuthHandler(userSvc, tokenSvc, false, logger)
	balanceHandler := NewBalanceHandler(userSvc, logger)
	userHandler := NewUserHandler(userSvc, logger)

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/login", authHandler.Login).Methods("POST")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Authentication(tokenSvc, logger))
	protected.HandleFunc("/balance", balanceHandler.GetBalance).Methods("GET")
	protected.HandleFunc("/users/{id}", userHandler.DeleteUser).Methods("DELETE")

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return &testEnv{
		server:     server,
		userStore:  userStore,
		tokenStore: tokenStore,
		userSvc:    userSvc,
		tokenSvc:   tokenSvc,
	}
}

func (e *testEnv) postJSON(t *testing.T, path string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	resp, err := http.Post(e.server.URL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func (e *testEnv) getBalance(t *testing.T, cookie *http.Cookie) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.server.URL+"/api/balance", nil)
	if err != nil {
		t.Fatalf("build balance request: %v", err)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/balance: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "token" {
			return cookie
		}
	}
	return nil
}

func TestRegisterLoginBalanceFlow(t *testing.T) {
	env := newTestEnv(t, time.Hour)

	resp := env.postJSON(t, "/api/register", map[string]string{
		"username": "alice",
		"email":    "a@x.com",
		"password": "Secr3t!",
		"phone":    "555",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d", resp.StatusCode)
	}
	var registered models.RegisterResponse
	decodeBody(t, resp, &registered)
	if registered.UserID == 0 {
		t.Fatal("register response missing userId")
	}

	resp = env.postJSON(t, "/api/login", map[string]string{
		"username": "alice",
		"password": "Secr3t!",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	cookie := sessionCookie(resp)
	if cookie == nil {
		t.Fatal("login did not set the token cookie")
	}
	if !cookie.HttpOnly {
		t.Error("token cookie must be HttpOnly")
	}
	var loggedIn models.LoginResponse
	decodeBody(t, resp, &loggedIn)
	if loggedIn.User.Role != "Customer" {
		t.Errorf("user.role = %q, want Customer", loggedIn.User.Role)
	}
	if loggedIn.User.UID != registered.UserID {
		t.Errorf("login uid %d does not match registered id %d", loggedIn.User.UID, registered.UserID)
	}

	resp = env.getBalance(t, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("balance status = %d", resp.StatusCode)
	}
	var balance models.BalanceResponse
	decodeBody(t, resp, &balance)
	if balance.Balance != "100000.00" {
		t.Errorf("balance = %q, want 100000.00", balance.Balance)
	}
}

func TestRegisterRejectsMissingFieldsAndDuplicates(t *testing.T) {
	env := newTestEnv(t, time.Hour)

	resp := env.postJSON(t, "/api/register", map[string]string{"username": "alice"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing fields: status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()

	first := map[string]string{"username": "alice", "email": "a@x.com", "password": "p"}
	resp = env.postJSON(t, "/api/register", first)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first register status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	dup := map[string]string{"username": "alice", "email": "other@x.com", "password": "q"}
	resp = env.postJSON(t, "/api/register", dup)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("duplicate register: status = %d, want 400", resp.StatusCode)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if body["message"] != "Username or Email already exists" {
		t.Errorf("unexpected duplicate message %q", body["message"])
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t, time.Hour)

	resp := env.postJSON(t, "/api/register", map[string]string{
		"username": "alice", "email": "a@x.com", "password": "Secr3t!",
	})
	resp.Body.Close()

	cases := []map[string]string{
		{"username": "alice", "password": "wrong"},
		{"username": "nobody", "password": "wrong"},
	}
	for _, payload := range cases {
		resp := env.postJSON(t, "/api/login", payload)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("login %v: status = %d, want 401", payload, resp.StatusCode)
		}
		var body map[string]string
		decodeBody(t, resp, &body)
		if body["message"] != "Invalid username or password" {
			t.Errorf("login %v: message %q leaks failure cause", payload, body["message"])
		}
	}

	resp = env.postJSON(t, "/api/login", map[string]string{"username": "alice"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing password: status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestBalanceRequiresValidSession(t *testing.T) {
	env := newTestEnv(t, time.Hour)

	resp := env.getBalance(t, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no cookie: status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()

	resp = env.postJSON(t, "/api/register", map[string]string{
		"username": "alice", "email": "a@x.com", "password": "Secr3t!",
	})
	resp.Body.Close()
	resp = env.postJSON(t, "/api/login", map[string]string{
		"username": "alice", "password": "Secr3t!",
	})
	cookie := sessionCookie(resp)
	resp.Body.Close()
	if cookie == nil {
		t.Fatal("login did not set the token cookie")
	}

	parts := strings.Split(cookie.Value, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", cookie.Value)
	}
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := &http.Cookie{Name: "token", Value: parts[0] + "." + parts[1] + "." + string(sig)}

	resp = env.getBalance(t, tampered)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("tampered cookie: status = %d, want 403", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestBalanceRejectsExpiredSession(t *testing.T) {
	env := newTestEnv(t, -time.Second)

	resp := env.postJSON(t, "/api/register", map[string]string{
		"username": "alice", "email": "a@x.com", "password": "Secr3t!",
	})
	resp.Body.Close()
	resp = env.postJSON(t, "/api/login", map[string]string{
		"username": "alice", "password": "Secr3t!",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	cookie := sessionCookie(resp)
	resp.Body.Close()

	resp = env.getBalance(t, cookie)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expired cookie: status = %d, want 403", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestBalanceForDeletedUser(t *testing.T) {
	env := newTestEnv(t, time.Hour)

	resp := env.postJSON(t, "/api/register", map[string]string{
		"username": "alice", "email": "a@x.com", "password": "Secr3t!",
	})
	var registered models.RegisterResponse
	decodeBody(t, resp, &registered)

	resp = env.postJSON(t, "/api/login", map[string]string{
		"username": "alice", "password": "Secr3t!",
	})
	cookie := sessionCookie(resp)
	resp.Body.Close()

	if err := env.userStore.Delete(context.Background(), registered.UserID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	resp = env.getBalance(t, cookie)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("deleted user balance: status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestDeleteUserCascadesTokens(t *testing.T) {
	env := newTestEnv(t, time.Hour)

	// Seed an admin directly; registration can only produce Customers.
	hasher := services.NewPasswordHasher(10)
	adminHash, err := hasher.Hash("Adm1n!")
	if err != nil {
		t.Fatalf("hash admin password: %v", err)
	}
	adminID, err := env.userStore.Create(context.Background(), &models.User{
		Username:     "root",
		Email:        "root@x.com",
		PasswordHash: adminHash,
		Role:         string(models.RoleAdmin),
		Balance:      models.DefaultBalance,
	})
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	resp := env.postJSON(t, "/api/register", map[string]string{
		"username": "alice", "email": "a@x.com", "password": "Secr3t!",
	})
	var registered models.RegisterResponse
	decodeBody(t, resp, &registered)

	// Two logins leave two live session records for alice.
	for i := 0; i < 2; i++ {
		resp = env.postJSON(t, "/api/login", map[string]string{
			"username": "alice", "password": "Secr3t!",
		})
		resp.Body.Close()
	}
	if got := env.tokenStore.countForUser(registered.UserID); got != 2 {
		t.Fatalf("expected 2 session records for alice, got %d", got)
	}

	resp = env.postJSON(t, "/api/login", map[string]string{
		"username": "root", "password": "Adm1n!",
	})
	adminCookie := sessionCookie(resp)
	resp.Body.Close()
	if adminCookie == nil {
		t.Fatal("admin login did not set the token cookie")
	}

	// A Customer must not be able to delete.
	resp = env.postJSON(t, "/api/login", map[string]string{
		"username": "alice", "password": "Secr3t!",
	})
	aliceCookie := sessionCookie(resp)
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodDelete, env.server.URL+"/api/users/"+strconv.Itoa(registered.UserID), nil)
	req.AddCookie(aliceCookie)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete request: %v", err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("customer delete: status = %d, want 403", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ = http.NewRequest(http.MethodDelete, env.server.URL+"/api/users/"+strconv.Itoa(registered.UserID), nil)
	req.AddCookie(adminCookie)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin delete: status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	if got := env.tokenStore.countForUser(registered.UserID); got != 0 {
		t.Errorf("expected no session records after cascade, got %d", got)
	}
	if got := env.tokenStore.countForUser(adminID); got == 0 {
		t.Error("cascade must only remove the deleted user's tokens")
	}
}
