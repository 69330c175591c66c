package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/fatali-fataliyev/expense_tracker/internal/auth"
	"github.com/fatali-fataliyev/expense_tracker/internal/storage"
	"github.com/fatali-fataliyev/expense_tracker/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
}

func newTestServer(t *testing.T, requireOwner bool) *testServer {
	t.Helper()
	tr := tracker.NewTracker(storage.NewInMemoryStorage(), auth.NewHasher(bcrypt.MinCost))
	api := NewApi(&tr, requireOwner)
	return &testServer{t: t, handler: NewRouter(api, RouterOptions{})}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(s.t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) register(email, password string) int64 {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/register", map[string]string{"email": email, "password": password, "name": "Alice"})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[RegisterResponse](s.t, rec).UserID
}

func TestHealthAndTraceID(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Backend is running!", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(TraceIDHeader))

	rec = s.do(http.MethodGet, "/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegister(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(http.MethodPost, "/register", map[string]string{"email": "a@example.com", "password": "secret"})
	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[RegisterResponse](t, rec)
	assert.Equal(t, "User registered successfully", resp.Message)
	assert.Greater(t, resp.UserID, int64(0))

	tests := []struct {
		name    string
		body    any
		message string
	}{
		{"duplicate email", map[string]string{"email": "a@example.com", "password": "other"}, "Email already in use."},
		{"missing password", map[string]string{"email": "b@example.com"}, "Email and password are required"},
		{"missing email", map[string]string{"password": "secret"}, "Email and password are required"},
		{"empty body", nil, "Email and password are required"},
		{"malformed json", "{", "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/register", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.message, decode[MessageResponse](t, rec).Message)
		})
	}

	rec = s.do(http.MethodPost, "/login", map[string]string{"email": "b@example.com", "password": "secret"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/login", map[string]string{"email": "a@example.com", "password": "secret"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, resp.UserID, decode[LoginResponse](t, rec).User.ID)

	rec = s.do(http.MethodPost, "/login", map[string]string{"email": "a@example.com", "password": "other"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t, false)
	id := s.register("a@example.com", "secret")

	rec := s.do(http.MethodPost, "/login", map[string]string{"email": "a@example.com", "password": "secret"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[LoginResponse](t, rec)
	assert.Equal(t, "Login successful", resp.Message)
	assert.Equal(t, LoginUser{ID: id, Email: "a@example.com"}, resp.User)
	assert.NotContains(t, rec.Body.String(), "secret")
	assert.NotContains(t, rec.Body.String(), "$2a$")

	wrongPassword := s.do(http.MethodPost, "/login", map[string]string{"email": "a@example.com", "password": "nope"})
	unknownA := s.do(http.MethodPost, "/login", map[string]string{"email": "x@example.com", "password": "one"})
	unknownB := s.do(http.MethodPost, "/login", map[string]string{"email": "x@example.com", "password": "two"})

	for _, rec := range []*httptest.ResponseRecorder{wrongPassword, unknownA, unknownB} {
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid email or password", decode[MessageResponse](t, rec).Message)
	}
	assert.Equal(t, unknownA.Body.String(), unknownB.Body.String())
	assert.Equal(t, unknownA.Body.String(), wrongPassword.Body.String())

	rec = s.do(http.MethodPost, "/login", map[string]string{"email": "a@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExpenses(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(http.MethodGet, "/expenses?user_id=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = s.do(http.MethodPost, "/expenses", map[string]any{
		"user_id":         1,
		"expense_name":    "Lunch",
		"amount":          12.5,
		"expense_done_by": "Alice",
		"category":        "Food",
		"expense_date":    "2024-03-01",
		"payment_mode":    "Card",
		"remark":          "team lunch",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	first := decode[ExpenseCreatedResponse](t, rec)
	assert.Equal(t, "Expense added successfully", first.Message)

	rec = s.do(http.MethodPost, "/expenses", `{"user_id": "1", "expense_name": "Bus", "amount": "2.75"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	second := decode[ExpenseCreatedResponse](t, rec)

	rec = s.do(http.MethodGet, "/expenses?user_id=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]ExpenseItem](t, rec)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)
	assert.Equal(t, 2.75, *items[0].Amount)
	assert.Equal(t, first.ID, items[1].ID)
	assert.Equal(t, "Lunch", *items[1].Name)
	assert.Equal(t, "2024-03-01", *items[1].Date)
	assert.Equal(t, int64(1), items[1].UserID)

	rec = s.do(http.MethodGet, "/expenses?user_id=2", nil)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestExpenseValidation(t *testing.T) {
	s := newTestServer(t, false)

	tests := []struct {
		name    string
		method  string
		path    string
		body    any
		message string
	}{
		{"list without user", http.MethodGet, "/expenses", nil, "user_id is required"},
		{"list with non numeric user", http.MethodGet, "/expenses?user_id=abc", nil, "user_id must be a number"},
		{"create without user", http.MethodPost, "/expenses", map[string]string{"expense_name": "Lunch"}, "user_id is required"},
		{"create with non numeric user", http.MethodPost, "/expenses", `{"user_id": "abc"}`, "user_id must be a number"},
		{"create with bad amount", http.MethodPost, "/expenses", `{"user_id": 1, "amount": "lots"}`, "amount must be a number"},
		{"create with infinite amount", http.MethodPost, "/expenses", `{"user_id": 1, "amount": "Infinity"}`, "amount must be a number"},
		{"create with short infinite amount", http.MethodPost, "/expenses", `{"user_id": 1, "amount": "-inf"}`, "amount must be a number"},
		{"create with NaN amount", http.MethodPost, "/expenses", `{"user_id": 1, "amount": "NaN"}`, "amount must be a number"},
		{"delete with bad id", http.MethodDelete, "/expenses/abc", nil, "Invalid id"},
		{"delete with bad owner", http.MethodDelete, "/expenses/1?user_id=x", nil, "user_id must be a number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.message, decode[MessageResponse](t, rec).Message)
		})
	}
}

func TestDeleteExpense(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(http.MethodPost, "/expenses", map[string]any{"user_id": 1, "expense_name": "Lunch"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[ExpenseCreatedResponse](t, rec).ID

	for i := 0; i < 2; i++ {
		rec = s.do(http.MethodDelete, fmt.Sprintf("/expenses/%d", id), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Expense deleted successfully", decode[MessageResponse](t, rec).Message)
	}

	rec = s.do(http.MethodGet, "/expenses?user_id=1", nil)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestDeleteExpenseRequiresOwner(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.do(http.MethodPost, "/expenses", map[string]any{"user_id": 1, "expense_name": "Lunch"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[ExpenseCreatedResponse](t, rec).ID

	rec = s.do(http.MethodDelete, fmt.Sprintf("/expenses/%d", id), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodDelete, fmt.Sprintf("/expenses/%d?user_id=2", id), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodGet, "/expenses?user_id=1", nil)
	assert.Len(t, decode[[]ExpenseItem](t, rec), 1)

	rec = s.do(http.MethodDelete, fmt.Sprintf("/expenses/%d?user_id=1", id), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodGet, "/expenses?user_id=1", nil)
	assert.Empty(t, decode[[]ExpenseItem](t, rec))
}

func TestProfile(t *testing.T) {
	s := newTestServer(t, false)
	id := s.register("a@example.com", "secret")
	other := s.register("b@example.com", "secret")
	path := fmt.Sprintf("/api/profile/%d", id)

	rec := s.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"name":"Alice","email":"a@example.com","phone":null,"bio":null,"darkMode":false,"notifications":true}`, rec.Body.String())

	rec = s.do(http.MethodPut, path, map[string]any{"phone": "555-0100", "darkMode": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Profile updated successfully", decode[MessageResponse](t, rec).Message)

	rec = s.do(http.MethodPut, path, `{"bio": "hello", "phone": null}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, path, nil)
	profile := decode[ProfileResponse](t, rec)
	assert.Equal(t, "a@example.com", profile.Email)
	assert.Equal(t, "555-0100", *profile.Phone)
	assert.Equal(t, "hello", *profile.Bio)
	assert.True(t, profile.DarkMode)
	assert.True(t, profile.Notifications)

	rec = s.do(http.MethodPut, path, map[string]any{"bio": ""})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodGet, path, nil)
	assert.Nil(t, decode[ProfileResponse](t, rec).Bio)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"unknown user read", http.MethodGet, "/api/profile/999", nil, http.StatusNotFound},
		{"unknown user update", http.MethodPut, "/api/profile/999", map[string]any{"phone": "1"}, http.StatusNotFound},
		{"bad id", http.MethodGet, "/api/profile/abc", nil, http.StatusBadRequest},
		{"no fields", http.MethodPut, path, map[string]any{}, http.StatusBadRequest},
		{"empty email", http.MethodPut, path, map[string]any{"email": ""}, http.StatusBadRequest},
		{"email taken", http.MethodPut, fmt.Sprintf("/api/profile/%d", other), map[string]any{"email": "a@example.com"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, decode[MessageResponse](t, rec).Message)
		})
	}
}

func TestChangePassword(t *testing.T) {
	s := newTestServer(t, false)
	id := s.register("a@example.com", "secret")
	path := fmt.Sprintf("/api/profile/%d/change-password", id)

	rec := s.do(http.MethodPut, path, map[string]string{"oldPassword": "wrong", "newPassword": "fresh"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Current password incorrect", decode[MessageResponse](t, rec).Message)

	rec = s.do(http.MethodPut, "/api/profile/999/change-password", map[string]string{"oldPassword": "secret", "newPassword": "fresh"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPut, path, map[string]string{"oldPassword": "secret"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, path, map[string]string{"oldPassword": "secret", "newPassword": "fresh"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password updated successfully", decode[MessageResponse](t, rec).Message)

	rec = s.do(http.MethodPost, "/login", map[string]string{"email": "a@example.com", "password": "fresh"})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodPost, "/login", map[string]string{"email": "a@example.com", "password": "secret"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEcho(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(http.MethodPost, "/test", map[string]any{"hello": "world"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"POST received","body":{"hello":"world"}}`, rec.Body.String())

	form := url.Values{"a": {"1"}, "b": {"2", "3"}}
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"POST received","body":{"a":"1","b":["2","3"]}}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodOptions, "/expenses", nil)
	req.Header.Set("Origin", "http://localhost:8100")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Less(t, rec.Code, 300)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLoggerRecoversPanics(t *testing.T) {
	handler := requestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Server error"}`, rec.Body.String())
}
