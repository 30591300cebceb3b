package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shiftdesk/pkg/api"
	"shiftdesk/pkg/auth"
	"shiftdesk/pkg/models"
	"shiftdesk/pkg/notify"
	"shiftdesk/pkg/store"
	"shiftdesk/pkg/utils"
)

const testSecret = "test-secret"

type testEnv struct {
	srv   *httptest.Server
	store *store.Store
	token string
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	hash, err := auth.HashPassword("admin123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	admin := models.User{ID: utils.GenID(), Username: "admin", Password: hash, Role: models.RoleAdmin, Name: "Admin"}
	if err := s.SaveUser(admin); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}

	router := api.NewRouter(api.Deps{
		Store:        s,
		Notifier:     notify.New(s, notify.NopSender{}),
		JWTSecret:    testSecret,
		TokenTTL:     time.Hour,
		LoginLimiter: auth.NewLimiterPool(1000, 1000),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	env := &testEnv{srv: srv, store: s}
	env.token = env.login(t, "admin", "admin123")
	return env
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := http.Post(e.srv.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status %d", resp.StatusCode)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return out.Token
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return v
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	e := setup(t)

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, err := http.Post(e.srv.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401; got %d", resp.StatusCode)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e := setup(t)

	resp, err := http.Get(e.srv.URL + "/api/employees")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token; got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, e.srv.URL+"/api/employees", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 with bad token; got %d", resp.StatusCode)
	}
}

func TestVerifyEchoesClaims(t *testing.T) {
	e := setup(t)

	resp := e.do(t, http.MethodGet, "/api/auth/verify", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200; got %d", resp.StatusCode)
	}
	out := decodeBody[map[string]map[string]string](t, resp)
	if out["user"]["username"] != "admin" || out["user"]["role"] != "admin" {
		t.Fatalf("unexpected claims: %v", out)
	}
}

func TestEmployeeLifecycle(t *testing.T) {
	e := setup(t)

	// palette colors are assigned round-robin by creation order
	var created []models.Employee
	for i, name := range []string{"Anna", "Mark"} {
		resp := e.do(t, http.MethodPost, "/api/employees", map[string]string{"name": name})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("create employee status %d", resp.StatusCode)
		}
		emp := decodeBody[models.Employee](t, resp)
		if emp.Color != models.Palette[i] {
			t.Fatalf("expected color %s; got %s", models.Palette[i], emp.Color)
		}
		created = append(created, emp)
	}

	resp := e.do(t, http.MethodGet, "/api/employees", nil)
	emps := decodeBody[[]models.Employee](t, resp)
	if len(emps) != 2 {
		t.Fatalf("expected 2 employees; got %d", len(emps))
	}

	// give the first employee a shift, then delete them and check the cascade
	key := fmt.Sprintf("%s_2024-2-15", created[0].ID)
	resp = e.do(t, http.MethodPost, "/api/shifts", map[string]any{
		"key":  key,
		"data": models.Shift{Type: models.ShiftWork, Hours: 8},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set shift status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = e.do(t, http.MethodDelete, "/api/employees/"+created[0].ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete employee status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = e.do(t, http.MethodGet, "/api/shifts", nil)
	shifts := decodeBody[map[string]models.Shift](t, resp)
	if len(shifts) != 0 {
		t.Fatalf("expected cascade to remove shifts; got %v", shifts)
	}
}

func TestSetShiftValidation(t *testing.T) {
	e := setup(t)

	resp := e.do(t, http.MethodPost, "/api/shifts", map[string]any{"key": "garbage"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed key; got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = e.do(t, http.MethodPost, "/api/shifts", map[string]any{
		"key":  "e1_2024-2-15",
		"data": map[string]any{"type": "night"},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type; got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

// Posting null data removes the record; the day reverts to unfilled.
func TestSetShiftNullDeletes(t *testing.T) {
	e := setup(t)

	key := "e1_2024-2-15"
	resp := e.do(t, http.MethodPost, "/api/shifts", map[string]any{
		"key":  key,
		"data": models.Shift{Type: models.ShiftOff},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set shift status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = e.do(t, http.MethodPost, "/api/shifts", map[string]any{"key": key, "data": nil})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("null delete status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = e.do(t, http.MethodGet, "/api/shifts", nil)
	shifts := decodeBody[map[string]models.Shift](t, resp)
	if _, ok := shifts[key]; ok {
		t.Fatalf("expected %s gone; got %v", key, shifts)
	}
}

func TestUserManagement(t *testing.T) {
	e := setup(t)

	resp := e.do(t, http.MethodPost, "/api/users", map[string]string{
		"username": "viewer1", "password": "pw", "name": "Viewer",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create user status %d", resp.StatusCode)
	}
	u := decodeBody[models.User](t, resp)
	if u.Role != models.RoleViewer {
		t.Fatalf("expected default viewer role; got %s", u.Role)
	}
	if u.Password != "" {
		t.Fatalf("password hash must not be returned")
	}

	// duplicate username
	resp = e.do(t, http.MethodPost, "/api/users", map[string]string{
		"username": "viewer1", "password": "pw", "name": "Viewer",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate; got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// a viewer token must not reach admin routes
	viewerToken := e.login(t, "viewer1", "pw")
	req, _ := http.NewRequest(http.MethodPost, e.srv.URL+"/api/employees", bytes.NewReader([]byte(`{"name":"X"}`)))
	req.Header.Set("Authorization", "Bearer "+viewerToken)
	vresp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("viewer request: %v", err)
	}
	vresp.Body.Close()
	if vresp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for viewer on admin route; got %d", vresp.StatusCode)
	}
}

func TestCannotDeleteOwnAccount(t *testing.T) {
	e := setup(t)

	admin, err := e.store.FindUserByUsername("admin")
	if err != nil {
		t.Fatalf("FindUserByUsername: %v", err)
	}
	resp := e.do(t, http.MethodDelete, "/api/users/"+admin.ID, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for self-delete; got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSettingsMerge(t *testing.T) {
	e := setup(t)

	resp := e.do(t, http.MethodGet, "/api/settings", nil)
	st := decodeBody[map[string]any](t, resp)
	if st["defaultHours"] != float64(10) {
		t.Fatalf("expected default 10; got %v", st["defaultHours"])
	}

	resp = e.do(t, http.MethodPost, "/api/settings", map[string]any{"theme": "dark"})
	merged := decodeBody[map[string]any](t, resp)
	if merged["theme"] != "dark" || merged["defaultHours"] != float64(10) {
		t.Fatalf("expected merged settings; got %v", merged)
	}
}

func TestHealthAndReady(t *testing.T) {
	e := setup(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(e.srv.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s status %d", path, resp.StatusCode)
		}
	}
}
