package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convlint/convlint/internal/ir"
	"github.com/convlint/convlint/internal/rules"
	"github.com/convlint/convlint/internal/security"
	"github.com/convlint/convlint/internal/storage"
)

type fakeStore struct {
	runs    map[string]ir.Run
	waivers []storage.Waiver
}

func (f *fakeStore) ListRuns(limit, offset int) ([]storage.RunRow, error) {
	var out []storage.RunRow
	for id, r := range f.runs {
		out = append(out, storage.RunRow{ID: id, StartedAt: r.StartedAt, Findings: len(r.Findings)})
	}
	return out, nil
}

func (f *fakeStore) LoadRun(id string) (ir.Run, error) {
	r, ok := f.runs[id]
	if !ok {
		return ir.Run{}, errNotFound
	}
	return r, nil
}

func (f *fakeStore) LoadLatestRun() (ir.Run, error) {
	var latest ir.Run
	found := false
	for _, r := range f.runs {
		if !found || r.StartedAt.After(latest.StartedAt) {
			latest = r
			found = true
		}
	}
	if !found {
		return ir.Run{}, errNotFound
	}
	return latest, nil
}

func (f *fakeStore) HasRun(id string) (bool, error) {
	_, ok := f.runs[id]
	return ok, nil
}

func (f *fakeStore) ListFindings(runID, minSeverity string) ([]ir.Finding, error) {
	r, ok := f.runs[runID]
	if !ok {
		return nil, errNotFound
	}
	return r.Findings, nil
}

func (f *fakeStore) ListWaivers(activeOnly bool) ([]storage.Waiver, error) { return f.waivers, nil }

func (f *fakeStore) CreateWaiver(ruleID, file, unit, pattern, reason, createdBy string, expires time.Time) (int64, error) {
	f.waivers = append(f.waivers, storage.Waiver{
		ID: int64(len(f.waivers) + 1), RuleID: ruleID, File: file, Unit: unit,
		PatternSub: pattern, Reason: reason, CreatedBy: createdBy, ExpiresAt: expires,
	})
	return int64(len(f.waivers)), nil
}

func (f *fakeStore) RevokeWaiver(id int64, by string) error { return nil }

type fakeUsers struct {
	hash     string
	sessions map[string]storage.User
}

func (f *fakeUsers) GetUserByUsername(name string) (storage.User, string, error) {
	if name != "alex" {
		return storage.User{}, "", errNotFound
	}
	return storage.User{ID: 1, Username: "alex", Role: "admin"}, f.hash, nil
}

func (f *fakeUsers) CreateSession(uid int64, token string, exp time.Time) error {
	f.sessions[token] = storage.User{ID: uid, Username: "alex", Role: "admin"}
	return nil
}

func (f *fakeUsers) GetSession(token string) (storage.User, error) {
	u, ok := f.sessions[token]
	if !ok {
		return storage.User{}, errNotFound
	}
	return u, nil
}

func (f *fakeUsers) DeleteSession(token string) error {
	delete(f.sessions, token)
	return nil
}

func (f *fakeUsers) PurgeExpiredSessions() (int64, error) { return 0, nil }

func (f *fakeUsers) LogAudit(username, action, resource string, meta map[string]any) error {
	return nil
}

var errNotFound = &notFoundErr{}

type notFoundErr struct{}

func (*notFoundErr) Error() string { return "not found" }

func newTestServer(t *testing.T) (*Server, *fakeStore, *fakeUsers) {
	t.Helper()
	hash, err := security.HashPassword("secret")
	require.NoError(t, err)
	store := &fakeStore{runs: map[string]ir.Run{
		"run-1": {
			ID:        "run-1",
			StartedAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
			Findings: []ir.Finding{
				{ID: "F1", RuleID: "ARITY-LIMIT", File: "a.ts", Severity: ir.SeverityWarning},
			},
		},
	}}
	users := &fakeUsers{hash: hash, sessions: map[string]storage.User{}}
	return &Server{
		DB:              store,
		UserStore:       users,
		Registry:        rules.Default(),
		Logger:          zerolog.Nop(),
		SessionDuration: time.Hour,
	}, store, users
}

func TestAPI_HealthAndRuns(t *testing.T) {
	srv, _, _ := newTestServer(t)
	h := srv.Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/run-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var run ir.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, "run-1", run.ID)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/latest", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_ListFindings(t *testing.T) {
	srv, _, _ := newTestServer(t)
	h := srv.Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/run-1/findings", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Items []ir.Finding `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, "ARITY-LIMIT", body.Items[0].RuleID)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/missing/findings", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_RulesInventory(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/rules", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count int `json:"count"`
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.GreaterOrEqual(t, body.Count, 8, "built-in rules should all be listed")
}

func TestAPI_AuthFlow(t *testing.T) {
	srv, _, _ := newTestServer(t)
	h := srv.Routes()

	// waivers require a session
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/waivers", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// bad credentials
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"username":"alex","password":"wrong"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// good credentials set a session cookie
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"username":"alex","password":"secret"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	// session grants access
	req := httptest.NewRequest(http.MethodGet, "/api/v1/waivers", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// admin can create a waiver
	req = httptest.NewRequest(http.MethodPost, "/api/v1/waivers",
		strings.NewReader(`{"rule_id":"MAGIC-NUMBER","reason":"legacy","expires_at":"2030-01-01T00:00:00Z"}`))
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}
