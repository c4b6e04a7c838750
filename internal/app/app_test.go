package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"job-tracker/internal/config"
	"job-tracker/internal/domain/application"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func testConfig() config.Config {
	return config.Config{
		App:      config.AppConfig{AppName: "job-tracker-test", Environment: "test", StoreBackend: config.StoreMemory},
		Scraper:  config.ScraperConfig{FetchMode: config.FetchHTTP, FetchTimeout: 5 * time.Second, Workers: 2},
		Reminder: config.ReminderConfig{Schedule: "@daily", StaleAfterDays: 7},
		Token:    config.TokenConfig{TTL: time.Hour},
	}
}

func newTestApp(t *testing.T, cfg config.Config) *App {
	t.Helper()
	c, err := NewContainer(context.Background(), cfg, nil, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return New(c)
}

func do(t *testing.T, a *App, method, path, body string, headers ...string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := a.Fiber.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func TestHealth(t *testing.T) {
	a := newTestApp(t, testConfig())
	status, env := do(t, a, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", env.Message)
}

func TestApplicationsLifecycle(t *testing.T) {
	a := newTestApp(t, testConfig())

	status, env := do(t, a, http.MethodPost, "/api/v1/applications",
		`{"company":"Acme","position":"Engineer","skillsText":"Go, Docker ,"}`)
	require.Equal(t, http.StatusCreated, status)
	var rec application.Record
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	assert.Equal(t, application.StatusApplied, rec.Status)
	assert.Equal(t, []string{"Go", "Docker"}, rec.Skills)

	status, env = do(t, a, http.MethodPatch, "/api/v1/applications/"+rec.ID, `{"status":"interview"}`)
	require.Equal(t, http.StatusOK, status)

	status, env = do(t, a, http.MethodPost, "/api/v1/applications/"+rec.ID+"/cycle", "")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	assert.Equal(t, application.StatusOffer, rec.Status)

	status, env = do(t, a, http.MethodGet, "/api/v1/applications/stats", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"total":1,"applied":0,"interview":0,"offer":1}`, string(env.Data))

	status, env = do(t, a, http.MethodGet, "/api/v1/applications?q=acme&status=offer", "")
	require.Equal(t, http.StatusOK, status)
	var list struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 1, list.Total)

	status, _ = do(t, a, http.MethodPatch, "/api/v1/applications/"+rec.ID, `{"status":"ghosted"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, a, http.MethodDelete, "/api/v1/applications/unknown", "")
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = do(t, a, http.MethodPost, "/api/v1/applications/unknown/cycle", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, a, http.MethodDelete, "/api/v1/applications/"+rec.ID, "")
	assert.Equal(t, http.StatusOK, status)
	status, _ = do(t, a, http.MethodGet, "/api/v1/applications/"+rec.ID, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSettingsExportImport(t *testing.T) {
	a := newTestApp(t, testConfig())

	status, env := do(t, a, http.MethodGet, "/api/v1/settings", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"autoCapture":false,"notifications":true}`, string(env.Data))

	status, env = do(t, a, http.MethodPut, "/api/v1/settings", `{"autoCapture":true}`)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"autoCapture":true,"notifications":true}`, string(env.Data))

	status, env = do(t, a, http.MethodPost, "/api/v1/import", `{"applications":[{"id":"1","company":"Acme","position":"Eng","status":"applied","dateApplied":"2024-01-01","url":"","skills":[],"notes":"","createdAt":"2024-01-01T00:00:00Z","updatedAt":"2024-01-01T00:00:00Z"}],"settings":{"autoCapture":false,"notifications":true},"exportedAt":"2024-02-01T00:00:00Z","version":"1.0.0"}`)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"imported":1}`, string(env.Data))

	status, _ = do(t, a, http.MethodPost, "/api/v1/import", `{"settings":{}}`)
	assert.Equal(t, http.StatusBadRequest, status)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/export", nil)
	resp, err := a.Fiber.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "job-tracker-export-")
	var exp struct {
		Applications []application.Record `json:"applications"`
		Version      string               `json:"version"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&exp))
	assert.Equal(t, "1.0.0", exp.Version)
	require.Len(t, exp.Applications, 1)
	assert.Equal(t, "Acme", exp.Applications[0].Company)
}

func TestCaptureFromHTML(t *testing.T) {
	a := newTestApp(t, testConfig())

	page := `<html><head><title>Senior Engineer - Acme Corp | LinkedIn</title></head><body></body></html>`
	body, err := json.Marshal(map[string]string{"url": "https://www.linkedin.com/jobs/view/1", "html": page})
	require.NoError(t, err)

	status, env := do(t, a, http.MethodPost, "/api/v1/capture", string(body))
	require.Equal(t, http.StatusOK, status)
	var res struct {
		Draft     application.Draft `json:"draft"`
		Duplicate bool              `json:"duplicate"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "Senior Engineer", res.Draft.Position)
	assert.Equal(t, "Acme Corp", res.Draft.Company)
	assert.False(t, res.Duplicate)

	draft, err := json.Marshal(res.Draft)
	require.NoError(t, err)
	status, _ = do(t, a, http.MethodPost, "/api/v1/track", string(draft))
	assert.Equal(t, http.StatusCreated, status)
	status, env = do(t, a, http.MethodPost, "/api/v1/track", string(draft))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "This job is already being tracked", env.Message)

	status, _ = do(t, a, http.MethodPost, "/api/v1/capture", `{"url":"ftp://x"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDetectAndButton(t *testing.T) {
	a := newTestApp(t, testConfig())
	status, _ := do(t, a, http.MethodPut, "/api/v1/settings", `{"autoCapture":true}`)
	require.Equal(t, http.StatusOK, status)

	status, env := do(t, a, http.MethodPost, "/api/v1/detect",
		`{"draft":{"company":"Acme","position":"Engineer","url":"https://x.io/1","skills":["Go"]}}`)
	require.Equal(t, http.StatusOK, status)
	var det struct {
		NotificationID string `json:"notificationId"`
		Notified       bool   `json:"notified"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &det))
	require.True(t, det.Notified)

	status, env = do(t, a, http.MethodPost, "/api/v1/detect", `{"draft":{"position":"Engineer","url":"https://x.io/2"}}`)
	require.Equal(t, http.StatusOK, status)
	var skipped struct {
		NotificationID string `json:"notificationId"`
		Notified       bool   `json:"notified"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &skipped))
	assert.False(t, skipped.Notified)
	assert.Empty(t, skipped.NotificationID)

	status, env = do(t, a, http.MethodPost, "/api/v1/notifications/"+det.NotificationID+"/buttons/0", "")
	require.Equal(t, http.StatusOK, status)
	var btn struct {
		State       string              `json:"state"`
		Application *application.Record `json:"application"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &btn))
	assert.Equal(t, "tracked", btn.State)
	require.NotNil(t, btn.Application)
	assert.Equal(t, "Acme", btn.Application.Company)

	status, _ = do(t, a, http.MethodPost, "/api/v1/notifications/"+det.NotificationID+"/buttons/0", "")
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = do(t, a, http.MethodPost, "/api/v1/notifications/x/buttons/abc", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAuthRequiredWhenSecretSet(t *testing.T) {
	cfg := testConfig()
	cfg.Token.Secret = "s3cret"
	a := newTestApp(t, cfg)

	status, _ := do(t, a, http.MethodGet, "/api/v1/applications", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	tok, err := a.Container.Tokens.GenerateAccessToken("test")
	require.NoError(t, err)
	status, _ = do(t, a, http.MethodGet, "/api/v1/applications", "", "Authorization", "Bearer "+tok)
	assert.Equal(t, http.StatusOK, status)

	status, _ = do(t, a, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestListenAddr(t *testing.T) {
	addr, err := ListenAddr("8080")
	require.NoError(t, err)
	assert.Equal(t, ":8080", addr)
	addr, err = ListenAddr(":9000")
	require.NoError(t, err)
	assert.Equal(t, ":9000", addr)
	_, err = ListenAddr(" ")
	assert.Error(t, err)
}
