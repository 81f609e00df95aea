package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"timesgate/internal/domain"
	"timesgate/internal/infra/httpapi"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeExecutor struct {
	requests []domain.ActionRequest
	err      error
	payload  any
}

func (f *fakeExecutor) Execute(_ context.Context, req domain.ActionRequest) (*domain.ActionResult, error) {
	f.requests = append(f.requests, req)
	result := &domain.ActionResult{ID: req.ID, Action: req.Action, Success: f.err == nil, Payload: f.payload}
	if f.err != nil {
		result.Error = f.err.Error()
		result.ErrorKind = domain.ErrorKind(f.err)
	}
	return result, f.err
}

func (f *fakeExecutor) Actions() []domain.Action {
	return []domain.Action{domain.ActionReboot, domain.ActionGetSettings}
}

func newServer(exec *fakeExecutor, token string, rate int) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httpapi.NewServer(":0", "gate", exec, token, rate, logger).Handler()
}

func TestServer_Action(t *testing.T) {
	exec := &fakeExecutor{}
	handler := newServer(exec, "", 0)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/actions/set_brightness", bytes.NewBufferString(`{"brightness":40}`))
	req.Header.Set("X-Request-ID", "abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status code: got %d, want %d", rec.Code, http.StatusOK)
	}
	if len(exec.requests) != 1 {
		t.Fatalf("requests: got %d, want 1", len(exec.requests))
	}
	got := exec.requests[0]
	if got.Action != domain.ActionSetBrightness || got.ID != "abc" || string(got.Params) != `{"brightness":40}` {
		t.Errorf("request: got %+v (params %s)", got, got.Params)
	}

	var result domain.ActionResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if !result.Success || result.ID != "abc" {
		t.Errorf("result: got %+v", result)
	}
}

func TestServer_RawAndQueries(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   domain.Action
	}{
		{http.MethodPost, "/api/v1/raw", domain.ActionRaw},
		{http.MethodGet, "/api/v1/settings", domain.ActionGetSettings},
		{http.MethodGet, "/api/v1/time", domain.ActionGetDeviceTime},
		{http.MethodGet, "/api/v1/channel", domain.ActionGetChannelInfo},
		{http.MethodGet, "/api/v1/dials", domain.ActionGetDialList},
		{http.MethodGet, "/api/v1/fonts", domain.ActionGetFontList},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			exec := &fakeExecutor{}
			handler := newServer(exec, "", 0)

			var body io.Reader
			if tt.method == http.MethodPost {
				body = bytes.NewBufferString(`{"Command":"Device/Reboot"}`)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, body))

			if rec.Code != http.StatusOK {
				t.Errorf("status code: got %d, want %d", rec.Code, http.StatusOK)
			}
			if len(exec.requests) != 1 || exec.requests[0].Action != tt.want {
				t.Errorf("requests: got %+v, want one %s", exec.requests, tt.want)
			}
		})
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, http.StatusOK},
		{"validation", domain.RangeError("brightness", 101, 0, 100), http.StatusBadRequest},
		{"unknown action", fmt.Errorf("%w: dance", domain.ErrUnknownAction), http.StatusNotFound},
		{"protocol", &domain.ProtocolError{Command: domain.CmdReboot, Code: 1, CodeKnown: true}, http.StatusBadGateway},
		{"refused", &domain.TransportError{Command: domain.CmdReboot, Err: errors.New("connection refused")}, http.StatusBadGateway},
		{"deadline", &domain.TransportError{Command: domain.CmdReboot, Err: context.DeadlineExceeded}, http.StatusGatewayTimeout},
		{"net timeout", &domain.TransportError{Command: domain.CmdReboot, Err: timeoutErr{}}, http.StatusGatewayTimeout},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := httpapi.StatusFor(tt.err); got != tt.want {
				t.Errorf("status: got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestServer_ErrorStatus(t *testing.T) {
	exec := &fakeExecutor{err: &domain.ProtocolError{Command: domain.CmdReboot, Code: 5, CodeKnown: true}}
	handler := newServer(exec, "", 0)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/actions/reboot", nil))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status code: got %d, want %d", rec.Code, http.StatusBadGateway)
	}

	var result domain.ActionResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if result.Success || result.ErrorKind != domain.KindProtocol {
		t.Errorf("result: got %+v", result)
	}
}

func TestServer_AuthToken(t *testing.T) {
	const token = "test-secret-token-123"

	tests := []struct {
		name       string
		header     string
		query      string
		wantStatus int
	}{
		{"valid token in header", token, "", http.StatusOK},
		{"valid token in query", "", token, http.StatusOK},
		{"invalid token", "wrong-token", "", http.StatusUnauthorized},
		{"missing token", "", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &fakeExecutor{}
			handler := newServer(exec, token, 0)

			path := "/api/v1/settings"
			if tt.query != "" {
				path += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, path, nil)
			if tt.header != "" {
				req.Header.Set("X-Auth-Token", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status code: got %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusUnauthorized && len(exec.requests) != 0 {
				t.Error("unauthorized request reached the executor")
			}
		})
	}
}

func TestServer_HealthSkipsAuth(t *testing.T) {
	handler := newServer(&fakeExecutor{}, "secret", 1)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("health %d: got %d, want %d", i, rec.Code, http.StatusOK)
		}
	}
}

func TestServer_RateLimit(t *testing.T) {
	handler := newServer(&fakeExecutor{}, "", 2)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil))
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("status codes: got %v, want [200 200 429]", codes)
	}
}

func TestServer_ListActions(t *testing.T) {
	handler := newServer(&fakeExecutor{}, "", 0)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/actions", nil))

	var body struct {
		Actions []string `json:"actions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(body.Actions) != 2 || body.Actions[0] != "get_settings" {
		t.Errorf("actions: got %v, want sorted [get_settings reboot]", body.Actions)
	}
}

func TestRateLimiter_WindowReset(t *testing.T) {
	rl := httpapi.NewRateLimiter(1, 20*time.Millisecond)

	if !rl.Allow("1.2.3.4") {
		t.Fatal("first request denied")
	}
	if rl.Allow("1.2.3.4") {
		t.Error("second request allowed within window")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("other client denied")
	}

	time.Sleep(30 * time.Millisecond)
	if !rl.Allow("1.2.3.4") {
		t.Error("request denied after window reset")
	}
}
