package inbound

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/vpnguard/internal/pkg/config"
	"github.com/shandysiswandi/vpnguard/internal/pkg/goerror"
	"github.com/shandysiswandi/vpnguard/internal/pkg/router"
	"github.com/shandysiswandi/vpnguard/internal/pkg/uid"
	"github.com/shandysiswandi/vpnguard/internal/vpnauth/entity"
	"github.com/shandysiswandi/vpnguard/internal/vpnauth/usecase"
)

type stubUC struct {
	setupIn  usecase.SetupInput
	enableIn usecase.EnableInput
	verifyIn usecase.VerifyInput
	recentIn usecase.RecentInput

	malformed []usecase.MalformedInput

	setupOut  *usecase.SetupOutput
	verifyOut *usecase.VerifyOutput
	statusOut *usecase.StatusOutput
	recentOut *usecase.RecentOutput
	err       error
}

func (s *stubUC) Setup(_ context.Context, in usecase.SetupInput) (*usecase.SetupOutput, error) {
	s.setupIn = in
	return s.setupOut, s.err
}

func (s *stubUC) Enable(_ context.Context, in usecase.EnableInput) error {
	s.enableIn = in
	return s.err
}

func (s *stubUC) Verify(_ context.Context, in usecase.VerifyInput) (*usecase.VerifyOutput, error) {
	s.verifyIn = in
	return s.verifyOut, s.err
}

func (s *stubUC) Status(_ context.Context, _ usecase.StatusInput) (*usecase.StatusOutput, error) {
	return s.statusOut, s.err
}

func (s *stubUC) Recent(_ context.Context, in usecase.RecentInput) (*usecase.RecentOutput, error) {
	s.recentIn = in
	return s.recentOut, s.err
}

func (s *stubUC) RejectMalformed(_ context.Context, in usecase.MalformedInput) error {
	s.malformed = append(s.malformed, in)
	return in.Cause
}

func newServer(t *testing.T, uc *stubUC) *router.Router {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("app: {}"))
	require.NoError(t, err)

	r := router.NewRouter(router.Config{Config: cfg, UUID: uid.NewUUID()})
	RegisterHTTPEndpoint(r, uc)
	return r
}

func do(r http.Handler, method, target, body string, headers ...string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	out := map[string]any{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestHTTPEndpoint_Setup(t *testing.T) {
	uc := &stubUC{setupOut: &usecase.SetupOutput{
		Username: "alice",
		Secret:   "JBSWY3DPEHPK3PXP",
		QRCode:   []byte{0x89, 'P', 'N', 'G'},
	}}
	srv := newServer(t, uc)

	rec, body := do(srv, http.MethodPost, "/setup-2fa/", `{"username":" alice "}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", uc.setupIn.Username)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "JBSWY3DPEHPK3PXP", body["secret_key"])
	assert.Equal(t, false, body["is_enabled"])

	png, err := base64.StdEncoding.DecodeString(body["qr_code"].(string))
	require.NoError(t, err)
	assert.Equal(t, uc.setupOut.QRCode, png)
}

func TestHTTPEndpoint_Setup_EnabledAccountOmitsSecret(t *testing.T) {
	srv := newServer(t, &stubUC{setupOut: &usecase.SetupOutput{Username: "alice", IsEnabled: true}})

	rec, body := do(srv, http.MethodPost, "/setup-2fa/", `{"username":"alice"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["is_enabled"])
	assert.NotContains(t, body, "secret_key")
	assert.NotContains(t, body, "qr_code")
}

func TestHTTPEndpoint_Setup_InvalidBody(t *testing.T) {
	srv := newServer(t, &stubUC{})

	rec, body := do(srv, http.MethodPost, "/setup-2fa/", `not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["error"])
}

func TestHTTPEndpoint_Enable(t *testing.T) {
	t.Run("client ip from body", func(t *testing.T) {
		uc := &stubUC{}
		srv := newServer(t, uc)

		rec, body := do(srv, http.MethodPost, "/enable-2fa/", `{"username":"alice","token":"123456","client_ip":"203.0.113.9"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "2FA enabled successfully", body["message"])
		assert.Equal(t, usecase.EnableInput{Username: "alice", Token: "123456", ClientIP: "203.0.113.9"}, uc.enableIn)
	})

	t.Run("client ip from proxy header", func(t *testing.T) {
		uc := &stubUC{}
		srv := newServer(t, uc)

		rec, _ := do(srv, http.MethodPost, "/enable-2fa/", `{"username":"alice","token":"123456"}`, "X-Forwarded-For", "198.51.100.4, 10.0.0.1")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "198.51.100.4", uc.enableIn.ClientIP)
	})

	t.Run("wrong code", func(t *testing.T) {
		srv := newServer(t, &stubUC{err: goerror.NewBusiness("Invalid verification code", goerror.CodeVerificationFailed)})

		rec, body := do(srv, http.MethodPost, "/enable-2fa/", `{"username":"alice","token":"000000"}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Invalid verification code", body["error"])
	})
}

func TestHTTPEndpoint_Verify(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		granted bool
	}{
		{name: "granted", status: http.StatusOK, granted: true},
		{name: "not configured", err: goerror.NewBusiness("2FA is not configured for this user", goerror.CodeNotConfigured), status: http.StatusNotFound},
		{name: "wrong code", err: goerror.NewBusiness("Invalid verification code", goerror.CodeVerificationFailed), status: http.StatusUnauthorized},
		{name: "not enabled", err: goerror.NewBusiness("2FA is not enabled for this user", goerror.CodeForbidden), status: http.StatusForbidden},
		{name: "locked out", err: goerror.NewBusiness("Too many failed attempts, try again later", goerror.CodeTooManyRequest), status: http.StatusTooManyRequests},
		{name: "store down", err: goerror.NewUnavailable(assert.AnError), status: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &stubUC{err: tt.err}
			if tt.err == nil {
				uc.verifyOut = &usecase.VerifyOutput{AccessGranted: true, TwoFactorVerified: true}
			}
			srv := newServer(t, uc)

			rec, body := do(srv, http.MethodPost, "/verify-2fa/", `{"username":"bob","token":"123456"}`)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.err == nil, body["success"])
			assert.Equal(t, tt.granted, body["access_granted"])
			if tt.err != nil {
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestHTTPEndpoint_MalformedBodyIsAudited(t *testing.T) {
	tests := []struct {
		path   string
		action entity.Action
	}{
		{path: "/enable-2fa/", action: entity.ActionEnable},
		{path: "/verify-2fa/", action: entity.ActionVerify},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			uc := &stubUC{}
			srv := newServer(t, uc)

			rec, body := do(srv, http.MethodPost, tt.path, `{"username":`, "X-Real-IP", "203.0.113.7")

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, false, body["success"])
			require.Len(t, uc.malformed, 1)
			assert.Equal(t, tt.action, uc.malformed[0].Action)
			assert.Equal(t, "203.0.113.7", uc.malformed[0].ClientIP)
			assert.Equal(t, goerror.CodeInvalidFormat, goerror.CodeOf(uc.malformed[0].Cause))
		})
	}
}

func TestHTTPEndpoint_Status(t *testing.T) {
	srv := newServer(t, &stubUC{statusOut: &usecase.StatusOutput{Username: "dave", RequiresSetup: true}})

	rec, body := do(srv, http.MethodGet, "/check-2fa-status/?username=dave", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dave", body["username"])
	assert.Equal(t, false, body["has_2fa"])
	assert.Equal(t, false, body["is_enabled"])
	assert.Equal(t, true, body["requires_setup"])
}

func TestHTTPEndpoint_AccessLogs(t *testing.T) {
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	uc := &stubUC{recentOut: &usecase.RecentOutput{Logs: []entity.AccessLog{
		{Username: "alice", ClientIP: "10.0.0.1", AccessTime: at, TwoFactorVerified: true, AccessGranted: true},
	}}}
	srv := newServer(t, uc)

	rec, body := do(srv, http.MethodGet, "/access-logs/?limit=5", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, uc.recentIn.Limit)

	logs, ok := body["logs"].([]any)
	require.True(t, ok)
	require.Len(t, logs, 1)
	entry := logs[0].(map[string]any)
	assert.Equal(t, "alice", entry["username"])
	assert.Equal(t, "2026-02-03T04:05:06Z", entry["access_time"])
	assert.Equal(t, true, entry["two_factor_verified"])
}

func TestHTTPEndpoint_AccessLogs_Empty(t *testing.T) {
	srv := newServer(t, &stubUC{recentOut: &usecase.RecentOutput{}})

	rec, body := do(srv, http.MethodGet, "/access-logs/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, body["logs"])
}

func TestHTTPEndpoint_AccessLogs_BadLimit(t *testing.T) {
	srv := newServer(t, &stubUC{})

	rec, _ := do(srv, http.MethodGet, "/access-logs/?limit=abc", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
