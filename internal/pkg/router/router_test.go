package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/vpnguard/internal/pkg/config"
	"github.com/shandysiswandi/vpnguard/internal/pkg/goerror"
)

type fixedID string

func (f fixedID) Generate() string { return string(f) }

func newTestRouter(t *testing.T, yaml string) *Router {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)

	return NewRouter(Config{Config: cfg, UUID: fixedID("cid-test")})
}

func serve(ro *Router, method, target, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ro.ServeHTTP(rec, req)

	out := map[string]any{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestRouter_Success(t *testing.T) {
	ro := newTestRouter(t, "app: {}")
	ro.POST("/echo/", func(r *Request) (any, error) {
		var in struct {
			Username string `json:"username"`
		}
		if err := r.DecodeBody(&in); err != nil {
			return nil, err
		}
		return map[string]any{"success": true, "username": in.Username}, nil
	})

	rec, body := serve(ro, http.MethodPost, "/echo/", `{"username":"alice"}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "cid-test", rec.Header().Get(HeaderCorrelationID))
}

func TestRouter_DecodeBodyRejectsUnknownFields(t *testing.T) {
	ro := newTestRouter(t, "app: {}")
	ro.POST("/echo/", func(r *Request) (any, error) {
		var in struct {
			Username string `json:"username"`
		}
		return nil, r.DecodeBody(&in)
	})

	rec, body := serve(ro, http.MethodPost, "/echo/", `{"username":"alice","extra":1}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Invalid request body", body["error"])
}

func TestRouter_ErrorWithPartialBody(t *testing.T) {
	ro := newTestRouter(t, "app: {}")
	ro.POST("/verify/", func(*Request) (any, error) {
		return map[string]any{"access_granted": false}, goerror.NewBusiness("Invalid 2FA token", goerror.CodeVerificationFailed)
	})

	rec, body := serve(ro, http.MethodPost, "/verify/", `{}`, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, false, body["access_granted"])
	assert.Equal(t, "Invalid 2FA token", body["error"])
}

func TestRouter_UnclassifiedError(t *testing.T) {
	ro := newTestRouter(t, "app: {}")
	ro.GET("/boom", func(*Request) (any, error) { return nil, errors.New("db exploded") })

	rec, body := serve(ro, http.MethodGet, "/boom", "", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", body["error"])
}

func TestRouter_Panic(t *testing.T) {
	ro := newTestRouter(t, "app: {}")
	ro.GET("/panic", func(*Request) (any, error) { panic("boom") })

	rec, body := serve(ro, http.MethodGet, "/panic", "", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestRouter_ClientIP(t *testing.T) {
	ro := newTestRouter(t, "app: {}")
	ro.GET("/ip", func(r *Request) (any, error) {
		return map[string]any{"success": true, "ip": r.ClientIP()}, nil
	})

	_, body := serve(ro, http.MethodGet, "/ip", "", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"})
	assert.Equal(t, "203.0.113.9", body["ip"])

	_, body = serve(ro, http.MethodGet, "/ip", "", map[string]string{"X-Real-IP": "not-an-ip"})
	assert.Equal(t, "192.0.2.1", body["ip"])
}

func TestRouter_MaintenanceAndHealth(t *testing.T) {
	ro := newTestRouter(t, "app:\n  maintenance:\n    endpoints: \"/blocked\"\n")
	ro.GET("/blocked", func(*Request) (any, error) { return nil, nil })

	rec, body := serve(ro, http.MethodGet, "/blocked", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "service is under maintenance", body["error"])

	rec, body = serve(ro, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
}

func TestRouter_NotFound(t *testing.T) {
	rec, body := serve(newTestRouter(t, "app: {}"), http.MethodGet, "/nope", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestCleanCID(t *testing.T) {
	assert.Empty(t, cleanCID("a\r\nb"))
	assert.Equal(t, "abc", cleanCID("  abc "))
	assert.Len(t, cleanCID(strings.Repeat("x", 300)), 128)
}

func TestRouter_CorrelationIDHeaders(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{name: "generated", want: "cid-test"},
		{name: "correlation wins", headers: map[string]string{
			HeaderCorrelationID: "c-1", HeaderRequestID: "r-1", HeaderAmznTraceID: "Root=1-abc",
		}, want: "c-1"},
		{name: "request id", headers: map[string]string{HeaderRequestID: "r-1"}, want: "r-1"},
		{name: "aws trace id", headers: map[string]string{HeaderAmznTraceID: "Root=1-abc"}, want: "Root=1-abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ro := newTestRouter(t, "app: {}")
			ro.GET("/ping/", func(*Request) (any, error) { return map[string]bool{"success": true}, nil })

			rec, _ := serve(ro, http.MethodGet, "/ping/", "", tt.headers)

			assert.Equal(t, tt.want, rec.Header().Get(HeaderCorrelationID))
		})
	}
}

func TestGetQueryInt(t *testing.T) {
	r := &Request{Request: httptest.NewRequest(http.MethodGet, "/x?limit=20&bad=x", nil)}

	n, err := r.GetQueryInt("limit")
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	n, err = r.GetQueryInt("missing")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = r.GetQueryInt("bad")
	assert.Equal(t, goerror.CodeInvalidFormat, goerror.CodeOf(err))
}
