package router

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/shandysiswandi/vpnguard/internal/pkg/config"
	"github.com/shandysiswandi/vpnguard/internal/pkg/goerror"
	"github.com/shandysiswandi/vpnguard/internal/pkg/instrument"
	"github.com/shandysiswandi/vpnguard/internal/pkg/uid"
	"github.com/shandysiswandi/vpnguard/internal/pkg/validator"
)

// errorResponse is the flat failure envelope. Handlers may add fields by
// returning a body together with the error.
type errorResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Handler is the application-style handler used by this router.
//
// On success the returned body is JSON encoded as is, so it carries its own
// "success" field. On failure a non-nil body is merged into the error envelope.
type Handler func(r *Request) (any, error)

// Config holds dependencies required to build a Router.
type Config struct {
	Config     config.Config
	UUID       uid.StringID
	Instrument instrument.Instrumentation
}

// Router is an http.Handler that wraps httprouter and a middleware chain.
type Router struct {
	hr  *httprouter.Router
	mws []Middleware
}

// NewRouter builds the default application router with standard middleware.
func NewRouter(cfg Config) *Router {
	if cfg.Instrument == nil {
		cfg.Instrument = instrument.NewNoop()
	}

	hr := &httprouter.Router{
		RedirectTrailingSlash:  true,
		RedirectFixedPath:      true,
		HandleMethodNotAllowed: true,
		HandleOPTIONS:          true,
		SaveMatchedRoutePath:   true,
		NotFound: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, errorResponse{Error: "endpoint not found"}, http.StatusNotFound)
		}),
		MethodNotAllowed: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, errorResponse{Error: "method not allowed"}, http.StatusMethodNotAllowed)
		}),
	}

	hr.GET("/health", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeJSON(w, map[string]bool{"success": true}, http.StatusOK)
	})

	return &Router{
		hr: hr,
		mws: []Middleware{
			middlewareRecoverer,
			middlewareIP,
			middlewareCorrelationID(cfg.UUID),
			middlewareObservability(cfg.Config, cfg.Instrument),
			middlewareMaintenance(cfg.Config),
		},
	}
}

// GET registers a GET endpoint using the application Handler signature.
func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodGet, path, h, mws...)
}

// POST registers a POST endpoint using the application Handler signature.
func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPost, path, h, mws...)
}

func (r *Router) endpoint(method, path string, h Handler, mws ...Middleware) {
	r.hr.Handler(method, path, Chain(http.HandlerFunc(func(w http.ResponseWriter, re *http.Request) {
		resp, err := h(&Request{Request: re})
		if err != nil {
			if setter, ok := w.(interface{ SetError(error) }); ok {
				setter.SetError(err)
			}
			encodeError(re.Context(), w, err, resp)
			return
		}
		encodeOK(w, resp)
	}), append(r.mws, mws...)...))
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}

func encodeOK(w http.ResponseWriter, resp any) {
	code := http.StatusOK
	if sc, ok := resp.(interface{ StatusCode() int }); ok {
		code = sc.StatusCode()
	}

	if resp == nil {
		resp = map[string]bool{"success": true}
	}

	writeJSON(w, resp, code)
}

func encodeError(ctx context.Context, w http.ResponseWriter, err error, partial any) {
	status := http.StatusInternalServerError
	env := errorResponse{Error: "Internal server error"}

	var gerr *goerror.Error
	if errors.As(err, &gerr) {
		status = gerr.StatusCode()
		env.Error = gerr.Msg()

		var errValidate validator.V10ValidationError
		if errors.As(err, &errValidate) {
			env.Fields = errValidate.Values()
		} else if len(gerr.Fields()) > 0 {
			env.Fields = gerr.Fields()
		}
	} else {
		slog.ErrorContext(ctx, "unclassified handler error", "error", err)
	}

	if partial == nil {
		writeJSON(w, env, status)
		return
	}

	writeJSON(w, mergeBody(partial, env), status)
}

// mergeBody overlays the error envelope on the JSON object form of partial.
func mergeBody(partial any, env errorResponse) any {
	raw, err := json.Marshal(partial)
	if err != nil {
		return env
	}

	body := map[string]any{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return env
	}

	body["success"] = false
	body["error"] = env.Error
	if len(env.Fields) > 0 {
		body["fields"] = env.Fields
	}
	return body
}

func writeJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("server: failed to encode data to json", "error", err)
	}
}
