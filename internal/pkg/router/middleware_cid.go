package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/vpnguard/internal/pkg/instrument"
	"github.com/shandysiswandi/vpnguard/internal/pkg/uid"
)

const (
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderRequestID     = "X-Request-ID"
	// HeaderAmznTraceID is set by AWS load balancers and API Gateway in front
	// of the VPN connection handler.
	HeaderAmznTraceID = "X-Amzn-Trace-Id"
)

// inboundCIDHeaders are consulted in order; the first usable value wins.
var inboundCIDHeaders = []string{HeaderCorrelationID, HeaderRequestID, HeaderAmznTraceID}

// cleanCID rejects values that could split headers and caps the length.
func cleanCID(v string) string {
	if strings.ContainsAny(v, "\r\n") {
		return ""
	}
	const limit = 128
	v = strings.TrimSpace(v)
	if len(v) > limit {
		v = v[:limit]
	}
	return v
}

func correlationIDFrom(r *http.Request) string {
	for _, h := range inboundCIDHeaders {
		if cid := cleanCID(r.Header.Get(h)); cid != "" {
			return cid
		}
	}
	return ""
}

func middlewareCorrelationID(gen uid.StringID) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := correlationIDFrom(r)
			if cid == "" && gen != nil {
				cid = gen.Generate()
			}

			if cid == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set(HeaderCorrelationID, cid)
			next.ServeHTTP(w, r.WithContext(instrument.SetCorrelationID(r.Context(), cid)))
		})
	}
}
