package api

import (
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	deliveryAuth "github.com/MrEthical07/deliveryAuth"
)

const (
	headerRequestID    = "X-Request-ID"
	headerForwardedFor = "X-Forwarded-For"
	maxRequestIDLen    = 128
)

// requestContext stamps a request ID and the client IP onto the context.
func (a *API) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(headerRequestID)
		if requestID == "" || len(requestID) > maxRequestIDLen {
			requestID = uuid.NewString()
		}
		w.Header().Set(headerRequestID, requestID)

		ctx := deliveryAuth.WithRequestID(r.Context(), requestID)
		if ip := a.clientIP(r); ip != "" {
			ctx = deliveryAuth.WithClientIP(ctx, ip)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *API) clientIP(r *http.Request) string {
	if a.trustProxy {
		if fwd := r.Header.Get(headerForwardedFor); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip.String()
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.String()
	}
	return ""
}
