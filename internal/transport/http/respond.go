// Package http exposes the booking engine's operations over a chi router,
// mapping 1:1 onto the service surface. Identity verification happens
// upstream; handlers trust the X-Identity-Id header the gateway sets.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

const identityHeader = "X-Identity-Id"

type contextKey int

const identityKey contextKey = iota

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// RequireIdentity rejects requests without a verified identity header and
// stashes the identity in the request context for handlers.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(identityHeader))
		if id == "" {
			writeError(w, http.StatusUnauthorized, "identity is required")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
	})
}

func identityFrom(ctx context.Context) string {
	id, _ := ctx.Value(identityKey).(string)
	return id
}
