package server

import (
	"context"
	"net/http"

	"tailscale.com/client/tailscale/apitype"
)

// WhoisClient is the part of the tsnet local client the identity middleware
// needs. Satisfied by the client returned from tsnet.Server.LocalClient.
type WhoisClient interface {
	WhoIs(ctx context.Context, remoteAddr string) (*apitype.WhoIsResponse, error)
}

// UserInfo identifies the requesting user for display purposes.
type UserInfo struct {
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

type contextKey int

const (
	userIDKey contextKey = iota
	userInfoKey
)

// identity resolves the requesting user. With Tailscale active it maps the
// tailnet identity to a user row; otherwise every request is the local dev
// user. Set as middleware in routes() and consults s.ts at request time,
// since SetTailscale runs after the router is built.
func (s *Server) identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.ts == nil {
			next.ServeHTTP(w, withIdentity(r, 1, UserInfo{Login: "local", DisplayName: "Local Dev User"}))
			return
		}

		who, err := s.ts.WhoIs(r.Context(), r.RemoteAddr)
		if err != nil || who.UserProfile == nil {
			s.log.Warn("whois failed", "remote", r.RemoteAddr, "error", err)
			http.Error(w, `{"error":"identity unavailable"}`, http.StatusForbidden)
			return
		}

		login := who.UserProfile.LoginName
		display := who.UserProfile.DisplayName
		uid, err := s.db.GetOrCreateUser(r.Context(), login, display)
		if err != nil {
			s.log.Error("user lookup failed", "login", login, "error", err)
			http.Error(w, `{"error":"user lookup failed"}`, http.StatusInternalServerError)
			return
		}

		next.ServeHTTP(w, withIdentity(r, uid, UserInfo{Login: login, DisplayName: display}))
	})
}

func withIdentity(r *http.Request, userID int, info UserInfo) *http.Request {
	ctx := context.WithValue(r.Context(), userIDKey, userID)
	ctx = context.WithValue(ctx, userInfoKey, info)
	return r.WithContext(ctx)
}

// userIDFromContext returns the resolved user ID, defaulting to the local
// dev user when no identity middleware has run.
func userIDFromContext(r *http.Request) int {
	if id, ok := r.Context().Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// userInfoFromContext returns the resolved user info, with a local fallback.
func userInfoFromContext(r *http.Request) UserInfo {
	if info, ok := r.Context().Value(userInfoKey).(UserInfo); ok {
		return info
	}
	return UserInfo{Login: "local", DisplayName: "Local Dev User"}
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}
