package auth

import (
	"net/http"
	"strings"
)

const (
	AuthPath      = "/auth"
	DashboardPath = "/dashboard"
)

var ProtectedPaths = []string{"/dashboard", "/profile", "/settings", "/manage-users"}

type Decision int

const (
	Allow Decision = iota
	RedirectAuth
	RedirectDashboard
)

func (d Decision) String() string {
	switch d {
	case RedirectAuth:
		return "redirect:" + AuthPath
	case RedirectDashboard:
		return "redirect:" + DashboardPath
	}
	return "allow"
}

// Decide maps a page path and session validity to a routing decision.
func Decide(path string, validSession bool) Decision {
	if !validSession && isProtected(path) {
		return RedirectAuth
	}
	if validSession && path == AuthPath {
		return RedirectDashboard
	}
	return Allow
}

func isProtected(path string) bool {
	for _, p := range ProtectedPaths {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// Guard applies Decide to page requests. A present but invalid token is
// cleared before redirecting.
func Guard(codec *Codec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := TokenFromRequest(r)
			claims, err := codec.Verify(raw)
			valid := err == nil
			switch Decide(r.URL.Path, valid) {
			case RedirectAuth:
				if raw != "" {
					codec.Revoke(w)
				}
				http.Redirect(w, r, AuthPath, http.StatusTemporaryRedirect)
				return
			case RedirectDashboard:
				http.Redirect(w, r, DashboardPath, http.StatusTemporaryRedirect)
				return
			}
			if valid {
				r = r.WithContext(WithClaims(r.Context(), claims))
			}
			next.ServeHTTP(w, r)
		})
	}
}
