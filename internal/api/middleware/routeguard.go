package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/covecrm/cove/internal/api/response"
)

// RouteClass is the authentication requirement of a path.
type RouteClass int

// Route classifications, decided by static prefix match.
const (
	RoutePublic RouteClass = iota
	RouteProtected
	RouteAuthOnly
)

var protectedPrefixes = []string{
	"/dashboard",
	"/contacts",
	"/organizations",
	"/deals",
	"/profile",
	"/settings",
	"/admin",
}

var authOnlyPrefixes = []string{
	"/login",
	"/register",
	"/auth/login",
	"/auth/register",
}

// Classify returns the route class for a request path.
func Classify(path string) RouteClass {
	for _, p := range authOnlyPrefixes {
		if matchPrefix(path, p) {
			return RouteAuthOnly
		}
	}
	for _, p := range protectedPrefixes {
		if matchPrefix(path, p) {
			return RouteProtected
		}
	}
	return RoutePublic
}

// matchPrefix matches whole path segments: "/contacts" covers "/contacts"
// and "/contacts/123" but not "/contactsfoo".
func matchPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

// Guard enforces the route classification on every request. It runs after
// Session and is never cached: session state can change between requests.
//
//   - protected + no identity: browsers are redirected to the login page with
//     the original path preserved in ?return=; API callers get a 401.
//   - auth-only + identity: redirect to the default landing page.
//   - everything else passes through.
func Guard(loginPath, landingPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := GetIdentity(r.Context())

			switch Classify(r.URL.Path) {
			case RouteProtected:
				if id == nil {
					if wantsJSON(r) {
						response.Err(w, http.StatusUnauthorized, "Authentication required", GetRequestID(r.Context()))
						return
					}
					target := loginPath + "?return=" + url.QueryEscape(r.URL.RequestURI())
					http.Redirect(w, r, target, http.StatusSeeOther)
					return
				}
			case RouteAuthOnly:
				if id != nil {
					http.Redirect(w, r, landingPath, http.StatusSeeOther)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "text/html") {
		return false
	}
	return strings.Contains(accept, "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json")
}
