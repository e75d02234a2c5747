package flags

import (
	"net/http"

	"github.com/humanyze/flagkit/pkg/feature"
)

// Identity carries the request context the decision engine cares about:
// who the user is and what their billing tier grants. Tier may be empty
// when the billing collaborator has no record for the user.
type Identity struct {
	UserID string
	Tier   feature.Tier
}

// IdentityFunc extracts the caller's identity from a request. It returns
// false when the request has no authenticated user. Keeping extraction a
// function decouples the gate from the host application's auth and billing
// layers.
type IdentityFunc func(r *http.Request) (Identity, bool)

// RequireFeature returns middleware that rejects requests with 403 when the
// named feature is not enabled for the caller. Decisions ride on the
// service's decision cache, so repeated hits within the TTL cost a single
// map lookup.
//
// Requests without an authenticated identity are denied outright: a gated
// endpoint is by definition user-facing, so the anonymous fail-open rule
// in the engine does not apply here.
//
//	r.With(svc.RequireFeature("beta-export", identityFromSession)).
//		Get("/export", exportHandler)
func (s *Service) RequireFeature(flagKey string, identify IdentityFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := identify(r)
			if !ok {
				renderJSONError(w, http.StatusForbidden, "feature_not_available", "Feature not available")
				return
			}

			if !s.IsEnabled(r.Context(), flagKey, identity.UserID, identity.Tier) {
				renderJSONError(w, http.StatusForbidden, "feature_not_available", "Feature not available")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
