package api

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/api/shared"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/query"
	"github.com/phrazzld/taskman-api/internal/service"
)

// requireOwner extracts the authenticated user's ID from the request
// context. It writes a 401 and returns false when the request was not
// authenticated, which only happens if a route is missing the auth
// middleware.
func requireOwner(w http.ResponseWriter, r *http.Request, log *slog.Logger) (uuid.UUID, bool) {
	ownerID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return uuid.Nil, false
	}
	return ownerID, true
}

// taskID returns the {id} path parameter. Task IDs are opaque; one that
// matches nothing is reported by the store as not found.
func taskID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// listParams reads the listing options from the query string. Malformed
// page and limit values become zero so the query engine applies defaults.
func listParams(q url.Values) service.ListParams {
	return service.ListParams{
		Params: query.Params{
			Search:   q.Get("search"),
			Status:   q.Get("status"),
			Priority: q.Get("priority"),
		},
		Sort:  q.Get("sort"),
		Page:  query.ParseInt(q.Get("page")),
		Limit: query.ParseInt(q.Get("limit")),
	}
}
