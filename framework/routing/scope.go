package routing

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	gohttp "github.com/km-arc/go-laravel/framework/http"
	"github.com/km-arc/go-laravel/framework/multibind"
)

const requestIDHeader = gohttp.RequestIDHeader

// RequestScope gives every request its own list scope, so all ordered
// lists resolved while serving it are materialized at most once. A
// well-formed incoming X-Request-Id is reused; otherwise a new UUID is
// issued. The id is echoed in the response.
func RequestScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(multibind.WithRequestScope(r.Context(), id)))
	})
}
