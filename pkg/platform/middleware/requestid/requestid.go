package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"gatekeeper/pkg/requestcontext"
)

// Header carries the request ID back to callers and into logs.
const Header = "X-Request-ID"

// RequestID assigns each request a stable identifier, honoring one supplied by
// a trusted upstream proxy.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
