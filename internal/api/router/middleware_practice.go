package router

import (
	"net/http"
	"strings"

	"github.com/praxisflow/praxisflow/internal/tenancy"
)

const practiceHeader = "X-Practice-Id"

// requirePracticeID middleware enforces multi-tenancy headers for API requests.
func requirePracticeID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		practiceID := strings.TrimSpace(r.Header.Get(practiceHeader))
		if practiceID == "" {
			http.Error(w, "missing X-Practice-Id", http.StatusBadRequest)
			return
		}
		ctx := tenancy.WithPracticeID(r.Context(), practiceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
