package router

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/samber/lo"
)

// HeaderServiceKey carries the shared key of an internal caller.
const HeaderServiceKey = "X-Service-Key"

func parseServiceKeys(raw []string) [][]byte {
	return lo.FilterMap(raw, func(k string, _ int) ([]byte, bool) {
		k = strings.TrimSpace(k)
		return []byte(k), k != ""
	})
}

func middlewareServiceKey(keys [][]byte) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(strings.TrimSpace(r.Header.Get(HeaderServiceKey)))

			match := 0
			for _, k := range keys {
				match |= subtle.ConstantTimeCompare(got, k)
			}
			if len(got) == 0 || match != 1 {
				writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
