package devserver

import (
	"net/http"
	"strings"
)

// AuthMiddleware requires "Authorization: Bearer <token>" when the server
// was configured with a token.
func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			next.ServeHTTP(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			RespondWithError(w, http.StatusUnauthorized, "Unauthorized: No token provided")
			return
		}
		if strings.TrimPrefix(header, "Bearer ") != s.token {
			RespondWithError(w, http.StatusUnauthorized, "Unauthorized: Invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
