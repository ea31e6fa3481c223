package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hongminglow/contact-keeper/internal/auth"
	"github.com/hongminglow/contact-keeper/internal/http/respond"
)

// TokenHeader is the header the web client sends its session token in.
const TokenHeader = "x-auth-token"

// TokenVerifier extracts the user ID from a session token.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// RequireAuth rejects requests without a valid session token and stores the
// caller's user ID in the request context for the next handler.
func RequireAuth(tokens TokenVerifier, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := tokens.Verify(tokenFromRequest(r))
			if err != nil {
				log.Debug("rejected session token", zap.String("path", r.URL.Path), zap.Error(err))
				respond.Error(w, r, log, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.ContextWithUserID(r.Context(), userID)))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if tok := strings.TrimSpace(r.Header.Get(TokenHeader)); tok != "" {
		return tok
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
