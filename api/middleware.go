package api

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"ConsolidaFin/api/auth"
	"ConsolidaFin/api/constants"
)

type contextKey string

const SessionKey contextKey = "session"

// GetSessionFromCtx returns the authenticated session attached by
// SessionMiddleware, or nil.
func GetSessionFromCtx(ctx context.Context) *auth.UserSession {
	if session, ok := ctx.Value(SessionKey).(*auth.UserSession); ok {
		return session
	}
	return nil
}

// SessionMiddleware extracts user_id from the request body or multipart form
// and rejects the request unless it maps to an active session. The matched
// session is attached to the request context.
func SessionMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var userID string
			ct := r.Header.Get(constants.ContentTypeText)
			switch {
			case strings.HasPrefix(ct, constants.ContentTypeJSON) && (r.Method == "POST" || r.Method == "PUT"):
				var bodyMap map[string]interface{}
				bodyBytes, _ := io.ReadAll(r.Body)
				if err := json.Unmarshal(bodyBytes, &bodyMap); err == nil {
					if uid, ok := bodyMap[constants.KeyUserID].(string); ok {
						userID = uid
					}
				}
				// reset body for downstream handlers
				r.Body = io.NopCloser(strings.NewReader(string(bodyBytes)))
			case strings.HasPrefix(ct, constants.ContentTypeMultipart) && r.Method == "POST":
				if err := r.ParseMultipartForm(32 << 20); err == nil {
					userID = r.FormValue(constants.KeyUserID)
				}
			default:
				userID = r.URL.Query().Get(constants.KeyUserID)
			}

			if userID == "" {
				log.Println("[ERROR] Missing user_id in request")
				RespondWithError(w, http.StatusBadRequest, constants.ErrMissingUserID)
				return
			}

			var session *auth.UserSession
			for _, s := range auth.GetActiveSessions() {
				if s.UserID == userID {
					session = s
					break
				}
			}
			if session == nil {
				log.Println("[ERROR] Invalid session for user_id:", userID)
				RespondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
				return
			}

			ctx := context.WithValue(r.Context(), SessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
