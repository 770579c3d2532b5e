package handlers

import (
	"errors"
	"net/http"

	"github.com/expenseer/apiserver/internal/policy"
	"github.com/expenseer/apiserver/internal/services"
	"github.com/expenseer/apiserver/internal/store"
)

// RequireManager builds middleware that loads the authenticated user and
// rejects non-managers with 403. It must run after RequireAuth. The role
// comes from the store, not the token, so revoking the manager role
// takes effect immediately.
func RequireManager(userService *services.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := userIDFromContext(r.Context())
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			user, err := userService.GetByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					writeError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				writeError(w, http.StatusInternalServerError, "failed to load user")
				return
			}

			if !policy.IsManager(user) {
				writeError(w, http.StatusForbidden, "manager access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
