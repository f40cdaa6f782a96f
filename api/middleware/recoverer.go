package middleware

import (
	"fmt"
	"net/http"

	"github.com/dromero-dev/clubfunds-backend/api/responses"
	"github.com/dromero-dev/clubfunds-backend/pkg/logger"
)

func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err := fmt.Errorf("panic: %v", rec)
					ctx := r.Context()
					if logg != nil {
						ctx = logg.WithFields(ctx, map[string]any{"panic": rec})
						logg.Error(ctx, "panic.recovered", err)
					}
					responses.WriteJSON(w, http.StatusInternalServerError, responses.ErrorBody{
						Error:   "Internal server error",
						Message: err.Error(),
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
