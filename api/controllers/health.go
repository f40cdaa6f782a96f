package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/dromero-dev/clubfunds-backend/api/responses"
)

type providerStatus interface {
	Enabled() bool
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Health reports the configuration state of each external collaborator.
// Absent collaborators read "demo" rather than failing the endpoint; the
// API stays usable without them.
func Health(environment string, provider providerStatus, store pinger, cache pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		services := map[string]string{
			"stripe":    "demo",
			"firestore": "demo",
			"redis":     "demo",
		}
		if provider != nil && provider.Enabled() {
			services["stripe"] = "configured"
		}
		services["firestore"] = pingStatus(ctx, store)
		services["redis"] = pingStatus(ctx, cache)

		responses.WriteJSON(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"environment": environment,
			"services":    services,
		})
	}
}

func pingStatus(ctx context.Context, p pinger) string {
	if p == nil {
		return "demo"
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := p.Ping(pingCtx); err != nil {
		return "unavailable"
	}
	return "configured"
}
