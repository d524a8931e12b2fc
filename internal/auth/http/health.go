package http

import (
	"net/http"
	"time"

	"github.com/campusfound/campusfound/internal/auth/revocation"
	"github.com/campusfound/campusfound/internal/auth/store"
	"github.com/campusfound/campusfound/pkg/httpx"
)

type healthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *healthChecks `json:"checks,omitempty"`
}

type healthChecks struct {
	Database   string `json:"database"`
	Revocation string `json:"revocation"`
}

// LivezHandler answers 200 whenever the process is up.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, healthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler checks the dependencies a request actually needs: the user
// store and the revocation registry.
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	registry revocation.Registry,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &healthChecks{
			Database:   "ok",
			Revocation: "ok",
		}
		status := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		// An unreachable registry fails closed elsewhere, so surface it here.
		if err := registry.Ping(r.Context()); err != nil {
			checks.Revocation = "error: " + err.Error()
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, healthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
