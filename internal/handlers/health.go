package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/claimlab/apiserver/config"
)

// Version is reported by the banner route.
const Version = "1.0.0"

type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler serves the public banner, health and test routes.
type HealthHandler struct {
	db        Pinger
	driver    string
	startedAt time.Time
}

func NewHealthHandler(db Pinger, driver string, startedAt time.Time) *HealthHandler {
	return &HealthHandler{db: db, driver: driver, startedAt: startedAt}
}

type BannerResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

type HealthResponse struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Database  string  `json:"database"`
	Uptime    float64 `json:"uptime"`
	Error     string  `json:"error,omitempty"`
}

func (h *HealthHandler) Banner(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, BannerResponse{
		Message: "Claim Manager API is running!",
		Version: Version,
		Endpoints: map[string]string{
			"health": "/health",
			"api":    "/api/*",
		},
	})
}

// Health reports uptime in seconds and whether the database answers a ping.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "OK",
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Database:  databaseLabel(h.driver),
		Uptime:    time.Since(h.startedAt).Seconds(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		resp.Status = "ERROR"
		resp.Error = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HealthHandler) Test(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MessageResponse{Message: "API is working correctly!"})
}

func databaseLabel(driver string) string {
	switch driver {
	case config.DriverSQLite:
		return "SQLite"
	case config.DriverPostgres:
		return "PostgreSQL"
	default:
		return driver
	}
}
