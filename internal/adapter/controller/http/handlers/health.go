package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/kr1s57/linkshield/internal/config"
)

var startTime = time.Now()

// HealthResponse represents the health check response
type HealthResponse struct {
	Status      string            `json:"status"`
	Version     string            `json:"version"`
	Uptime      string            `json:"uptime"`
	Environment string            `json:"environment"`
	Timestamp   time.Time         `json:"timestamp"`
	Checks      map[string]string `json:"checks"`
	System      SystemInfo        `json:"system"`
}

// SystemInfo represents system information
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumCPU       int    `json:"num_cpu"`
	NumGoroutine int    `json:"num_goroutine"`
	MemAllocMB   uint64 `json:"mem_alloc_mb"`
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck returns a handler for the health check endpoint. Pingers are
// optional backing services included in the checks map.
func HealthCheck(cfg *config.Config, pingers map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		checks := map[string]string{
			"api": "ok",
		}

		status := "healthy"
		for name, p := range pingers {
			if err := p.Ping(r.Context()); err != nil {
				checks[name] = err.Error()
				status = "degraded"
			} else {
				checks[name] = "ok"
			}
		}

		response := HealthResponse{
			Status:      status,
			Version:     "1.0.0",
			Uptime:      time.Since(startTime).Round(time.Second).String(),
			Environment: cfg.App.Env,
			Timestamp:   time.Now().UTC(),
			Checks:      checks,
			System: SystemInfo{
				GoVersion:    runtime.Version(),
				NumCPU:       runtime.NumCPU(),
				NumGoroutine: runtime.NumGoroutine(),
				MemAllocMB:   m.Alloc / 1024 / 1024,
			},
		}

		JSONResponse(w, http.StatusOK, response)
	}
}
