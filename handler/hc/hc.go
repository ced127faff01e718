package hc

import (
	"encoding/json"
	"net/http"
	"time"
)

// Handler reports the build and how long the process has been up.
func Handler(version, commit string) http.Handler {
	started := time.Now()
	fn := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"version":    version,
			"commit":     commit,
			"started_at": started.UTC().Format(time.RFC3339),
			"uptime":     time.Since(started).Truncate(time.Second).String(),
		})
	}

	return http.HandlerFunc(fn)
}
