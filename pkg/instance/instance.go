package instance

import (
	"os"

	"github.com/angelmondragon/pantrypal-backend/pkg/env"
)

const fallbackID = "worker-0"

// ID returns the process identifier used in logs and lock ownership:
// PANTRYPAL_WORKER_ID (or WORKER_ID) when set, otherwise the hostname.
func ID() string {
	if id := env.Get("WORKER_ID", ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
