package env

import (
	"os"
	"strings"
)

// Prefix namespaces the process switches read outside of config.Load.
const Prefix = "PANTRYPAL_"

// Get returns PANTRYPAL_<key>, then the bare key, then fallback. Values are trimmed.
func Get(key, fallback string) string {
	for _, name := range []string{Prefix + key, key} {
		if val := strings.TrimSpace(os.Getenv(name)); val != "" {
			return val
		}
	}
	return fallback
}
