package utils

import "os"

// EnvOr reads an environment variable, falling back to a default when the
// variable is unset or empty.
func EnvOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}

	return fallback
}
