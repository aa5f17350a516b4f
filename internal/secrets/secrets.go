// Package secrets resolves credentials from the environment, with the
// Docker-secrets _FILE indirection so keys never land in compose files.
package secrets

import (
	"fmt"
	"os"
	"strings"
)

// GetSecret resolves envKey. A KEY_FILE variable pointing at a file
// wins over the direct KEY variable.
func GetSecret(envKey string, defaultValue string) (string, error) {
	if filePath := os.Getenv(envKey + "_FILE"); filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("read secret file %s: %w", filePath, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if value := os.Getenv(envKey); value != "" {
		return value, nil
	}

	return defaultValue, nil
}

// GetOptionalSecret is GetSecret with failures mapped to the default,
// for secrets the service can run without (Gemini key, Data API auth).
func GetOptionalSecret(envKey string, defaultValue string) string {
	value, err := GetSecret(envKey, defaultValue)
	if err != nil {
		return defaultValue
	}
	return value
}
