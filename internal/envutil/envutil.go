package envutil

import (
	"os"
	"strings"
)

// IsDev checks if we're running in development mode
// where the Secure cookie attribute can be relaxed for local testing
func IsDev() bool {
	env := strings.ToLower(os.Getenv("STOREGATE_ENV"))
	return env == "development" || env == "dev"
}
