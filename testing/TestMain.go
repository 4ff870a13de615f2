package testing

import (
	"os"
	"sync"
	stdtesting "testing"

	_ "github.com/folio-studio/folio/internal/testing/guard"
)

var once sync.Once

// testSecrets satisfy the required configuration keys in unit tests.
var testSecrets = map[string]string{
	"SESSION_SECRET": "test-session-secret",
	"CSRF_SECRET":    "test-csrf-secret",
	"JWT_SECRET":     "test-jwt-secret",
}

func ensureTestMode() {
	once.Do(func() {
		for key, value := range testSecrets {
			if os.Getenv(key) == "" {
				_ = os.Setenv(key, value)
			}
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
