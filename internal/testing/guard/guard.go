// Package guard switches the process into test mode as soon as it is
// imported, before any application package reads the environment.
package guard

import (
	"os"
	"sync"
)

// TestModeEnv is the variable the application consults to skip runtime side effects.
const TestModeEnv = "FOLIO_TEST_MODE"

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv(TestModeEnv) == "" {
			_ = os.Setenv(TestModeEnv, "1")
		}
	})
}
