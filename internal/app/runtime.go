package app

import (
	"os"
	"sync"
)

const testModeEnv = "REVENTA_TEST_MODE"

var testMode = sync.OnceValue(func() bool {
	return os.Getenv(testModeEnv) == "1"
})

// InTestMode reports whether the binaries should skip runtime startup, so
// test harnesses can compile and exec them without side effects.
func InTestMode() bool {
	return testMode()
}
