package utils

import (
	"os"
	"strings"
	"testing"

	"golang.org/x/exp/slices"
)

// ClearTestEnvironment blanks the env vars for the duration of the test, so config options are not read from the
// developer's shell. Keys listed in keep are left untouched.
func ClearTestEnvironment(t *testing.T, keep ...string) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, found := strings.Cut(kv, "=")
		if !found || key == "" || slices.Contains(keep, key) {
			continue
		}
		t.Setenv(key, "")
	}
}
