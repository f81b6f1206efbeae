package testutil

import (
	"log"
	"testing"
)

// TestLogger returns a logger that writes through the test's own log,
// so server output is captured per-test and shown only on failure.
func TestLogger(t *testing.T) *log.Logger {
	return log.New(testWriter{t}, "[test] ", log.LstdFlags)
}

type testWriter struct {
	t *testing.T
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Logf("%s", p)
	return len(p), nil
}
