package config

import (
	"bytes"
	"errors"
	"testing"
)

func TestFatalWritesAndExits(t *testing.T) {
	var buf bytes.Buffer
	code := -1
	oldStderr, oldExit := stderr, exit
	stderr = &buf
	exit = func(c int) { code = c }
	t.Cleanup(func() { stderr, exit = oldStderr, oldExit })

	Fatal("rosterctl", errors.New("event not found"))

	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if got := buf.String(); got != "rosterctl: event not found\n" {
		t.Fatalf("stderr = %q", got)
	}
}
