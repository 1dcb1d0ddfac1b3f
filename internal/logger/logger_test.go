package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T, isVerbose bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(isVerbose)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	captureOutput(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestLevels_WhenVerbose(t *testing.T) {
	buf := captureOutput(t, true)

	Debug("chunked %d notes", 3)
	Info("index %s", "ready")
	Warn("retrying")

	assert.Equal(t, "[DEBUG] chunked 3 notes\n[INFO] index ready\n[WARN] retrying\n", buf.String())
}

func TestLevels_WhenNotVerbose(t *testing.T) {
	buf := captureOutput(t, false)

	Debug("hidden")
	Info("hidden")
	Warn("hidden")
	Section("hidden")

	assert.Empty(t, buf.String())
}

func TestError_AlwaysWritten(t *testing.T) {
	buf := captureOutput(t, false)

	Error("index load failed: %v", "corrupt")

	assert.Equal(t, "[ERROR] index load failed: corrupt\n", buf.String())
}

func TestSection(t *testing.T) {
	buf := captureOutput(t, true)

	Section("Retrieval")

	assert.Equal(t, "\n=== Retrieval ===\n", buf.String())
}

func TestTimed(t *testing.T) {
	buf := captureOutput(t, true)

	done := Timed("embed batch")
	done()

	assert.True(t, strings.HasPrefix(buf.String(), "[DEBUG] embed batch took "))
}
