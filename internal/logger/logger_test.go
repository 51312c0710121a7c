package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerboseToggle(t *testing.T) {
	defer SetVerbose(false)

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestDebugSuppressedByDefault(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	SetVerbose(false)

	Debug("hidden %d", 1)
	assert.Empty(t, buf.String())
}

func TestMessagesWhenVerbose(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	SetVerbose(true)
	defer SetVerbose(false)

	Section("Ingestion")
	Debug("chunks=%d", 3)
	Info("indexed %s", "a.pdf")
	Warn("embedding failed")

	out := buf.String()
	assert.Contains(t, out, "=== Ingestion ===")
	assert.Contains(t, out, "[DEBUG] chunks=3")
	assert.Contains(t, out, "[INFO] indexed a.pdf")
	assert.Contains(t, out, "[WARN] embedding failed")
}
