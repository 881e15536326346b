package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupLogger_ProdWritesJSONWithoutDebug(t *testing.T) {
	var buf bytes.Buffer
	log := setupLogger(EnvProd, &buf)

	log.Debug("hidden")
	log.Info("visible", slog.String("op", "test"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 1)

	var entry map[string]any
	assert.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "visible", entry["msg"])
	assert.Equal(t, "test", entry["op"])
	assert.Equal(t, EnvProd, entry["env"])
}

func TestSetupLogger_DevEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	log := setupLogger(EnvDev, &buf)

	log.Debug("debug message")
	assert.Contains(t, buf.String(), "debug message")
}

func TestSetupLogger_LocalPrettyPrintsErrors(t *testing.T) {
	var buf bytes.Buffer
	log := setupLogger(EnvLocal, &buf)

	log.Error("failed", slog.Any("error", errors.New("boom")))
	assert.Contains(t, buf.String(), "failed")
	assert.Contains(t, buf.String(), "boom")
}
