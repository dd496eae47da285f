package logger

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Format: "json", Output: "stdout"})
	require.Error(t, err)
}

func TestJSONOutputCarriesFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := New(&Config{Level: "debug", Format: "json", Output: path})
	require.NoError(t, err)

	l.With(String("component", "ichimoku")).Warn("computed",
		Int("bars", 200),
		Float64("close", 1.0825),
		Bool("cached", false),
		Error(errors.New("boom")),
	)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "computed", entry["message"])
	assert.Equal(t, "ichimoku", entry["component"])
	assert.EqualValues(t, 200, entry["bars"])
	assert.InDelta(t, 1.0825, entry["close"], 1e-12)
	assert.Equal(t, false, entry["cached"])
	assert.Equal(t, "boom", entry["error"])
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	assert.NotPanics(t, func() {
		l.Info("ignored", String("k", "v"))
		l.With(Int("n", 1)).Error("ignored")
	})
}
