package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetColorsEnabled(false)
	t.Cleanup(func() {
		SetJSONOutput(false)
		SetColorsEnabled(true)
		_ = SetLogLevel("debug")
		SetOutput(nil)
	})
	return &buf
}

func TestSetLogLevel_RejectsUnknownLevel(t *testing.T) {
	require.Error(t, SetLogLevel("verbose"))
	require.NoError(t, SetLogLevel("WARNING"))
	require.NoError(t, SetLogLevel("debug"))
}

func TestLogLevel_FiltersLowerLevels(t *testing.T) {
	buf := capture(t)
	require.NoError(t, SetLogLevel("warning"))

	Info("hidden %d", 1)
	Warning("shown %d", 2)

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "shown 2")
	require.Contains(t, out, "WARNING")
}

func TestComponentPrefix_IsUppercased(t *testing.T) {
	buf := capture(t)

	InfoComponent("tip", "new head %d", 7)

	require.Contains(t, buf.String(), "[TIP] new head 7")
}

func TestJSONOutput_CarriesComponentField(t *testing.T) {
	buf := capture(t)
	SetJSONOutput(true)

	Event("compare").Uint64("block", 12).Str("tx", "0xabc").Msg("comparison")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &line))
	require.Equal(t, "compare", line["component"])
	require.Equal(t, float64(12), line["block"])
	require.Equal(t, "comparison", line["message"])
}

func TestEvent_NilWhenInfoDisabled(t *testing.T) {
	capture(t)
	require.NoError(t, SetLogLevel("error"))

	e := Event("compare")
	require.Nil(t, e)
	// nil events are safe to use
	e.Str("k", "v").Msg("dropped")
}
