package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func captureLogger(t *testing.T, jsonOutput bool, verbosity int) *bytes.Buffer {
	t.Helper()
	saved := Logger
	t.Cleanup(func() {
		Logger = saved
		SetVerbosity(VerbosityUser)
	})

	var buf bytes.Buffer
	require.NoError(t, InitializeWriter(&buf, jsonOutput, verbosity))
	return &buf
}

func TestInitializeWriter_JSON(t *testing.T) {
	buf := captureLogger(t, true, VerbosityInfo)
	assert.True(t, JSONOutput)

	ChronologyLogger("chronology", "Ussher", "Gregorian").Infow("Record added",
		FieldCategory, "EVENTS", FieldRecord, "Creation")
	Cleanup()

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "Record added", entry["msg"])
	assert.Equal(t, "chronology", entry["logger"])
	assert.Equal(t, "Ussher", entry[FieldChronology])
	assert.Equal(t, "Gregorian", entry[FieldCalendar])
	assert.Equal(t, "Creation", entry[FieldRecord])
}

func TestInitializeWriter_Levels(t *testing.T) {
	buf := captureLogger(t, false, VerbosityUser)

	Infow("hidden at default verbosity")
	Warnw("stale ORDER entry", FieldRecord, "Flood")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "stale ORDER entry")

	// component loggers follow later verbosity changes
	l := ComponentLogger("index")
	SetVerbosity(VerbosityDebug)
	l.Debugw("watcher event", FieldPath, "ussher.chrono")
	assert.Contains(t, buf.String(), "watcher event")
	assert.Equal(t, 2, strings.Count(strings.TrimSpace(buf.String()), "\n")+1)
}

func TestNilLoggerIsSafe(t *testing.T) {
	saved := Logger
	defer func() { Logger = saved }()

	Logger = nil
	assert.NotPanics(t, func() {
		Infow("info", FieldCount, 1)
		Warnw("warn")
		Cleanup()
	})
}

func TestVerbosityToLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(-1))
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(VerbosityUser))
	assert.Equal(t, zapcore.InfoLevel, VerbosityToLevel(VerbosityInfo))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(VerbosityDebug))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(7))
}

func TestLevelName(t *testing.T) {
	assert.Equal(t, "User", LevelName(0))
	assert.Equal(t, "Info (-v)", LevelName(1))
	assert.Equal(t, "Debug (-vv)", LevelName(3))
}
