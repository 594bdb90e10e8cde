package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_ConsoleLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewLoggerWithOptions("test", Options{Console: &buf, ConsoleLevel: INFO})
	require.NoError(t, err)

	l.Debug("скрыто %d", 1)
	l.Info("видно %d", 2)
	l.Error("ошибка")

	out := buf.String()
	assert.NotContains(t, out, "скрыто")
	assert.Contains(t, out, "[INFO] [test] видно 2")
	assert.Contains(t, out, "[ERROR] [test] ошибка")
}

func TestLogger_NilIsSilent(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Info("ничего")
		l.SetLevels(DEBUG, DEBUG)
		_ = l.Close()
	})
}

func TestDefaultLogger_ComponentLoggers(t *testing.T) {
	CloseDefaultLogger()
	assert.Nil(t, GetComponentLogger("game"), "до инициализации логгеров нет")

	var buf bytes.Buffer
	require.NoError(t, InitDefaultLoggerWithOptions("server", Options{Console: &buf, ConsoleLevel: DEBUG}))
	defer CloseDefaultLogger()

	Info("старт")
	GetGameLogger().Debug("блок")
	assert.True(t, GetLoggerManager().SetLogLevel("game", ERROR, ERROR))
	GetGameLogger().Info("не видно")

	out := buf.String()
	assert.Contains(t, out, "[server] старт")
	assert.Contains(t, out, "[game] блок")
	assert.NotContains(t, out, "не видно")
	assert.Equal(t, []string{"game"}, GetLoggerManager().ListComponents())
	assert.False(t, GetLoggerManager().SetLogLevel("missing", INFO, INFO))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, ERROR, ParseLevel("ERROR"))
	assert.Equal(t, INFO, ParseLevel("что-то"))
}
