package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, DebugLevel, ParseLevel("DEBUG"))
	require.Equal(t, WarnLevel, ParseLevel("WARN"))
	require.Equal(t, ErrorLevel, ParseLevel("ERROR"))
	require.Equal(t, InfoLevel, ParseLevel("garbage"))
}

func TestLogger_RespectsMinimumLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, WarnLevel)

	l.Info("should not appear")
	require.Empty(t, buf.String())

	l.Warn("should appear")
	require.True(t, strings.Contains(buf.String(), "[WARN] should appear"))
}

func TestLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, WarnLevel)

	l.SetLevel(DebugLevel)
	l.Debug("now visible")
	require.True(t, strings.Contains(buf.String(), "[DEBUG] now visible"))
}

func TestLogger_Formatted(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, InfoLevel)

	l.Infof("count=%d", 3)
	require.True(t, strings.Contains(buf.String(), "count=3"))
}
