package zerolog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sreekar2307/clusterhealth/logger"
	"github.com/sreekar2307/clusterhealth/logger/zerolog"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestLogger(t *testing.T) {
	t.Parallel()

	t.Run("writes attrs and level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		l := zerolog.NewLogger(&buf, logger.InfoLevel)
		l.Info(context.Background(), "metadata fetched",
			logger.NewAttr("brokers", 3),
			logger.NewAttr("error", errors.New("boom")),
		)

		lines := decodeLines(t, &buf)
		require.Len(t, lines, 1)
		require.Equal(t, "info", lines[0]["level"])
		require.Equal(t, "metadata fetched", lines[0]["message"])
		require.EqualValues(t, 3, lines[0]["brokers"])
		require.Equal(t, "boom", lines[0]["error"])
		require.Contains(t, lines[0], "time")
	})

	t.Run("drops events below the level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		l := zerolog.NewLogger(&buf, logger.WarnLevel)
		l.Debug(context.Background(), "debug")
		l.Info(context.Background(), "info")
		l.Warn(context.Background(), "warn")

		lines := decodeLines(t, &buf)
		require.Len(t, lines, 1)
		require.Equal(t, "warn", lines[0]["message"])
	})

	t.Run("child loggers carry fields", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		l := zerolog.NewLogger(&buf, logger.DebugLevel).WithFields(logger.NewAttr("component", "controller"))
		l.Error(context.Background(), "failed")

		lines := decodeLines(t, &buf)
		require.Len(t, lines, 1)
		require.Equal(t, "controller", lines[0]["component"])
	})
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	level, err := logger.ParseLevel("WARN")
	require.NoError(t, err)
	require.Equal(t, logger.WarnLevel, level)

	level, err = logger.ParseLevel("")
	require.NoError(t, err)
	require.Equal(t, logger.InfoLevel, level)

	_, err = logger.ParseLevel("loud")
	require.Error(t, err)
}
