package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	missing := "--config=" + filepath.Join(t.TempDir(), "absent.yaml")

	t.Run("help exits cleanly", func(t *testing.T) {
		require.Equal(t, exitGreen, run([]string{missing, "--help"}))
	})

	t.Run("invalid configuration", func(t *testing.T) {
		require.Equal(t, exitError, run([]string{missing, "-s", "sasl_ssl", "-u", "alice"}))
	})

	t.Run("unreachable cluster in once mode", func(t *testing.T) {
		require.Equal(t, exitError, run([]string{
			missing,
			"--once",
			"--log_level", "error",
			"-b", "127.0.0.1:1",
			"--metadata_timeout", "500ms",
		}))
	})
}
