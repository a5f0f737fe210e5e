package callback

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServerConfig(t *testing.T) {
	t.Run("full file", func(t *testing.T) {
		path := writeConfig(t, "host: 127.0.0.1\nport: 9292\nstate_path: /provider-states\nmessage_path: /messages\n")

		cfg, err := LoadServerConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1", cfg.Host)
		assert.Equal(t, 9292, cfg.Port)
		assert.Equal(t, "/provider-states", cfg.StatePath)
		assert.Equal(t, "/messages", cfg.MessagePath)
	})

	t.Run("defaults fill unset fields", func(t *testing.T) {
		path := writeConfig(t, "port: 9292\n")

		cfg, err := LoadServerConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "localhost", cfg.Host)
		assert.Equal(t, 9292, cfg.Port)
		assert.Equal(t, "/_pact/state", cfg.StatePath)
		assert.Equal(t, "/_pact/message", cfg.MessagePath)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadServerConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeConfig(t, "host: [\n")

		_, err := LoadServerConfig(path)
		assert.Error(t, err)
	})
}

func TestServerConfigNormalize(t *testing.T) {
	var cfg ServerConfig
	cfg.Normalize()

	assert.Equal(t, DefaultServerConfig(), cfg)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "callback.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
