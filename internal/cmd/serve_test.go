package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/davgallery/internal/config"
)

func TestConfigHealthChecker(t *testing.T) {
	checker := configHealthChecker{}
	config.SetConfigFile("")

	t.Run("fails without endpoint", func(t *testing.T) {
		isolateEnv(t)
		_, err := config.Load(context.Background())
		require.NoError(t, err)

		err = checker.CheckHealth(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "endpoint not configured")
	})

	t.Run("passes with endpoint", func(t *testing.T) {
		isolateEnv(t)
		_, err := config.Load(context.Background(), map[string]any{
			"webdav": map[string]any{"endpoint": "https://cloud.example.com"},
		})
		require.NoError(t, err)

		assert.NoError(t, checker.CheckHealth(context.Background()))
	})
}

func TestServe_InvalidConfig(t *testing.T) {
	_, err := executeCommand(t, "", "serve", "--port", "70000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid configuration")
}

func TestServe_MissingEndpoint(t *testing.T) {
	_, err := executeCommand(t, "", "serve", "--port", "18080")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid WebDAV settings")
}
