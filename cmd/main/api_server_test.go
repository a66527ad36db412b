package main

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthAndVersion(t *testing.T) {
	env := setupTestServer(t)

	var health map[string]any
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/health", nil, &health))
	assert.Equal(t, false, health["model_loaded"])

	env.learnAndBuild(t, "hi")
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/health", nil, &health))
	assert.Equal(t, true, health["model_loaded"])

	var version VersionInfo
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/server/version", nil, &version))
	assert.Equal(t, Version, version.Version)
}

func TestServerConfigUpdate(t *testing.T) {
	env := setupTestServer(t)

	var config Config
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/server/config", nil, &config))
	config.Markov.MaxGenerateLength = 12

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, "/api/server/config", jsonBody(t, config), nil))
	assert.Equal(t, 12, env.config.Get().Markov.MaxGenerateLength)

	reloaded, err := LoadConfig(env.config.configPath)
	require.NoError(t, err)
	assert.Equal(t, 12, reloaded.Markov.MaxGenerateLength)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPut, "/api/server/config", jsonBody(t, map[string]any{}), nil))
}

func TestServerControl(t *testing.T) {
	env := setupTestServer(t)

	require.Equal(t, http.StatusAccepted, env.do(t, http.MethodPost, "/api/server/restart", nil, nil))
	assert.Equal(t, actionRestart, <-env.actionChan)

	require.Equal(t, http.StatusAccepted, env.do(t, http.MethodPost, "/api/server/shutdown", nil, nil))
	assert.Equal(t, actionShutdown, <-env.actionChan)
}
