package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	opts, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000/api", opts.BaseURL)
	assert.Equal(t, 5*time.Second, opts.Timeout())
	assert.Equal(t, "session.json", opts.StorePath)
	assert.Equal(t, "info", opts.LogLevel)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("WIKI_BASE_URL", "https://wiki.go.id/api")
	t.Setenv("WIKI_TIMEOUT_MS", "2500")
	t.Setenv("WIKI_STORE", "/tmp/wiki-session.json")
	t.Setenv("WIKI_LOG_LEVEL", "debug")

	opts, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://wiki.go.id/api", opts.BaseURL)
	assert.Equal(t, 2500*time.Millisecond, opts.Timeout())
	assert.Equal(t, "/tmp/wiki-session.json", opts.StorePath)
	assert.Equal(t, "debug", opts.LogLevel)
}

func TestSanitize_ClampsInvalidValues(t *testing.T) {
	opts := &Options{TimeoutMS: -1}
	opts.Sanitize()

	assert.Equal(t, 5000, opts.TimeoutMS)
	assert.Equal(t, "session.json", opts.StorePath)
}
