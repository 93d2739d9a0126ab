package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestLoadResolutionConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resolution.yml")
	body := `resolution:
  minConfidence: 0.7
  unmatchedPolicy: processed
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	holder, err := LoadResolutionConfig(path, zaptest.NewLogger(t))
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, 0.7, cfg.MinConfidence)
	assert.Equal(t, UnmatchedProcessed, cfg.UnmatchedPolicy)
	assert.Equal(t, 0.99, cfg.MaxSuggestionConfidence)
	assert.Equal(t, 0.95, cfg.TenantNameWeight)
}

func TestLoadResolutionConfigRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resolution.yml")
	body := `resolution:
  minConfidence: 1.5
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	_, err := LoadResolutionConfig(path, zaptest.NewLogger(t))
	require.Error(t, err)
}

func TestValidateResolutionConfig(t *testing.T) {
	assert.NoError(t, ValidateResolutionConfig(DefaultResolutionConfig()))

	cfg := DefaultResolutionConfig()
	cfg.UnmatchedPolicy = "drop"
	assert.Error(t, ValidateResolutionConfig(cfg))

	cfg = DefaultResolutionConfig()
	cfg.MinConfidence = 0.995
	assert.Error(t, ValidateResolutionConfig(cfg))
}
