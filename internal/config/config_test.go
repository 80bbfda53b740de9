package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing-but-unrequested.toml"))
	assert.Error(t, err, "explicit missing path is an error")

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Processing.BatchThreshold)
	assert.Equal(t, 3, cfg.Processing.MaxRetries)
	assert.Equal(t, "gemsync.db", cfg.ResultsDB)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gemsync.toml")
	content := `
[shopify]
shop_domain = "example.myshopify.com"
api_version = "2025-01"

[processing]
batch_threshold = 25
workers = 8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "example.myshopify.com", cfg.Shopify.ShopDomain)
	assert.Equal(t, "2025-01", cfg.Shopify.APIVersion)
	assert.Equal(t, 25, cfg.Processing.BatchThreshold)
	assert.Equal(t, 8, cfg.Processing.Workers)
	// Untouched sections keep defaults.
	assert.Equal(t, 3, cfg.Processing.MaxRetries)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gemsync.toml")
	require.NoError(t, os.WriteFile(path, []byte("[shopify]\naccess_token = \"from-file\"\n"), 0o644))

	t.Setenv("SHOPIFY_ACCESS_TOKEN", "from-env")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Shopify.AccessToken)
}
