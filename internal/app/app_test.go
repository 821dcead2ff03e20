package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/grocery-catalog-crawler/internal/config"
)

func baseConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		API:      config.APIConfig{BaseURL: "https://tienda.example.com", Language: "es", Warehouse: "vlc1", TimeoutSeconds: 5},
		Cache:    config.CacheConfig{Provider: "memory"},
		Catalog:  config.CatalogConfig{Dir: dir},
		Crawler:  config.CrawlerConfig{MaxProducts: 10, BaseCategoryLimit: 5, MaxCategorySize: 10},
		Rotation: config.RotationConfig{StatePath: dir + "/rotation_state.json"},
		Upload:   config.UploadConfig{Provider: "noop"},
		Events:   config.EventsConfig{Provider: "memory"},
	}
}

func TestNewWithLocalProviders(t *testing.T) {
	a, err := New(context.Background(), baseConfig(t))
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Engine)
	require.Nil(t, a.Server, "server stays off unless enabled")
}

func TestNewStartsServerWhenEnabled(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Server = config.ServerConfig{Enabled: true, Port: 0}
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()
	require.NotNil(t, a.Server)
}

func TestNewRejectsUnknownCacheProvider(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Cache.Provider = "redis"
	_, err := New(context.Background(), cfg)
	require.Error(t, err)
}

func TestNewRejectsUnknownUploadProvider(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Upload.Provider = "s3"
	_, err := New(context.Background(), cfg)
	require.Error(t, err)
}
