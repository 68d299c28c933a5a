package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kart-storefront/internal/domain/cart"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/api", cfg.APIURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Watch.Interval)

	policy, err := cfg.CartPolicy()
	require.NoError(t, err)
	assert.Equal(t, cart.PolicyKeep, policy)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("STOREFRONT_API_URL", "https://shop.example.com/api")
	t.Setenv("STOREFRONT_CART_POLICY", "rollback")

	cfg, err := loadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example.com/api", cfg.APIURL)
	policy, err := cfg.CartPolicy()
	require.NoError(t, err)
	assert.Equal(t, cart.PolicyRollback, policy)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: http://file.example/api\n"), 0o600))

	cfg, err := loadConfig([]string{path})
	require.NoError(t, err)
	assert.Equal(t, "http://file.example/api", cfg.APIURL)
}

func TestLoadConfig_InvalidPolicy(t *testing.T) {
	t.Setenv("STOREFRONT_CART_POLICY", "optimistic")

	_, err := loadConfig(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cart policy")
}
