package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadFixture replaces the loaded values for the duration of a test.
func loadFixture(t *testing.T, appJSON, dotEnv string) {
	t.Helper()
	_ = Load()

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "app.json")
	envPath := filepath.Join(dir, ".env")
	if appJSON != "" {
		require.NoError(t, os.WriteFile(jsonPath, []byte(appJSON), 0o600))
	}
	if dotEnv != "" {
		require.NoError(t, os.WriteFile(envPath, []byte(dotEnv), 0o600))
	}
	require.NoError(t, loadFromFiles(jsonPath, envPath))
	t.Cleanup(func() {
		mu.Lock()
		values = defaultValues()
		mu.Unlock()
	})
}

func TestLayering(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	loadFixture(t,
		`{"app_port": "7000", "mongo_database": "shop", "rate_limit": 5, "log_mongo": true}`,
		"# comment\nexport MONGO_DATABASE='shop_dev'\nREDIS_ADDR=none\n",
	)

	assert.Equal(t, "9090", AppPort())
	assert.Equal(t, "shop_dev", MongoDatabase())
	assert.Equal(t, 5, RateLimit())
	assert.True(t, LogMongo())
	assert.Equal(t, "", RedisAddr())
	assert.Equal(t, defaultMongoURI, MongoURI())
}

func TestMissingFilesKeepDefaults(t *testing.T) {
	loadFixture(t, "", "")

	assert.Equal(t, "mongo", StoreDriver())
	assert.Equal(t, "pkr", PaymentCurrency())
	assert.Equal(t, int64(defaultMaxBodyBytes), MaxBodyBytes())
	assert.Equal(t, time.Minute, RateWindow())
	assert.Equal(t, defaultUploadWorkers, UploadWorkers())
	assert.Equal(t, []string{"*"}, CORSOrigins())
}

func TestMalformedJSON(t *testing.T) {
	_ = Load()
	path := filepath.Join(t.TempDir(), "app.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	assert.Error(t, loadFromFiles(path, filepath.Join(t.TempDir(), ".env")))
}

func TestParsedValues(t *testing.T) {
	loadFixture(t, "", "STORE_DRIVER=Memory\nCORS_ORIGINS= https://a.test , ,https://b.test\nRATE_WINDOW=30s\nPAYMENT_CURRENCY=USD\nMAX_BODY_BYTES=-1\nRATE_LIMIT=x\n")

	assert.Equal(t, "memory", StoreDriver())
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, CORSOrigins())
	assert.Empty(t, TrustedProxies())
	Set("TRUSTED_PROXIES", "10.0.0.1, 10.0.0.2")
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, TrustedProxies())
	assert.Equal(t, 30*time.Second, RateWindow())
	assert.Equal(t, "usd", PaymentCurrency())
	assert.Equal(t, int64(defaultMaxBodyBytes), MaxBodyBytes())
	assert.Equal(t, defaultRateLimit, RateLimit())

	Set("rate_limit", "0")
	assert.Equal(t, 0, RateLimit())

	assert.False(t, IsProduction())
	Set("APP_ENV", "prod")
	assert.True(t, IsProduction())
	assert.True(t, Bool("MISSING", true))
}
