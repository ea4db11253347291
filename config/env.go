package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultStoreDriver     = "mongo"
	defaultMongoURI        = "mongodb://localhost:27017"
	defaultMongoDatabase   = "storefront"
	defaultRedisAddr       = "localhost:6379"
	defaultJWTSecret       = "change-me-in-production"
	defaultAppPort         = "8080"
	defaultAppEnv          = "local"
	defaultPaymentCurrency = "pkr"
	defaultMaxBodyBytes    = 4 << 20
	defaultRateLimit       = 60
	defaultRateWindow      = time.Minute
	defaultUploadWorkers   = 4
)

// Keys that may be overridden from the process environment. Anything else
// must come from config/app.json or .env.
var envKeys = []string{
	"APP_ENV", "APP_PORT",
	"STORE_DRIVER", "MONGO_URI", "MONGO_DATABASE", "LOG_MONGO",
	"JWT_SECRET",
	"REDIS_ADDR", "REDIS_PASSWORD",
	"STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET", "PAYMENT_CURRENCY",
	"STORAGE_DISK", "STORAGE_LOCAL_ROOT", "STORAGE_URL",
	"S3_BUCKET", "S3_REGION", "S3_KEY", "S3_SECRET", "S3_ENDPOINT", "S3_URL",
	"MAX_BODY_BYTES", "CORS_ORIGINS", "TRUSTED_PROXIES", "RATE_LIMIT", "RATE_WINDOW",
	"UPLOAD_WORKERS",
}

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = defaultValues()
)

// Load merges config/app.json, .env and the process environment over the
// built-in defaults. Later sources win. Safe to call many times.
func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFromFiles("config/app.json", ".env")
	})
	return loadErr
}

func defaultValues() map[string]string {
	return map[string]string{
		"APP_ENV":          defaultAppEnv,
		"APP_PORT":         defaultAppPort,
		"STORE_DRIVER":     defaultStoreDriver,
		"MONGO_URI":        defaultMongoURI,
		"MONGO_DATABASE":   defaultMongoDatabase,
		"REDIS_ADDR":       defaultRedisAddr,
		"JWT_SECRET":       defaultJWTSecret,
		"PAYMENT_CURRENCY": defaultPaymentCurrency,
	}
}

func AppEnv() string {
	_ = Load()
	return get("APP_ENV", defaultAppEnv)
}

// IsProduction reports whether APP_ENV is "production" or "prod".
func IsProduction() bool {
	switch AppEnv() {
	case "production", "prod":
		return true
	}
	return false
}

func AppPort() string {
	_ = Load()
	return get("APP_PORT", defaultAppPort)
}

// StoreDriver selects the product/user store: "mongo" or "memory".
func StoreDriver() string {
	_ = Load()

	driver := strings.ToLower(get("STORE_DRIVER", defaultStoreDriver))
	switch driver {
	case "mongo", "memory":
		return driver
	default:
		return defaultStoreDriver
	}
}

func MongoURI() string {
	_ = Load()
	return get("MONGO_URI", defaultMongoURI)
}

func MongoDatabase() string {
	_ = Load()
	return get("MONGO_DATABASE", defaultMongoDatabase)
}

// LogMongo reports whether log records are mirrored into the "logs" collection.
func LogMongo() bool {
	_ = Load()
	return Bool("LOG_MONGO", false)
}

func JWTSecret() string {
	_ = Load()
	return get("JWT_SECRET", defaultJWTSecret)
}

// RedisAddr returns the Redis address, or "" when Redis is disabled with
// REDIS_ADDR=none.
func RedisAddr() string {
	_ = Load()
	addr := get("REDIS_ADDR", defaultRedisAddr)
	if strings.EqualFold(addr, "none") {
		return ""
	}
	return addr
}

func RedisPassword() string {
	_ = Load()
	return get("REDIS_PASSWORD", "")
}

// ── Payments ─────────────────────────────────────────────────────────────────

func StripeSecretKey() string     { _ = Load(); return get("STRIPE_SECRET_KEY", "") }
func StripeWebhookSecret() string { _ = Load(); return get("STRIPE_WEBHOOK_SECRET", "") }

func PaymentCurrency() string {
	_ = Load()
	return strings.ToLower(get("PAYMENT_CURRENCY", defaultPaymentCurrency))
}

// ── Storage ──────────────────────────────────────────────────────────────────

func StorageDefault() string {
	_ = Load()
	return get("STORAGE_DISK", "local")
}

func StorageLocalRoot() string {
	_ = Load()
	return get("STORAGE_LOCAL_ROOT", "storage")
}

func StorageURL() string {
	_ = Load()
	return get("STORAGE_URL", "http://localhost:8080/storage")
}

func StorageS3Bucket() string   { _ = Load(); return get("S3_BUCKET", "") }
func StorageS3Region() string   { _ = Load(); return get("S3_REGION", "us-east-1") }
func StorageS3Key() string      { _ = Load(); return get("S3_KEY", "") }
func StorageS3Secret() string   { _ = Load(); return get("S3_SECRET", "") }
func StorageS3Endpoint() string { _ = Load(); return get("S3_ENDPOINT", "") }
func StorageS3URL() string      { _ = Load(); return get("S3_URL", "") }

// MaxBodyBytes caps JSON request bodies.
func MaxBodyBytes() int64 {
	_ = Load()
	n, err := strconv.ParseInt(get("MAX_BODY_BYTES", ""), 10, 64)
	if err != nil || n <= 0 {
		return defaultMaxBodyBytes
	}
	return n
}

// CORSOrigins lists allowed browser origins. Empty or "*" allows any.
func CORSOrigins() []string {
	_ = Load()
	return list(get("CORS_ORIGINS", "*"))
}

// TrustedProxies lists the peer IPs whose X-Forwarded-For header is believed
// when rate limiting. Empty means the header is ignored.
func TrustedProxies() []string {
	_ = Load()
	return list(get("TRUSTED_PROXIES", ""))
}

func list(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// RateLimit is the number of payment requests one client may make per
// RateWindow. Zero disables limiting.
func RateLimit() int {
	_ = Load()
	return intValue("RATE_LIMIT", defaultRateLimit)
}

func RateWindow() time.Duration {
	_ = Load()
	d, err := time.ParseDuration(get("RATE_WINDOW", ""))
	if err != nil || d <= 0 {
		return defaultRateWindow
	}
	return d
}

func UploadWorkers() int {
	_ = Load()
	if n := intValue("UPLOAD_WORKERS", defaultUploadWorkers); n > 0 {
		return n
	}
	return defaultUploadWorkers
}

func intValue(key string, fallback int) int {
	n, err := strconv.Atoi(get(key, ""))
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func loadFromFiles(configPath, envPath string) error {
	loaded := defaultValues()

	if err := mergeJSONConfig(configPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	if err := mergeDotEnv(envPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	mergeEnviron(loaded)

	mu.Lock()
	values = loaded
	mu.Unlock()

	return nil
}

func mergeJSONConfig(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	for key, val := range raw {
		var s string
		switch v := val.(type) {
		case string:
			s = v
		case float64:
			s = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			s = strconv.FormatBool(v)
		default:
			continue
		}

		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(s)
	}

	return nil
}

func mergeDotEnv(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			continue
		}

		key := strings.ToUpper(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}
		out[key] = value
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	return nil
}

func mergeEnviron(out map[string]string) {
	for _, key := range envKeys {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			out[key] = strings.TrimSpace(v)
		}
	}
}

func get(key, fallback string) string {
	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}

	return fallback
}

// Get reads any config key by name with an optional fallback.
func Get(key, fallback string) string {
	_ = Load()
	return get(key, fallback)
}

// Bool reads a boolean key ("1", "true", "yes", "on").
func Bool(key string, fallback bool) bool {
	_ = Load()
	switch strings.ToLower(get(key, "")) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// Set overrides a key at runtime. Intended for tests and CLI flags.
func Set(key, value string) {
	_ = Load()
	mu.Lock()
	values[strings.ToUpper(key)] = value
	mu.Unlock()
}
