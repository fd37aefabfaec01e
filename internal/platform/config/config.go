package config

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile        = ".env"
	defaultPort           = "8080"
	defaultReadTimeout    = 15 * time.Second
	defaultWriteTimeout   = 30 * time.Second
	defaultIdleTimeout    = 120 * time.Second
	defaultHubBaseURL     = "https://auth.onsiteclub.ca"
	defaultReturnOrigin   = "https://shop.onsiteclub.ca"
	defaultPersistTimeout = 3 * time.Second
	defaultCartStoreDir   = "./data"
	defaultTempCartTTL    = 30 * time.Minute
	defaultFrameInterval  = 16 * time.Millisecond
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server   ServerConfig
	Checkout CheckoutConfig
	Cart     CartConfig
	TempCart TempCartConfig
	Catalog  CatalogConfig
	Float    FloatConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// CheckoutConfig points the handoff at the external checkout hub.
type CheckoutConfig struct {
	HubBaseURL     string
	ReturnOrigin   string
	PersistTimeout time.Duration
}

// CartConfig controls durable cart persistence.
type CartConfig struct {
	StoreDir string
}

// TempCartConfig controls the temporary-cart store backing checkout handoffs.
// An empty RedisAddr selects the in-process store.
type TempCartConfig struct {
	RedisAddr string
	RedisDB   int
	TTL       time.Duration
}

// CatalogConfig locates the product catalog seed.
type CatalogConfig struct {
	ProductsFile string
}

// FloatConfig tunes the layout engine loop.
type FloatConfig struct {
	FrameInterval time.Duration
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the application configuration by combining defaults, .env overrides,
// and environment variables.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}

	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "SHOP_SERVER_PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "SHOP_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "SHOP_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "SHOP_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Checkout: CheckoutConfig{
			HubBaseURL:     stringWithDefault(lookup, "SHOP_CHECKOUT_HUB_BASE_URL", defaultHubBaseURL),
			ReturnOrigin:   stringWithDefault(lookup, "SHOP_CHECKOUT_RETURN_ORIGIN", defaultReturnOrigin),
			PersistTimeout: durationWithDefault(lookup, "SHOP_CHECKOUT_PERSIST_TIMEOUT", defaultPersistTimeout),
		},
		Cart: CartConfig{
			StoreDir: stringWithDefault(lookup, "SHOP_CART_STORE_DIR", defaultCartStoreDir),
		},
		TempCart: TempCartConfig{
			RedisAddr: stringWithDefault(lookup, "SHOP_TEMPCART_REDIS_ADDR", ""),
			RedisDB:   intWithDefault(lookup, "SHOP_TEMPCART_REDIS_DB", 0),
			TTL:       durationWithDefault(lookup, "SHOP_TEMPCART_TTL", defaultTempCartTTL),
		},
		Catalog: CatalogConfig{
			ProductsFile: stringWithDefault(lookup, "SHOP_CATALOG_PRODUCTS_FILE", ""),
		},
		Float: FloatConfig{
			FrameInterval: durationWithDefault(lookup, "SHOP_FLOAT_FRAME_INTERVAL", defaultFrameInterval),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if !isAbsoluteURL(cfg.Checkout.HubBaseURL) {
		missing = append(missing, "Checkout.HubBaseURL")
	}
	if !isAbsoluteURL(cfg.Checkout.ReturnOrigin) {
		missing = append(missing, "Checkout.ReturnOrigin")
	}
	if cfg.Checkout.PersistTimeout <= 0 {
		missing = append(missing, "Checkout.PersistTimeout")
	}
	if strings.TrimSpace(cfg.Cart.StoreDir) == "" {
		missing = append(missing, "Cart.StoreDir")
	}
	if cfg.TempCart.TTL <= 0 {
		missing = append(missing, "TempCart.TTL")
	}
	if cfg.Float.FrameInterval <= 0 {
		missing = append(missing, "Float.FrameInterval")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func isAbsoluteURL(raw string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return parsed.Scheme != "" && parsed.Host != ""
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		value = strings.Trim(value, "\"'")
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
