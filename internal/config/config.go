// Package config loads storefront settings from defaults, an optional YAML
// file, a .env file, the process environment and an explicit map, in that
// order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"lebem.uz/storefront/internal/i18n"
)

const (
	defaultEnvFile         = ".env"
	defaultPort            = "8080"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultAPITimeout      = 8 * time.Second
	defaultEnvironment     = "local"
	defaultSearchDelay     = 300 * time.Millisecond
	defaultSearchMinChars  = 3
	defaultPartialCacheTTL = 5 * time.Minute
	defaultMaxVisitors     = 4096
	defaultVisitorIdleTTL  = 30 * time.Minute
	defaultLogLevel        = "info"
	defaultServiceName     = "lebem-storefront"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	API         APIConfig
	I18n        I18nConfig
	Session     SessionConfig
	Search      SearchConfig
	Partials    PartialsConfig
	Analytics   AnalyticsConfig
	Tracing     TracingConfig
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// APIConfig points at the catalogue/review backend.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// I18nConfig selects the fallback language.
type I18nConfig struct {
	DefaultLang string
}

// SessionConfig controls visitor cookies and per-visitor state.
type SessionConfig struct {
	SigningKey  string
	MaxVisitors int
	IdleTTL     time.Duration
}

// SearchConfig tunes the debounced product search.
type SearchConfig struct {
	Delay    time.Duration
	MinChars int
}

// PartialsConfig locates page partials. An empty TemplateBaseURL serves the
// embedded copies only.
type PartialsConfig struct {
	TemplateBaseURL string
	CacheTTL        time.Duration
}

// AnalyticsConfig enables Google Analytics when a measurement id is set.
type AnalyticsConfig struct {
	GAMeasurementID string
}

// TracingConfig controls OpenTelemetry spans. Spans are always recorded;
// they are exported only when OTLPEndpoint is set.
type TracingConfig struct {
	ServiceName  string
	OTLPEndpoint string
}

// IsProduction reports whether the storefront runs in prod.
func (c Config) IsProduction() bool { return c.Environment == "prod" }

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
	configFile   string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithConfigFile reads a YAML file on top of the defaults.
func WithConfigFile(path string) Option {
	return func(o *loaderOptions) {
		o.configFile = path
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

func defaults() Config {
	return Config{
		Environment: defaultEnvironment,
		LogLevel:    defaultLogLevel,
		Server: ServerConfig{
			Addr:            ":" + defaultPort,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		API:      APIConfig{Timeout: defaultAPITimeout},
		I18n:     I18nConfig{DefaultLang: i18n.DefaultLanguages[0]},
		Session:  SessionConfig{MaxVisitors: defaultMaxVisitors, IdleTTL: defaultVisitorIdleTTL},
		Search:   SearchConfig{Delay: defaultSearchDelay, MinChars: defaultSearchMinChars},
		Partials: PartialsConfig{CacheTTL: defaultPartialCacheTTL},
		Tracing:  TracingConfig{ServiceName: defaultServiceName},
	}
}

// Load assembles the storefront configuration.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	cfg := defaults()
	if options.configFile != "" {
		if err := applyFile(&cfg, options.configFile); err != nil {
			return Config{}, err
		}
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

	var bad []string
	duration := func(key string, fallback time.Duration) time.Duration {
		d, ok := durationWithDefault(lookup, key, fallback)
		if !ok {
			bad = append(bad, key)
		}
		return d
	}
	integer := func(key string, fallback int) int {
		n, ok := intWithDefault(lookup, key, fallback)
		if !ok {
			bad = append(bad, key)
		}
		return n
	}

	cfg.Environment = strings.ToLower(stringWithDefault(lookup, "LEBEM_ENV", cfg.Environment))
	cfg.LogLevel = stringWithDefault(lookup, "LOG_LEVEL", cfg.LogLevel)
	if port, ok := lookup("PORT"); ok && strings.TrimSpace(port) != "" {
		cfg.Server.Addr = ":" + strings.TrimSpace(port)
	}
	cfg.Server.Addr = stringWithDefault(lookup, "LEBEM_ADDR", cfg.Server.Addr)
	cfg.Server.ReadTimeout = duration("LEBEM_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = duration("LEBEM_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = duration("LEBEM_IDLE_TIMEOUT", cfg.Server.IdleTimeout)
	cfg.Server.ShutdownTimeout = duration("LEBEM_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)
	cfg.API.BaseURL = strings.TrimRight(stringWithDefault(lookup, "LEBEM_API_BASE_URL", cfg.API.BaseURL), "/")
	cfg.API.Timeout = duration("LEBEM_API_TIMEOUT", cfg.API.Timeout)
	cfg.I18n.DefaultLang = strings.ToLower(stringWithDefault(lookup, "LEBEM_DEFAULT_LANG", cfg.I18n.DefaultLang))
	cfg.Session.SigningKey = stringWithDefault(lookup, "LEBEM_SESSION_SIGNING_KEY", cfg.Session.SigningKey)
	cfg.Session.MaxVisitors = integer("LEBEM_MAX_VISITORS", cfg.Session.MaxVisitors)
	cfg.Session.IdleTTL = duration("LEBEM_VISITOR_IDLE_TTL", cfg.Session.IdleTTL)
	cfg.Search.Delay = duration("LEBEM_SEARCH_DELAY", cfg.Search.Delay)
	cfg.Search.MinChars = integer("LEBEM_SEARCH_MIN_CHARS", cfg.Search.MinChars)
	cfg.Partials.TemplateBaseURL = strings.TrimRight(stringWithDefault(lookup, "LEBEM_TEMPLATE_BASE_URL", cfg.Partials.TemplateBaseURL), "/")
	cfg.Partials.CacheTTL = duration("LEBEM_PARTIAL_CACHE_TTL", cfg.Partials.CacheTTL)
	cfg.Analytics.GAMeasurementID = stringWithDefault(lookup, "LEBEM_GA_MEASUREMENT_ID", cfg.Analytics.GAMeasurementID)
	cfg.Tracing.ServiceName = stringWithDefault(lookup, "OTEL_SERVICE_NAME", cfg.Tracing.ServiceName)
	cfg.Tracing.OTLPEndpoint = stringWithDefault(lookup, "LEBEM_OTLP_ENDPOINT", cfg.Tracing.OTLPEndpoint)

	if err := validateConfig(cfg, bad); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config, bad []string) error {
	fields := append([]string(nil), bad...)
	if !isHTTPURL(cfg.API.BaseURL) {
		fields = append(fields, "LEBEM_API_BASE_URL")
	}
	if cfg.Partials.TemplateBaseURL != "" && !isHTTPURL(cfg.Partials.TemplateBaseURL) {
		fields = append(fields, "LEBEM_TEMPLATE_BASE_URL")
	}
	if cfg.Tracing.OTLPEndpoint != "" && !isHTTPURL(cfg.Tracing.OTLPEndpoint) {
		fields = append(fields, "LEBEM_OTLP_ENDPOINT")
	}
	if !slices.Contains(i18n.DefaultLanguages, cfg.I18n.DefaultLang) {
		fields = append(fields, "LEBEM_DEFAULT_LANG")
	}
	if cfg.IsProduction() && strings.TrimSpace(cfg.Session.SigningKey) == "" {
		fields = append(fields, "LEBEM_SESSION_SIGNING_KEY")
	}
	if cfg.Search.MinChars < 1 {
		fields = append(fields, "LEBEM_SEARCH_MIN_CHARS")
	}
	if cfg.Search.Delay < 0 {
		fields = append(fields, "LEBEM_SEARCH_DELAY")
	}
	if cfg.API.Timeout <= 0 {
		fields = append(fields, "LEBEM_API_TIMEOUT")
	}
	if len(fields) == 0 {
		return nil
	}
	slices.Sort(fields)
	return &ValidationError{fields: slices.Compact(fields)}
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func loadDotEnv(path string) (map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: read env file %s: %w", path, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) (time.Duration, bool) {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback, true
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback, false
	}
	return d, true
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) (int, bool) {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback, false
	}
	return n, true
}
