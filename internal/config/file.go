package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML layout. Durations are Go duration strings.
type fileConfig struct {
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`
	Server      struct {
		Addr            string `yaml:"addr"`
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		IdleTimeout     string `yaml:"idle_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	API struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"api"`
	DefaultLang string `yaml:"default_lang"`
	Session     struct {
		MaxVisitors int    `yaml:"max_visitors"`
		IdleTTL     string `yaml:"idle_ttl"`
	} `yaml:"session"`
	Search struct {
		Delay    string `yaml:"delay"`
		MinChars int    `yaml:"min_chars"`
	} `yaml:"search"`
	Partials struct {
		TemplateBaseURL string `yaml:"template_base_url"`
		CacheTTL        string `yaml:"cache_ttl"`
	} `yaml:"partials"`
	GAMeasurementID string `yaml:"ga_measurement_id"`
	Tracing         struct {
		ServiceName  string `yaml:"service_name"`
		OTLPEndpoint string `yaml:"otlp_endpoint"`
	} `yaml:"tracing"`
}

// applyFile overlays the non-empty values of a YAML file onto cfg. The
// session signing key is read from the environment only.
func applyFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	var bad []string
	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setDuration := func(dst *time.Duration, field, v string) {
		if v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			bad = append(bad, field)
			return
		}
		*dst = d
	}
	setInt := func(dst *int, v int) {
		if v != 0 {
			*dst = v
		}
	}

	setString(&cfg.Environment, fc.Environment)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.Server.Addr, fc.Server.Addr)
	setDuration(&cfg.Server.ReadTimeout, "server.read_timeout", fc.Server.ReadTimeout)
	setDuration(&cfg.Server.WriteTimeout, "server.write_timeout", fc.Server.WriteTimeout)
	setDuration(&cfg.Server.IdleTimeout, "server.idle_timeout", fc.Server.IdleTimeout)
	setDuration(&cfg.Server.ShutdownTimeout, "server.shutdown_timeout", fc.Server.ShutdownTimeout)
	setString(&cfg.API.BaseURL, fc.API.BaseURL)
	setDuration(&cfg.API.Timeout, "api.timeout", fc.API.Timeout)
	setString(&cfg.I18n.DefaultLang, fc.DefaultLang)
	setInt(&cfg.Session.MaxVisitors, fc.Session.MaxVisitors)
	setDuration(&cfg.Session.IdleTTL, "session.idle_ttl", fc.Session.IdleTTL)
	setDuration(&cfg.Search.Delay, "search.delay", fc.Search.Delay)
	setInt(&cfg.Search.MinChars, fc.Search.MinChars)
	setString(&cfg.Partials.TemplateBaseURL, fc.Partials.TemplateBaseURL)
	setDuration(&cfg.Partials.CacheTTL, "partials.cache_ttl", fc.Partials.CacheTTL)
	setString(&cfg.Analytics.GAMeasurementID, fc.GAMeasurementID)
	setString(&cfg.Tracing.ServiceName, fc.Tracing.ServiceName)
	setString(&cfg.Tracing.OTLPEndpoint, fc.Tracing.OTLPEndpoint)

	if len(bad) > 0 {
		return &ValidationError{fields: bad}
	}
	return nil
}
