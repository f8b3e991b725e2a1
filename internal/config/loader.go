package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"livefeed/internal/common/fsutil"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LIVEFEED_"

// Config holds runtime parameters for the bridge and the CLI.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr     string `json:"addr" yaml:"addr" toml:"addr"`
	Endpoint string `json:"endpoint" yaml:"endpoint" toml:"endpoint"`
	Node     string `json:"node" yaml:"node" toml:"node"`
	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level"`

	GraceMS        int `json:"grace_ms" yaml:"grace_ms" toml:"grace_ms"`
	ReadyPollMS    int `json:"ready_poll_ms" yaml:"ready_poll_ms" toml:"ready_poll_ms"`
	ReadyTimeoutMS int `json:"ready_timeout_ms" yaml:"ready_timeout_ms" toml:"ready_timeout_ms"`
	DialTimeoutMS  int `json:"dial_timeout_ms" yaml:"dial_timeout_ms" toml:"dial_timeout_ms"`
	PSIntervalMS   int `json:"ps_interval_ms" yaml:"ps_interval_ms" toml:"ps_interval_ms"`
	NetIntervalMS  int `json:"net_interval_ms" yaml:"net_interval_ms" toml:"net_interval_ms"`

	// Headers are added to the WebSocket handshake, e.g. an API key.
	Headers map[string]string `json:"headers" yaml:"headers" toml:"headers"`

	CORSEnabled bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// Load reads a configuration file based on its extension. A leading ~ in
// path is expanded. Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	path, err := fsutil.ExpandHome(path)
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from LIVEFEED_* variables. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"ADDR":      &c.Addr,
		"ENDPOINT":  &c.Endpoint,
		"NODE":      &c.Node,
		"LOG_LEVEL": &c.LogLevel,
	}
	for k, dst := range str {
		if v, ok := lookup(EnvPrefix + k); ok {
			*dst = v
		}
	}
	ints := map[string]*int{
		"GRACE_MS":         &c.GraceMS,
		"READY_POLL_MS":    &c.ReadyPollMS,
		"READY_TIMEOUT_MS": &c.ReadyTimeoutMS,
		"DIAL_TIMEOUT_MS":  &c.DialTimeoutMS,
		"PS_INTERVAL_MS":   &c.PSIntervalMS,
		"NET_INTERVAL_MS":  &c.NetIntervalMS,
	}
	for k, dst := range ints {
		v, ok := lookup(EnvPrefix + k)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, k, err)
		}
		*dst = n
	}
	if v, ok := lookup(EnvPrefix + "CORS_ORIGINS"); ok {
		c.CORSOrigins = splitList(v)
		c.CORSEnabled = len(c.CORSOrigins) > 0
	}
	return nil
}

// Millis converts a millisecond setting, leaving zero as zero so callers fall
// back to their own defaults.
func Millis(ms int) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
