package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	BaseURL      string // control-plane API base, e.g. https://api.pipecdn.app/api
	IPEchoURL    string // external IP-echo endpoint returning {"ip": "..."}
	Addr         string // local status API bind address
	LogDir       string // logs directory
	CredFile     string // token/email file
	DatabasePath string // sqlite probe history; empty means in-memory only

	HTTPTimeout       time.Duration // per-request timeout for every outbound call
	HeartbeatInterval time.Duration // due-time advance after a delivered heartbeat
	TestInterval      time.Duration // due-time advance after a test cycle
	RetryDelay        time.Duration // sleep between heartbeat attempts, and the short reschedule
	MaxRetries        int           // heartbeat attempts per firing
	TickInterval      time.Duration // scheduler poll interval
}

func Default() Config {
	return Config{
		BaseURL:           "https://api.pipecdn.app/api",
		IPEchoURL:         "https://api64.ipify.org?format=json",
		Addr:              "127.0.0.1:8088",
		LogDir:            "logs",
		CredFile:          "/root/pipe.txt",
		HTTPTimeout:       5 * time.Second,
		HeartbeatInterval: 300 * time.Second,
		TestInterval:      600 * time.Second,
		RetryDelay:        5 * time.Second,
		MaxRetries:        3,
		TickInterval:      1 * time.Second,
	}
}

// fileConfig is the TOML shape; durations are whole seconds to keep the file
// hand-editable.
type fileConfig struct {
	BaseURL            string `toml:"base_url"`
	IPEchoURL          string `toml:"ip_echo_url"`
	Addr               string `toml:"addr"`
	LogDir             string `toml:"log_dir"`
	CredFile           string `toml:"cred_file"`
	DatabasePath       string `toml:"database_path"`
	HTTPTimeoutS       int    `toml:"http_timeout_s"`
	HeartbeatIntervalS int    `toml:"heartbeat_interval_s"`
	TestIntervalS      int    `toml:"test_interval_s"`
	RetryDelayS        int    `toml:"retry_delay_s"`
	MaxRetries         int    `toml:"max_retries"`
}

// Load builds the effective config: defaults, then the TOML file at path (if
// any), then environment overrides. An empty path skips the file layer.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		var fc fileConfig
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			return cfg, fmt.Errorf("config file %s: %w", path, err)
		}
		applyFile(&cfg, fc)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// FromEnv is Load without a file layer; it never fails.
func FromEnv() Config {
	cfg := Default()
	applyEnv(&cfg)
	return cfg
}

func applyFile(cfg *Config, fc fileConfig) {
	if fc.BaseURL != "" {
		cfg.BaseURL = fc.BaseURL
	}
	if fc.IPEchoURL != "" {
		cfg.IPEchoURL = fc.IPEchoURL
	}
	if fc.Addr != "" {
		cfg.Addr = fc.Addr
	}
	if fc.LogDir != "" {
		cfg.LogDir = fc.LogDir
	}
	if fc.CredFile != "" {
		cfg.CredFile = fc.CredFile
	}
	if fc.DatabasePath != "" {
		cfg.DatabasePath = fc.DatabasePath
	}
	if fc.HTTPTimeoutS > 0 {
		cfg.HTTPTimeout = time.Duration(fc.HTTPTimeoutS) * time.Second
	}
	if fc.HeartbeatIntervalS > 0 {
		cfg.HeartbeatInterval = time.Duration(fc.HeartbeatIntervalS) * time.Second
	}
	if fc.TestIntervalS > 0 {
		cfg.TestInterval = time.Duration(fc.TestIntervalS) * time.Second
	}
	if fc.RetryDelayS > 0 {
		cfg.RetryDelay = time.Duration(fc.RetryDelayS) * time.Second
	}
	if fc.MaxRetries > 0 {
		cfg.MaxRetries = fc.MaxRetries
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("IP_ECHO_URL"); v != "" {
		cfg.IPEchoURL = v
	}
	if v := os.Getenv("ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("LOG_DIR"); v != "" {
		cfg.LogDir = v
	}
	if v := os.Getenv("CRED_FILE"); v != "" {
		cfg.CredFile = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if ms, ok := envInt("HTTP_TIMEOUT_MS"); ok && ms > 0 {
		cfg.HTTPTimeout = time.Duration(ms) * time.Millisecond
	}
	if s, ok := envInt("HEARTBEAT_INTERVAL_S"); ok && s > 0 {
		cfg.HeartbeatInterval = time.Duration(s) * time.Second
	}
	if s, ok := envInt("TEST_INTERVAL_S"); ok && s > 0 {
		cfg.TestInterval = time.Duration(s) * time.Second
	}
	if s, ok := envInt("RETRY_DELAY_S"); ok && s >= 0 {
		cfg.RetryDelay = time.Duration(s) * time.Second
	}
	if n, ok := envInt("MAX_RETRIES"); ok && n > 0 {
		cfg.MaxRetries = n
	}
	if ms, ok := envInt("TICK_INTERVAL_MS"); ok && ms > 0 {
		cfg.TickInterval = time.Duration(ms) * time.Millisecond
	}
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
