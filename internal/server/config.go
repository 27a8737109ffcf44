package server

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/shaunagostinho/buslink/internal/abus"
	"github.com/shaunagostinho/buslink/internal/logging"
	"github.com/shaunagostinho/buslink/internal/plc"
)

// Config holds all buslink configuration.
type Config struct {
	// Serial ports
	PLC PLCConfig `yaml:"plc" json:"plc"`
	GPS GPSConfig `yaml:"gps" json:"gps"`

	Logging logging.Config `yaml:"logging" json:"logging"`
	Metrics MetricsConfig  `yaml:"metrics" json:"metrics"`
	Server  ServerConfig   `yaml:"server" json:"server"`
}

type PLCConfig struct {
	Type      string `yaml:"type" json:"type"`          // "abus" or "demo"
	PortPath  string `yaml:"port_path" json:"portPath"` // e.g. /dev/ttyPLC
	BaudRate  int    `yaml:"baud_rate" json:"baudRate"`
	Address   int32  `yaml:"address" json:"address"` // our station address
	Peer      int32  `yaml:"peer" json:"peer"`       // PLC station address
	Password  string `yaml:"password" json:"-"`      // 4 hex digits
	PollHz    int    `yaml:"poll_hz" json:"pollHz"`
	TimeoutMs int    `yaml:"timeout_ms" json:"timeoutMs"`
}

type GPSConfig struct {
	Type     string `yaml:"type" json:"type"`          // "nmea" or "demo" or "disabled"
	PortPath string `yaml:"port_path" json:"portPath"` // e.g. /dev/ttyGPS
	BaudRate int    `yaml:"baud_rate" json:"baudRate"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr" json:"listenAddr"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		PLC: PLCConfig{
			Type:      "demo",
			PortPath:  "/dev/ttyPLC",
			BaudRate:  115200,
			Address:   abus.AddressController,
			Peer:      abus.AddressPeer,
			PollHz:    5,
			TimeoutMs: 500,
		},
		GPS: GPSConfig{
			Type:     "demo",
			PortPath: "/dev/ttyGPS",
			BaudRate: 9600,
		},
		Logging: logging.DefaultConfig(),
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Server: ServerConfig{
			ListenAddr: ":8080",
		},
	}
}

// LoadConfig reads config from a YAML file, then applies .env and environment
// variable overrides. Falls back to defaults if YAML not found.
func LoadConfig(path string, log *zap.Logger) *Config {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		log.Info("no config file, using defaults", zap.String("path", path))
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		log.Warn("error parsing config, using defaults", zap.String("path", path), zap.Error(err))
		cfg = DefaultConfig()
	} else {
		log.Info("loaded", zap.String("path", path))
	}

	// Load .env file from the same directory as the config, or from CWD
	envPaths := []string{
		filepath.Join(filepath.Dir(path), ".env"),
		".env",
	}
	for _, ep := range envPaths {
		loadEnvFile(ep, log)
	}

	cfg.applyEnvOverrides()
	return cfg
}

// loadEnvFile reads a simple KEY=VALUE .env file and sets os env vars.
func loadEnvFile(path string, log *zap.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	log.Info("loading .env", zap.String("path", path))
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.Trim(strings.TrimSpace(val), `"'`)
		// Real env takes precedence
		if os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envInt32(key string, dst *int32) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// applyEnvOverrides reads environment variables and overrides config values.
// Supported: PLC_TYPE, PLC_PORT, PLC_BAUD, PLC_ADDRESS, PLC_PEER,
// PLC_PASSWORD, GPS_TYPE, GPS_PORT, GPS_BAUD, LISTEN_ADDR, LOG_LEVEL,
// LOG_FORMAT, LOG_FILE, METRICS_ENABLED
func (c *Config) applyEnvOverrides() {
	envString("PLC_TYPE", &c.PLC.Type)
	envString("PLC_PORT", &c.PLC.PortPath)
	envInt("PLC_BAUD", &c.PLC.BaudRate)
	envInt32("PLC_ADDRESS", &c.PLC.Address)
	envInt32("PLC_PEER", &c.PLC.Peer)
	envString("PLC_PASSWORD", &c.PLC.Password)
	envString("GPS_TYPE", &c.GPS.Type)
	envString("GPS_PORT", &c.GPS.PortPath)
	envInt("GPS_BAUD", &c.GPS.BaudRate)
	envString("LISTEN_ADDR", &c.Server.ListenAddr)
	envString("LOG_LEVEL", &c.Logging.Level)
	envString("LOG_FORMAT", &c.Logging.Format)
	envString("LOG_FILE", &c.Logging.File.Filename)
	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		c.Metrics.Enabled = v == "1" || v == "true" || v == "yes"
	}
}

// ClientConfig maps the PLC section onto plc.ClientConfig.
func (c *Config) ClientConfig() (plc.ClientConfig, error) {
	pw, err := plc.ParsePassword(c.PLC.Password)
	if err != nil {
		return plc.ClientConfig{}, err
	}
	return plc.ClientConfig{
		PortPath: c.PLC.PortPath,
		BaudRate: c.PLC.BaudRate,
		Address:  c.PLC.Address,
		Peer:     c.PLC.Peer,
		Password: pw,
		Timeout:  time.Duration(c.PLC.TimeoutMs) * time.Millisecond,
	}, nil
}

// ToJSON serializes config for the API.
func (c *Config) ToJSON() ([]byte, error) {
	return json.Marshal(c)
}
