package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	RPCAddress     string `toml:"RPCAddress"`
	GatewayAddress string `toml:"GatewayAddress"`
	DataDir        string `toml:"DataDir"`
	NetworkName    string `toml:"NetworkName"`
	Environment    string `toml:"Environment"`

	Gateway GatewayConfig `toml:"Gateway"`
}

type GatewayConfig struct {
	AuthEnabled       bool     `toml:"AuthEnabled"`
	AuthSecret        string   `toml:"AuthSecret"`
	AuthIssuer        string   `toml:"AuthIssuer"`
	AuthAudience      string   `toml:"AuthAudience"`
	AllowedOrigins    []string `toml:"AllowedOrigins"`
	RPCRatePerMinute  float64  `toml:"RPCRatePerMinute"`
	RPCRateBurst      int      `toml:"RPCRateBurst"`
	ReadRatePerMinute float64  `toml:"ReadRatePerMinute"`
	ReadRateBurst     int      `toml:"ReadRateBurst"`
	ObservabilityOn   bool     `toml:"ObservabilityOn"`
	LogRequests       bool     `toml:"LogRequests"`
}

// Load reads the configuration from the given path, writing a default file
// first when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = ":8545"
	}
	if strings.TrimSpace(cfg.GatewayAddress) == "" {
		cfg.GatewayAddress = ":8080"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./market-data"
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "ciphermarket-local"
	}
	if strings.TrimSpace(cfg.Environment) == "" {
		cfg.Environment = "dev"
	}
	if cfg.Gateway.RPCRatePerMinute <= 0 {
		cfg.Gateway.RPCRatePerMinute = 120
	}
	if cfg.Gateway.RPCRateBurst <= 0 {
		cfg.Gateway.RPCRateBurst = 20
	}
	if cfg.Gateway.ReadRatePerMinute <= 0 {
		cfg.Gateway.ReadRatePerMinute = 600
	}
	if cfg.Gateway.ReadRateBurst <= 0 {
		cfg.Gateway.ReadRateBurst = 60
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		RPCAddress:     ":8545",
		GatewayAddress: ":8080",
		DataDir:        "./market-data",
		NetworkName:    "ciphermarket-local",
		Environment:    "dev",
		Gateway: GatewayConfig{
			AllowedOrigins:    []string{},
			RPCRatePerMinute:  120,
			RPCRateBurst:      20,
			ReadRatePerMinute: 600,
			ReadRateBurst:     60,
			ObservabilityOn:   true,
			LogRequests:       true,
		},
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
