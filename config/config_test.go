package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadParsesSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `RPCAddress = "0.0.0.0:9545"
GatewayAddress = "0.0.0.0:9080"
DataDir = "./data"
NetworkName = "testnet"
Environment = "staging"

[Gateway]
AuthEnabled = true
AuthSecret = "hmac-secret"
AuthIssuer = "ciphermarket"
RPCRatePerMinute = 30.0
RPCRateBurst = 5
ObservabilityOn = true
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCAddress != "0.0.0.0:9545" || cfg.GatewayAddress != "0.0.0.0:9080" {
		t.Fatalf("addresses not parsed: %+v", cfg)
	}
	if cfg.NetworkName != "testnet" || cfg.Environment != "staging" {
		t.Fatalf("identity not parsed: %+v", cfg)
	}
	if !cfg.Gateway.AuthEnabled || cfg.Gateway.AuthSecret != "hmac-secret" {
		t.Fatalf("gateway auth not parsed: %+v", cfg.Gateway)
	}
	if cfg.Gateway.RPCRatePerMinute != 30.0 || cfg.Gateway.RPCRateBurst != 5 {
		t.Fatalf("rate limits not parsed: %+v", cfg.Gateway)
	}
	// Unset limits receive defaults.
	if cfg.Gateway.ReadRatePerMinute != 600 || cfg.Gateway.ReadRateBurst != 60 {
		t.Fatalf("read limits must default: %+v", cfg.Gateway)
	}
}

func TestLoadCreatesDefaultFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCAddress != ":8545" || cfg.GatewayAddress != ":8080" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config file must be written: %v", err)
	}

	// Reloading the written file yields the same settings.
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.NetworkName != cfg.NetworkName || reloaded.DataDir != cfg.DataDir {
		t.Fatalf("reload mismatch: %+v vs %+v", reloaded, cfg)
	}
}

func TestValidateRejectsBrokenConfigs(t *testing.T) {
	base := func() *Config {
		cfg := &Config{
			RPCAddress:     ":8545",
			GatewayAddress: ":8080",
			DataDir:        "./data",
		}
		applyDefaults(cfg)
		return cfg
	}

	if err := Validate(base()); err != nil {
		t.Fatalf("baseline must validate: %v", err)
	}

	clash := base()
	clash.GatewayAddress = clash.RPCAddress
	if err := Validate(clash); err == nil {
		t.Fatalf("shared listen address must fail")
	}

	authNoSecret := base()
	authNoSecret.Gateway.AuthEnabled = true
	authNoSecret.Gateway.AuthSecret = " "
	if err := Validate(authNoSecret); err == nil {
		t.Fatalf("auth without secret must fail")
	}

	noData := base()
	noData.DataDir = ""
	if err := Validate(noData); err == nil {
		t.Fatalf("empty data dir must fail")
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `RPCAddress = ":9000"
GatewayAddress = ":9000"
DataDir = "./data"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("clashing addresses must fail validation")
	}
}
