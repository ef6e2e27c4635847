package config

import (
	"fmt"
	"strings"
)

func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		return fmt.Errorf("config: RPCAddress must not be empty")
	}
	if strings.TrimSpace(cfg.GatewayAddress) == "" {
		return fmt.Errorf("config: GatewayAddress must not be empty")
	}
	if cfg.RPCAddress == cfg.GatewayAddress {
		return fmt.Errorf("config: RPCAddress and GatewayAddress must differ")
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return fmt.Errorf("config: DataDir must not be empty")
	}
	if cfg.Gateway.AuthEnabled && strings.TrimSpace(cfg.Gateway.AuthSecret) == "" {
		return fmt.Errorf("config: gateway auth enabled without AuthSecret")
	}
	if cfg.Gateway.RPCRatePerMinute <= 0 || cfg.Gateway.ReadRatePerMinute <= 0 {
		return fmt.Errorf("config: rate limits must be positive")
	}
	return nil
}
