package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"ciphermarket/config"
	"ciphermarket/core"
	"ciphermarket/gateway/middleware"
	"ciphermarket/gateway/routes"
	"ciphermarket/native/confidential"
	"ciphermarket/observability/logging"
	"ciphermarket/rpc"
	"ciphermarket/storage"
)

const envPrefix = "CIPHERMARKET_ENV"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv(envPrefix))
	logger := logging.Setup("marketd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	enclave, err := confidential.NewEnclave()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialise confidential enclave: %v", err))
	}

	node := core.NewNode(db, enclave)
	logger.Info("node initialised",
		slog.String("network", cfg.NetworkName),
		slog.String("data_dir", cfg.DataDir),
	)

	rpcServer := rpc.NewServer(node)

	gatewayHandler := routes.New(routes.Config{
		Node:       node,
		RPCHandler: rpcServer,
		Authenticator: middleware.NewAuthenticator(middleware.AuthConfig{
			Enabled:    cfg.Gateway.AuthEnabled,
			HMACSecret: cfg.Gateway.AuthSecret,
			Issuer:     cfg.Gateway.AuthIssuer,
			Audience:   cfg.Gateway.AuthAudience,
		}, logger),
		RateLimiter: middleware.NewRateLimiter(map[string]middleware.RateLimit{
			"rpc":   {RequestsPerMinute: cfg.Gateway.RPCRatePerMinute, Burst: cfg.Gateway.RPCRateBurst},
			"reads": {RequestsPerMinute: cfg.Gateway.ReadRatePerMinute, Burst: cfg.Gateway.ReadRateBurst},
		}),
		Observability: middleware.NewObservability(middleware.ObservabilityConfig{
			ServiceName: "ciphermarket-gateway",
			LogRequests: cfg.Gateway.LogRequests,
			Enabled:     cfg.Gateway.ObservabilityOn,
		}, logger),
		CORS: middleware.CORSConfig{AllowedOrigins: cfg.Gateway.AllowedOrigins},
	})

	errCh := make(chan error, 2)
	go func() {
		logger.Info("RPC server listening", slog.String("address", cfg.RPCAddress))
		errCh <- rpcServer.Start(cfg.RPCAddress)
	}()
	go func() {
		logger.Info("gateway listening", slog.String("address", cfg.GatewayAddress))
		errCh <- http.ListenAndServe(cfg.GatewayAddress, gatewayHandler)
	}()

	if err := <-errCh; err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
