package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ciphermarket/core"
	"ciphermarket/gateway/middleware"
)

type Config struct {
	Node          *core.Node
	RPCHandler    http.Handler
	Authenticator *middleware.Authenticator
	RateLimiter   *middleware.RateLimiter
	Observability *middleware.Observability
	CORS          middleware.CORSConfig
}

// New assembles the public HTTP surface: the JSON-RPC transaction endpoint
// behind auth, read-only REST views of listings and assets, health, and
// metrics.
func New(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(cfg.CORS))

	obs := cfg.Observability
	if obs != nil {
		r.Use(obs.Middleware("root"))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.RPCHandler != nil {
		r.Route("/rpc", func(sr chi.Router) {
			if cfg.RateLimiter != nil {
				sr.Use(cfg.RateLimiter.Middleware("rpc"))
			}
			if cfg.Authenticator != nil {
				sr.Use(cfg.Authenticator.Middleware(middleware.ScopeTrade))
			}
			if obs != nil {
				sr.Use(obs.Middleware("rpc"))
			}
			sr.Handle("/", cfg.RPCHandler)
		})
	}

	if cfg.Node != nil {
		views := newMarketViews(cfg.Node)
		r.Route("/v1/market", func(sr chi.Router) {
			if cfg.RateLimiter != nil {
				sr.Use(cfg.RateLimiter.Middleware("reads"))
			}
			if obs != nil {
				sr.Use(obs.Middleware("market"))
			}
			views.mount(sr)
		})
	}

	if obs != nil {
		r.Handle("/metrics", obs.MetricsHandler())
	}

	return r
}
