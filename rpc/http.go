package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"ciphermarket/core"
	"ciphermarket/native/market"
)

const (
	maxRequestBytes = 1 << 20 // 1 MiB
	rateLimitWindow = time.Minute
	maxTxPerWindow  = 32
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001
	codeRateLimited    = -32020

	codeMarketInvalidParams = -32021
	codeMarketNotFound      = -32022
	codeMarketForbidden     = -32023
	codeMarketConflict      = -32024
	codeMarketPayment       = -32025
	codeMarketInternal      = -32026
)

// rpcTokenEnv names the bearer token mutating methods must present. An empty
// value leaves authentication off, which is only suitable for development.
const rpcTokenEnv = "CIPHERMARKET_RPC_TOKEN"

type rateLimiter struct {
	count       int
	windowStart time.Time
}

// Server exposes the node's operation surface over JSON-RPC 2.0.
type Server struct {
	node *core.Node

	mu           sync.Mutex
	rateLimiters map[string]*rateLimiter
	authToken    string
	nowFn        func() time.Time
}

func NewServer(node *core.Node) *Server {
	token := strings.TrimSpace(os.Getenv(rpcTokenEnv))
	return &Server{
		node:         node,
		rateLimiters: make(map[string]*rateLimiter),
		authToken:    token,
		nowFn:        time.Now,
	}
}

// Start serves the RPC endpoint on the given address.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/", s)
	return http.ListenAndServe(addr, mux)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, nil, codeInvalidRequest, "invalid_request", "POST required")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "parse_error", err.Error())
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "parse_error", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "invalid_request", "unsupported jsonrpc version")
		return
	}
	s.dispatch(w, r, &req)
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	switch req.Method {
	case "market_create":
		s.handleMarketCreate(w, r, req)
	case "market_cancel":
		s.handleMarketCancel(w, r, req)
	case "market_buyNow":
		s.handleMarketBuyNow(w, r, req)
	case "market_placeBid":
		s.handleMarketPlaceBid(w, r, req)
	case "market_acceptBid":
		s.handleMarketAcceptBid(w, r, req)
	case "market_settle":
		s.handleMarketSettle(w, r, req)
	case "market_withdraw":
		s.handleMarketWithdraw(w, r, req)
	case "market_listingCount":
		s.handleMarketListingCount(w, req)
	case "market_getListing":
		s.handleMarketGetListing(w, req)
	case "market_getBidCount":
		s.handleMarketGetBidCount(w, req)
	case "market_getBid":
		s.handleMarketGetBid(w, req)
	case "market_proceeds":
		s.handleMarketProceeds(w, req)
	case "market_events":
		s.handleMarketEvents(w, req)
	case "assets_mint":
		s.handleAssetsMint(w, r, req)
	case "assets_approve":
		s.handleAssetsApprove(w, r, req)
	case "assets_ownerOf":
		s.handleAssetsOwnerOf(w, req)
	case "assets_tokensOf":
		s.handleAssetsTokensOf(w, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method_not_found", req.Method)
	}
}

type authError struct {
	Code    int
	Message string
	Data    interface{}
}

// requireAuth gates mutating methods behind the bearer token and the
// per-source rate limit.
func (s *Server) requireAuth(r *http.Request) *authError {
	if s.authToken != "" {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
			return &authError{Code: codeUnauthorized, Message: "unauthorized", Data: "missing or invalid bearer token"}
		}
	}
	if !s.allowSource(clientSource(r)) {
		return &authError{Code: codeRateLimited, Message: "rate_limited", Data: "too many transactions from source"}
	}
	return nil
}

func (s *Server) allowSource(source string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowFn()
	entry, ok := s.rateLimiters[source]
	if !ok || now.Sub(entry.windowStart) >= rateLimitWindow {
		s.rateLimiters[source] = &rateLimiter{count: 1, windowStart: now}
		return true
	}
	if entry.count >= maxTxPerWindow {
		return false
	}
	entry.count++
	return true
}

func clientSource(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func decodeSingleParam(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("exactly one parameter object expected")
	}
	return json.Unmarshal(req.Params[0], out)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: &RPCError{Code: code, Message: message, Data: data}})
}

// writeMarketError maps engine sentinels onto stable RPC codes.
func writeMarketError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, market.ErrNotFound):
		writeError(w, http.StatusNotFound, id, codeMarketNotFound, "not_found", err.Error())
	case errors.Is(err, market.ErrUnauthorized):
		writeError(w, http.StatusForbidden, id, codeMarketForbidden, "forbidden", err.Error())
	case errors.Is(err, market.ErrInvalidListingState), errors.Is(err, market.ErrDuplicateListing):
		writeError(w, http.StatusConflict, id, codeMarketConflict, "conflict", err.Error())
	case errors.Is(err, market.ErrInvalidPayment), errors.Is(err, market.ErrInsufficientFunds):
		writeError(w, http.StatusBadRequest, id, codeMarketPayment, "invalid_payment", err.Error())
	case errors.Is(err, market.ErrApprovalMissing), errors.Is(err, market.ErrInvalidProof):
		writeError(w, http.StatusBadRequest, id, codeMarketInvalidParams, "invalid_params", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, id, codeMarketInternal, "internal_error", err.Error())
	}
}
