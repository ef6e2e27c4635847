package rpc

import (
	"net/http"
)

type marketCreateParams struct {
	Caller  string `json:"caller"`
	AssetID uint64 `json:"assetId"`
	Price   string `json:"price"`
}

type marketIDParams struct {
	ID uint64 `json:"id"`
}

type marketActorParams struct {
	Caller string `json:"caller"`
	ID     uint64 `json:"id"`
}

type marketPayParams struct {
	Caller string `json:"caller"`
	ID     uint64 `json:"id"`
	Value  string `json:"value"`
}

type marketPlaceBidParams struct {
	Caller string `json:"caller"`
	ID     uint64 `json:"id"`
	Handle string `json:"handle"`
	Proof  string `json:"proof"`
}

type marketAcceptBidParams struct {
	Caller   string `json:"caller"`
	ID       uint64 `json:"id"`
	BidIndex uint64 `json:"bidIndex"`
	Price    string `json:"price"`
}

type marketCallerParams struct {
	Caller string `json:"caller"`
}

type marketBidParams struct {
	ID    uint64 `json:"id"`
	Index uint64 `json:"index"`
}

type marketAddressParams struct {
	Address string `json:"address"`
}

func (s *Server) handleMarketCreate(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params marketCreateParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	price, err := parsePositiveBigInt(params.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	id, err := s.node.CreateListing(caller, params.AssetID, price)
	if err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"id": id})
}

func (s *Server) handleMarketCancel(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params marketActorParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.CancelListing(caller, params.ID); err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "cancelled"})
}

func (s *Server) handleMarketBuyNow(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params marketPayParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	value, err := parsePositiveBigInt(params.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.BuyNow(caller, params.ID, value); err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "sold"})
}

func (s *Server) handleMarketPlaceBid(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params marketPlaceBidParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	handle, err := parseHandle(params.Handle)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	proof, err := parseHexBytes(params.Proof)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	index, err := s.node.PlaceBid(caller, params.ID, handle, proof)
	if err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"bidIndex": index})
}

func (s *Server) handleMarketAcceptBid(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params marketAcceptBidParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	price, err := parsePositiveBigInt(params.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.AcceptBid(caller, params.ID, params.BidIndex, price); err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "awaiting_payment"})
}

func (s *Server) handleMarketSettle(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params marketPayParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	value, err := parsePositiveBigInt(params.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.SettleAcceptedBid(caller, params.ID, value); err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "sold"})
}

func (s *Server) handleMarketWithdraw(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params marketCallerParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	amount, err := s.node.WithdrawProceeds(caller)
	if err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"amount": amount.String()})
}

func (s *Server) handleMarketListingCount(w http.ResponseWriter, req *RPCRequest) {
	count, err := s.node.ListingCount()
	if err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"count": count})
}

func (s *Server) handleMarketGetListing(w http.ResponseWriter, req *RPCRequest) {
	var params marketIDParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	listing, err := s.node.GetListing(params.ID)
	if err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatListing(listing))
}

func (s *Server) handleMarketGetBidCount(w http.ResponseWriter, req *RPCRequest) {
	var params marketIDParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	count, err := s.node.GetBidCount(params.ID)
	if err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"count": count})
}

func (s *Server) handleMarketGetBid(w http.ResponseWriter, req *RPCRequest) {
	var params marketBidParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	bid, err := s.node.GetBid(params.ID, params.Index)
	if err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatBid(params.Index, bid))
}

func (s *Server) handleMarketProceeds(w http.ResponseWriter, req *RPCRequest) {
	var params marketAddressParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	balance, err := s.node.Proceeds(addr)
	if err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"balance": balance.String()})
}

func (s *Server) handleMarketEvents(w http.ResponseWriter, req *RPCRequest) {
	writeResult(w, req.ID, s.node.Events())
}
