package rpc

import (
	"errors"
	"net/http"

	"ciphermarket/crypto"
	"ciphermarket/native/assets"
)

type assetsCallerParams struct {
	Caller string `json:"caller"`
}

type assetsApproveParams struct {
	Caller   string `json:"caller"`
	TokenID  uint64 `json:"tokenId"`
	Operator string `json:"operator,omitempty"`
}

type assetsTokenParams struct {
	TokenID uint64 `json:"tokenId"`
}

type assetsOwnerParams struct {
	Owner string `json:"owner"`
}

// writeAssetsError maps ledger sentinels onto the shared market codes so
// clients see one error vocabulary.
func writeAssetsError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, assets.ErrTokenNotFound):
		writeError(w, http.StatusNotFound, id, codeMarketNotFound, "not_found", err.Error())
	case errors.Is(err, assets.ErrAlreadyMinted):
		writeError(w, http.StatusConflict, id, codeMarketConflict, "conflict", err.Error())
	case errors.Is(err, assets.ErrNotAuthorized), errors.Is(err, assets.ErrWrongOwner):
		writeError(w, http.StatusForbidden, id, codeMarketForbidden, "forbidden", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, id, codeMarketInternal, "internal_error", err.Error())
	}
}

func (s *Server) handleAssetsMint(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params assetsCallerParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	id, err := s.node.MintAsset(caller)
	if err != nil {
		writeAssetsError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"tokenId": id})
}

func (s *Server) handleAssetsApprove(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params assetsApproveParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	var operator [20]byte
	if params.Operator != "" {
		operator, err = parseAddress(params.Operator)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
			return
		}
	}
	if err := s.node.ApproveAsset(caller, params.TokenID, operator); err != nil {
		writeAssetsError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "approved"})
}

func (s *Server) handleAssetsOwnerOf(w http.ResponseWriter, req *RPCRequest) {
	var params assetsTokenParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	owner, err := s.node.OwnerOf(params.TokenID)
	if err != nil {
		writeAssetsError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"owner": crypto.MustNewAddress(owner).String()})
}

func (s *Server) handleAssetsTokensOf(w http.ResponseWriter, req *RPCRequest) {
	var params assetsOwnerParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	owner, err := parseAddress(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeMarketInvalidParams, "invalid_params", err.Error())
		return
	}
	tokens, err := s.node.TokensOf(owner)
	if err != nil {
		writeAssetsError(w, req.ID, err)
		return
	}
	if tokens == nil {
		tokens = []uint64{}
	}
	writeResult(w, req.ID, map[string][]uint64{"tokens": tokens})
}
