package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stakewatch/passport-node/internal/log"
)

// GetChainInfo returns the current validator snapshot.
// GET /chain/info
func (s *Server) GetChainInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	snapshot, err := s.chainInfoService.Snapshot(ctx)
	if err != nil {
		log.Error(ctx, "fetching chain info", "err", err)
		writeError(w, http.StatusBadGateway, "chain info is temporarily unavailable, try again later")
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

type enrResponse struct {
	ENR string `json:"enr"`
}

// GetEncodedENR returns the chain node's encoded ENR record.
// GET /chain/enr
func (s *Server) GetEncodedENR(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	enr, err := s.chainInfoService.EncodedENR(ctx)
	if err != nil {
		log.Error(ctx, "fetching encoded enr", "err", err)
		writeError(w, http.StatusBadGateway, "chain info is temporarily unavailable, try again later")
		return
	}
	writeJSON(w, http.StatusOK, enrResponse{ENR: enr})
}

type siblingPathResponse struct {
	BlockNumber uint64   `json:"blockNumber"`
	SiblingPath []string `json:"siblingPath"`
}

// GetArchiveSiblingPath returns the archive tree sibling path for a block.
// GET /chain/archive/{blockNumber}/sibling-path
func (s *Server) GetArchiveSiblingPath(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	blockNumber, err := strconv.ParseUint(chi.URLParam(r, "blockNumber"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "provide a valid block number")
		return
	}

	path, err := s.chainInfoService.ArchiveSiblingPath(ctx, blockNumber)
	if err != nil {
		log.Error(ctx, "fetching archive sibling path", "err", err, "block", blockNumber)
		writeError(w, http.StatusBadGateway, "chain info is temporarily unavailable, try again later")
		return
	}
	writeJSON(w, http.StatusOK, siblingPathResponse{BlockNumber: blockNumber, SiblingPath: path})
}
