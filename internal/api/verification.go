package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stakewatch/passport-node/internal/core/domain"
	"github.com/stakewatch/passport-node/internal/core/services"
	"github.com/stakewatch/passport-node/internal/log"
	"github.com/stakewatch/passport-node/internal/repositories"
	"github.com/stakewatch/passport-node/internal/timeapi"
)

type verifyRequest struct {
	VerificationID string `json:"verificationId"`
	WalletAddress  string `json:"walletAddress"`
	Signature      string `json:"signature"`
}

// GetScore returns the provider score for a wallet bound to a session.
// GET /human/score?address=0x...&verificationId=...
func (s *Server) GetScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	address := r.URL.Query().Get("address")
	verificationID := r.URL.Query().Get("verificationId")

	sessionID, err := uuid.Parse(verificationID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "provide a valid verificationId")
		return
	}

	result, err := s.verificationService.GetScore(ctx, sessionID, address)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidSignatureInput):
			writeError(w, http.StatusBadRequest, "provide a valid address")
		case errors.Is(err, repositories.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, "verification session not found")
		default:
			log.Error(ctx, "fetching score", "err", err, "address", address)
			writeError(w, http.StatusBadGateway, "scoring is temporarily unavailable, try again later")
		}
		return
	}

	writeJSON(w, http.StatusOK, ScoreResponse{
		Address: address,
		Status:  string(result.Status),
		Score:   result.Score,
	})
}

// SubmitVerification submits a proof-of-ownership signature and runs the
// session to a terminal state.
// POST /human/verify {verificationId, walletAddress, signature}
func (s *Server) SubmitVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sessionID, err := uuid.Parse(req.VerificationID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "provide a valid verificationId")
		return
	}

	finalized, err := s.verificationService.SubmitSignature(ctx, sessionID, req.WalletAddress, req.Signature)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidSignatureInput):
			writeError(w, http.StatusBadRequest, "provide a valid address and a signature that matches it")
		case errors.Is(err, services.ErrNonceReused):
			writeError(w, http.StatusConflict, "this verification was already submitted, request a new one")
		case errors.Is(err, services.ErrSessionBusy):
			writeError(w, http.StatusConflict, "verification is already in progress")
		case errors.Is(err, services.ErrSessionTerminal):
			writeError(w, http.StatusConflict, "this verification already finished, request a new one")
		case errors.Is(err, repositories.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, "verification session not found")
		default:
			log.Error(ctx, "submitting verification", "err", err, "session", sessionID)
			writeError(w, http.StatusBadGateway, "verification is temporarily unavailable, try again later")
		}
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(finalized, false))
}

// GetVerificationStatus returns the subject's current session.
// GET /human/status/{subjectID}
func (s *Server) GetVerificationStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID := chi.URLParam(r, "subjectID")
	if subjectID == "" {
		writeError(w, http.StatusBadRequest, "provide a subject id")
		return
	}

	current, err := s.verificationService.GetStatus(ctx, subjectID)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "no verification session for this subject")
			return
		}
		log.Error(ctx, "fetching verification status", "err", err, "subject", subjectID)
		writeError(w, http.StatusInternalServerError, "status is temporarily unavailable, try again later")
		return
	}

	// expose the nonce only while a signature can still be submitted
	writeJSON(w, http.StatusOK, toSessionResponse(current, current.Status == domain.StatusNotVerified))
}

func toSessionResponse(session *domain.VerificationSession, includeNonce bool) SessionResponse {
	resp := SessionResponse{
		VerificationID: session.ID.String(),
		SubjectID:      session.SubjectID,
		WalletAddress:  session.WalletAddress,
		Status:         string(session.Status),
		Score:          session.Score,
		RoleAssigned:   session.RoleAssigned,
		LastVerified:   timeapi.FromTime(session.LastVerificationTime),
	}
	if includeNonce {
		resp.Nonce = session.Nonce
	}
	return resp
}
