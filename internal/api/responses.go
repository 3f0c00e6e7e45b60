package api

import (
	"encoding/json"
	"net/http"

	"github.com/stakewatch/passport-node/internal/timeapi"
)

// ErrorResponse is the JSON body returned on any handler error
type ErrorResponse struct {
	Message string `json:"message"`
}

// SessionResponse is the JSON view of a verification session
type SessionResponse struct {
	VerificationID string     `json:"verificationId"`
	SubjectID      string     `json:"subjectId"`
	WalletAddress  string     `json:"walletAddress,omitempty"`
	Nonce          string     `json:"nonce,omitempty"`
	Status         string     `json:"status"`
	Score          *float64   `json:"score,omitempty"`
	RoleAssigned   bool       `json:"roleAssigned"`
	LastVerified   *timeapi.Time `json:"lastVerificationTime,omitempty"`
}

// ScoreResponse is the JSON view of a provider score read
type ScoreResponse struct {
	Address string `json:"address"`
	Status  string `json:"status"`
	Score   string `json:"score,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, ErrorResponse{Message: message})
}
