package services

import "errors"

var (
	// ErrInvalidSignatureInput is returned when the wallet address is malformed
	// or the signature does not recover it
	ErrInvalidSignatureInput = errors.New("invalid signature input")
	// ErrNonceReused is returned when a signature is submitted with an already
	// consumed nonce
	ErrNonceReused = errors.New("nonce already consumed")
	// ErrSessionBusy is returned when a submission races an in-flight one for
	// the same session
	ErrSessionBusy = errors.New("session is already processing")
	// ErrScoreTimeout classifies a poll budget exhaustion
	ErrScoreTimeout = errors.New("scoring timed out")
	// ErrScoreProvider classifies a terminal provider failure
	ErrScoreProvider = errors.New("score provider error")
	// ErrSessionTerminal is returned when an operation needs a non-terminal session
	ErrSessionTerminal = errors.New("session already finalized")
	// ErrInvalidAddress is returned on chain reads for a malformed address
	ErrInvalidAddress = errors.New("invalid address")
)
