package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stakewatch/passport-node/internal/core/domain"
	"github.com/stakewatch/passport-node/internal/core/ports"
	"github.com/stakewatch/passport-node/internal/core/services"
	"github.com/stakewatch/passport-node/internal/log"
	"github.com/stakewatch/passport-node/internal/repositories"
)

// ReplyKind classifies a command outcome for the chat gateway
type ReplyKind int

// Reply kinds
const (
	ReplySuccess ReplyKind = iota
	ReplyValidationError
	ReplyFailure
)

// Reply is a short text answer to a chat command
type Reply struct {
	Kind ReplyKind
	Text string
}

// Request is one parsed chat command invocation. The chat gateway (an external
// collaborator) is responsible for parsing and for identifying the subject.
type Request struct {
	Command   string   // e.g. "admin validators remove"
	Args      []string // positional arguments
	SubjectID string   // platform id of the invoking user
}

// Handler dispatches chat commands to the services
type Handler struct {
	verificationService ports.VerificationService
	chainInfoService    ports.ChainInfoService
	registry            ports.ValidatorRegistry
	serverURL           string
}

// NewHandler returns a chat command handler
func NewHandler(
	verificationService ports.VerificationService,
	chainInfoService ports.ChainInfoService,
	registry ports.ValidatorRegistry,
	serverURL string,
) *Handler {
	return &Handler{
		verificationService: verificationService,
		chainInfoService:    chainInfoService,
		registry:            registry,
		serverURL:           serverURL,
	}
}

// Handle runs a command and always returns a reply; errors never escape to
// the platform runtime.
func (h *Handler) Handle(ctx context.Context, req Request) Reply {
	switch req.Command {
	case "admin validators get":
		return h.adminValidatorsGet(ctx)
	case "admin validators remove":
		return h.adminValidatorsRemove(ctx, req.Args)
	case "validator check":
		return h.validatorCheck(ctx, req.Args)
	case "human verify":
		return h.humanVerify(ctx, req.SubjectID)
	case "human status":
		return h.humanStatus(ctx, req.SubjectID)
	default:
		return Reply{Kind: ReplyValidationError, Text: fmt.Sprintf("unknown command %q", req.Command)}
	}
}

func (h *Handler) adminValidatorsGet(ctx context.Context) Reply {
	snapshot, err := h.chainInfoService.Snapshot(ctx)
	if err != nil {
		log.Error(ctx, "listing validators", "err", err)
		return Reply{Kind: ReplyFailure, Text: "could not reach the chain node, try again later"}
	}
	if len(snapshot.ValidatorAddresses) == 0 {
		return Reply{Kind: ReplySuccess, Text: "no validators registered"}
	}
	return Reply{
		Kind: ReplySuccess,
		Text: fmt.Sprintf("%d validators:\n%s", len(snapshot.ValidatorAddresses), strings.Join(snapshot.ValidatorAddresses, "\n")),
	}
}

func (h *Handler) adminValidatorsRemove(ctx context.Context, args []string) Reply {
	if len(args) != 1 {
		return Reply{Kind: ReplyValidationError, Text: "usage: admin validators remove <address>"}
	}
	address := args[0]

	// removal is attempted unconditionally, whether or not the address is in
	// the current set
	if err := h.registry.RemoveValidator(ctx, address); err != nil {
		log.Error(ctx, "removing validator", "err", err, "address", address)
		return Reply{Kind: ReplyFailure, Text: "could not remove the validator, try again later"}
	}
	return Reply{Kind: ReplySuccess, Text: fmt.Sprintf("validator %s removed", address)}
}

func (h *Handler) validatorCheck(ctx context.Context, args []string) Reply {
	if len(args) != 1 {
		return Reply{Kind: ReplyValidationError, Text: "usage: validator check <address>"}
	}
	address := args[0]

	stats, isValidator, err := h.chainInfoService.CheckValidator(ctx, address)
	if err != nil {
		if errors.Is(err, services.ErrInvalidAddress) {
			return Reply{Kind: ReplyValidationError, Text: "provide a valid address"}
		}
		log.Error(ctx, "checking validator", "err", err, "address", address)
		return Reply{Kind: ReplyFailure, Text: "could not reach the chain node, try again later"}
	}

	if !isValidator {
		return Reply{Kind: ReplySuccess, Text: fmt.Sprintf("%s is not a validator", address)}
	}
	if stats == nil {
		return Reply{Kind: ReplySuccess, Text: fmt.Sprintf("%s is a validator (no attestation stats yet)", address)}
	}
	return Reply{
		Kind: ReplySuccess,
		Text: fmt.Sprintf("%s is a validator: %d attestations, %d missed (miss rate %.1f%%), %d blocks proposed",
			address, stats.AttestationsSucceeded, stats.AttestationsMissed, stats.MissRate*100, stats.BlocksProposed),
	}
}

func (h *Handler) humanVerify(ctx context.Context, subjectID string) Reply {
	if subjectID == "" {
		return Reply{Kind: ReplyValidationError, Text: "could not identify you, try again"}
	}

	session, err := h.verificationService.CreateOrResumeSession(ctx, subjectID)
	if err != nil {
		log.Error(ctx, "creating verification session", "err", err, "subject", subjectID)
		return Reply{Kind: ReplyFailure, Text: "verification is temporarily unavailable, try again later"}
	}

	return Reply{
		Kind: ReplySuccess,
		Text: fmt.Sprintf("verification started. Sign the message on %s/verify?id=%s to prove wallet ownership", h.serverURL, session.ID),
	}
}

func (h *Handler) humanStatus(ctx context.Context, subjectID string) Reply {
	if subjectID == "" {
		return Reply{Kind: ReplyValidationError, Text: "could not identify you, try again"}
	}

	session, err := h.verificationService.GetStatus(ctx, subjectID)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return Reply{Kind: ReplySuccess, Text: "you have no verification yet, run human verify first"}
		}
		log.Error(ctx, "fetching verification status", "err", err, "subject", subjectID)
		return Reply{Kind: ReplyFailure, Text: "status is temporarily unavailable, try again later"}
	}

	text := fmt.Sprintf("verification status: %s", session.Status)
	if session.Score != nil {
		text += fmt.Sprintf(", score %.2f", *session.Score)
	}
	if session.RoleAssigned {
		text += ", role assigned"
	} else if session.Status == domain.StatusVerified {
		text += ", role pending"
	}
	return Reply{Kind: ReplySuccess, Text: text}
}
