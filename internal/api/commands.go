package api

import (
	"encoding/json"
	"net/http"

	"github.com/stakewatch/passport-node/internal/commands"
)

type commandRequest struct {
	Command   string   `json:"command"`
	Args      []string `json:"args"`
	SubjectID string   `json:"subjectId"`
}

type commandResponse struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// HandleCommand runs one parsed chat command on behalf of the chat gateway.
// POST /commands {command, args, subjectId}
func (s *Server) HandleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply := s.commandHandler.Handle(r.Context(), commands.Request{
		Command:   req.Command,
		Args:      req.Args,
		SubjectID: req.SubjectID,
	})
	writeJSON(w, http.StatusOK, commandResponse{Kind: replyKindString(reply.Kind), Text: reply.Text})
}

func replyKindString(kind commands.ReplyKind) string {
	switch kind {
	case commands.ReplyValidationError:
		return "validation_error"
	case commands.ReplyFailure:
		return "failure"
	default:
		return "success"
	}
}
