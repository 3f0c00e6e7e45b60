package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/stakewatch/passport-node/internal/buildinfo"
	"github.com/stakewatch/passport-node/internal/commands"
	"github.com/stakewatch/passport-node/internal/core/ports"
	"github.com/stakewatch/passport-node/internal/health"
	"github.com/stakewatch/passport-node/internal/log"
)

// Server exposes the verification and chain info APIs, plus the command
// endpoint consumed by the chat gateway.
type Server struct {
	verificationService ports.VerificationService
	chainInfoService    ports.ChainInfoService
	commandHandler      *commands.Handler
	healthStatus        *health.Status
}

// NewServer returns a new API server
func NewServer(verificationService ports.VerificationService, chainInfoService ports.ChainInfoService, commandHandler *commands.Handler, healthStatus *health.Status) *Server {
	return &Server{
		verificationService: verificationService,
		chainInfoService:    chainInfoService,
		commandHandler:      commandHandler,
		healthStatus:        healthStatus,
	}
}

// Routes mounts all handlers on the mux
func (s *Server) Routes(ctx context.Context, mux *chi.Mux) {
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)
	mux.Use(cors.AllowAll().Handler)
	mux.Use(LogMiddleware(ctx))
	mux.Use(log.ChiMiddleware(ctx))

	mux.Get("/status", s.Health)
	mux.Route("/human", func(r chi.Router) {
		r.Get("/score", s.GetScore)
		r.Post("/verify", s.SubmitVerification)
		r.Get("/status/{subjectID}", s.GetVerificationStatus)
	})
	mux.Route("/chain", func(r chi.Router) {
		r.Get("/info", s.GetChainInfo)
		r.Get("/enr", s.GetEncodedENR)
		r.Get("/archive/{blockNumber}/sibling-path", s.GetArchiveSiblingPath)
	})
	mux.Post("/commands", s.HandleCommand)
}

type healthResponse struct {
	Revision string          `json:"revision,omitempty"`
	Services map[string]bool `json:"services"`
}

// Health returns whether the server dependencies are reachable
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	status := s.healthStatus.Status(r.Context())
	code := http.StatusOK
	for _, ok := range status {
		if !ok {
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, healthResponse{Revision: buildinfo.Revision(), Services: status})
}
