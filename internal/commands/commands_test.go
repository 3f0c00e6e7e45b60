package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakewatch/passport-node/internal/cache"
	"github.com/stakewatch/passport-node/internal/config"
	"github.com/stakewatch/passport-node/internal/core/domain"
	"github.com/stakewatch/passport-node/internal/core/services"
	"github.com/stakewatch/passport-node/internal/gateways"
	"github.com/stakewatch/passport-node/internal/repositories"
	"github.com/stakewatch/passport-node/internal/session"
	"github.com/stakewatch/passport-node/pkg/pubsub"
)

type recordingRegistry struct {
	removed []string
	err     error
}

func (r *recordingRegistry) AddValidator(_ context.Context, _ string) error {
	return nil
}

func (r *recordingRegistry) RemoveValidator(_ context.Context, address string) error {
	if r.err != nil {
		return r.err
	}
	r.removed = append(r.removed, address)
	return nil
}

func newTestHandler(registry *recordingRegistry) (*Handler, *services.Verification) {
	reader := gateways.NewDevChainReader()
	chainInfo := services.NewChainInfo(reader, cache.NewMemoryCache(), time.Minute)

	verification := services.NewVerification(
		repositories.NewMemoryVerification(),
		gateways.NewDevScorer("10"),
		gateways.NewDevRoleGranter(),
		pubsub.NewMock(),
		session.NewLocker(time.Minute),
		config.Verification{MinimumScore: 5, PollMaxAttempts: 1, PollInterval: time.Millisecond},
		config.Roles{Verified: "verified"},
	)

	return NewHandler(verification, chainInfo, registry, "https://passport.example.org"), verification
}

func TestHandle_UnknownCommand(t *testing.T) {
	handler, _ := newTestHandler(&recordingRegistry{})

	reply := handler.Handle(context.Background(), Request{Command: "does not exist"})
	assert.Equal(t, ReplyValidationError, reply.Kind)
}

func TestHandle_AdminValidatorsGet(t *testing.T) {
	handler, _ := newTestHandler(&recordingRegistry{})

	reply := handler.Handle(context.Background(), Request{Command: "admin validators get"})
	assert.Equal(t, ReplySuccess, reply.Kind)
	assert.Contains(t, reply.Text, "2 validators")
	assert.Contains(t, reply.Text, "0x1111111111111111111111111111111111111111")
	assert.Contains(t, reply.Text, "0x2222222222222222222222222222222222222222")
}

func TestHandle_AdminValidatorsRemove(t *testing.T) {
	t.Run("requires an address", func(t *testing.T) {
		handler, _ := newTestHandler(&recordingRegistry{})
		reply := handler.Handle(context.Background(), Request{Command: "admin validators remove"})
		assert.Equal(t, ReplyValidationError, reply.Kind)
	})

	t.Run("removes unconditionally, even unknown addresses", func(t *testing.T) {
		registry := &recordingRegistry{}
		handler, _ := newTestHandler(registry)

		reply := handler.Handle(context.Background(), Request{
			Command: "admin validators remove",
			Args:    []string{"0x9999999999999999999999999999999999999999"},
		})
		assert.Equal(t, ReplySuccess, reply.Kind)
		assert.Equal(t, []string{"0x9999999999999999999999999999999999999999"}, registry.removed)
	})

	t.Run("reports registry failures", func(t *testing.T) {
		handler, _ := newTestHandler(&recordingRegistry{err: errors.New("node down")})
		reply := handler.Handle(context.Background(), Request{
			Command: "admin validators remove",
			Args:    []string{"0x9999999999999999999999999999999999999999"},
		})
		assert.Equal(t, ReplyFailure, reply.Kind)
	})
}

func TestHandle_ValidatorCheck(t *testing.T) {
	handler, _ := newTestHandler(&recordingRegistry{})
	ctx := context.Background()

	t.Run("rejects malformed addresses", func(t *testing.T) {
		reply := handler.Handle(ctx, Request{Command: "validator check", Args: []string{"nope"}})
		assert.Equal(t, ReplyValidationError, reply.Kind)
	})

	t.Run("reports validator stats", func(t *testing.T) {
		reply := handler.Handle(ctx, Request{
			Command: "validator check",
			Args:    []string{"0x1111111111111111111111111111111111111111"},
		})
		assert.Equal(t, ReplySuccess, reply.Kind)
		assert.Contains(t, reply.Text, "is a validator")
		assert.Contains(t, reply.Text, "95 attestations")
		assert.Contains(t, reply.Text, "5.0%")
	})

	t.Run("reports non-validators", func(t *testing.T) {
		reply := handler.Handle(ctx, Request{
			Command: "validator check",
			Args:    []string{"0x9999999999999999999999999999999999999999"},
		})
		assert.Equal(t, ReplySuccess, reply.Kind)
		assert.Contains(t, reply.Text, "is not a validator")
	})
}

func TestHandle_HumanVerify(t *testing.T) {
	handler, verification := newTestHandler(&recordingRegistry{})
	ctx := context.Background()

	t.Run("requires a subject", func(t *testing.T) {
		reply := handler.Handle(ctx, Request{Command: "human verify"})
		assert.Equal(t, ReplyValidationError, reply.Kind)
	})

	t.Run("replies with the verification link", func(t *testing.T) {
		reply := handler.Handle(ctx, Request{Command: "human verify", SubjectID: "subject-1"})
		assert.Equal(t, ReplySuccess, reply.Kind)

		created, err := verification.GetStatus(ctx, "subject-1")
		require.NoError(t, err)
		assert.Contains(t, reply.Text, "https://passport.example.org/verify?id="+created.ID.String())
	})
}

func TestHandle_HumanStatus(t *testing.T) {
	handler, verification := newTestHandler(&recordingRegistry{})
	ctx := context.Background()

	t.Run("no session yet", func(t *testing.T) {
		reply := handler.Handle(ctx, Request{Command: "human status", SubjectID: "subject-1"})
		assert.Equal(t, ReplySuccess, reply.Kind)
		assert.Contains(t, reply.Text, "no verification yet")
	})

	t.Run("reports the current status", func(t *testing.T) {
		_, err := verification.CreateOrResumeSession(ctx, "subject-2")
		require.NoError(t, err)

		reply := handler.Handle(ctx, Request{Command: "human status", SubjectID: "subject-2"})
		assert.Equal(t, ReplySuccess, reply.Kind)
		assert.Contains(t, reply.Text, string(domain.StatusNotVerified))
	})
}
