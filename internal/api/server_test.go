package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakewatch/passport-node/internal/cache"
	"github.com/stakewatch/passport-node/internal/commands"
	"github.com/stakewatch/passport-node/internal/config"
	"github.com/stakewatch/passport-node/internal/core/domain"
	"github.com/stakewatch/passport-node/internal/core/services"
	"github.com/stakewatch/passport-node/internal/gateways"
	"github.com/stakewatch/passport-node/internal/health"
	"github.com/stakewatch/passport-node/internal/repositories"
	"github.com/stakewatch/passport-node/internal/session"
	"github.com/stakewatch/passport-node/pkg/pubsub"
)

type testServer struct {
	mux          *chi.Mux
	verification *services.Verification
}

func newTestServer(score string) *testServer {
	reader := gateways.NewDevChainReader()
	chainInfo := services.NewChainInfo(reader, cache.NewMemoryCache(), time.Minute)

	verification := services.NewVerification(
		repositories.NewMemoryVerification(),
		gateways.NewDevScorer(score),
		gateways.NewDevRoleGranter(),
		pubsub.NewMock(),
		session.NewLocker(time.Minute),
		config.Verification{MinimumScore: 5, PollMaxAttempts: 1, PollInterval: time.Millisecond},
		config.Roles{Verified: "verified"},
	)

	commandHandler := commands.NewHandler(verification, chainInfo, reader, "https://passport.example.org")

	mux := chi.NewRouter()
	NewServer(verification, chainInfo, commandHandler, health.New()).Routes(context.Background(), mux)
	return &testServer{mux: mux, verification: verification}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

// newSubmission creates a session and a matching wallet plus signature
func (s *testServer) newSubmission(t *testing.T, subjectID string) (string, string, string) {
	t.Helper()
	created, err := s.verification.CreateOrResumeSession(context.Background(), subjectID)
	require.NoError(t, err)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	hash := accounts.TextHash([]byte(fmt.Sprintf(services.SignMessageTemplate, created.Nonce)))
	sig, err := crypto.Sign(hash, key)
	require.NoError(t, err)

	return created.ID.String(), address, hexutil.Encode(sig)
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer("10")
	rec := server.do(t, http.MethodGet, "/status", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetChainInfo(t *testing.T) {
	server := newTestServer("10")
	rec := server.do(t, http.MethodGet, "/chain/info", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot domain.ValidatorSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.Equal(t, uint64(128), snapshot.PendingBlockNumber)
	assert.Len(t, snapshot.ValidatorAddresses, 2)
}

func TestGetEncodedENR(t *testing.T) {
	server := newTestServer("10")
	rec := server.do(t, http.MethodGet, "/chain/enr", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp enrResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "enr:-dev", resp.ENR)
}

func TestGetArchiveSiblingPath(t *testing.T) {
	server := newTestServer("10")

	t.Run("rejects a bad block number", func(t *testing.T) {
		rec := server.do(t, http.MethodGet, "/chain/archive/nope/sibling-path", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("returns the path", func(t *testing.T) {
		rec := server.do(t, http.MethodGet, "/chain/archive/120/sibling-path", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp siblingPathResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, uint64(120), resp.BlockNumber)
	})
}

func TestSubmitVerification(t *testing.T) {
	t.Run("verifies a valid submission", func(t *testing.T) {
		server := newTestServer("10")
		id, address, signature := server.newSubmission(t, "subject-1")

		rec := server.do(t, http.MethodPost, "/human/verify", verifyRequest{
			VerificationID: id,
			WalletAddress:  address,
			Signature:      signature,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp SessionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, string(domain.StatusVerified), resp.Status)
		assert.True(t, resp.RoleAssigned)
		assert.Empty(t, resp.Nonce)
		assert.NotNil(t, resp.LastVerified)
	})

	t.Run("rejects malformed bodies", func(t *testing.T) {
		server := newTestServer("10")
		req := httptest.NewRequest(http.MethodPost, "/human/verify", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		server.mux.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects a bad verification id", func(t *testing.T) {
		server := newTestServer("10")
		rec := server.do(t, http.MethodPost, "/human/verify", verifyRequest{VerificationID: "nope"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects unknown sessions", func(t *testing.T) {
		server := newTestServer("10")
		_, address, signature := server.newSubmission(t, "subject-1")
		rec := server.do(t, http.MethodPost, "/human/verify", verifyRequest{
			VerificationID: uuid.NewString(),
			WalletAddress:  address,
			Signature:      signature,
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("rejects signatures from another wallet", func(t *testing.T) {
		server := newTestServer("10")
		id, _, signature := server.newSubmission(t, "subject-1")
		rec := server.do(t, http.MethodPost, "/human/verify", verifyRequest{
			VerificationID: id,
			WalletAddress:  "0x9999999999999999999999999999999999999999",
			Signature:      signature,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("conflicts on nonce reuse", func(t *testing.T) {
		server := newTestServer("10")
		id, address, signature := server.newSubmission(t, "subject-1")

		body := verifyRequest{VerificationID: id, WalletAddress: address, Signature: signature}
		first := server.do(t, http.MethodPost, "/human/verify", body)
		require.Equal(t, http.StatusOK, first.Code)

		second := server.do(t, http.MethodPost, "/human/verify", body)
		assert.Equal(t, http.StatusConflict, second.Code)
	})
}

func TestGetVerificationStatus(t *testing.T) {
	server := newTestServer("10")

	t.Run("unknown subject", func(t *testing.T) {
		rec := server.do(t, http.MethodGet, "/human/status/ghost", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("exposes the nonce only before submission", func(t *testing.T) {
		id, address, signature := server.newSubmission(t, "subject-1")

		rec := server.do(t, http.MethodGet, "/human/status/subject-1", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var before SessionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &before))
		assert.NotEmpty(t, before.Nonce)
		assert.Equal(t, string(domain.StatusNotVerified), before.Status)

		submit := server.do(t, http.MethodPost, "/human/verify", verifyRequest{
			VerificationID: id, WalletAddress: address, Signature: signature,
		})
		require.Equal(t, http.StatusOK, submit.Code)

		rec = server.do(t, http.MethodGet, "/human/status/subject-1", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var after SessionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &after))
		assert.Empty(t, after.Nonce)
		assert.Equal(t, string(domain.StatusVerified), after.Status)
	})
}

func TestGetScoreEndpoint(t *testing.T) {
	server := newTestServer("12.5")

	t.Run("rejects a bad verification id", func(t *testing.T) {
		rec := server.do(t, http.MethodGet, "/human/score?address=0x1111111111111111111111111111111111111111&verificationId=nope", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("returns the provider score", func(t *testing.T) {
		id, address, _ := server.newSubmission(t, "subject-1")
		rec := server.do(t, http.MethodGet, "/human/score?address="+address+"&verificationId="+id, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ScoreResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "DONE", resp.Status)
		assert.Equal(t, "12.5", resp.Score)
	})
}

func TestCommandsEndpoint(t *testing.T) {
	server := newTestServer("10")

	rec := server.do(t, http.MethodPost, "/commands", commandRequest{Command: "admin validators get"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp commandResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Kind)
	assert.Contains(t, resp.Text, "2 validators")

	rec = server.do(t, http.MethodPost, "/commands", commandRequest{Command: "bogus"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation_error", resp.Kind)
}
