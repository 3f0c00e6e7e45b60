package gateways

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/stakewatch/passport-node/internal/config"
	"github.com/stakewatch/passport-node/internal/core/ports"
	client "github.com/stakewatch/passport-node/pkg/http"
)

// ScorerGateway talks to the external sybil-resistance scoring API
type ScorerGateway struct {
	http     *client.Client
	baseURL  string
	scorerID string
	apiKey   string
	timeout  time.Duration
}

type submitRequest struct {
	Address   string `json:"address"`
	ScorerID  string `json:"scorer_id"`
	Signature string `json:"signature"`
	Nonce     string `json:"nonce"`
}

type scoreResponse struct {
	Address string  `json:"address"`
	Status  string  `json:"status"`
	Score   string  `json:"score"`
	Error   *string `json:"error"`
}

// NewScorerGateway returns a scorer gateway with retrying transport
func NewScorerGateway(cfg config.Scorer) *ScorerGateway {
	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = cfg.ResponseTimeout
	rc.Logger = nil
	return &ScorerGateway{
		http: client.NewClient(http.Client{
			Transport: &retryablehttp.RoundTripper{Client: rc},
		}),
		baseURL:  cfg.URL,
		scorerID: cfg.ScorerID,
		apiKey:   cfg.APIKey,
		timeout:  cfg.ResponseTimeout,
	}
}

// Submit registers a wallet for scoring, authenticated by the signature over
// the session nonce
func (g *ScorerGateway) Submit(ctx context.Context, walletAddress, signature, nonce string) error {
	body, err := json.Marshal(submitRequest{
		Address:   walletAddress,
		ScorerID:  g.scorerID,
		Signature: signature,
		Nonce:     nonce,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	_, err = g.http.Post(ctx, g.baseURL+"/registry/submit-passport", body, g.headers())
	if err != nil {
		return fmt.Errorf("submitting passport for %s: %w", walletAddress, err)
	}
	return nil
}

// GetScore returns the current scoring status for a wallet
func (g *ScorerGateway) GetScore(ctx context.Context, walletAddress string) (*ports.ScoreResult, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.http.Get(ctx, fmt.Sprintf("%s/registry/score/%s/%s", g.baseURL, g.scorerID, walletAddress), g.headers())
	if err != nil {
		return nil, fmt.Errorf("fetching score for %s: %w", walletAddress, err)
	}

	var resp scoreResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decoding score response: %w", err)
	}

	return &ports.ScoreResult{
		Status: ports.ScoreStatus(resp.Status),
		Score:  resp.Score,
	}, nil
}

func (g *ScorerGateway) headers() map[string]string {
	return map[string]string{"X-API-Key": g.apiKey}
}
