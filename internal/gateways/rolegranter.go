package gateways

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stakewatch/passport-node/internal/config"
	client "github.com/stakewatch/passport-node/pkg/http"
)

// RoleGranterGateway asks the platform bot service to grant a role to a subject
type RoleGranterGateway struct {
	http    *client.Client
	baseURL string
	token   string
}

type grantRequest struct {
	SubjectID string `json:"subjectId"`
	Role      string `json:"role"`
}

// NewRoleGranterGateway returns a role granter backed by the bot service API
func NewRoleGranterGateway(cfg config.Granter) *RoleGranterGateway {
	return &RoleGranterGateway{
		http:    client.DefaultHTTPClientWithRetry,
		baseURL: cfg.URL,
		token:   cfg.Token,
	}
}

// Grant assigns the role to the subject
func (g *RoleGranterGateway) Grant(ctx context.Context, subjectID, role string) error {
	body, err := json.Marshal(grantRequest{SubjectID: subjectID, Role: role})
	if err != nil {
		return err
	}

	headers := map[string]string{"Authorization": "Bearer " + g.token}
	if _, err := g.http.Post(ctx, g.baseURL+"/roles", body, headers); err != nil {
		return fmt.Errorf("granting role %s to %s: %w", role, subjectID, err)
	}
	return nil
}
