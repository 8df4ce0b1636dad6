package supabase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"

	"github.com/edgeslab/edges-backend/internal/platform/logger"
)

var ErrInvalidToken = errors.New("invalid access token")

type User struct {
	ID    uuid.UUID
	Email string
}

// Client asks the identity provider who a bearer token belongs to.
type Client interface {
	GetUser(ctx context.Context, token string) (*User, error)
}

type supabaseClient struct {
	log *logger.Logger
	sb  *supabase.Client
}

func NewClient(url, key string, log *logger.Logger) (Client, error) {
	if strings.TrimSpace(url) == "" || strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("missing SUPABASE_URL or SUPABASE_SERVICE_ROLE_KEY")
	}
	sb, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return &supabaseClient{log: log.With("client", "SupabaseClient"), sb: sb}, nil
}

func (c *supabaseClient) GetUser(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := c.sb.Auth.WithToken(token).GetUser()
	if err != nil {
		c.log.Debug("supabase rejected token", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if resp == nil || resp.ID == uuid.Nil {
		return nil, ErrInvalidToken
	}
	return &User{ID: resp.ID, Email: resp.Email}, nil
}
