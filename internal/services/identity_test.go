package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgeslab/edges-backend/internal/clients/supabase"
	"github.com/edgeslab/edges-backend/internal/platform/logger"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims SupabaseClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return tok
}

func validClaims(userID uuid.UUID) SupabaseClaims {
	return SupabaseClaims{
		Email: "ada@example.com",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestVerifyJWT(t *testing.T) {
	svc, err := NewIdentityService(logger.Nop(), IdentityConfig{JWTSecret: testSecret, RequireAudience: true}, nil)
	require.NoError(t, err)
	userID := uuid.New()

	id, err := svc.Verify(context.Background(), signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims(userID)))
	require.NoError(t, err)
	assert.Equal(t, userID, id.UserID)
	assert.Equal(t, "ada@example.com", id.Email)
	assert.True(t, id.Authenticated())
}

func TestVerifyJWTRejects(t *testing.T) {
	svc, err := NewIdentityService(logger.Nop(), IdentityConfig{JWTSecret: testSecret, RequireAudience: true}, nil)
	require.NoError(t, err)
	userID := uuid.New()

	expired := validClaims(userID)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	wrongAud := validClaims(userID)
	wrongAud.Audience = jwt.ClaimStrings{"anon"}

	badSubject := validClaims(userID)
	badSubject.Subject = "not-a-uuid"

	cases := map[string]string{
		"empty":       "",
		"garbage":     "abc.def.ghi",
		"wrong key":   signToken(t, jwt.SigningMethodHS256, []byte("another-secret-another-secret-xx"), validClaims(userID)),
		"wrong alg":   signToken(t, jwt.SigningMethodHS512, []byte(testSecret), validClaims(userID)),
		"expired":     signToken(t, jwt.SigningMethodHS256, []byte(testSecret), expired),
		"audience":    signToken(t, jwt.SigningMethodHS256, []byte(testSecret), wrongAud),
		"bad subject": signToken(t, jwt.SigningMethodHS256, []byte(testSecret), badSubject),
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Verify(context.Background(), tok)
			require.Error(t, err)
			assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
			assert.True(t, errors.Is(err, ErrInvalidToken))
		})
	}
}

func TestNewIdentityServiceConfig(t *testing.T) {
	_, err := NewIdentityService(logger.Nop(), IdentityConfig{Mode: "jwt"}, nil)
	assert.Error(t, err)
	_, err = NewIdentityService(logger.Nop(), IdentityConfig{Mode: "supabase"}, nil)
	assert.Error(t, err)
	_, err = NewIdentityService(logger.Nop(), IdentityConfig{Mode: "ldap", JWTSecret: testSecret}, nil)
	assert.Error(t, err)
}

type fakeSupabase struct {
	user *supabase.User
	err  error
}

func (f fakeSupabase) GetUser(context.Context, string) (*supabase.User, error) { return f.user, f.err }

func TestVerifySupabase(t *testing.T) {
	userID := uuid.New()
	svc, err := NewIdentityService(logger.Nop(), IdentityConfig{Mode: "supabase"}, fakeSupabase{user: &supabase.User{ID: userID, Email: "a@b.c"}})
	require.NoError(t, err)
	id, err := svc.Verify(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, userID, id.UserID)
	assert.Equal(t, "tok", id.Token)

	svc, err = NewIdentityService(logger.Nop(), IdentityConfig{Mode: "supabase"}, fakeSupabase{err: supabase.ErrInvalidToken})
	require.NoError(t, err)
	_, err = svc.Verify(context.Background(), "tok")
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}
