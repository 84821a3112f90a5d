package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rideinzw/dispatch/internal/auth"
	"github.com/rideinzw/dispatch/internal/domain/token"
	"github.com/rideinzw/dispatch/internal/domain/user"
	"github.com/rideinzw/dispatch/pkg/logger"
)

type stubRevocations struct {
	revoked map[string]bool
	err     error
}

func (s *stubRevocations) Revoke(ctx context.Context, revoked *token.RevokedToken) error {
	if s.revoked == nil {
		s.revoked = map[string]bool{}
	}
	s.revoked[revoked.JTI] = true
	return nil
}

func (s *stubRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.revoked[jti], nil
}

func testLogger(t *testing.T) *logger.Logger {
	log, err := logger.New(logger.Config{Level: "error", Format: "json"})
	require.NoError(t, err)
	return log
}

func testRouter(tokens *auth.TokenManager, revoked token.Repository, log *logger.Logger, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chain := append([]gin.HandlerFunc{Auth(tokens, revoked, log)}, extra...)
	chain = append(chain, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": UserID(c).String(),
			"role":    string(Role(c)),
		})
	})
	r.GET("/protected", chain...)
	return r
}

func envelopeOf(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// TestAuth_MissingToken tests requests without credentials are refused
func TestAuth_MissingToken(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	r := testRouter(tokens, &stubRevocations{}, testLogger(t))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", envelopeOf(t, rec)["error_type"])
}

// TestAuth_ValidToken tests identity lands on the request context
func TestAuth_ValidToken(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	userID := uuid.New()
	signed, _, err := tokens.Mint(userID.String(), string(user.RoleRider))
	require.NoError(t, err)

	r := testRouter(tokens, &stubRevocations{}, testLogger(t))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := envelopeOf(t, rec)
	assert.Equal(t, userID.String(), body["user_id"])
	assert.Equal(t, "rider", body["role"])
}

// TestAuth_QueryTokenFallback tests the WebSocket token path
func TestAuth_QueryTokenFallback(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	signed, _, err := tokens.Mint(uuid.NewString(), string(user.RoleDriver))
	require.NoError(t, err)

	r := testRouter(tokens, &stubRevocations{}, testLogger(t))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected?token="+signed, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

// TestAuth_GarbageToken tests malformed tokens are refused
func TestAuth_GarbageToken(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	r := testRouter(tokens, &stubRevocations{}, testLogger(t))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestAuth_WrongSecret tests tokens minted elsewhere are refused
func TestAuth_WrongSecret(t *testing.T) {
	theirTokens := auth.NewTokenManager("their-secret", time.Hour)
	signed, _, err := theirTokens.Mint(uuid.NewString(), string(user.RoleRider))
	require.NoError(t, err)

	ourTokens := auth.NewTokenManager("our-secret", time.Hour)
	r := testRouter(ourTokens, &stubRevocations{}, testLogger(t))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestAuth_RevokedToken tests the denylist is consulted
func TestAuth_RevokedToken(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	signed, claims, err := tokens.Mint(uuid.NewString(), string(user.RoleRider))
	require.NoError(t, err)

	revocations := &stubRevocations{revoked: map[string]bool{claims.ID: true}}
	r := testRouter(tokens, revocations, testLogger(t))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, envelopeOf(t, rec)["error"], "revoked")
}

// TestAuth_DenylistFailureFailsClosed tests store errors refuse access
func TestAuth_DenylistFailureFailsClosed(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	signed, _, err := tokens.Mint(uuid.NewString(), string(user.RoleRider))
	require.NoError(t, err)

	revocations := &stubRevocations{err: context.DeadlineExceeded}
	r := testRouter(tokens, revocations, testLogger(t))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

// TestRequireRole tests the role gate after Auth
func TestRequireRole(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	riderToken, _, err := tokens.Mint(uuid.NewString(), string(user.RoleRider))
	require.NoError(t, err)
	adminToken, _, err := tokens.Mint(uuid.NewString(), string(user.RoleAdmin))
	require.NoError(t, err)

	r := testRouter(tokens, &stubRevocations{}, testLogger(t), RequireRole(user.RoleAdmin))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+riderToken)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "accessdenied", envelopeOf(t, rec)["error_type"])

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// TestRateLimit_NoClientPassesThrough tests throttling is optional
func TestRateLimit_NoClientPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/open", RateLimit(nil, testLogger(t), "general", 1, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/open", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
