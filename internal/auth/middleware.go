package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	contextKeyPrincipal = "principal_id"
	contextKeyClaims    = "auth_claims"

	// TokenHeader is the bare-token header older clients send.
	TokenHeader = "token"
)

// RevocationChecker is satisfied by *Revocations.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// PrincipalFromContext returns the authenticated user id set by Require. Empty if not set.
func PrincipalFromContext(c *gin.Context) string {
	return c.GetString(contextKeyPrincipal)
}

// ClaimsFromContext returns the verified claims set by Require, or nil.
func ClaimsFromContext(c *gin.Context) *Claims {
	v, ok := c.Get(contextKeyClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}

// Gate verifies credentials on requests and connection handshakes.
type Gate struct {
	tokens  *Tokens
	revoked RevocationChecker
	log     *slog.Logger
}

// NewGate returns a Gate. revoked may be nil to skip the revocation lookup.
func NewGate(tokens *Tokens, revoked RevocationChecker, log *slog.Logger) *Gate {
	return &Gate{tokens: tokens, revoked: revoked, log: log}
}

// Authenticate verifies raw and checks it against the revocation list.
func (g *Gate) Authenticate(ctx context.Context, raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}
	claims, err := g.tokens.Verify(raw)
	if err != nil {
		return nil, err
	}
	if g.revoked != nil {
		revoked, err := g.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, ErrRevokedToken
		}
	}
	return claims, nil
}

// Require returns a middleware that rejects requests without a valid token and
// stores the principal in the context. allowQuery also accepts ?token=, which
// browsers need for WebSocket handshakes.
func (g *Gate) Require(allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := ExtractToken(c.Request, allowQuery)
		claims, err := g.Authenticate(c.Request.Context(), raw)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrExpiredToken), errors.Is(err, ErrRevokedToken):
				msg := "authorization required"
				if raw != "" {
					msg = err.Error()
				}
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			default:
				g.log.Error("token revocation lookup failed", "err", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "authorization unavailable"})
			}
			return
		}
		c.Set(contextKeyPrincipal, claims.PrincipalID())
		c.Set(contextKeyClaims, claims)
		c.Next()
	}
}

// ExtractToken reads the credential from "Authorization: Bearer", the token
// header, or (when allowQuery) the token query parameter.
func ExtractToken(r *http.Request, allowQuery bool) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if after, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(after)
		}
		return ""
	}
	if t := strings.TrimSpace(r.Header.Get(TokenHeader)); t != "" {
		return t
	}
	if allowQuery {
		return strings.TrimSpace(r.URL.Query().Get("token"))
	}
	return ""
}
