package auth

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/auto-loan-origination/internal/shared/authz"
	apierrors "github.com/Apurer/auto-loan-origination/internal/shared/errors"
)

const (
	actorKey   = "auth.actor"
	tokenIDKey = "auth.token_id"
)

// SessionChecker reports whether a token id is still valid.
type SessionChecker interface {
	SessionActive(ctx context.Context, tokenID string) (bool, error)
}

// Middleware requires a valid bearer token and stores the acting user on the context.
// A nil sessions checker accepts every correctly signed token.
func Middleware(issuer *Issuer, sessions SessionChecker, responder *apierrors.Responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			responder.Respond(c, apierrors.ErrUnauthorized.WithDetail("bearer token required"))
			return
		}
		actor, tokenID, err := issuer.Parse(raw)
		if err != nil {
			responder.Respond(c, apierrors.ErrUnauthorized.WithDetail(ErrInvalidToken.Error()))
			return
		}
		if sessions != nil {
			active, err := sessions.SessionActive(c.Request.Context(), tokenID)
			if err != nil {
				responder.RespondError(c, err)
				return
			}
			if !active {
				responder.Respond(c, apierrors.ErrUnauthorized.WithDetail("token has been revoked"))
				return
			}
		}
		c.Set(actorKey, actor)
		c.Set(tokenIDKey, tokenID)
		c.Next()
	}
}

// ActorFrom returns the acting user set by Middleware, or the anonymous actor.
func ActorFrom(c *gin.Context) authz.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(authz.Actor); ok {
			return actor
		}
	}
	return authz.Actor{}
}

// TokenIDFrom returns the id of the token used for the request.
func TokenIDFrom(c *gin.Context) string {
	return c.GetString(tokenIDKey)
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
