package middleware

import (
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
	"github.com/videoreview/videoreview_server/internal/auth"
)

type AuthMiddleware struct {
	authService *auth.Service
}

func NewAuthMiddleware(authService *auth.Service) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

func (am *AuthMiddleware) RequireAuth(handler fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		claims, err := am.authService.ValidateRequest(ctx)
		if err != nil {
			log.Debug().Err(err).Msg("Authentication failed")
			ctx.Error("Unauthorized", fasthttp.StatusUnauthorized)
			return
		}

		ctx.SetUserValue("claims", claims)

		handler(ctx)
	}
}

// RequireRole gates a handler on the caller holding one of the given roles.
func (am *AuthMiddleware) RequireRole(roles []string, handler fasthttp.RequestHandler) fasthttp.RequestHandler {
	return am.RequireAuth(func(ctx *fasthttp.RequestCtx) {
		claims, ok := ctx.UserValue("claims").(*auth.Claims)
		if !ok || !roleAllowed(claims.Role, roles) {
			log.Debug().Str("role", roleOf(claims)).Msg("Insufficient permissions")
			ctx.Error("Forbidden", fasthttp.StatusForbidden)
			return
		}

		handler(ctx)
	})
}

func roleAllowed(role string, roles []string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func roleOf(claims *auth.Claims) string {
	if claims == nil {
		return ""
	}
	return claims.Role
}
