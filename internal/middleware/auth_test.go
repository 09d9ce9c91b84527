package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"
	"github.com/videoreview/videoreview_server/internal/auth"
)

func newTestMiddleware() (*AuthMiddleware, *auth.Service) {
	service := auth.NewService(nil, auth.Config{JWTSecret: "test-secret", JWTExpirationHours: 1})
	return NewAuthMiddleware(service), service
}

func requestWithRole(t *testing.T, service *auth.Service, role string) *fasthttp.RequestCtx {
	token, _, err := service.GenerateJWT("user-1", "Alice", "", role)
	assert.NoError(t, err)
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.Set("Authorization", "Bearer "+token)
	return &ctx
}

func TestRequireAuth_ShouldRejectAnonymousRequest(t *testing.T) {
	// given
	middleware, _ := newTestMiddleware()
	var ctx fasthttp.RequestCtx
	called := false

	// when
	middleware.RequireAuth(func(ctx *fasthttp.RequestCtx) { called = true })(&ctx)

	// then
	assert.False(t, called)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestRequireAuth_ShouldExposeClaimsToHandler(t *testing.T) {
	// given
	middleware, service := newTestMiddleware()
	ctx := requestWithRole(t, service, auth.RoleViewer)
	var seen *auth.Claims

	// when
	middleware.RequireAuth(func(ctx *fasthttp.RequestCtx) {
		seen, _ = ctx.UserValue("claims").(*auth.Claims)
	})(ctx)

	// then
	assert.NotNil(t, seen)
	assert.Equal(t, "user-1", seen.UserID)
}

func TestRequireRole_ShouldAllowMatchingRole(t *testing.T) {
	// given
	middleware, service := newTestMiddleware()
	ctx := requestWithRole(t, service, auth.RoleAdmin)
	called := false

	// when
	middleware.RequireRole([]string{auth.RoleAdmin}, func(ctx *fasthttp.RequestCtx) { called = true })(ctx)

	// then
	assert.True(t, called)
}

func TestRequireRole_ShouldForbidMismatchedRole(t *testing.T) {
	// given
	middleware, service := newTestMiddleware()
	ctx := requestWithRole(t, service, auth.RoleGuest)
	called := false

	// when
	middleware.RequireRole([]string{auth.RoleAdmin, auth.RoleViewer}, func(ctx *fasthttp.RequestCtx) { called = true })(ctx)

	// then
	assert.False(t, called)
	assert.Equal(t, fasthttp.StatusForbidden, ctx.Response.StatusCode())
}
