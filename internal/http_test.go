package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"
	"github.com/videoreview/videoreview_server/internal/auth"
	"github.com/videoreview/videoreview_server/internal/comment"
	"github.com/videoreview/videoreview_server/internal/health"
	"github.com/videoreview/videoreview_server/internal/integrations"
	"github.com/videoreview/videoreview_server/internal/media"
	"github.com/videoreview/videoreview_server/internal/notify"
	"github.com/videoreview/videoreview_server/internal/readstatus"
	"github.com/videoreview/videoreview_server/internal/upload"
	"github.com/videoreview/videoreview_server/internal/video"
)

func newTestHandler(t *testing.T) (fasthttp.RequestHandler, *auth.Service) {
	authService := auth.NewService(nil, auth.Config{JWTSecret: "test-secret", JWTExpirationHours: 1})
	hub := notify.NewHub()

	jiraEndpoints, err := integrations.NewJiraEndpoints(integrations.JiraConfig{})
	assert.NoError(t, err)

	handler := NewRequestHandler(
		&Config{},
		authService,
		auth.NewEndpoints(nil, authService),
		upload.NewEndpoints(upload.NewService(nil, nil, nil), upload.Config{}, hub),
		video.NewEndpoints(nil),
		media.NewEndpoints(nil, nil),
		comment.NewEndpoints(nil, hub),
		readstatus.NewEndpoints(nil),
		integrations.NewSlackEndpoints(integrations.SlackConfig{}),
		jiraEndpoints,
		health.NewEndpoints(nil),
		notify.NewHandler(hub, authService),
	)
	return handler, authService
}

func routeRequest(handler fasthttp.RequestHandler, method, uri, token string) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	var ctx fasthttp.RequestCtx
	ctx.Init(&req, nil, nil)
	handler(&ctx)
	return &ctx
}

func TestTransferRoutes_ShouldAcceptPut(t *testing.T) {
	for _, uri := range []string{
		"/videos/upload/transfer/local",
		"/videos/upload/transfer/nextcloud",
		"/drawing/upload/transfer/local",
		"/drawing/upload/transfer/nextcloud",
	} {
		// given
		handler, _ := newTestHandler(t)

		// when
		ctx := routeRequest(handler, "PUT", uri, "")

		// then: the route dispatches and fails on auth, not on the method
		assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode(), uri)
	}
}

func TestTransferRoutes_ShouldAcceptPost(t *testing.T) {
	// given
	handler, _ := newTestHandler(t)

	// when
	ctx := routeRequest(handler, "POST", "/videos/upload/transfer/local", "")

	// then
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestTransferRoutes_ShouldRejectOtherMethods(t *testing.T) {
	// given
	handler, _ := newTestHandler(t)

	// when
	ctx := routeRequest(handler, "DELETE", "/videos/upload/transfer/local", "")

	// then
	assert.Equal(t, fasthttp.StatusMethodNotAllowed, ctx.Response.StatusCode())
}

func TestTransferRoutes_ShouldDispatchPutToHandler(t *testing.T) {
	// given
	handler, authService := newTestHandler(t)
	token, _, err := authService.GenerateJWT("user-1", "Alice", "", auth.RoleAdmin)
	assert.NoError(t, err)

	// when: authorized PUT with no session_id reaches the endpoint
	ctx := routeRequest(handler, "PUT", "/videos/upload/transfer/local", token)

	// then
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "missing session_id")
}
