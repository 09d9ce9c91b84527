package internal

import (
	"strings"

	"github.com/valyala/fasthttp"
	"github.com/videoreview/videoreview_server/internal/auth"
	"github.com/videoreview/videoreview_server/internal/comment"
	"github.com/videoreview/videoreview_server/internal/health"
	"github.com/videoreview/videoreview_server/internal/integrations"
	"github.com/videoreview/videoreview_server/internal/media"
	"github.com/videoreview/videoreview_server/internal/middleware"
	"github.com/videoreview/videoreview_server/internal/notify"
	"github.com/videoreview/videoreview_server/internal/readstatus"
	"github.com/videoreview/videoreview_server/internal/upload"
	"github.com/videoreview/videoreview_server/internal/video"
)

var (
	anyRole      = []string{auth.RoleAdmin, auth.RoleViewer, auth.RoleGuest}
	reviewerRole = []string{auth.RoleAdmin, auth.RoleViewer}
	adminRole    = []string{auth.RoleAdmin}
)

func NewRequestHandler(
	config *Config,
	authService *auth.Service,
	authEndpoints *auth.Endpoints,
	uploadEndpoints *upload.Endpoints,
	videoEndpoints *video.Endpoints,
	mediaEndpoints *media.Endpoints,
	commentEndpoints *comment.Endpoints,
	readStatusEndpoints *readstatus.Endpoints,
	slackEndpoints *integrations.SlackEndpoints,
	jiraEndpoints *integrations.JiraEndpoints,
	healthEndpoints *health.Endpoints,
	wsHandler *notify.Handler,
) fasthttp.RequestHandler {
	authMiddleware := middleware.NewAuthMiddleware(authService)
	corsMiddleware := middleware.NewCORSMiddleware(config.AllowedOrigins)

	handler := func(ctx *fasthttp.RequestCtx) {
		path := string(ctx.Path())
		method := string(ctx.Method())

		switch {
		case path == "/auth/login/admin":
			if method == "POST" {
				authEndpoints.AdminLogin(ctx)
			} else {
				ctx.Error("Method Not Allowed", fasthttp.StatusMethodNotAllowed)
			}
		case path == "/auth/login/guest":
			if method == "POST" {
				authEndpoints.GuestLogin(ctx)
			} else {
				ctx.Error("Method Not Allowed", fasthttp.StatusMethodNotAllowed)
			}
		case path == "/auth/verify":
			authEndpoints.Verify(ctx)

		case path == "/health":
			healthEndpoints.Health(ctx)
		case path == "/status":
			authMiddleware.RequireAuth(healthEndpoints.Status)(ctx)

		case path == "/videos/upload/init":
			if method == "POST" {
				authMiddleware.RequireRole(adminRole, uploadEndpoints.InitVideo)(ctx)
			} else {
				ctx.Error("Method Not Allowed", fasthttp.StatusMethodNotAllowed)
			}
		case strings.HasPrefix(path, "/videos/upload/transfer/"):
			if method == "PUT" || method == "POST" {
				authMiddleware.RequireRole(adminRole, uploadEndpoints.Transfer)(ctx)
			} else {
				ctx.Error("Method Not Allowed", fasthttp.StatusMethodNotAllowed)
			}
		case path == "/videos/upload/status":
			authMiddleware.RequireRole(adminRole, uploadEndpoints.Status)(ctx)
		case path == "/videos/upload/finish":
			if method == "POST" {
				authMiddleware.RequireRole(adminRole, uploadEndpoints.FinishVideo)(ctx)
			} else {
				ctx.Error("Method Not Allowed", fasthttp.StatusMethodNotAllowed)
			}

		case path == "/drawing/upload/init":
			if method == "POST" {
				authMiddleware.RequireRole(anyRole, uploadEndpoints.InitDrawing)(ctx)
			} else {
				ctx.Error("Method Not Allowed", fasthttp.StatusMethodNotAllowed)
			}
		case strings.HasPrefix(path, "/drawing/upload/transfer/"):
			if method == "PUT" || method == "POST" {
				authMiddleware.RequireRole(anyRole, uploadEndpoints.Transfer)(ctx)
			} else {
				ctx.Error("Method Not Allowed", fasthttp.StatusMethodNotAllowed)
			}
		case path == "/drawing/upload/finish":
			if method == "POST" {
				authMiddleware.RequireRole(anyRole, uploadEndpoints.FinishDrawing)(ctx)
			} else {
				ctx.Error("Method Not Allowed", fasthttp.StatusMethodNotAllowed)
			}

		case path == "/videos":
			authMiddleware.RequireAuth(videoEndpoints.List)(ctx)
		case path == "/videos/folders":
			authMiddleware.RequireAuth(videoEndpoints.Folders)(ctx)
		case strings.HasPrefix(path, "/videos/") && strings.HasSuffix(path, "/revisions"):
			parts := strings.Split(path, "/")
			if len(parts) == 4 && parts[3] == "revisions" {
				ctx.SetUserValue("videoID", parts[2])
				authMiddleware.RequireAuth(videoEndpoints.Revisions)(ctx)
			} else {
				ctx.Error("Not Found", fasthttp.StatusNotFound)
			}
		case strings.HasPrefix(path, "/videos/") && strings.HasSuffix(path, "/latest"):
			parts := strings.Split(path, "/")
			if len(parts) == 4 && parts[3] == "latest" {
				ctx.SetUserValue("videoID", parts[2])
				authMiddleware.RequireAuth(videoEndpoints.Latest)(ctx)
			} else {
				ctx.Error("Not Found", fasthttp.StatusNotFound)
			}
		case strings.HasPrefix(path, "/videos/"):
			parts := strings.Split(path, "/")
			if len(parts) == 3 {
				ctx.SetUserValue("videoID", parts[2])
				authMiddleware.RequireAuth(videoEndpoints.Get)(ctx)
			} else {
				ctx.Error("Not Found", fasthttp.StatusNotFound)
			}

		case path == "/media/download":
			authMiddleware.RequireRole(reviewerRole, mediaEndpoints.Download)(ctx)
		case strings.HasPrefix(path, "/media/local/"):
			ctx.SetUserValue("mediaPath", strings.TrimPrefix(path, "/media/local/"))
			authMiddleware.RequireAuth(mediaEndpoints.ServeLocal)(ctx)
		case strings.HasPrefix(path, "/media/nextcloud/"):
			ctx.SetUserValue("mediaPath", strings.TrimPrefix(path, "/media/nextcloud/"))
			authMiddleware.RequireAuth(mediaEndpoints.ServeNextCloud)(ctx)
		case strings.HasPrefix(path, "/media/"):
			ctx.SetUserValue("mediaPath", strings.TrimPrefix(path, "/media/"))
			authMiddleware.RequireAuth(mediaEndpoints.Resolve)(ctx)

		case path == "/comments":
			switch method {
			case "GET":
				authMiddleware.RequireAuth(commentEndpoints.List)(ctx)
			case "POST":
				authMiddleware.RequireAuth(commentEndpoints.Create)(ctx)
			case "PATCH":
				authMiddleware.RequireAuth(commentEndpoints.Patch)(ctx)
			default:
				ctx.Error("Method Not Allowed", fasthttp.StatusMethodNotAllowed)
			}
		case path == "/comments/users":
			authMiddleware.RequireAuth(commentEndpoints.Users)(ctx)
		case path == "/comments/last-updated":
			authMiddleware.RequireAuth(commentEndpoints.LastUpdated)(ctx)

		case path == "/read-status":
			if method == "POST" {
				authMiddleware.RequireAuth(readStatusEndpoints.Update)(ctx)
			} else {
				ctx.Error("Method Not Allowed", fasthttp.StatusMethodNotAllowed)
			}
		case path == "/read-status/unread":
			authMiddleware.RequireAuth(readStatusEndpoints.Unread)(ctx)
		case path == "/read-status/latest":
			authMiddleware.RequireAuth(readStatusEndpoints.Latest)(ctx)

		case path == "/integrations/slack/post":
			if method == "POST" {
				authMiddleware.RequireRole(reviewerRole, slackEndpoints.Post)(ctx)
			} else {
				ctx.Error("Method Not Allowed", fasthttp.StatusMethodNotAllowed)
			}
		case path == "/integrations/jira/create":
			if method == "POST" {
				authMiddleware.RequireRole(reviewerRole, jiraEndpoints.Create)(ctx)
			} else {
				ctx.Error("Method Not Allowed", fasthttp.StatusMethodNotAllowed)
			}

		case path == "/ws":
			wsHandler.Serve(ctx)

		default:
			ctx.Error("Not Found", fasthttp.StatusNotFound)
		}
	}

	return corsMiddleware.Handle(handler)
}
