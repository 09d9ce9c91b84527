package readstatus

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
	"github.com/videoreview/videoreview_server/internal/auth"
)

type ReadStatusStore interface {
	Upsert(userID, videoID string, at time.Time) error
	Unread(userID string) ([]string, error)
	Latest(userID, videoID string) (*time.Time, error)
}

type Endpoints struct {
	statuses ReadStatusStore
}

func NewEndpoints(statuses ReadStatusStore) *Endpoints {
	return &Endpoints{statuses: statuses}
}

// Update handles POST /read-status and marks the video read now for the
// authenticated user.
func (e *Endpoints) Update(ctx *fasthttp.RequestCtx) {
	claims, ok := ctx.UserValue("claims").(*auth.Claims)
	if !ok {
		ctx.Error("Unauthorized", fasthttp.StatusUnauthorized)
		return
	}

	var req struct {
		VideoID string `json:"videoId"`
	}
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.VideoID == "" {
		ctx.Error("videoId is required", fasthttp.StatusBadRequest)
		return
	}

	if err := e.statuses.Upsert(claims.UserID, req.VideoID, time.Now()); err != nil {
		log.Error().Err(err).Str("videoId", req.VideoID).Msg("[ReadStatus] Failed to update read status")
		ctx.Error("Internal Server Error", fasthttp.StatusInternalServerError)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]bool{"ok": true})
}

// Unread handles GET /read-status/unread.
func (e *Endpoints) Unread(ctx *fasthttp.RequestCtx) {
	claims, ok := ctx.UserValue("claims").(*auth.Claims)
	if !ok {
		ctx.Error("Unauthorized", fasthttp.StatusUnauthorized)
		return
	}

	ids, err := e.statuses.Unread(claims.UserID)
	if err != nil {
		log.Error().Err(err).Msg("[ReadStatus] Failed to list unread videos")
		ctx.Error("Internal Server Error", fasthttp.StatusInternalServerError)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{"videoIds": ids})
}

// Latest handles GET /read-status/latest?videoId=... and returns the
// user's last read time as epoch ms, or null when never read.
func (e *Endpoints) Latest(ctx *fasthttp.RequestCtx) {
	claims, ok := ctx.UserValue("claims").(*auth.Claims)
	if !ok {
		ctx.Error("Unauthorized", fasthttp.StatusUnauthorized)
		return
	}
	videoID := string(ctx.QueryArgs().Peek("videoId"))
	if videoID == "" {
		ctx.Error("videoId is required", fasthttp.StatusBadRequest)
		return
	}

	at, err := e.statuses.Latest(claims.UserID, videoID)
	if err != nil {
		log.Error().Err(err).Str("videoId", videoID).Msg("[ReadStatus] Failed to query read status")
		ctx.Error("Internal Server Error", fasthttp.StatusInternalServerError)
		return
	}

	var lastReadAt interface{}
	if at != nil {
		lastReadAt = at.UnixMilli()
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{"lastReadAt": lastReadAt})
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		ctx.Error("Internal Server Error", fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}
