package comment

import (
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
	"github.com/videoreview/videoreview_server/internal/notify"
)

// CommentStore is the persistence surface the endpoints need. GetByID
// and Update report a missing comment as (nil, nil), not an error.
type CommentStore interface {
	Create(req *CreateRequest) (*VideoComment, error)
	GetByID(id string) (*VideoComment, error)
	ListByVideo(videoID string, since *time.Time) ([]*VideoComment, error)
	Update(req *UpdateRequest) (*VideoComment, error)
	Users(videoID string) ([]string, error)
	LastUpdated(videoID string) (*time.Time, error)
}

type Endpoints struct {
	comments    CommentStore
	broadcaster notify.Broadcaster
}

func NewEndpoints(comments CommentStore, broadcaster notify.Broadcaster) *Endpoints {
	return &Endpoints{comments: comments, broadcaster: broadcaster}
}

// List handles GET /comments?videoId=...&since=<epoch ms>.
func (e *Endpoints) List(ctx *fasthttp.RequestCtx) {
	videoID := string(ctx.QueryArgs().Peek("videoId"))
	if videoID == "" {
		ctx.Error("videoId is required", fasthttp.StatusBadRequest)
		return
	}

	var since *time.Time
	if raw := string(ctx.QueryArgs().Peek("since")); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			ctx.Error("Invalid since parameter", fasthttp.StatusBadRequest)
			return
		}
		t := time.UnixMilli(ms)
		since = &t
	}

	comments, err := e.comments.ListByVideo(videoID, since)
	if err != nil {
		log.Error().Err(err).Str("videoId", videoID).Msg("[Comments] Failed to list comments")
		ctx.Error("Internal Server Error", fasthttp.StatusInternalServerError)
		return
	}
	if comments == nil {
		comments = []*VideoComment{}
	}
	writeJSON(ctx, fasthttp.StatusOK, comments)
}

// Create handles POST /comments.
func (e *Endpoints) Create(ctx *fasthttp.RequestCtx) {
	var req CreateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		ctx.Error("Invalid request body", fasthttp.StatusBadRequest)
		return
	}
	if req.VideoID == "" || req.Comment == "" {
		ctx.Error("videoId and comment are required", fasthttp.StatusBadRequest)
		return
	}

	created, err := e.comments.Create(&req)
	if err != nil {
		log.Error().Err(err).Str("videoId", req.VideoID).Msg("[Comments] Failed to create comment")
		ctx.Error("Internal Server Error", fasthttp.StatusInternalServerError)
		return
	}

	e.broadcaster.BroadcastToVideo(created.VideoID, &notify.Event{
		Type:    notify.EventCommentCreated,
		VideoID: created.VideoID,
		Payload: created,
	})
	writeJSON(ctx, fasthttp.StatusCreated, created)
}

// Patch handles PATCH /comments. Only the fields present in the body
// are applied.
func (e *Endpoints) Patch(ctx *fasthttp.RequestCtx) {
	var req UpdateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		ctx.Error("Invalid request body", fasthttp.StatusBadRequest)
		return
	}
	if req.ID == "" {
		ctx.Error("id is required", fasthttp.StatusBadRequest)
		return
	}

	updated, err := e.comments.Update(&req)
	if err != nil {
		log.Error().Err(err).Str("commentId", req.ID).Msg("[Comments] Failed to update comment")
		ctx.Error("Internal Server Error", fasthttp.StatusInternalServerError)
		return
	}
	if updated == nil {
		ctx.Error("Comment not found", fasthttp.StatusNotFound)
		return
	}

	e.broadcaster.BroadcastToVideo(updated.VideoID, &notify.Event{
		Type:    notify.EventCommentUpdated,
		VideoID: updated.VideoID,
		Payload: updated,
	})
	writeJSON(ctx, fasthttp.StatusOK, updated)
}

// Users handles GET /comments/users?videoId=... and returns the distinct
// commenter names for a video.
func (e *Endpoints) Users(ctx *fasthttp.RequestCtx) {
	videoID := string(ctx.QueryArgs().Peek("videoId"))
	if videoID == "" {
		ctx.Error("videoId is required", fasthttp.StatusBadRequest)
		return
	}

	users, err := e.comments.Users(videoID)
	if err != nil {
		log.Error().Err(err).Str("videoId", videoID).Msg("[Comments] Failed to list users")
		ctx.Error("Internal Server Error", fasthttp.StatusInternalServerError)
		return
	}
	if users == nil {
		users = []string{}
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{"users": users})
}

// LastUpdated handles GET /comments/last-updated?videoId=... and returns
// the newest updated_at across the video's comments as epoch ms, or null.
func (e *Endpoints) LastUpdated(ctx *fasthttp.RequestCtx) {
	videoID := string(ctx.QueryArgs().Peek("videoId"))
	if videoID == "" {
		ctx.Error("videoId is required", fasthttp.StatusBadRequest)
		return
	}

	last, err := e.comments.LastUpdated(videoID)
	if err != nil {
		log.Error().Err(err).Str("videoId", videoID).Msg("[Comments] Failed to query last update")
		ctx.Error("Internal Server Error", fasthttp.StatusInternalServerError)
		return
	}

	var lastUpdated interface{}
	if last != nil {
		lastUpdated = last.UnixMilli()
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{"lastUpdated": lastUpdated})
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
