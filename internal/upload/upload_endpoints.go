package upload

import (
	"errors"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
	"github.com/videoreview/videoreview_server/internal/notify"
	"github.com/videoreview/videoreview_server/internal/video"
)

type Endpoints struct {
	service     *Service
	tmpDir      string
	broadcaster notify.Broadcaster
}

func NewEndpoints(service *Service, config Config, broadcaster notify.Broadcaster) *Endpoints {
	tmpDir := config.TmpDir
	if tmpDir == "" {
		tmpDir = "uploads/tmp"
	}
	return &Endpoints{
		service:     service,
		tmpDir:      tmpDir,
		broadcaster: broadcaster,
	}
}

// InitVideo opens an upload session for a new video revision. The
// metadata arrives as multipart form fields, matching the upload widget.
func (e *Endpoints) InitVideo(ctx *fasthttp.RequestCtx) {
	form, err := ctx.MultipartForm()
	if err != nil {
		ctx.Error("invalid multipart body", fasthttp.StatusBadRequest)
		return
	}

	title := formValue(form.Value, "title")
	folderKey := formValue(form.Value, "folderKey")
	scenePath := formValue(form.Value, "scenePath")

	result, err := e.service.InitVideo(ctx, title, folderKey, scenePath)
	if err != nil {
		if errors.Is(err, ErrMissingField) {
			ctx.Error("missing parameter", fasthttp.StatusBadRequest)
			return
		}
		log.Error().Err(err).Msg("Failed to init video upload")
		ctx.Error("failed to init upload", fasthttp.StatusInternalServerError)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, result)
}

// InitDrawing opens an upload session for a drawing PNG; the optional
// path field overwrites an existing drawing.
func (e *Endpoints) InitDrawing(ctx *fasthttp.RequestCtx) {
	savePath := ""
	if form, err := ctx.MultipartForm(); err == nil {
		savePath = formValue(form.Value, "path")
	}

	result, err := e.service.InitDrawing(ctx, savePath)
	if err != nil {
		log.Error().Err(err).Msg("Failed to init drawing upload")
		ctx.Error("failed to init upload", fasthttp.StatusInternalServerError)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, result)
}

// Transfer receives the raw multipart body for local/nextCloud sessions
// and promotes it to the session's storage key. A failure leaves the
// session in place so the same call can be retried.
func (e *Endpoints) Transfer(ctx *fasthttp.RequestCtx) {
	session, ok := e.resolveSession(ctx)
	if !ok {
		return
	}

	err := ReceiveMultipart(ctx, e.tmpDir, func(tmpPath string) error {
		return e.service.Transfer(ctx, session, tmpPath)
	})
	if err != nil {
		log.Error().Err(err).Str("sessionId", session.ID).Msg("Upload transfer failed")
		ctx.Error("Upload failed", fasthttp.StatusInternalServerError)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]bool{"ok": true})
}

// Status reports the polled upload state; not_found carries HTTP 404.
func (e *Endpoints) Status(ctx *fasthttp.RequestCtx) {
	sessionID := string(ctx.QueryArgs().Peek("session_id"))
	if sessionID == "" {
		ctx.Error("missing session_id", fasthttp.StatusBadRequest)
		return
	}

	result, err := e.service.Status(ctx, sessionID)
	if err != nil {
		log.Error().Err(err).Str("sessionId", sessionID).Msg("Failed to query upload status")
		ctx.Error("failed to query status", fasthttp.StatusInternalServerError)
		return
	}

	status := fasthttp.StatusOK
	if result.Status == StatusNotFound {
		status = fasthttp.StatusNotFound
	}
	writeJSON(ctx, status, result)
}

func (e *Endpoints) FinishVideo(ctx *fasthttp.RequestCtx) {
	sessionID := string(ctx.QueryArgs().Peek("session_id"))
	if sessionID == "" {
		ctx.Error("missing session_id", fasthttp.StatusBadRequest)
		return
	}

	revision, err := e.service.FinishVideo(ctx, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			ctx.Error("missing session", fasthttp.StatusBadRequest)
		case errors.Is(err, video.ErrRevisionConflict):
			ctx.Error("revision number already taken", fasthttp.StatusConflict)
		default:
			log.Error().Err(err).Str("sessionId", sessionID).Msg("Failed to finish upload")
			ctx.Error("failed to finish upload", fasthttp.StatusInternalServerError)
		}
		return
	}

	e.broadcaster.BroadcastToVideo(revision.VideoID, &notify.Event{
		Type:    notify.EventRevisionFinalized,
		VideoID: revision.VideoID,
		Payload: revision,
	})
	writeJSON(ctx, fasthttp.StatusOK, revision)
}

func (e *Endpoints) FinishDrawing(ctx *fasthttp.RequestCtx) {
	sessionID := string(ctx.QueryArgs().Peek("session_id"))
	if sessionID == "" {
		ctx.Error("missing session_id", fasthttp.StatusBadRequest)
		return
	}

	filePath, err := e.service.FinishDrawing(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			ctx.Error("missing session", fasthttp.StatusBadRequest)
			return
		}
		log.Error().Err(err).Str("sessionId", sessionID).Msg("Failed to finish drawing upload")
		ctx.Error("failed to finish upload", fasthttp.StatusInternalServerError)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]string{"filePath": filePath})
}

func (e *Endpoints) resolveSession(ctx *fasthttp.RequestCtx) (*UploadSession, bool) {
	sessionID := string(ctx.QueryArgs().Peek("session_id"))
	if sessionID == "" {
		ctx.Error("missing session_id", fasthttp.StatusBadRequest)
		return nil, false
	}

	session, err := e.service.GetSession(sessionID)
	if err != nil {
		log.Error().Err(err).Str("sessionId", sessionID).Msg("Failed to load upload session")
		ctx.Error("failed to load session", fasthttp.StatusInternalServerError)
		return nil, false
	}
	if session == nil {
		ctx.Error("missing session", fasthttp.StatusBadRequest)
		return nil, false
	}
	return session, true
}

func formValue(values map[string][]string, name string) string {
	if v := values[name]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v interface{}) {
	body, _ := json.Marshal(v)
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
