package video

import (
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

type Endpoints struct {
	repo Catalog
}

// Catalog is the read surface the endpoints need; the concrete
// Repository satisfies it, tests use a map-backed mock.
type Catalog interface {
	List(filter ListFilter) ([]*Video, error)
	Folders() ([]string, error)
	GetByID(id string) (*Video, error)
	Revisions(videoID string) ([]*VideoRevision, error)
	LatestRevision(videoID string) (*VideoRevision, error)
}

func NewEndpoints(repo Catalog) *Endpoints {
	return &Endpoints{repo: repo}
}

// List returns catalog entries filtered by folder, title and update window.
// The from/to/target parameters are epoch milliseconds; from/to snap to
// day boundaries.
func (e *Endpoints) List(ctx *fasthttp.RequestCtx) {
	filter := ListFilter{
		Title:     string(ctx.QueryArgs().Peek("title")),
		FolderKey: string(ctx.QueryArgs().Peek("folderKey")),
	}

	if from, ok := epochMsParam(ctx, "from"); ok {
		day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
		filter.From = &day
	}
	if to, ok := epochMsParam(ctx, "to"); ok {
		day := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 999000000, to.Location())
		filter.To = &day
	}
	if target, ok := epochMsParam(ctx, "target"); ok {
		filter.Target = &target
	}

	videos, err := e.repo.List(filter)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list videos")
		ctx.Error("Failed to fetch videos", fasthttp.StatusInternalServerError)
		return
	}
	if videos == nil {
		videos = []*Video{}
	}
	writeJSON(ctx, fasthttp.StatusOK, videos)
}

func (e *Endpoints) Folders(ctx *fasthttp.RequestCtx) {
	keys, err := e.repo.Folders()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list folders")
		ctx.Error("Failed to fetch folders", fasthttp.StatusInternalServerError)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(ctx, fasthttp.StatusOK, keys)
}

func (e *Endpoints) Get(ctx *fasthttp.RequestCtx) {
	videoID, _ := ctx.UserValue("videoID").(string)
	v, err := e.repo.GetByID(videoID)
	if err != nil {
		log.Error().Err(err).Str("videoId", videoID).Msg("Failed to fetch video")
		ctx.Error("Failed to fetch video", fasthttp.StatusInternalServerError)
		return
	}
	if v == nil {
		ctx.Error("Video not found", fasthttp.StatusNotFound)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, v)
}

func (e *Endpoints) Revisions(ctx *fasthttp.RequestCtx) {
	videoID, _ := ctx.UserValue("videoID").(string)
	revisions, err := e.repo.Revisions(videoID)
	if err != nil {
		log.Error().Err(err).Str("videoId", videoID).Msg("Failed to fetch revisions")
		ctx.Error("Failed to fetch revisions", fasthttp.StatusInternalServerError)
		return
	}
	if revisions == nil {
		revisions = []*VideoRevision{}
	}
	writeJSON(ctx, fasthttp.StatusOK, revisions)
}

func (e *Endpoints) Latest(ctx *fasthttp.RequestCtx) {
	videoID, _ := ctx.UserValue("videoID").(string)
	rev, err := e.repo.LatestRevision(videoID)
	if err != nil {
		log.Error().Err(err).Str("videoId", videoID).Msg("Failed to fetch latest revision")
		ctx.Error("Failed to fetch latest revision", fasthttp.StatusInternalServerError)
		return
	}
	if rev == nil {
		ctx.Error("Video revision not found", fasthttp.StatusNotFound)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, rev)
}

func epochMsParam(ctx *fasthttp.RequestCtx, name string) (time.Time, bool) {
	raw := string(ctx.QueryArgs().Peek(name))
	if raw == "" {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v interface{}) {
	body, _ := json.Marshal(v)
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
