package health

import (
	"database/sql"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

type Endpoints struct {
	db        *sql.DB
	startedAt time.Time
}

func NewEndpoints(db *sql.DB) *Endpoints {
	return &Endpoints{db: db, startedAt: time.Now()}
}

// Health handles GET /health. The database ping is the only dependency
// check; storage backends are probed lazily per request.
func (e *Endpoints) Health(ctx *fasthttp.RequestCtx) {
	if err := e.db.Ping(); err != nil {
		log.Error().Err(err).Msg("[Health] Database ping failed")
		writeJSON(ctx, fasthttp.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
}

// Status handles GET /status.
func (e *Endpoints) Status(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"version":       Version,
		"uptimeSeconds": int64(time.Since(e.startedAt).Seconds()),
	})
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
