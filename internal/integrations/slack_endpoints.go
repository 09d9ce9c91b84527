package integrations

import (
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"
	"github.com/valyala/fasthttp"
)

type SlackEndpoints struct {
	config SlackConfig
	client *slack.Client
}

func NewSlackEndpoints(config SlackConfig) *SlackEndpoints {
	e := &SlackEndpoints{config: config}
	if config.Enabled() {
		e.client = slack.New(config.BotToken)
	}
	return e
}

// Post handles POST /integrations/slack/post. The request is multipart:
// a "file" part with the review snapshot and an optional "comment" field
// used as the initial message.
func (e *SlackEndpoints) Post(ctx *fasthttp.RequestCtx) {
	if e.client == nil {
		ctx.Error("Slack is not configured", fasthttp.StatusInternalServerError)
		return
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		ctx.Error("Invalid multipart form", fasthttp.StatusBadRequest)
		return
	}
	files := form.File["file"]
	if len(files) == 0 {
		ctx.Error("No file provided", fasthttp.StatusBadRequest)
		return
	}
	header := files[0]

	src, err := header.Open()
	if err != nil {
		log.Error().Err(err).Msg("[Slack] Failed to open uploaded file")
		ctx.Error("Internal Server Error", fasthttp.StatusInternalServerError)
		return
	}
	defer src.Close()

	comment := ""
	if vals := form.Value["comment"]; len(vals) > 0 {
		comment = vals[0]
	}

	summary, err := e.client.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Channel:        e.config.Channel,
		Reader:         src,
		Filename:       header.Filename,
		FileSize:       int(header.Size),
		InitialComment: comment,
	})
	if err != nil {
		log.Error().Err(err).Str("channel", e.config.Channel).Msg("[Slack] Upload failed")
		ctx.Error("Slack upload failed", fasthttp.StatusBadGateway)
		return
	}

	log.Info().Str("fileId", summary.ID).Msg("[Slack] Posted snapshot")
	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"ok":     true,
		"fileId": summary.ID,
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
