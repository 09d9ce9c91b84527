package media

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
	"github.com/videoreview/videoreview_server/internal/storage"
	"github.com/videoreview/videoreview_server/internal/video"
)

type Endpoints struct {
	backend   storage.FileStorage
	videoRepo RevisionLookup
}

type RevisionLookup interface {
	GetRevisionForVideo(id, videoID string) (*video.VideoRevision, error)
}

func NewEndpoints(backend storage.FileStorage, videoRepo RevisionLookup) *Endpoints {
	return &Endpoints{
		backend:   backend,
		videoRepo: videoRepo,
	}
}

// Resolve maps a storage key to a URL the browser can play directly.
func (e *Endpoints) Resolve(ctx *fasthttp.RequestCtx) {
	key, ok := mediaPath(ctx)
	if !ok {
		return
	}

	url, err := e.backend.FallbackURL(ctx, key)
	if err != nil {
		// Presign/config failures are backend trouble, not a missing key.
		if errors.Is(err, storage.ErrObjectNotFound) {
			ctx.Error("file not found", fasthttp.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("storageKey", key).Msg("Failed to resolve media URL")
		ctx.Error("failed to resolve media", fasthttp.StatusInternalServerError)
		return
	}
	if url == "" {
		ctx.Error("file not found", fasthttp.StatusNotFound)
		return
	}

	body, _ := json.Marshal(map[string]string{"url": url})
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

// ServeLocal streams files from the local uploads root. MP4s honor HTTP
// Range so the player can scrub without downloading the whole file.
func (e *Endpoints) ServeLocal(ctx *fasthttp.RequestCtx) {
	key, ok := mediaPath(ctx)
	if !ok {
		return
	}

	local, isLocal := e.backend.(*storage.LocalStorage)
	if !isLocal {
		ctx.Error("local storage is not configured", fasthttp.StatusInternalServerError)
		return
	}

	abs := filepath.Join(local.Root(), filepath.FromSlash(key))
	info, err := os.Stat(abs)
	if err != nil {
		ctx.Error("file not found", fasthttp.StatusNotFound)
		return
	}
	fileSize := info.Size()

	contentType := mime.TypeByExtension(filepath.Ext(abs))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	rangeHeader := string(ctx.Request.Header.Peek("Range"))
	if filepath.Ext(abs) == ".mp4" && rangeHeader != "" {
		start, end, err := ParseRange(rangeHeader, fileSize)
		if err != nil {
			ctx.Error("invalid range", fasthttp.StatusBadRequest)
			return
		}

		file, err := os.Open(abs)
		if err != nil {
			ctx.Error("failed to open file", fasthttp.StatusInternalServerError)
			return
		}
		if _, err := file.Seek(start, io.SeekStart); err != nil {
			file.Close()
			ctx.Error("failed to seek file", fasthttp.StatusInternalServerError)
			return
		}

		chunkSize := end - start + 1
		ctx.SetStatusCode(fasthttp.StatusPartialContent)
		ctx.Response.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, fileSize))
		ctx.Response.Header.Set("Accept-Ranges", "bytes")
		ctx.Response.Header.Set("Content-Length", strconv.FormatInt(chunkSize, 10))
		ctx.SetContentType("video/mp4")
		ctx.SetBodyStream(readCloserLimit(file, chunkSize), int(chunkSize))
		return
	}

	file, err := os.Open(abs)
	if err != nil {
		ctx.Error("failed to open file", fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType(contentType)
	ctx.Response.Header.Set("Content-Length", strconv.FormatInt(fileSize, 10))
	ctx.SetBodyStream(file, int(fileSize))
}

// ServeNextCloud proxies a key through the authenticated DAV client,
// passing Range through so seeking works against NextCloud too.
func (e *Endpoints) ServeNextCloud(ctx *fasthttp.RequestCtx) {
	key, ok := mediaPath(ctx)
	if !ok {
		return
	}

	nextCloud, isNextCloud := e.backend.(*storage.NextCloudStorage)
	if !isNextCloud {
		ctx.Error("nextcloud client is not configured", fasthttp.StatusInternalServerError)
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	rangeHeader := string(ctx.Request.Header.Peek("Range"))
	if rangeHeader != "" {
		result, err := nextCloud.Download(ctx, key)
		if err != nil {
			e.nextCloudError(ctx, err)
			return
		}
		fileSize := result.Size
		result.Body.Close()

		start, end, err := ParseRange(rangeHeader, fileSize)
		if err != nil {
			ctx.Error("invalid range", fasthttp.StatusBadRequest)
			return
		}

		stream, err := nextCloud.ReadRange(ctx, key, start, end-start+1)
		if err != nil {
			ctx.Error("failed to fetch media", fasthttp.StatusInternalServerError)
			return
		}

		chunkSize := end - start + 1
		ctx.SetStatusCode(fasthttp.StatusPartialContent)
		ctx.Response.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, fileSize))
		ctx.Response.Header.Set("Accept-Ranges", "bytes")
		ctx.Response.Header.Set("Content-Length", strconv.FormatInt(chunkSize, 10))
		ctx.SetContentType(contentType)
		ctx.SetBodyStream(stream, int(chunkSize))
		return
	}

	result, err := nextCloud.Download(ctx, key)
	if err != nil {
		e.nextCloudError(ctx, err)
		return
	}
	ctx.SetContentType(result.ContentType)
	ctx.Response.Header.Set("Content-Length", strconv.FormatInt(result.Size, 10))
	ctx.SetBodyStream(result.Body, int(result.Size))
}

// Download streams or redirects a revision's underlying object for
// authenticated bulk download.
func (e *Endpoints) Download(ctx *fasthttp.RequestCtx) {
	revID := string(ctx.QueryArgs().Peek("videoRevId"))
	videoID := string(ctx.QueryArgs().Peek("videoId"))
	if revID == "" || videoID == "" {
		ctx.Error("Missing parameters", fasthttp.StatusBadRequest)
		return
	}

	revision, err := e.videoRepo.GetRevisionForVideo(revID, videoID)
	if err != nil {
		log.Error().Err(err).Str("videoRevId", revID).Msg("Failed to look up revision")
		ctx.Error("failed to fetch revision", fasthttp.StatusInternalServerError)
		return
	}
	if revision == nil {
		ctx.Error("Video revision not found", fasthttp.StatusNotFound)
		return
	}

	result, err := e.backend.Download(ctx, revision.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			ctx.Error("file not found", fasthttp.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("storageKey", revision.FilePath).Msg("Backend download failed")
		ctx.Error("failed to download", fasthttp.StatusInternalServerError)
		return
	}

	if result.RedirectURL != "" {
		ctx.Redirect(result.RedirectURL, fasthttp.StatusFound)
		return
	}

	ctx.SetContentType(result.ContentType)
	if result.Size > 0 {
		ctx.Response.Header.Set("Content-Length", strconv.FormatInt(result.Size, 10))
		ctx.SetBodyStream(result.Body, int(result.Size))
	} else {
		ctx.SetBodyStream(result.Body, -1)
	}
}

func (e *Endpoints) nextCloudError(ctx *fasthttp.RequestCtx, err error) {
	if errors.Is(err, storage.ErrObjectNotFound) {
		ctx.Error("file not found", fasthttp.StatusNotFound)
		return
	}
	log.Error().Err(err).Msg("NextCloud proxy failed")
	ctx.Error("failed to fetch media", fasthttp.StatusInternalServerError)
}

// ParseRange parses a single "bytes=start-end" header against the file
// size. Malformed ranges, start > end and end >= size are all rejected.
func ParseRange(header string, size int64) (start, end int64, err error) {
	if !strings.HasPrefix(header, "bytes=") {
		return 0, 0, fmt.Errorf("unsupported range unit")
	}
	rangeSpec := strings.TrimPrefix(header, "bytes=")
	parts := strings.SplitN(rangeSpec, "-", 2)
	if len(parts) != 2 || parts[0] == "" {
		return 0, 0, fmt.Errorf("malformed range: %s", header)
	}

	start, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil || start < 0 {
		return 0, 0, fmt.Errorf("malformed range start: %s", header)
	}

	if parts[1] == "" {
		end = size - 1
	} else {
		end, err = strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("malformed range end: %s", header)
		}
	}

	if start > end || end >= size {
		return 0, 0, fmt.Errorf("range out of bounds: %s", header)
	}
	return start, end, nil
}

// mediaPath extracts and validates the wildcard path segment. Any
// segment containing ".." is rejected before it can reach a filesystem.
func mediaPath(ctx *fasthttp.RequestCtx) (string, bool) {
	key, _ := ctx.UserValue("mediaPath").(string)
	if key == "" {
		ctx.Error("invalid path", fasthttp.StatusBadRequest)
		return "", false
	}
	for _, segment := range strings.Split(key, "/") {
		if strings.Contains(segment, "..") {
			ctx.Error("invalid path", fasthttp.StatusBadRequest)
			return "", false
		}
	}
	return key, true
}

type limitedReadCloser struct {
	io.Reader
	closer io.Closer
}

func (l *limitedReadCloser) Close() error { return l.closer.Close() }

func readCloserLimit(file *os.File, n int64) io.ReadCloser {
	return &limitedReadCloser{Reader: io.LimitReader(file, n), closer: file}
}
