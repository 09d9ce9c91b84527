package upload

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/valyala/fasthttp"
)

// ReceiveMultipart parses the request's multipart body, writes the single
// file part to a uniquely named temp file under tmpDir and hands the path
// to finalize. The temp file is removed before returning, success or not;
// finalize is never called on a partial write.
func ReceiveMultipart(ctx *fasthttp.RequestCtx, tmpDir string, finalize func(tmpPath string) error) error {
	form, err := ctx.MultipartForm()
	if err != nil {
		return fmt.Errorf("failed to parse multipart form: %w", err)
	}

	files := form.File["file"]
	if len(files) == 0 {
		return fmt.Errorf("no file part in multipart body")
	}
	fileHeader := files[0]

	if err := os.MkdirAll(tmpDir, 0755); err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}

	unique := fmt.Sprintf("%d_%06d", time.Now().UnixNano(), rand.Intn(1000000))
	tmpPath := filepath.Join(tmpDir, unique+"_"+filepath.Base(fileHeader.Filename))
	defer os.Remove(tmpPath)

	src, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("failed to open file part: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("failed to flush temp file: %w", err)
	}

	return finalize(tmpPath)
}
