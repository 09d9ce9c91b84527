package media

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"
	"github.com/videoreview/videoreview_server/internal/storage"
)

// mockBackend for testing
type mockBackend struct {
	fallbackURL string
	fallbackErr error
}

func (m *mockBackend) Type() storage.BackendType {
	return storage.BackendTypeS3
}

func (m *mockBackend) UploadURL(ctx context.Context, sessionID, storageKey, contentType string) (string, error) {
	return "", nil
}

func (m *mockBackend) HasObject(ctx context.Context, key string) (bool, error) {
	return false, nil
}

func (m *mockBackend) FallbackURL(ctx context.Context, key string) (string, error) {
	return m.fallbackURL, m.fallbackErr
}

func (m *mockBackend) Put(ctx context.Context, key string, reader io.Reader, size int64) error {
	return nil
}

func (m *mockBackend) Download(ctx context.Context, key string) (*storage.DownloadResult, error) {
	return nil, storage.ErrObjectNotFound
}

func resolveCtx(key string) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	ctx.SetUserValue("mediaPath", key)
	return &ctx
}

func TestResolve_ShouldReturnBackendURL(t *testing.T) {
	// given
	endpoints := NewEndpoints(&mockBackend{fallbackURL: "https://bucket.example/signed"}, nil)
	ctx := resolveCtx("videos/projectA/shot010/rev_001.mp4")

	// when
	endpoints.Resolve(ctx)

	// then
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, `{"url":"https://bucket.example/signed"}`, string(ctx.Response.Body()))
}

func TestResolve_ShouldReturnNotFoundForMissingObject(t *testing.T) {
	// given
	endpoints := NewEndpoints(&mockBackend{fallbackErr: storage.ErrObjectNotFound}, nil)
	ctx := resolveCtx("videos/missing.mp4")

	// when
	endpoints.Resolve(ctx)

	// then
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}

func TestResolve_ShouldReportBackendFailureAsServerError(t *testing.T) {
	// given
	endpoints := NewEndpoints(&mockBackend{fallbackErr: fmt.Errorf("presign: connection refused")}, nil)
	ctx := resolveCtx("videos/projectA/shot010/rev_001.mp4")

	// when
	endpoints.Resolve(ctx)

	// then
	assert.Equal(t, fasthttp.StatusInternalServerError, ctx.Response.StatusCode())
}

func TestParseRange_ShouldParseBoundedRange(t *testing.T) {
	// when
	start, end, err := ParseRange("bytes=100-199", 1000)

	// then
	assert.NoError(t, err)
	assert.Equal(t, int64(100), start)
	assert.Equal(t, int64(199), end)
}

func TestParseRange_ShouldExtendOpenEndedRangeToEOF(t *testing.T) {
	// when
	start, end, err := ParseRange("bytes=500-", 1000)

	// then
	assert.NoError(t, err)
	assert.Equal(t, int64(500), start)
	assert.Equal(t, int64(999), end)
}

func TestParseRange_ShouldRejectMalformedHeader(t *testing.T) {
	for _, header := range []string{
		"items=0-10",
		"bytes=",
		"bytes=-500",
		"bytes=abc-10",
		"bytes=0-xyz",
	} {
		// when
		_, _, err := ParseRange(header, 1000)

		// then
		assert.Error(t, err, header)
	}
}

func TestParseRange_ShouldRejectOutOfBoundsRange(t *testing.T) {
	// when
	_, _, errReversed := ParseRange("bytes=200-100", 1000)
	_, _, errPastEOF := ParseRange("bytes=0-1000", 1000)

	// then
	assert.Error(t, errReversed)
	assert.Error(t, errPastEOF)
}

func TestMediaPath_ShouldAcceptNestedKey(t *testing.T) {
	// given
	var ctx fasthttp.RequestCtx
	ctx.SetUserValue("mediaPath", "videos/projectA/shot010/rev_001.mp4")

	// when
	key, ok := mediaPath(&ctx)

	// then
	assert.True(t, ok)
	assert.Equal(t, "videos/projectA/shot010/rev_001.mp4", key)
}

func TestMediaPath_ShouldRejectTraversal(t *testing.T) {
	for _, path := range []string{
		"../etc/passwd",
		"videos/../../secret",
		"videos/..",
	} {
		// given
		var ctx fasthttp.RequestCtx
		ctx.SetUserValue("mediaPath", path)

		// when
		_, ok := mediaPath(&ctx)

		// then
		assert.False(t, ok, path)
		assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	}
}

func TestMediaPath_ShouldRejectEmptyPath(t *testing.T) {
	// given
	var ctx fasthttp.RequestCtx

	// when
	_, ok := mediaPath(&ctx)

	// then
	assert.False(t, ok)
}
