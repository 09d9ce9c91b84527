package storage

import (
	"context"
	"errors"
	"io"
)

// FileStorage is the uniform surface over the three physical stores.
// The set is closed: sessions persist the Type tag, so a key written by
// one variant is always read back through the same variant, even across
// process restarts.
type FileStorage interface {
	Type() BackendType

	// UploadURL returns the client-facing target for the raw byte PUT:
	// a same-origin transfer route for local/nextCloud, a presigned URL
	// for s3.
	UploadURL(ctx context.Context, sessionID, storageKey, contentType string) (string, error)

	// HasObject reports whether the key exists. Absence is (false, nil);
	// an error means the backend itself failed.
	HasObject(ctx context.Context, storageKey string) (bool, error)

	// FallbackURL resolves a key to something a browser can play.
	FallbackURL(ctx context.Context, storageKey string) (string, error)

	// Put writes the object server-side. Used by the transfer endpoints;
	// the s3 variant normally never sees it because clients PUT straight
	// to the bucket.
	Put(ctx context.Context, storageKey string, reader io.Reader, size int64) error

	// Download retrieves the full object, either as a stream or as a
	// redirect the caller should issue. Missing keys are ErrObjectNotFound.
	Download(ctx context.Context, storageKey string) (*DownloadResult, error)
}

var ErrObjectNotFound = errors.New("object not found")

// DownloadResult carries either a redirect target or a byte stream,
// never both.
type DownloadResult struct {
	RedirectURL string
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

type BackendType string

const (
	BackendTypeLocal     BackendType = "local"
	BackendTypeS3        BackendType = "s3"
	BackendTypeNextCloud BackendType = "nextCloud"
)

const (
	uploadURLExpiry   = 300 // seconds, presigned PUT
	downloadURLExpiry = 600 // seconds, presigned GET
)

type BackendConfig struct {
	Type              BackendType
	UploadsDir        string
	S3Endpoint        string
	S3Bucket          string
	S3Region          string
	S3AccessKey       string
	S3SecretKey       string
	S3UseSSL          bool
	NextCloudBaseURL  string
	NextCloudUsername string
	NextCloudPassword string
	NextCloudRootDir  string
}

// NewBackend resolves the configured variant once at startup.
// Configuration problems (missing bucket, missing DAV credentials) fail
// here rather than on first request.
func NewBackend(config *BackendConfig) (FileStorage, error) {
	switch config.Type {
	case BackendTypeS3:
		return NewS3Storage(config)
	case BackendTypeNextCloud:
		return NewNextCloudStorage(config)
	default:
		return NewLocalStorage(config)
	}
}

// transferURL builds the same-origin transfer route shared by the local
// and nextCloud variants. Drawings upload PNGs; everything else is a
// video revision.
func transferURL(backend string, sessionID, contentType string) string {
	if contentType == "image/png" {
		return "/drawing/upload/transfer/" + backend + "?session_id=" + sessionID
	}
	return "/videos/upload/transfer/" + backend + "?session_id=" + sessionID
}
