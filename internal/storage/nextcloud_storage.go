package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"

	"github.com/studio-b12/gowebdav"
)

// NextCloudStorage talks WebDAV to a NextCloud instance. The client is
// rooted at <base>/remote.php/dav/files/<user>/<rootDir>, so storage
// keys stay relative.
type NextCloudStorage struct {
	client  *gowebdav.Client
	rootDir string
}

func NewNextCloudStorage(config *BackendConfig) (*NextCloudStorage, error) {
	if config.NextCloudBaseURL == "" || config.NextCloudUsername == "" || config.NextCloudPassword == "" {
		return nil, fmt.Errorf("nextcloud configuration is missing")
	}

	rootDir := config.NextCloudRootDir
	if rootDir == "" {
		rootDir = "video-review"
	}

	davURL := fmt.Sprintf("%s/remote.php/dav/files/%s/%s",
		config.NextCloudBaseURL,
		url.PathEscape(config.NextCloudUsername),
		rootDir,
	)

	client := gowebdav.NewClient(davURL, config.NextCloudUsername, config.NextCloudPassword)
	if err := client.MkdirAll("/", 0755); err != nil {
		return nil, fmt.Errorf("failed to ensure root dir %q: %w", rootDir, err)
	}

	return &NextCloudStorage{
		client:  client,
		rootDir: rootDir,
	}, nil
}

func (s *NextCloudStorage) Type() BackendType {
	return BackendTypeNextCloud
}

func (s *NextCloudStorage) UploadURL(ctx context.Context, sessionID, storageKey, contentType string) (string, error) {
	return transferURL("nextcloud", sessionID, contentType), nil
}

func (s *NextCloudStorage) HasObject(ctx context.Context, storageKey string) (bool, error) {
	_, err := s.client.Stat(storageKey)
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *NextCloudStorage) FallbackURL(ctx context.Context, storageKey string) (string, error) {
	return "/media/nextcloud/" + storageKey, nil
}

// Put creates the intermediate collections along the key before the DAV
// PUT; NextCloud rejects writes into missing directories.
func (s *NextCloudStorage) Put(ctx context.Context, storageKey string, reader io.Reader, size int64) error {
	if dir := path.Dir(storageKey); dir != "." && dir != "/" {
		if err := s.client.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create collection %q: %w", dir, err)
		}
	}
	return s.client.WriteStream(storageKey, reader, 0644)
}

// ReadRange streams a byte window of the object, backing the media
// proxy's Range support.
func (s *NextCloudStorage) ReadRange(ctx context.Context, storageKey string, offset, length int64) (io.ReadCloser, error) {
	return s.client.ReadStreamRange(storageKey, offset, length)
}

func (s *NextCloudStorage) Download(ctx context.Context, storageKey string) (*DownloadResult, error) {
	info, err := s.client.Stat(storageKey)
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}

	stream, err := s.client.ReadStream(storageKey)
	if err != nil {
		return nil, err
	}

	contentType := mime.TypeByExtension(path.Ext(storageKey))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &DownloadResult{
		Body:        stream,
		ContentType: contentType,
		Size:        info.Size(),
	}, nil
}
