package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

type LocalStorage struct {
	uploadsDir string
}

func NewLocalStorage(config *BackendConfig) (*LocalStorage, error) {
	uploadsDir := config.UploadsDir
	if uploadsDir == "" {
		uploadsDir = "uploads"
	}

	if err := os.MkdirAll(uploadsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}

	return &LocalStorage{uploadsDir: uploadsDir}, nil
}

func (s *LocalStorage) Type() BackendType {
	return BackendTypeLocal
}

func (s *LocalStorage) UploadURL(ctx context.Context, sessionID, storageKey, contentType string) (string, error) {
	return transferURL("local", sessionID, contentType), nil
}

func (s *LocalStorage) HasObject(ctx context.Context, storageKey string) (bool, error) {
	abs, err := s.resolve(storageKey)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *LocalStorage) FallbackURL(ctx context.Context, storageKey string) (string, error) {
	return "/media/local/" + storageKey, nil
}

// Put writes to a temp file next to the destination and renames, so a
// half-written upload never becomes visible under the final key.
func (s *LocalStorage) Put(ctx context.Context, storageKey string, reader io.Reader, size int64) error {
	abs, err := s.resolve(storageKey)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(abs), ".upload-*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), abs); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

func (s *LocalStorage) Download(ctx context.Context, storageKey string) (*DownloadResult, error) {
	abs, err := s.resolve(storageKey)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}

	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}

	contentType := mime.TypeByExtension(filepath.Ext(abs))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &DownloadResult{
		Body:        file,
		ContentType: contentType,
		Size:        info.Size(),
	}, nil
}

// Root exposes the uploads directory for the range-serving media route.
func (s *LocalStorage) Root() string {
	return s.uploadsDir
}

func (s *LocalStorage) resolve(storageKey string) (string, error) {
	for _, segment := range strings.Split(storageKey, "/") {
		if strings.Contains(segment, "..") {
			return "", fmt.Errorf("invalid storage key: %s", storageKey)
		}
	}
	return filepath.Join(s.uploadsDir, filepath.FromSlash(storageKey)), nil
}
