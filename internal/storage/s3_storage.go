package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Storage struct {
	client *minio.Client
	bucket string
}

func NewS3Storage(config *BackendConfig) (*S3Storage, error) {
	if config.S3Endpoint == "" || config.S3Bucket == "" {
		return nil, fmt.Errorf("s3 configuration is missing")
	}

	client, err := minio.New(config.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.S3AccessKey, config.S3SecretKey, ""),
		Secure: config.S3UseSSL,
		Region: config.S3Region,
	})
	if err != nil {
		return nil, err
	}

	return &S3Storage{
		client: client,
		bucket: config.S3Bucket,
	}, nil
}

func (s *S3Storage) Type() BackendType {
	return BackendTypeS3
}

// UploadURL hands the client a presigned PUT; the payload never touches
// the app server.
func (s *S3Storage) UploadURL(ctx context.Context, sessionID, storageKey, contentType string) (string, error) {
	presignedURL, err := s.client.PresignedPutObject(ctx, s.bucket, storageKey, uploadURLExpiry*time.Second)
	if err != nil {
		return "", err
	}
	return presignedURL.String(), nil
}

func (s *S3Storage) HasObject(ctx context.Context, storageKey string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, storageKey, minio.StatObjectOptions{})
	if err != nil {
		errResponse := minio.ToErrorResponse(err)
		if errResponse.Code == "NoSuchKey" || errResponse.StatusCode == 404 {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *S3Storage) FallbackURL(ctx context.Context, storageKey string) (string, error) {
	presignedURL, err := s.client.PresignedGetObject(ctx, s.bucket, storageKey, downloadURLExpiry*time.Second, url.Values{})
	if err != nil {
		return "", err
	}
	return presignedURL.String(), nil
}

func (s *S3Storage) Put(ctx context.Context, storageKey string, reader io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, s.bucket, storageKey, reader, size, minio.PutObjectOptions{})
	return err
}

// Download redirects to a presigned GET instead of proxying the bytes.
func (s *S3Storage) Download(ctx context.Context, storageKey string) (*DownloadResult, error) {
	exists, err := s.HasObject(ctx, storageKey)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrObjectNotFound
	}

	presignedURL, err := s.client.PresignedGetObject(ctx, s.bucket, storageKey, downloadURLExpiry*time.Second, url.Values{})
	if err != nil {
		return nil, err
	}
	return &DownloadResult{RedirectURL: presignedURL.String()}, nil
}
