package upload

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/videoreview/videoreview_server/internal/storage"
	"github.com/videoreview/videoreview_server/internal/video"
)

// RevisionCatalog is the slice of the video repository the orchestrator
// needs: revision numbering at init, the transactional write at finish,
// and the fallback lookup that makes finish and status idempotent.
type RevisionCatalog interface {
	NextRevision(title, folderKey string) (int, error)
	FinalizeRevision(revisionID, title, folderKey, scenePath string, revision int, filePath string) (*video.VideoRevision, error)
	GetRevision(id string) (*video.VideoRevision, error)
}

type Service struct {
	sessions SessionRepository
	catalog  RevisionCatalog
	backend  storage.FileStorage
}

func NewService(sessions SessionRepository, catalog RevisionCatalog, backend storage.FileStorage) *Service {
	return &Service{
		sessions: sessions,
		catalog:  catalog,
		backend:  backend,
	}
}

// InitVideo opens an upload session for the next revision of
// (title, folderKey). The revision number is claimed here, inside a
// transaction that locks the video row, and only becomes visible in the
// catalog at finish-time.
func (s *Service) InitVideo(ctx context.Context, title, folderKey, scenePath string) (*InitResult, error) {
	if title == "" || folderKey == "" {
		return nil, ErrMissingField
	}

	nextRev, err := s.catalog.NextRevision(title, folderKey)
	if err != nil {
		return nil, fmt.Errorf("failed to compute next revision: %w", err)
	}

	storageKey := path.Join("videos", folderKey, title, fmt.Sprintf("rev_%03d.mp4", nextRev))

	session := &UploadSession{
		StorageKey: storageKey,
		Storage:    s.backend.Type(),
		NextRev:    nextRev,
		Title:      title,
		FolderKey:  folderKey,
		ScenePath:  scenePath,
	}
	if err := s.sessions.Create(session); err != nil {
		return nil, fmt.Errorf("failed to create upload session: %w", err)
	}

	url, err := s.backend.UploadURL(ctx, session.ID, storageKey, "video/mp4")
	if err != nil {
		return nil, fmt.Errorf("failed to issue upload url: %w", err)
	}

	return &InitResult{URL: url, Session: session}, nil
}

// InitDrawing opens a session for a drawing PNG. An empty savePath means
// a fresh uuid key; a non-empty one overwrites an existing drawing.
func (s *Service) InitDrawing(ctx context.Context, savePath string) (*InitResult, error) {
	storageKey := savePath
	if storageKey == "" {
		storageKey = "drawing/" + uuid.NewString() + ".png"
	}

	session := &UploadSession{
		StorageKey: storageKey,
		Storage:    s.backend.Type(),
		NextRev:    0,
	}
	if err := s.sessions.Create(session); err != nil {
		return nil, fmt.Errorf("failed to create upload session: %w", err)
	}

	url, err := s.backend.UploadURL(ctx, session.ID, storageKey, "image/png")
	if err != nil {
		return nil, fmt.Errorf("failed to issue upload url: %w", err)
	}

	return &InitResult{URL: url, Session: session}, nil
}

// Status infers the upload's state: live session -> progress/uploaded by
// backend existence; session gone but a revision row under the same id ->
// completed; neither -> not_found.
func (s *Service) Status(ctx context.Context, sessionID string) (*StatusResult, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	if session != nil {
		hasObject, err := s.backend.HasObject(ctx, session.StorageKey)
		if err != nil {
			return nil, fmt.Errorf("failed to probe backend: %w", err)
		}
		status := StatusProgress
		if hasObject {
			status = StatusUploaded
		}
		return &StatusResult{
			Status:    status,
			NextRev:   session.NextRev,
			Title:     session.Title,
			FolderKey: session.FolderKey,
		}, nil
	}

	revision, err := s.catalog.GetRevision(sessionID)
	if err != nil {
		return nil, err
	}
	if revision != nil {
		return &StatusResult{
			Status:     StatusCompleted,
			RevisionID: revision.ID,
			VideoID:    revision.VideoID,
			Revision:   revision.Revision,
		}, nil
	}

	return &StatusResult{Status: StatusNotFound}, nil
}

// FinishVideo converts a completed upload into a revision row and drops
// the session. Calling it twice is safe: the second call finds no
// session and returns the already-finalized row.
func (s *Service) FinishVideo(ctx context.Context, sessionID string) (*video.VideoRevision, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		revision, err := s.catalog.GetRevision(sessionID)
		if err != nil {
			return nil, err
		}
		if revision != nil {
			return revision, nil
		}
		return nil, ErrSessionNotFound
	}

	revision, err := s.catalog.FinalizeRevision(
		session.ID,
		session.Title,
		session.FolderKey,
		session.ScenePath,
		session.NextRev,
		session.StorageKey,
	)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Delete(sessionID); err != nil {
		log.Warn().Err(err).Str("sessionId", sessionID).Msg("Failed to delete upload session after finalize")
	}

	return revision, nil
}

// FinishDrawing returns the stored path and drops the session; drawings
// have no catalog row.
func (s *Service) FinishDrawing(ctx context.Context, sessionID string) (string, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return "", err
	}
	if session == nil {
		return "", ErrSessionNotFound
	}

	storageKey := session.StorageKey
	if err := s.sessions.Delete(sessionID); err != nil {
		log.Warn().Err(err).Str("sessionId", sessionID).Msg("Failed to delete upload session after finish")
	}
	return storageKey, nil
}

// Transfer promotes a received temp file to the session's final storage
// key. The temp file is the multipart helper's to clean up; an error
// here leaves the session intact so the client can retry the same call.
func (s *Service) Transfer(ctx context.Context, session *UploadSession, tmpPath string) error {
	file, err := os.Open(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to open temp file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat temp file: %w", err)
	}

	if err := s.backend.Put(ctx, session.StorageKey, file, info.Size()); err != nil {
		return fmt.Errorf("failed to store upload: %w", err)
	}
	return nil
}

func (s *Service) GetSession(id string) (*UploadSession, error) {
	return s.sessions.Get(id)
}
