package upload

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/videoreview/videoreview_server/internal/storage"
	"github.com/videoreview/videoreview_server/internal/video"
)

// mockSessionRepository for testing
type mockSessionRepository struct {
	sessions map[string]*UploadSession
}

func newMockSessionRepository() *mockSessionRepository {
	return &mockSessionRepository{sessions: make(map[string]*UploadSession)}
}

func (m *mockSessionRepository) Create(session *UploadSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	session.CreatedAt = time.Now()
	m.sessions[session.ID] = session
	return nil
}

func (m *mockSessionRepository) Get(id string) (*UploadSession, error) {
	return m.sessions[id], nil
}

func (m *mockSessionRepository) Delete(id string) error {
	delete(m.sessions, id)
	return nil
}

func (m *mockSessionRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	var deleted int64
	for id, session := range m.sessions {
		if session.CreatedAt.Before(cutoff) {
			delete(m.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

// mockRevisionCatalog for testing
type mockRevisionCatalog struct {
	nextRev     int
	revisions   map[string]*video.VideoRevision
	finalized   []string
	finalizeErr error
}

func newMockRevisionCatalog(nextRev int) *mockRevisionCatalog {
	return &mockRevisionCatalog{
		nextRev:   nextRev,
		revisions: make(map[string]*video.VideoRevision),
	}
}

func (m *mockRevisionCatalog) NextRevision(title, folderKey string) (int, error) {
	return m.nextRev, nil
}

func (m *mockRevisionCatalog) FinalizeRevision(revisionID, title, folderKey, scenePath string, revision int, filePath string) (*video.VideoRevision, error) {
	if m.finalizeErr != nil {
		return nil, m.finalizeErr
	}
	rev := &video.VideoRevision{
		ID:       revisionID,
		VideoID:  "video-" + title,
		Revision: revision,
		FilePath: filePath,
	}
	m.revisions[revisionID] = rev
	m.finalized = append(m.finalized, revisionID)
	return rev, nil
}

func (m *mockRevisionCatalog) GetRevision(id string) (*video.VideoRevision, error) {
	return m.revisions[id], nil
}

// mockFileStorage for testing
type mockFileStorage struct {
	objects map[string][]byte
}

func newMockFileStorage() *mockFileStorage {
	return &mockFileStorage{objects: make(map[string][]byte)}
}

func (m *mockFileStorage) Type() storage.BackendType {
	return storage.BackendTypeLocal
}

func (m *mockFileStorage) UploadURL(ctx context.Context, sessionID, storageKey, contentType string) (string, error) {
	return "/videos/upload/transfer/local?session_id=" + sessionID, nil
}

func (m *mockFileStorage) HasObject(ctx context.Context, key string) (bool, error) {
	_, ok := m.objects[key]
	return ok, nil
}

func (m *mockFileStorage) FallbackURL(ctx context.Context, key string) (string, error) {
	return "/media/local/" + key, nil
}

func (m *mockFileStorage) Put(ctx context.Context, key string, reader io.Reader, size int64) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func (m *mockFileStorage) Download(ctx context.Context, key string) (*storage.DownloadResult, error) {
	if _, ok := m.objects[key]; !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &storage.DownloadResult{RedirectURL: "/media/local/" + key}, nil
}

func newTestService(nextRev int) (*Service, *mockSessionRepository, *mockRevisionCatalog, *mockFileStorage) {
	sessions := newMockSessionRepository()
	catalog := newMockRevisionCatalog(nextRev)
	backend := newMockFileStorage()
	return NewService(sessions, catalog, backend), sessions, catalog, backend
}

func TestInitVideo_ShouldCreateSessionWithRevisionKey(t *testing.T) {
	// given
	service, sessions, _, _ := newTestService(3)

	// when
	result, err := service.InitVideo(context.Background(), "shot010", "projectA", "scenes/shot010.blend")

	// then
	assert.NoError(t, err)
	assert.Equal(t, "videos/projectA/shot010/rev_003.mp4", result.Session.StorageKey)
	assert.Equal(t, 3, result.Session.NextRev)
	assert.Contains(t, result.URL, "session_id="+result.Session.ID)
	assert.Len(t, sessions.sessions, 1)
}

func TestInitVideo_ShouldRejectMissingTitle(t *testing.T) {
	// given
	service, _, _, _ := newTestService(1)

	// when
	_, err := service.InitVideo(context.Background(), "", "projectA", "")

	// then
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestInitDrawing_ShouldGenerateKeyWhenPathEmpty(t *testing.T) {
	// given
	service, _, _, _ := newTestService(1)

	// when
	result, err := service.InitDrawing(context.Background(), "")

	// then
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.Session.StorageKey, "drawing/"))
	assert.True(t, strings.HasSuffix(result.Session.StorageKey, ".png"))
}

func TestInitDrawing_ShouldReuseExplicitPath(t *testing.T) {
	// given
	service, _, _, _ := newTestService(1)

	// when
	result, err := service.InitDrawing(context.Background(), "drawing/existing.png")

	// then
	assert.NoError(t, err)
	assert.Equal(t, "drawing/existing.png", result.Session.StorageKey)
}

func TestStatus_ShouldReportProgressWhileObjectMissing(t *testing.T) {
	// given
	service, _, _, _ := newTestService(2)
	result, _ := service.InitVideo(context.Background(), "shot010", "projectA", "")

	// when
	status, err := service.Status(context.Background(), result.Session.ID)

	// then
	assert.NoError(t, err)
	assert.Equal(t, StatusProgress, status.Status)
	assert.Equal(t, 2, status.NextRev)
	assert.Equal(t, "shot010", status.Title)
}

func TestStatus_ShouldReportUploadedWhenObjectExists(t *testing.T) {
	// given
	service, _, _, backend := newTestService(1)
	result, _ := service.InitVideo(context.Background(), "shot010", "projectA", "")
	backend.objects[result.Session.StorageKey] = []byte("mp4")

	// when
	status, err := service.Status(context.Background(), result.Session.ID)

	// then
	assert.NoError(t, err)
	assert.Equal(t, StatusUploaded, status.Status)
}

func TestStatus_ShouldReportCompletedAfterFinish(t *testing.T) {
	// given
	service, _, _, backend := newTestService(1)
	result, _ := service.InitVideo(context.Background(), "shot010", "projectA", "")
	backend.objects[result.Session.StorageKey] = []byte("mp4")
	_, err := service.FinishVideo(context.Background(), result.Session.ID)
	assert.NoError(t, err)

	// when
	status, err := service.Status(context.Background(), result.Session.ID)

	// then
	assert.NoError(t, err)
	assert.Equal(t, StatusCompleted, status.Status)
	assert.Equal(t, result.Session.ID, status.RevisionID)
	assert.Equal(t, 1, status.Revision)
}

func TestStatus_ShouldReportNotFoundForUnknownSession(t *testing.T) {
	// given
	service, _, _, _ := newTestService(1)

	// when
	status, err := service.Status(context.Background(), "nope")

	// then
	assert.NoError(t, err)
	assert.Equal(t, StatusNotFound, status.Status)
}

func TestFinishVideo_ShouldFinalizeAndDeleteSession(t *testing.T) {
	// given
	service, sessions, catalog, _ := newTestService(4)
	result, _ := service.InitVideo(context.Background(), "shot010", "projectA", "")

	// when
	revision, err := service.FinishVideo(context.Background(), result.Session.ID)

	// then
	assert.NoError(t, err)
	assert.Equal(t, result.Session.ID, revision.ID)
	assert.Equal(t, 4, revision.Revision)
	assert.Equal(t, result.Session.StorageKey, revision.FilePath)
	assert.Empty(t, sessions.sessions)
	assert.Equal(t, []string{result.Session.ID}, catalog.finalized)
}

func TestFinishVideo_ShouldBeIdempotent(t *testing.T) {
	// given
	service, _, catalog, _ := newTestService(1)
	result, _ := service.InitVideo(context.Background(), "shot010", "projectA", "")
	first, err := service.FinishVideo(context.Background(), result.Session.ID)
	assert.NoError(t, err)

	// when
	second, err := service.FinishVideo(context.Background(), result.Session.ID)

	// then
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, catalog.finalized, 1)
}

func TestFinishVideo_ShouldSurfaceRevisionConflict(t *testing.T) {
	// given
	service, sessions, catalog, _ := newTestService(1)
	result, _ := service.InitVideo(context.Background(), "shot010", "projectA", "")
	catalog.finalizeErr = video.ErrRevisionConflict

	// when
	_, err := service.FinishVideo(context.Background(), result.Session.ID)

	// then
	assert.ErrorIs(t, err, video.ErrRevisionConflict)
	assert.Contains(t, sessions.sessions, result.Session.ID)
}

func TestFinishVideo_ShouldFailForUnknownSession(t *testing.T) {
	// given
	service, _, _, _ := newTestService(1)

	// when
	_, err := service.FinishVideo(context.Background(), "nope")

	// then
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestFinishDrawing_ShouldReturnPathAndDropSession(t *testing.T) {
	// given
	service, sessions, _, _ := newTestService(1)
	result, _ := service.InitDrawing(context.Background(), "drawing/sketch.png")

	// when
	filePath, err := service.FinishDrawing(context.Background(), result.Session.ID)

	// then
	assert.NoError(t, err)
	assert.Equal(t, "drawing/sketch.png", filePath)
	assert.Empty(t, sessions.sessions)
}

func TestTransfer_ShouldStoreFileThroughBackend(t *testing.T) {
	// given
	service, _, _, backend := newTestService(1)
	result, _ := service.InitVideo(context.Background(), "shot010", "projectA", "")
	tmpPath := filepath.Join(t.TempDir(), "chunk")
	assert.NoError(t, os.WriteFile(tmpPath, []byte("video-bytes"), 0o600))

	// when
	err := service.Transfer(context.Background(), result.Session, tmpPath)

	// then
	assert.NoError(t, err)
	assert.Equal(t, []byte("video-bytes"), backend.objects[result.Session.StorageKey])
}

func TestTransfer_ShouldFailWhenTempFileMissing(t *testing.T) {
	// given
	service, _, _, _ := newTestService(1)
	session := &UploadSession{ID: "s", StorageKey: "videos/p/t/rev_001.mp4"}

	// when
	err := service.Transfer(context.Background(), session, filepath.Join(t.TempDir(), "missing"))

	// then
	assert.Error(t, err)
}

func TestCleanupScheduler_ShouldDeleteExpiredSessions(t *testing.T) {
	// given
	sessions := newMockSessionRepository()
	stale := &UploadSession{ID: "stale", CreatedAt: time.Now().Add(-48 * time.Hour)}
	fresh := &UploadSession{ID: "fresh", CreatedAt: time.Now()}
	sessions.sessions[stale.ID] = stale
	sessions.sessions[fresh.ID] = fresh
	scheduler := NewCleanupScheduler(sessions, 24)

	// when
	scheduler.RunNow()

	// then
	assert.NotContains(t, sessions.sessions, "stale")
	assert.Contains(t, sessions.sessions, "fresh")
}
