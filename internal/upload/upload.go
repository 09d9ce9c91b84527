package upload

import (
	"errors"
	"time"

	"github.com/videoreview/videoreview_server/internal/storage"
)

// UploadSession binds an in-flight upload to its destination key and
// the catalog metadata the client will not resubmit at finish-time.
// For video uploads the session id becomes the revision row's id.
type UploadSession struct {
	ID         string              `json:"id"`
	StorageKey string              `json:"storageKey"`
	Storage    storage.BackendType `json:"storage"`
	NextRev    int                 `json:"nextRev"`
	Title      string              `json:"title"`
	FolderKey  string              `json:"folderKey"`
	ScenePath  string              `json:"scenePath"`
	CreatedAt  time.Time           `json:"createdAt"`
}

type Config struct {
	SessionTTLHours int    `mapstructure:"session_ttl_hours"`
	TmpDir          string `mapstructure:"tmp_dir"`
}

// Upload status as observed through polling. There is no server-held
// state machine; the state is inferred from session existence plus
// backend/catalog existence.
const (
	StatusProgress  = "progress"
	StatusUploaded  = "uploaded"
	StatusCompleted = "completed"
	StatusNotFound  = "not_found"
)

var (
	ErrSessionNotFound = errors.New("upload session not found")
	ErrMissingField    = errors.New("missing parameter")
)

type SessionRepository interface {
	Create(session *UploadSession) error
	Get(id string) (*UploadSession, error)
	Delete(id string) error
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

type InitResult struct {
	URL     string         `json:"url"`
	Session *UploadSession `json:"session"`
}

type StatusResult struct {
	Status     string `json:"status"`
	NextRev    int    `json:"nextRev,omitempty"`
	Title      string `json:"title,omitempty"`
	FolderKey  string `json:"folderKey,omitempty"`
	RevisionID string `json:"revisionId,omitempty"`
	VideoID    string `json:"videoId,omitempty"`
	Revision   int    `json:"revision,omitempty"`
}
