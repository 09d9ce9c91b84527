package upload

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/videoreview/videoreview_server/internal/storage"
)

type PostgresSessionRepository struct {
	db *sql.DB
}

func NewPostgresSessionRepository(db *sql.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

func (r *PostgresSessionRepository) Create(session *UploadSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	query := `INSERT INTO upload_sessions (id, storage_key, storage, next_rev, title, folder_key, scene_path, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(query,
		session.ID,
		session.StorageKey,
		string(session.Storage),
		session.NextRev,
		session.Title,
		session.FolderKey,
		session.ScenePath,
		session.CreatedAt,
	)
	return err
}

// Get returns (nil, nil) for a missing session. Finish deletes the row
// while status polls may still be in flight; callers fall through to the
// catalog lookup instead of treating absence as an error.
func (r *PostgresSessionRepository) Get(id string) (*UploadSession, error) {
	query := `SELECT id, storage_key, storage, next_rev, title, folder_key, scene_path, created_at
			  FROM upload_sessions WHERE id = $1`

	s := &UploadSession{}
	var storageType string
	err := r.db.QueryRow(query, id).Scan(
		&s.ID,
		&s.StorageKey,
		&storageType,
		&s.NextRev,
		&s.Title,
		&s.FolderKey,
		&s.ScenePath,
		&s.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.Storage = storage.BackendType(storageType)
	return s, nil
}

func (r *PostgresSessionRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM upload_sessions WHERE id = $1`, id)
	return err
}

func (r *PostgresSessionRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM upload_sessions WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
