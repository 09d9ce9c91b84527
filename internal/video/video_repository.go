package video

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// NextRevision computes the revision number a new upload session will
// claim. The video row is locked for the duration of the transaction so
// two concurrent inits against the same video serialize instead of both
// reading the same max.
func (r *Repository) NextRevision(title, folderKey string) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var videoID string
	err = tx.QueryRow(
		`SELECT id FROM videos WHERE title = $1 AND folder_key = $2 FOR UPDATE`,
		title, folderKey,
	).Scan(&videoID)
	if err == sql.ErrNoRows {
		return 1, tx.Commit()
	}
	if err != nil {
		return 0, err
	}

	var maxRev int
	err = tx.QueryRow(
		`SELECT COALESCE(MAX(revision), 0) FROM video_revisions WHERE video_id = $1`,
		videoID,
	).Scan(&maxRev)
	if err != nil {
		return 0, err
	}

	return maxRev + 1, tx.Commit()
}

// FinalizeRevision performs the finish-time catalog write in one
// transaction: find-or-create the video, bump latestUpdatedAt on
// update, insert the revision under the session's id. The unique
// (video_id, revision) constraint backstops sessions that raced to the
// same number.
func (r *Repository) FinalizeRevision(revisionID, title, folderKey, scenePath string, revision int, filePath string) (*VideoRevision, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now()

	var videoID string
	err = tx.QueryRow(
		`SELECT id FROM videos WHERE title = $1 AND folder_key = $2 FOR UPDATE`,
		title, folderKey,
	).Scan(&videoID)
	switch {
	case err == sql.ErrNoRows:
		videoID = uuid.NewString()
		_, err = tx.Exec(
			`INSERT INTO videos (id, title, folder_key, scene_path, created_at, latest_updated_at)
			 VALUES ($1, $2, $3, $4, $5, $5)`,
			videoID, title, folderKey, scenePath, now,
		)
		if err != nil {
			// Two first-ever finishes can race past the FOR UPDATE probe
			// (no row to lock yet); the loser hits unique (title,
			// folder_key) and holds the same revision number, so it is
			// the same conflict as losing the revision insert.
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				return nil, ErrRevisionConflict
			}
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		_, err = tx.Exec(
			`UPDATE videos SET latest_updated_at = $1 WHERE id = $2`,
			now, videoID,
		)
		if err != nil {
			return nil, err
		}
	}

	_, err = tx.Exec(
		`INSERT INTO video_revisions (id, video_id, revision, file_path, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		revisionID, videoID, revision, filePath, now,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, ErrRevisionConflict
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &VideoRevision{
		ID:        revisionID,
		VideoID:   videoID,
		Revision:  revision,
		FilePath:  filePath,
		CreatedAt: now,
	}, nil
}

func (r *Repository) GetRevision(id string) (*VideoRevision, error) {
	rev := &VideoRevision{}
	err := r.db.QueryRow(
		`SELECT id, video_id, revision, file_path, created_at FROM video_revisions WHERE id = $1`,
		id,
	).Scan(&rev.ID, &rev.VideoID, &rev.Revision, &rev.FilePath, &rev.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rev, nil
}

func (r *Repository) GetRevisionForVideo(id, videoID string) (*VideoRevision, error) {
	rev := &VideoRevision{}
	err := r.db.QueryRow(
		`SELECT id, video_id, revision, file_path, created_at
		 FROM video_revisions WHERE id = $1 AND video_id = $2`,
		id, videoID,
	).Scan(&rev.ID, &rev.VideoID, &rev.Revision, &rev.FilePath, &rev.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rev, nil
}

func (r *Repository) GetByID(id string) (*Video, error) {
	v := &Video{}
	var scenePath sql.NullString
	err := r.db.QueryRow(
		`SELECT id, title, folder_key, scene_path, created_at, latest_updated_at FROM videos WHERE id = $1`,
		id,
	).Scan(&v.ID, &v.Title, &v.FolderKey, &scenePath, &v.CreatedAt, &v.LatestUpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if scenePath.Valid {
		v.ScenePath = scenePath.String
	}
	return v, nil
}

func (r *Repository) List(filter ListFilter) ([]*Video, error) {
	query := `SELECT id, title, folder_key, scene_path, created_at, latest_updated_at FROM videos WHERE 1=1`
	args := []interface{}{}

	if filter.Title != "" {
		args = append(args, filter.Title)
		query += fmt.Sprintf(` AND title = $%d`, len(args))
	}
	if filter.FolderKey != "" {
		args = append(args, "%"+filter.FolderKey+"%")
		query += fmt.Sprintf(` AND folder_key LIKE $%d`, len(args))
	}
	if filter.From != nil && filter.To != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(` AND latest_updated_at >= $%d`, len(args))
		args = append(args, *filter.To)
		query += fmt.Sprintf(` AND latest_updated_at <= $%d`, len(args))
	} else if filter.Target != nil {
		args = append(args, *filter.Target)
		query += fmt.Sprintf(` AND latest_updated_at < $%d`, len(args))
	}

	query += ` ORDER BY title ASC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []*Video
	for rows.Next() {
		v := &Video{}
		var scenePath sql.NullString
		if err := rows.Scan(&v.ID, &v.Title, &v.FolderKey, &scenePath, &v.CreatedAt, &v.LatestUpdatedAt); err != nil {
			return nil, err
		}
		if scenePath.Valid {
			v.ScenePath = scenePath.String
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

func (r *Repository) Folders() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT folder_key FROM videos ORDER BY folder_key ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (r *Repository) Revisions(videoID string) ([]*VideoRevision, error) {
	rows, err := r.db.Query(
		`SELECT id, video_id, revision, file_path, created_at
		 FROM video_revisions WHERE video_id = $1 ORDER BY revision ASC`,
		videoID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var revisions []*VideoRevision
	for rows.Next() {
		rev := &VideoRevision{}
		if err := rows.Scan(&rev.ID, &rev.VideoID, &rev.Revision, &rev.FilePath, &rev.CreatedAt); err != nil {
			return nil, err
		}
		revisions = append(revisions, rev)
	}
	return revisions, rows.Err()
}

func (r *Repository) LatestRevision(videoID string) (*VideoRevision, error) {
	rev := &VideoRevision{}
	err := r.db.QueryRow(
		`SELECT id, video_id, revision, file_path, created_at
		 FROM video_revisions WHERE video_id = $1 ORDER BY revision DESC LIMIT 1`,
		videoID,
	).Scan(&rev.ID, &rev.VideoID, &rev.Revision, &rev.FilePath, &rev.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rev, nil
}
