package readstatus

import (
	"database/sql"
	"time"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Upsert records that the user has seen the video as of the given time.
func (r *Repository) Upsert(userID, videoID string, at time.Time) error {
	query := `INSERT INTO user_video_read_status (user_id, video_id, last_read_at)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (user_id, video_id) DO UPDATE SET last_read_at = $3`
	_, err := r.db.Exec(query, userID, videoID, at)
	return err
}

// Unread returns the ids of videos with a new revision or comment since
// the user's last read, including videos the user has never opened.
func (r *Repository) Unread(userID string) ([]string, error) {
	query := `SELECT v.id FROM videos v
			  LEFT JOIN user_video_read_status rs
			    ON rs.video_id = v.id AND rs.user_id = $1
			  LEFT JOIN LATERAL (
			    SELECT MAX(updated_at) AS last_comment_at
			    FROM video_comments c WHERE c.video_id = v.id AND c.deleted = false
			  ) c ON true
			  WHERE rs.user_id IS NULL
			     OR v.latest_updated_at > rs.last_read_at
			     OR c.last_comment_at > rs.last_read_at
			  ORDER BY v.latest_updated_at DESC`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Latest returns the user's last read time for a video, or nil if the
// video has never been read.
func (r *Repository) Latest(userID, videoID string) (*time.Time, error) {
	row := r.db.QueryRow(
		`SELECT last_read_at FROM user_video_read_status WHERE user_id = $1 AND video_id = $2`,
		userID, videoID,
	)
	var at time.Time
	if err := row.Scan(&at); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &at, nil
}
