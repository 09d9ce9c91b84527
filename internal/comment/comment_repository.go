package comment

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const commentColumns = `id, video_id, video_rev_num, user_name, user_email, comment, time, issue_id, drawing_path, thumbs_up, deleted, created_at, updated_at`

func (r *Repository) Create(req *CreateRequest) (*VideoComment, error) {
	now := time.Now()
	c := &VideoComment{
		ID:          uuid.NewString(),
		VideoID:     req.VideoID,
		VideoRevNum: req.VideoRevNum,
		UserName:    req.UserName,
		UserEmail:   req.UserEmail,
		Comment:     req.Comment,
		Time:        req.Time,
		IssueID:     req.IssueID,
		DrawingPath: req.DrawingPath,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	query := `INSERT INTO video_comments (` + commentColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.db.Exec(query,
		c.ID, c.VideoID, c.VideoRevNum, c.UserName, c.UserEmail, c.Comment,
		c.Time, c.IssueID, c.DrawingPath, c.ThumbsUp, c.Deleted, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Repository) GetByID(id string) (*VideoComment, error) {
	row := r.db.QueryRow(`SELECT `+commentColumns+` FROM video_comments WHERE id = $1`, id)
	c, err := scanComment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// ListByVideo returns live comments ordered by timeline position; since
// narrows to comments updated after the given instant, which the client
// uses for incremental polling.
func (r *Repository) ListByVideo(videoID string, since *time.Time) ([]*VideoComment, error) {
	query := `SELECT ` + commentColumns + ` FROM video_comments WHERE video_id = $1 AND deleted = false`
	args := []interface{}{videoID}
	if since != nil {
		args = append(args, *since)
		query += fmt.Sprintf(` AND updated_at > $%d`, len(args))
	}
	query += ` ORDER BY time ASC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*VideoComment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *Repository) Update(req *UpdateRequest) (*VideoComment, error) {
	sets := `updated_at = $1`
	args := []interface{}{time.Now()}

	appendSet := func(column string, value interface{}) {
		args = append(args, value)
		sets += fmt.Sprintf(`, %s = $%d`, column, len(args))
	}

	if req.Comment != nil {
		appendSet("comment", *req.Comment)
	}
	if req.Deleted != nil {
		appendSet("deleted", *req.Deleted)
	}
	if req.IssueID != nil {
		appendSet("issue_id", *req.IssueID)
	}
	if req.DrawingPath != nil {
		appendSet("drawing_path", *req.DrawingPath)
	}
	if req.ThumbsUp != nil {
		appendSet("thumbs_up", *req.ThumbsUp)
	}

	args = append(args, req.ID)
	query := fmt.Sprintf(`UPDATE video_comments SET %s WHERE id = $%d`, sets, len(args))

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	// Missing row is (nil, nil), mirroring GetByID; the endpoint turns
	// it into a 404 rather than an internal error.
	if affected == 0 {
		return nil, nil
	}

	return r.GetByID(req.ID)
}

// Users lists the distinct author names that have commented on a video.
func (r *Repository) Users(videoID string) ([]string, error) {
	rows, err := r.db.Query(
		`SELECT DISTINCT user_name FROM video_comments WHERE video_id = $1 AND deleted = false ORDER BY user_name ASC`,
		videoID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		users = append(users, name)
	}
	return users, rows.Err()
}

func (r *Repository) LastUpdated(videoID string) (*time.Time, error) {
	var last sql.NullTime
	err := r.db.QueryRow(
		`SELECT MAX(updated_at) FROM video_comments WHERE video_id = $1`,
		videoID,
	).Scan(&last)
	if err != nil {
		return nil, err
	}
	if !last.Valid {
		return nil, nil
	}
	return &last.Time, nil
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanComment(row scannable) (*VideoComment, error) {
	c := &VideoComment{}
	var userEmail, issueID, drawingPath sql.NullString
	err := row.Scan(
		&c.ID, &c.VideoID, &c.VideoRevNum, &c.UserName, &userEmail, &c.Comment,
		&c.Time, &issueID, &drawingPath, &c.ThumbsUp, &c.Deleted, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if userEmail.Valid {
		c.UserEmail = userEmail.String
	}
	if issueID.Valid {
		c.IssueID = issueID.String
	}
	if drawingPath.Valid {
		c.DrawingPath = drawingPath.String
	}
	return c, nil
}
