package comment

import "time"

// VideoComment is a timestamped note on a video, optionally carrying a
// drawing overlay and a forwarded JIRA issue id. Deletion is soft so
// edit history and read tracking stay consistent.
type VideoComment struct {
	ID          string    `json:"id"`
	VideoID     string    `json:"videoId"`
	VideoRevNum int       `json:"videoRevNum"`
	UserName    string    `json:"userName"`
	UserEmail   string    `json:"userEmail,omitempty"`
	Comment     string    `json:"comment"`
	Time        float64   `json:"time"`
	IssueID     string    `json:"issueId,omitempty"`
	DrawingPath string    `json:"drawingPath,omitempty"`
	ThumbsUp    int       `json:"thumbsUp"`
	Deleted     bool      `json:"deleted"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateRequest struct {
	VideoID     string  `json:"videoId"`
	VideoRevNum int     `json:"videoRevNum"`
	UserName    string  `json:"userName"`
	UserEmail   string  `json:"userEmail"`
	Comment     string  `json:"comment"`
	Time        float64 `json:"time"`
	IssueID     string  `json:"issueId"`
	DrawingPath string  `json:"drawingPath"`
}

// UpdateRequest patches a comment; nil fields are untouched.
type UpdateRequest struct {
	ID          string   `json:"id"`
	Comment     *string  `json:"comment"`
	Deleted     *bool    `json:"deleted"`
	IssueID     *string  `json:"issueId"`
	DrawingPath *string  `json:"drawingPath"`
	ThumbsUp    *int     `json:"thumbsUp"`
}
