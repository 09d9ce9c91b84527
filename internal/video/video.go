package video

import (
	"errors"
	"time"
)

// Video is the catalog entry for a (title, folderKey) pair. Revisions
// hang off it; latestUpdatedAt moves every time a new revision lands.
type Video struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	FolderKey       string    `json:"folderKey"`
	ScenePath       string    `json:"scenePath,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	LatestUpdatedAt time.Time `json:"latestUpdatedAt"`
}

// VideoRevision is an immutable numbered version of a video's file.
// When created through the resumable upload path its id is the upload
// session's id.
type VideoRevision struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	Revision  int       `json:"revision"`
	FilePath  string    `json:"filePath"`
	CreatedAt time.Time `json:"createdAt"`
}

// ErrRevisionConflict surfaces the unique (video_id, revision)
// constraint: two sessions computed the same revision number and the
// loser must re-init.
var ErrRevisionConflict = errors.New("revision number already taken")

type ListFilter struct {
	Title     string
	FolderKey string
	From      *time.Time
	To        *time.Time
	Target    *time.Time
}
