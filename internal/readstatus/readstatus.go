package readstatus

import "time"

// ReadStatus records when a user last viewed a video.
type ReadStatus struct {
	UserID     string    `json:"userId"`
	VideoID    string    `json:"videoId"`
	LastReadAt time.Time `json:"lastReadAt"`
}
