package upload

import (
	"time"

	"github.com/rs/zerolog/log"
)

// CleanupScheduler sweeps abandoned upload sessions. A stalled client
// leaves its session (and possibly a temp file) behind forever otherwise;
// anything older than the TTL is fair game because presigned URLs and
// transfer retries both operate on much shorter timescales.
type CleanupScheduler struct {
	sessions SessionRepository
	ttl      time.Duration
	ticker   *time.Ticker
	done     chan bool
}

func NewCleanupScheduler(sessions SessionRepository, ttlHours int) *CleanupScheduler {
	if ttlHours <= 0 {
		ttlHours = 24
	}

	return &CleanupScheduler{
		sessions: sessions,
		ttl:      time.Duration(ttlHours) * time.Hour,
		done:     make(chan bool),
	}
}

// Start runs an immediate sweep and then repeats hourly.
func (cs *CleanupScheduler) Start() {
	log.Info().
		Dur("sessionTTL", cs.ttl).
		Msg("Upload session cleanup scheduler started")

	cs.runCleanup()

	cs.ticker = time.NewTicker(time.Hour)
	go cs.loop()
}

func (cs *CleanupScheduler) loop() {
	for {
		select {
		case <-cs.ticker.C:
			cs.runCleanup()
		case <-cs.done:
			cs.ticker.Stop()
			return
		}
	}
}

func (cs *CleanupScheduler) runCleanup() {
	deleted, err := cs.sessions.DeleteOlderThan(time.Now().Add(-cs.ttl))
	if err != nil {
		log.Error().Err(err).Msg("Failed to sweep stale upload sessions")
		return
	}
	if deleted > 0 {
		log.Info().Int64("deleted", deleted).Msg("Swept stale upload sessions")
	}
}

func (cs *CleanupScheduler) Stop() {
	log.Info().Msg("Stopping upload session cleanup scheduler")
	if cs.ticker != nil {
		cs.done <- true
	}
}

// RunNow executes a sweep immediately, outside the schedule.
func (cs *CleanupScheduler) RunNow() {
	cs.runCleanup()
}
