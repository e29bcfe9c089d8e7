package boxing

import (
	"time"

	"backend-fittrack/internal/motion"
)

type Session struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	StartedAt time.Time     `json:"started_at"`
	Config    motion.Config `json:"config"`
}

type startRequest struct {
	UserID string         `json:"user_id"`
	Config *motion.Config `json:"config"`
}

type samplesRequest struct {
	Samples []motion.Sample `json:"samples"`
}

type SamplesResult struct {
	Punches []motion.PunchEvent `json:"punches"`
	Stats   motion.Stats        `json:"stats"`
}

type finishRequest struct {
	DurationSec int64 `json:"duration_sec"`
}
