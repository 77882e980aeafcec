package arenadto

import "time"

type ArenaGame struct {
	ID            int64     `json:"id"`
	SessionUUID   string    `json:"session_uuid"`
	HumanSide     string    `json:"human_side"`
	Result        string    `json:"result"`
	ResultMethod  string    `json:"result_method"`
	Moves         []string  `json:"moves"`
	FinalPosition string    `json:"final_position"`
	StartedAt     time.Time `json:"started_at"`
	EndedAt       time.Time `json:"ended_at"`
	DurationMS    int64     `json:"duration_ms"`
}
