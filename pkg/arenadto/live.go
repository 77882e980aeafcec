package arenadto

import "time"

const (
	LiveEventSnapshot       = "snapshot"
	LiveEventSessionStarted = "session_started"
	LiveEventMovePlayed     = "move_played"
	LiveEventGameFinished   = "game_finished"
)

// LiveEvent is pushed over the live websocket whenever the watched
// session changes. Exactly one of State or Summary is set, depending
// on the event type.
type LiveEvent struct {
	Type    string        `json:"type"`
	Note    string        `json:"note,omitempty"`
	State   *SessionState `json:"state,omitempty"`
	Summary *MoveSummary  `json:"summary,omitempty"`
	At      time.Time     `json:"at"`
}
