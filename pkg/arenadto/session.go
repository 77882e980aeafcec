// Package arenadto defines the wire types of the arena HTTP API.
package arenadto

import "time"

type MaterialScore struct {
	White int `json:"white"`
	Black int `json:"black"`
	Diff  int `json:"diff"`
}

// CapturedPieces lists piece tokens in capture order, oldest first.
type CapturedPieces struct {
	White []string `json:"white"`
	Black []string `json:"black"`
}

type SessionState struct {
	SessionUUID   string         `json:"session_uuid"`
	PlayerName    string         `json:"player_name"`
	HumanSide     string         `json:"human_side"`
	Moves         []string       `json:"moves"`
	Placement     string         `json:"placement"`
	Turn          string         `json:"turn"`
	MoveCount     int            `json:"move_count"`
	Outcome       string         `json:"outcome,omitempty"`
	OutcomeMethod string         `json:"outcome_method,omitempty"`
	Finished      bool           `json:"finished"`
	Material      MaterialScore  `json:"material"`
	Captured      CapturedPieces `json:"captured"`
	Profile       *ArenaProfile  `json:"profile,omitempty"`
	RatingDelta   int            `json:"rating_delta"`
	StartedAt     time.Time      `json:"started_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	Message       string         `json:"message,omitempty"`

	// BoardImage travels out of band through the board.png endpoint.
	BoardImage []byte `json:"-"`
}
