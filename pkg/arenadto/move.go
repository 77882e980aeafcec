package arenadto

// MoveSummary reports one full turn: the player's move and, unless the
// game ended first, the bot's reply.
type MoveSummary struct {
	State         *SessionState  `json:"state"`
	PlayerMove    string         `json:"player_move"`
	EngineMove    string         `json:"engine_move,omitempty"`
	PlayerCapture string         `json:"player_capture,omitempty"`
	EngineCapture string         `json:"engine_capture,omitempty"`
	Finished      bool           `json:"finished"`
	GameID        int64          `json:"game_id,omitempty"`
	Profile       *ArenaProfile  `json:"profile,omitempty"`
	RatingDelta   int            `json:"rating_delta"`
	Material      MaterialScore  `json:"material"`
	Captured      CapturedPieces `json:"captured"`
	Message       string         `json:"message,omitempty"`
}
