package domain

import "time"

// ArenaGame is a finished game archived to storage. Result and
// ResultMethod are recorded from the human player's perspective.
type ArenaGame struct {
	ID            int64
	SessionUUID   string
	PlayerHash    string
	ChannelHash   string
	HumanSide     string
	Result        string
	ResultMethod  string
	Moves         []string
	FinalPosition string
	StartedAt     time.Time
	EndedAt       time.Time
	Duration      time.Duration
}

// ArenaProfile tracks one player's record against the house bot within a
// channel.
type ArenaProfile struct {
	PlayerHash    string
	ChannelHash   string
	PreferredSide string
	Rating        int
	GamesPlayed   int
	Wins          int
	Losses        int
	Draws         int
	Streak        int
	StreakType    string
	LastSide      string
	LastPlayedAt  time.Time
	UpdatedAt     time.Time
	CreatedAt     time.Time
}
