package arenadto

import "time"

type ArenaProfile struct {
	PreferredSide string    `json:"preferred_side,omitempty"`
	Rating        int       `json:"rating"`
	GamesPlayed   int       `json:"games_played"`
	Wins          int       `json:"wins"`
	Losses        int       `json:"losses"`
	Draws         int       `json:"draws"`
	Streak        int       `json:"streak"`
	StreakType    string    `json:"streak_type,omitempty"`
	LastSide      string    `json:"last_side,omitempty"`
	LastPlayedAt  time.Time `json:"last_played_at,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
	CreatedAt     time.Time `json:"created_at"`
}
