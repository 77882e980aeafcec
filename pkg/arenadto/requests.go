package arenadto

// RequestMeta identifies the caller on every operation. SessionID keys
// the live game; Channel and Player feed the hashed identity.
type RequestMeta struct {
	SessionID string `json:"session_id"`
	Channel   string `json:"channel"`
	Player    string `json:"player"`
}

type StartSessionRequest struct {
	Meta RequestMeta `json:"meta"`
	Side string      `json:"side,omitempty"`
}

type StartSessionResponse struct {
	State   *SessionState `json:"state"`
	Resumed bool          `json:"resumed"`
}

type StatusResponse struct {
	State *SessionState `json:"state"`
}

type PlayRequest struct {
	Meta RequestMeta `json:"meta"`
	Move string      `json:"move"`
}

type PlayResponse struct {
	Summary *MoveSummary `json:"summary"`
}

type LegalTargetsResponse struct {
	Origin  string   `json:"origin"`
	Targets []string `json:"targets"`
}

type ResignRequest struct {
	Meta RequestMeta `json:"meta"`
}

type ResignResponse struct {
	State *SessionState `json:"state"`
}

type HistoryResponse struct {
	Games []*ArenaGame `json:"games"`
}

type GameResponse struct {
	Game *ArenaGame `json:"game"`
}

type ProfileResponse struct {
	Profile *ArenaProfile `json:"profile"`
	Summary string        `json:"summary,omitempty"`
}

type UpdatePreferredSideRequest struct {
	Meta RequestMeta `json:"meta"`
	Side string      `json:"side"`
}
