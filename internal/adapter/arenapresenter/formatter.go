package arenapresenter

import (
	"fmt"
	"strings"

	"github.com/park285/minichess-arena/internal/msgcat"
	"github.com/park285/minichess-arena/pkg/arenadto"
)

const (
	recentMovesShown    = 6
	defaultPlayerLabel  = "Player"
	outcomeDraw         = "1/2-1/2"
	outcomeWhiteWins    = "1-0"
	methodResignationID = "resignation"
)

// Formatter renders DTOs into short English text blocks. Every message
// has a hardcoded fallback so a broken override catalog never blanks
// the API.
type Formatter struct {
	catalog *msgcat.Catalog
}

func NewFormatter(catalog *msgcat.Catalog) *Formatter {
	return &Formatter{catalog: catalog}
}

func (f *Formatter) render(key string, data map[string]any, fallback string) string {
	if f == nil || f.catalog == nil {
		return fallback
	}
	msg, err := f.catalog.Render(key, data)
	if err != nil {
		return fallback
	}
	return msg
}

func (f *Formatter) Start(state *arenadto.SessionState, resumed bool) string {
	if state == nil {
		return ""
	}
	player := displayName(state.PlayerName)
	if resumed {
		return f.render("arena.session.in_progress", map[string]any{
			"MoveCount": state.MoveCount,
			"Turn":      state.Turn,
		}, fmt.Sprintf("A game is already running (%d moves played, %s to move).", state.MoveCount, state.Turn))
	}
	return f.render("arena.session.started", map[string]any{
		"Player": player,
		"Side":   state.HumanSide,
	}, fmt.Sprintf("Game on! %s takes %s.", player, state.HumanSide))
}

func (f *Formatter) Move(summary *arenadto.MoveSummary) string {
	if summary == nil || summary.State == nil {
		return ""
	}
	state := summary.State
	player := displayName(state.PlayerName)

	var sb strings.Builder
	sb.WriteString(f.render("arena.move.played", map[string]any{
		"Player":     player,
		"PlayerMove": summary.PlayerMove,
	}, fmt.Sprintf("%s played %s.", player, summary.PlayerMove)))

	if summary.PlayerCapture != "" {
		sb.WriteString(" ")
		sb.WriteString(f.captureNote(summary.PlayerCapture))
	}

	if summary.EngineMove != "" {
		sb.WriteString("\n")
		sb.WriteString(f.render("arena.move.reply", map[string]any{
			"EngineMove": summary.EngineMove,
		}, fmt.Sprintf("Bot answered with %s.", summary.EngineMove)))
		if summary.EngineCapture != "" {
			sb.WriteString(" ")
			sb.WriteString(f.captureNote(summary.EngineCapture))
		}
	}

	if summary.Finished {
		sb.WriteString("\n\n")
		sb.WriteString(f.outcomeLine(state))
		if summary.GameID > 0 {
			sb.WriteString(fmt.Sprintf("\nGame record: #%d", summary.GameID))
		}
	} else {
		sb.WriteString(fmt.Sprintf("\n• Material: %s", formatMaterial(summary.Material)))
	}
	return sb.String()
}

func (f *Formatter) Status(state *arenadto.SessionState) string {
	if state == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s vs Bot\n", displayName(state.PlayerName)))
	sb.WriteString(fmt.Sprintf("• Playing %s, %s to move\n", state.HumanSide, state.Turn))
	sb.WriteString(fmt.Sprintf("• Moves played: %d\n", state.MoveCount))
	if len(state.Moves) > 0 {
		sb.WriteString(fmt.Sprintf("• Recent: %s\n", formatRecentMoves(state.Moves)))
	}
	sb.WriteString(fmt.Sprintf("• Material: %s", formatMaterial(state.Material)))
	if line := formatCaptured(state.Captured); line != "" {
		sb.WriteString("\n• Captured: ")
		sb.WriteString(line)
	}
	if state.Profile != nil {
		sb.WriteString("\n")
		sb.WriteString(f.profileLine(state.Profile, displayName(state.PlayerName)))
	}
	return sb.String()
}

func (f *Formatter) Resign(state *arenadto.SessionState) string {
	if state == nil {
		return ""
	}
	player := displayName(state.PlayerName)
	var sb strings.Builder
	sb.WriteString(f.render("arena.game.resigned", map[string]any{
		"Player": player,
	}, fmt.Sprintf("%s resigned. Bot takes the point.", player)))
	sb.WriteString("\n")
	sb.WriteString(f.outcomeLine(state))
	return sb.String()
}

func (f *Formatter) Profile(profile *arenadto.ArenaProfile, playerName string) string {
	if profile == nil {
		return ""
	}
	return f.profileLine(profile, displayName(playerName))
}

func (f *Formatter) History(games []*arenadto.ArenaGame) string {
	if len(games) == 0 {
		return "No finished games yet."
	}
	var sb strings.Builder
	sb.WriteString("Recent games:\n")
	for _, game := range games {
		if game == nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("• #%d %s as %s (%s, %d moves)\n",
			game.ID, game.Result, game.HumanSide, game.ResultMethod, len(game.Moves)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (f *Formatter) outcomeLine(state *arenadto.SessionState) string {
	if state == nil || state.Outcome == "" {
		return ""
	}
	player := displayName(state.PlayerName)
	rating := 0
	if state.Profile != nil {
		rating = state.Profile.Rating
	}
	data := map[string]any{
		"Player": player,
		"Method": state.OutcomeMethod,
		"Rating": rating,
		"Delta":  formatDelta(state.RatingDelta),
	}

	humanWon := (state.Outcome == outcomeWhiteWins) == (state.HumanSide == "white")
	switch {
	case state.Outcome == outcomeDraw:
		return f.render("arena.game.draw", data,
			fmt.Sprintf("Dead end, nobody can move. Draw. Rating %d (%s).", rating, formatDelta(state.RatingDelta)))
	case state.OutcomeMethod == methodResignationID, !humanWon:
		return f.render("arena.game.lost", data,
			fmt.Sprintf("Bot wins (%s). Rating %d (%s).", state.OutcomeMethod, rating, formatDelta(state.RatingDelta)))
	default:
		return f.render("arena.game.won", data,
			fmt.Sprintf("%s wins (%s). Rating %d (%s).", player, state.OutcomeMethod, rating, formatDelta(state.RatingDelta)))
	}
}

func (f *Formatter) profileLine(profile *arenadto.ArenaProfile, player string) string {
	return f.render("arena.profile.summary", map[string]any{
		"Player": player,
		"Rating": profile.Rating,
		"Wins":   profile.Wins,
		"Losses": profile.Losses,
		"Draws":  profile.Draws,
		"Streak": formatStreak(profile),
	}, fmt.Sprintf("%s | rating %d | %dW %dL %dD", player, profile.Rating, profile.Wins, profile.Losses, profile.Draws))
}

func (f *Formatter) captureNote(piece string) string {
	return f.render("arena.move.capture", map[string]any{
		"Piece": piece,
	}, fmt.Sprintf("%s taken!", piece))
}

// ErrorNote renders the player-facing line for an API error code.
// Codes without a catalog entry return "" and the caller falls back to
// the raw error text.
func (f *Formatter) ErrorNote(code string) string {
	switch code {
	case "invalid_move":
		return f.render("arena.error.invalid_move", nil, "That move does not work here. Use coordinates like e2e4.")
	case "invalid_square":
		return f.render("arena.error.invalid_square", nil, "Unknown square. Use file+rank, a1 through h8.")
	case "channel_not_allowed":
		return f.render("arena.error.channel_blocked", nil, "This channel is not cleared for arena games.")
	case "session_not_found":
		return f.render("arena.session.not_found", nil, "No game running. Start one first.")
	default:
		return ""
	}
}

func displayName(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return defaultPlayerLabel
	}
	return name
}

func formatRecentMoves(moves []string) string {
	if len(moves) > recentMovesShown {
		moves = moves[len(moves)-recentMovesShown:]
	}
	return strings.Join(moves, " ")
}

func formatMaterial(material arenadto.MaterialScore) string {
	if material.Diff == 0 {
		return "even"
	}
	if material.Diff > 0 {
		return fmt.Sprintf("White +%d", material.Diff)
	}
	return fmt.Sprintf("Black +%d", -material.Diff)
}

func formatCaptured(captured arenadto.CapturedPieces) string {
	parts := make([]string, 0, 2)
	if len(captured.White) > 0 {
		parts = append(parts, "White took "+strings.Join(captured.White, ", "))
	}
	if len(captured.Black) > 0 {
		parts = append(parts, "Black took "+strings.Join(captured.Black, ", "))
	}
	return strings.Join(parts, "; ")
}

func formatDelta(delta int) string {
	switch {
	case delta > 0:
		return fmt.Sprintf("+%d", delta)
	case delta < 0:
		return fmt.Sprintf("%d", delta)
	default:
		return "±0"
	}
}

func formatStreak(profile *arenadto.ArenaProfile) string {
	if profile == nil || profile.Streak == 0 || profile.StreakType == "" {
		return "none"
	}
	return fmt.Sprintf("%d %s", profile.Streak, profile.StreakType)
}
