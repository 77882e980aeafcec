// Package arenapresenter maps service results onto the public API DTOs
// and renders the human-readable summaries that ride along with them.
package arenapresenter

import (
	"github.com/park285/minichess-arena/internal/domain"
	"github.com/park285/minichess-arena/internal/minichess"
	svc "github.com/park285/minichess-arena/internal/service/arena"
	"github.com/park285/minichess-arena/pkg/arenadto"
)

func ToDTOState(s *svc.SessionState) *arenadto.SessionState {
	if s == nil {
		return nil
	}
	return &arenadto.SessionState{
		SessionUUID:   s.SessionUUID,
		PlayerName:    s.PlayerName,
		HumanSide:     s.HumanSide,
		Moves:         append([]string(nil), s.Moves...),
		Placement:     s.Placement,
		Turn:          s.Turn,
		MoveCount:     s.MoveCount,
		Outcome:       string(s.Outcome),
		OutcomeMethod: s.OutcomeMethod,
		Finished:      s.Outcome != svc.OutcomeNone,
		Material:      toDTOMaterial(s.Material),
		Captured:      toDTOCaptured(s.Captured),
		Profile:       ToDTOProfile(s.Profile),
		RatingDelta:   s.RatingDelta,
		StartedAt:     s.StartedAt,
		UpdatedAt:     s.UpdatedAt,
		BoardImage:    append([]byte(nil), s.BoardImage...),
	}
}

func ToDTOMoveSummary(m *svc.MoveSummary) *arenadto.MoveSummary {
	if m == nil {
		return nil
	}
	return &arenadto.MoveSummary{
		State:         ToDTOState(m.State),
		PlayerMove:    m.PlayerMove,
		EngineMove:    m.EngineMove,
		PlayerCapture: pieceToken(m.PlayerCapture),
		EngineCapture: pieceToken(m.EngineCapture),
		Finished:      m.Finished,
		GameID:        m.GameID,
		Profile:       ToDTOProfile(m.Profile),
		RatingDelta:   m.RatingDelta,
		Material:      toDTOMaterial(m.Material),
		Captured:      toDTOCaptured(m.Captured),
	}
}

func ToDTOProfile(p *domain.ArenaProfile) *arenadto.ArenaProfile {
	if p == nil {
		return nil
	}
	return &arenadto.ArenaProfile{
		PreferredSide: p.PreferredSide,
		Rating:        p.Rating,
		GamesPlayed:   p.GamesPlayed,
		Wins:          p.Wins,
		Losses:        p.Losses,
		Draws:         p.Draws,
		Streak:        p.Streak,
		StreakType:    p.StreakType,
		LastSide:      p.LastSide,
		LastPlayedAt:  p.LastPlayedAt,
		UpdatedAt:     p.UpdatedAt,
		CreatedAt:     p.CreatedAt,
	}
}

func ToDTOGame(g *domain.ArenaGame) *arenadto.ArenaGame {
	if g == nil {
		return nil
	}
	return &arenadto.ArenaGame{
		ID:            g.ID,
		SessionUUID:   g.SessionUUID,
		HumanSide:     g.HumanSide,
		Result:        g.Result,
		ResultMethod:  g.ResultMethod,
		Moves:         append([]string(nil), g.Moves...),
		FinalPosition: g.FinalPosition,
		StartedAt:     g.StartedAt,
		EndedAt:       g.EndedAt,
		DurationMS:    g.Duration.Milliseconds(),
	}
}

func ToDTOGames(list []*domain.ArenaGame) []*arenadto.ArenaGame {
	out := make([]*arenadto.ArenaGame, 0, len(list))
	for _, g := range list {
		if g == nil {
			continue
		}
		out = append(out, ToDTOGame(g))
	}
	return out
}

func toDTOMaterial(m svc.MaterialScore) arenadto.MaterialScore {
	return arenadto.MaterialScore{
		White: m.White,
		Black: m.Black,
		Diff:  m.Diff(),
	}
}

func toDTOCaptured(c svc.CapturedPieces) arenadto.CapturedPieces {
	return arenadto.CapturedPieces{
		White: toPieceTokenList(c.WhiteOrder),
		Black: toPieceTokenList(c.BlackOrder),
	}
}

func toPieceTokenList(list []minichess.PieceType) []string {
	tokens := make([]string, 0, len(list))
	for _, pt := range list {
		tokens = append(tokens, pt.String())
	}
	return tokens
}

func pieceToken(pt minichess.PieceType) string {
	if pt == minichess.NoPieceType {
		return ""
	}
	return pt.String()
}
