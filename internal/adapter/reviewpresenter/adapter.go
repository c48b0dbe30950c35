package reviewpresenter

import (
	"github.com/park285/cheese-review/internal/analysis"
	"github.com/park285/cheese-review/internal/chess"
	"github.com/park285/cheese-review/internal/domain"
	"github.com/park285/cheese-review/internal/library"
	"github.com/park285/cheese-review/internal/replay"
	"github.com/park285/cheese-review/pkg/reviewdto"
)

func ToDTOView(v replay.View) *reviewdto.ReviewView {
	out := &reviewdto.ReviewView{
		Cursor:      v.Cursor,
		TotalPlies:  len(v.Plies),
		Orientation: v.Orientation.String(),
		FEN:         string(v.Position),
		Status:      string(v.Status),
		InCheck:     v.InCheck(),
		Moves:       toDTOPairs(replay.Pairs(v.Plies)),
	}
	if g := v.Game; g != nil {
		out.GameID = g.ID
		out.Title = g.Title()
		out.Date = g.Date
		out.Result = string(g.Result)
		out.Source = string(g.Source)
	}
	if v.Cursor >= 0 && v.Cursor < len(v.Plies) {
		out.LastMove = toDTOMove(&v.Plies[v.Cursor])
		out.Opening = openingLabel(v.Plies[:v.Cursor+1])
	}
	return out
}

func openingLabel(plies []replay.Ply) string {
	moves := make([]string, 0, len(plies))
	for _, p := range plies {
		moves = append(moves, p.UCI)
	}
	o, ok := chess.ClassifyOpening(moves)
	if !ok {
		return ""
	}
	return o.Code + " " + o.Title
}

func toDTOPairs(pairs []replay.MovePair) []reviewdto.MovePair {
	out := make([]reviewdto.MovePair, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, reviewdto.MovePair{
			Number: p.Number,
			White:  toDTOMove(p.White),
			Black:  toDTOMove(p.Black),
		})
	}
	return out
}

func toDTOMove(p *replay.Ply) *reviewdto.Move {
	if p == nil {
		return nil
	}
	return &reviewdto.Move{Index: p.Index, SAN: p.SAN, UCI: p.UCI, Check: p.Check}
}

func ToDTOAnalysis(s analysis.Snapshot) *reviewdto.Analysis {
	out := &reviewdto.Analysis{Cursor: s.Cursor}
	if s.Err != nil {
		out.Err = s.Err.Error()
		return out
	}
	e := s.Eval
	out.Score = e.Score
	out.Mate = e.Mate
	out.BestMove = e.BestMove
	out.Depth = e.Depth
	out.Engine = e.Engine
	for _, l := range e.Lines {
		out.Lines = append(out.Lines, reviewdto.AnalysisLine{
			Move:         l.Move,
			Score:        l.Score,
			Mate:         l.Mate,
			Continuation: append([]string(nil), l.Continuation...),
		})
	}
	return out
}

func ToDTOSummaries(games []*domain.GameRecord) []reviewdto.GameSummary {
	out := make([]reviewdto.GameSummary, 0, len(games))
	for _, g := range games {
		if g == nil {
			continue
		}
		out = append(out, reviewdto.GameSummary{
			ID:     g.ID,
			Title:  g.Title(),
			Date:   g.Date,
			Result: string(g.Result),
			Source: string(g.Source),
			URL:    g.URL,
		})
	}
	return out
}

func ToDTOImportSummary(s library.ImportSummary) reviewdto.ImportSummary {
	return reviewdto.ImportSummary{Imported: len(s.Imported), Duplicates: s.Duplicates, Invalid: s.Invalid}
}
