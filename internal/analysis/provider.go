// Package analysis produces advisory evaluations for replay positions.
// Nothing here feeds back into navigation.
package analysis

import (
	"context"
	"errors"

	"github.com/park285/cheese-review/internal/chess"
)

var ErrNoAnalysis = errors.New("no analysis available")

type Request struct {
	Position chess.Position
}

// Line is one candidate continuation. Score is in pawns from White's
// point of view; Mate is non-zero for a forced mate (positive favours
// White).
type Line struct {
	Move         string   `json:"move"`
	Score        float64  `json:"score"`
	Mate         int      `json:"mate,omitempty"`
	Continuation []string `json:"continuation,omitempty"`
}

type Evaluation struct {
	Score    float64 `json:"score"`
	Mate     int     `json:"mate,omitempty"`
	BestMove string  `json:"best_move,omitempty"`
	Lines    []Line  `json:"lines,omitempty"`
	Depth    int     `json:"depth"`
	Engine   string  `json:"engine"`
}

// Provider evaluates one position. Implementations must honour ctx
// cancellation.
type Provider interface {
	Evaluate(ctx context.Context, req Request) (Evaluation, error)
}
