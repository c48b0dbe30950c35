package analysis

import (
	"context"
	"hash/fnv"
)

// StaticProvider returns fixed candidate lines with a score derived from
// the position. It stands in for an engine when none is configured.
type StaticProvider struct{}

func NewStaticProvider() *StaticProvider { return &StaticProvider{} }

func (StaticProvider) Evaluate(ctx context.Context, req Request) (Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return Evaluation{}, err
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(req.Position.Key()))
	// [-1, 1] in hundredths
	score := float64(int(h.Sum32()%201)-100) / 100

	return Evaluation{
		Score:    score,
		BestMove: "e4",
		Depth:    20,
		Engine:   "static",
		Lines: []Line{
			{Move: "e4", Score: 0.8, Continuation: []string{"e5", "Nf3", "Nc6"}},
			{Move: "d4", Score: 0.6, Continuation: []string{"d5", "c4", "e6"}},
			{Move: "c4", Score: 0.5, Continuation: []string{"c5", "Nf3", "Nc6"}},
		},
	}, nil
}
