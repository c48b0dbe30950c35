package reviewdto

// Analysis is the advisory evaluation shown beside the board. Scores are
// in pawns from White's point of view.
type Analysis struct {
	Cursor   int
	Score    float64
	Mate     int
	BestMove string
	Depth    int
	Engine   string
	Lines    []AnalysisLine
	Err      string
}

type AnalysisLine struct {
	Move         string
	Score        float64
	Mate         int
	Continuation []string
}
