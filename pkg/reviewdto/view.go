package reviewdto

import "time"

// ReviewView is a snapshot of one replay view at its current cursor.
type ReviewView struct {
	GameID      string
	Title       string
	Date        time.Time
	Result      string
	Source      string
	Cursor      int
	TotalPlies  int
	Orientation string
	FEN         string
	Status      string
	InCheck     bool
	// Opening is "ECO Title" for the moves up to the cursor, when known.
	Opening    string
	LastMove   *Move
	Moves      []MovePair
	BoardImage []byte
}

// AtStart reports whether the view shows the initial position.
func (v *ReviewView) AtStart() bool { return v == nil || v.Cursor < 0 }

// AtEnd reports whether the view shows the final position.
func (v *ReviewView) AtEnd() bool { return v == nil || v.Cursor == v.TotalPlies-1 }
