package reviewdto

type Move struct {
	Index int
	SAN   string
	UCI   string
	Check bool
}

// MovePair is one numbered row of the move list. Black is nil after a
// final White move.
type MovePair struct {
	Number int
	White  *Move
	Black  *Move
}
