package replay

// MovePair is one numbered row of the move list. Black is nil when the
// game ends after White's move.
type MovePair struct {
	Number int
	White  *Ply
	Black  *Ply
}

// Pairs groups plies into numbered rows by index/2.
func Pairs(plies []Ply) []MovePair {
	pairs := make([]MovePair, 0, (len(plies)+1)/2)
	for i := range plies {
		row := i / 2
		if i%2 == 0 {
			pairs = append(pairs, MovePair{Number: row + 1, White: &plies[i]})
			continue
		}
		pairs[row].Black = &plies[i]
	}
	return pairs
}
