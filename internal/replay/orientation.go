package replay

// Orientation is which side is drawn at the bottom of the board.
type Orientation int

const (
	WhiteAtBottom Orientation = iota
	BlackAtBottom
)

func (o Orientation) Flip() Orientation {
	if o == BlackAtBottom {
		return WhiteAtBottom
	}
	return BlackAtBottom
}

func (o Orientation) String() string {
	if o == BlackAtBottom {
		return "black-at-bottom"
	}
	return "white-at-bottom"
}
