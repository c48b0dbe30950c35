package reviewdto

import "time"

// GameSummary is one row of the library listing.
type GameSummary struct {
	ID     string
	Title  string
	Date   time.Time
	Result string
	Source string
	URL    string
}

type ImportSummary struct {
	Imported   int
	Duplicates int
	Invalid    int
}
