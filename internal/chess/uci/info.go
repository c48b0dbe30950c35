package uci

import (
	"sort"
	"strconv"
	"strings"
)

// MateScoreCP stands in for a forced mate when a single number is needed.
const MateScoreCP = 30000

// PV is the latest principal variation reported for one multipv slot.
// Scores are from the side to move; Mate counts moves to a forced mate
// (negative when the side to move is the one mated).
type PV struct {
	Move  string
	CP    int
	Mate  int
	Depth int
	Moves []string
}

// parseInfo reads an "info ... pv ..." line. Lines without a pv (currmove
// updates, strings, hashfull) are not reported.
func parseInfo(line string) (slot int, pv PV, ok bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "info" {
		return 0, PV{}, false
	}
	slot = 1
	intAt := func(i int) (int, bool) {
		if i >= len(fields) {
			return 0, false
		}
		n, err := strconv.Atoi(fields[i])
		return n, err == nil
	}

	for i := 1; i < len(fields); i++ {
		switch fields[i] {
		case "string":
			return 0, PV{}, false
		case "depth":
			if n, ok := intAt(i + 1); ok {
				pv.Depth = n
			}
			i++
		case "multipv":
			if n, ok := intAt(i + 1); ok {
				slot = n
			}
			i++
		case "score":
			kind := ""
			if i+1 < len(fields) {
				kind = fields[i+1]
			}
			if n, ok := intAt(i + 2); ok {
				switch kind {
				case "cp":
					pv.CP = n
				case "mate":
					pv.Mate = n
					pv.CP = MateScoreCP
					if n < 0 {
						pv.CP = -MateScoreCP
					}
				}
			}
			i += 2
		case "pv":
			if i+1 >= len(fields) {
				return 0, PV{}, false
			}
			pv.Moves = append([]string(nil), fields[i+1:]...)
			pv.Move = pv.Moves[0]
			return slot, pv, true
		}
	}
	return 0, PV{}, false
}

// parseBestMove reports whether line ends a search and which move it chose.
func parseBestMove(line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "bestmove" {
		return "", false
	}
	if len(fields) < 2 || fields[1] == "(none)" {
		return "", true
	}
	return fields[1], true
}

func sortPVs(bySlot map[int]PV) []PV {
	if len(bySlot) == 0 {
		return nil
	}
	slots := make([]int, 0, len(bySlot))
	for s := range bySlot {
		slots = append(slots, s)
	}
	sort.Ints(slots)
	out := make([]PV, 0, len(slots))
	for _, s := range slots {
		out = append(out, bySlot[s])
	}
	return out
}
