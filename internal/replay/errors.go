package replay

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidGameRecord = errors.New("invalid game record")
	ErrOutOfRangeIndex   = errors.New("ply index out of range")
	ErrStaleLoad         = errors.New("load superseded by a newer load")
	ErrMalformedMoveText = errors.New("malformed move-text")
	ErrNoRules           = errors.New("rules engine is required")
)

// InvalidGameRecordError reports the ply that could not be replayed.
// Err is the rules engine's rejection (or ErrMalformedMoveText).
type InvalidGameRecordError struct {
	GameID   string
	PlyIndex int
	MoveText string
	Err      error
}

func (e *InvalidGameRecordError) Error() string {
	msg := fmt.Sprintf("invalid game record: ply %d (%q)", e.PlyIndex, e.MoveText)
	if e.GameID != "" {
		msg = fmt.Sprintf("invalid game record %s: ply %d (%q)", e.GameID, e.PlyIndex, e.MoveText)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidGameRecordError) Unwrap() error { return e.Err }

func (e *InvalidGameRecordError) Is(target error) bool { return target == ErrInvalidGameRecord }

// OutOfRangeIndexError is returned by JumpTo for an index outside [-1, len-1].
type OutOfRangeIndexError struct {
	Index int
	Len   int
}

func (e *OutOfRangeIndexError) Error() string {
	return fmt.Sprintf("ply index %d out of range [-1, %d]", e.Index, e.Len-1)
}

func (e *OutOfRangeIndexError) Is(target error) bool { return target == ErrOutOfRangeIndex }
