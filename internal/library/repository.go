package library

import (
	"context"
	"errors"

	"github.com/park285/cheese-review/internal/domain"
)

var (
	ErrGameNotFound  = errors.New("game not found")
	ErrDuplicateGame = errors.New("game already imported")
)

// Filter narrows List. Zero values mean "any".
type Filter struct {
	Source domain.Platform
	Limit  int
}

// Repository stores game records per owner. Get returns (nil, nil) when
// the record does not exist or belongs to someone else.
type Repository interface {
	InsertGame(ctx context.Context, game *domain.GameRecord) error
	ListGames(ctx context.Context, owner string, f Filter) ([]*domain.GameRecord, error)
	GetGame(ctx context.Context, owner, id string) (*domain.GameRecord, error)
	DeleteGame(ctx context.Context, owner, id string) (bool, error)
}
