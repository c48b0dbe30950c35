// Package library stores imported games and validates them on the way in.
package library

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/park285/cheese-review/internal/chess"
	"github.com/park285/cheese-review/internal/domain"
	"github.com/park285/cheese-review/internal/replay"
	"go.uber.org/zap"
)

var (
	ErrOwnerRequired = errors.New("owner is required")
	ErrEmptyPGN      = errors.New("pgn is empty")
)

// ImportRequest carries a PGN plus metadata. Empty metadata fields are
// filled from the PGN tag pairs.
type ImportRequest struct {
	Owner       string
	Source      domain.Platform
	PGN         string
	Players     domain.Players
	WhiteRating int
	BlackRating int
	Date        time.Time
	Result      domain.Result
	TimeControl string
	URL         string
}

// ImportSummary counts the outcome of a batch import.
type ImportSummary struct {
	Imported   []*domain.GameRecord
	Duplicates int
	Invalid    int
}

type Service struct {
	repo   Repository
	rules  chess.RulesEngine
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

func NewService(repo Repository, rules chess.RulesEngine, logger *zap.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if rules == nil {
		return nil, fmt.Errorf("rules engine is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		rules:  rules,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}, nil
}

// Import validates the game by replaying it and stores it. A replay
// failure is returned unchanged so callers can match
// replay.ErrInvalidGameRecord.
func (s *Service) Import(ctx context.Context, req ImportRequest) (*domain.GameRecord, error) {
	owner := strings.TrimSpace(req.Owner)
	if owner == "" {
		return nil, ErrOwnerRequired
	}
	if strings.TrimSpace(req.PGN) == "" {
		return nil, ErrEmptyPGN
	}

	record := s.recordFrom(owner, req)
	if _, err := replay.Build(s.rules, record); err != nil {
		s.logger.Info("library_import_rejected",
			zap.String("owner", owner),
			zap.String("source", string(record.Source)),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.repo.InsertGame(ctx, record); err != nil {
		if errors.Is(err, ErrDuplicateGame) {
			return nil, err
		}
		return nil, fmt.Errorf("store game: %w", err)
	}
	s.logger.Info("library_imported",
		zap.String("owner", owner),
		zap.String("game_id", record.ID),
		zap.String("source", string(record.Source)),
	)
	return record, nil
}

// ImportAll imports every request, skipping duplicates and games that do
// not replay. Other errors abort the batch.
func (s *Service) ImportAll(ctx context.Context, reqs []ImportRequest) (ImportSummary, error) {
	var sum ImportSummary
	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		rec, err := s.Import(ctx, req)
		switch {
		case err == nil:
			sum.Imported = append(sum.Imported, rec)
		case errors.Is(err, ErrDuplicateGame):
			sum.Duplicates++
		case errors.Is(err, replay.ErrInvalidGameRecord), errors.Is(err, ErrEmptyPGN):
			sum.Invalid++
		default:
			return sum, err
		}
	}
	return sum, nil
}

func (s *Service) List(ctx context.Context, owner string, f Filter) ([]*domain.GameRecord, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, ErrOwnerRequired
	}
	return s.repo.ListGames(ctx, owner, f)
}

func (s *Service) Get(ctx context.Context, owner, id string) (*domain.GameRecord, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, ErrOwnerRequired
	}
	g, err := s.repo.GetGame(ctx, owner, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	return g, nil
}

func (s *Service) Delete(ctx context.Context, owner, id string) error {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return ErrOwnerRequired
	}
	ok, err := s.repo.DeleteGame(ctx, owner, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	s.logger.Info("library_deleted", zap.String("owner", owner), zap.String("game_id", id))
	return nil
}

func (s *Service) recordFrom(owner string, req ImportRequest) *domain.GameRecord {
	tags := ParseTags(req.PGN)
	rec := &domain.GameRecord{
		ID:          s.newID(),
		Owner:       owner,
		Source:      req.Source,
		Players:     req.Players,
		WhiteRating: req.WhiteRating,
		BlackRating: req.BlackRating,
		Date:        req.Date,
		Result:      req.Result,
		TimeControl: req.TimeControl,
		URL:         req.URL,
		PGN:         req.PGN,
		ImportedAt:  s.now().UTC(),
	}
	if rec.Source == "" {
		rec.Source = domain.PlatformManual
	}
	if rec.Players.White == "" {
		rec.Players.White = tags["White"]
	}
	if rec.Players.Black == "" {
		rec.Players.Black = tags["Black"]
	}
	if rec.WhiteRating == 0 {
		rec.WhiteRating = tags.Rating("WhiteElo")
	}
	if rec.BlackRating == 0 {
		rec.BlackRating = tags.Rating("BlackElo")
	}
	if rec.Date.IsZero() {
		rec.Date = tags.Date()
	}
	if rec.Result == "" {
		rec.Result = domain.ResultFromPGN(tags["Result"])
	}
	if rec.TimeControl == "" {
		rec.TimeControl = tags["TimeControl"]
	}
	if rec.URL == "" {
		if link := tags["Link"]; strings.HasPrefix(link, "http") {
			rec.URL = link
		} else if site := tags["Site"]; strings.HasPrefix(site, "http") {
			rec.URL = site
		}
	}
	return rec
}
