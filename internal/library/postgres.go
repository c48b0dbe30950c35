package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/park285/cheese-review/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS review_games (
	id           TEXT PRIMARY KEY,
	owner        TEXT NOT NULL,
	source       TEXT NOT NULL,
	white        TEXT NOT NULL DEFAULT '',
	black        TEXT NOT NULL DEFAULT '',
	white_rating INTEGER NOT NULL DEFAULT 0,
	black_rating INTEGER NOT NULL DEFAULT 0,
	played_on    TIMESTAMPTZ,
	result       TEXT NOT NULL,
	time_control TEXT NOT NULL DEFAULT '',
	url          TEXT NOT NULL DEFAULT '',
	pgn          TEXT NOT NULL,
	imported_at  TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS review_games_owner_url ON review_games (owner, url) WHERE url <> '';
CREATE INDEX IF NOT EXISTS review_games_owner_played ON review_games (owner, played_on DESC);
`

const selectColumns = `
	id, owner, source, white, black, white_rating, black_rating,
	played_on, result, time_control, url, pgn, imported_at`

type pgrepo struct {
	db *sql.DB
}

// OpenPostgres opens and pings a lib/pq connection pool.
func OpenPostgres(ctx context.Context, databaseURL string) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewPostgresRepository creates the table on first use.
func NewPostgresRepository(ctx context.Context, db *sql.DB) (Repository, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &pgrepo{db: db}, nil
}

func (r *pgrepo) InsertGame(ctx context.Context, game *domain.GameRecord) error {
	if game == nil {
		return fmt.Errorf("nil game record payload")
	}
	const query = `
		INSERT INTO review_games (
			id, owner, source, white, black, white_rating, black_rating,
			played_on, result, time_control, url, pgn, imported_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT DO NOTHING
		RETURNING id`

	var id sql.NullString
	err := r.db.QueryRowContext(
		ctx,
		query,
		game.ID,
		game.Owner,
		string(game.Source),
		game.Players.White,
		game.Players.Black,
		game.WhiteRating,
		game.BlackRating,
		nullTime(game.Date),
		string(game.Result),
		game.TimeControl,
		game.URL,
		game.PGN,
		game.ImportedAt,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !id.Valid) {
		return ErrDuplicateGame
	}
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

func (r *pgrepo) ListGames(ctx context.Context, owner string, f Filter) ([]*domain.GameRecord, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT` + selectColumns + `
		FROM review_games
		WHERE owner = $1 AND ($2 = '' OR source = $2)
		ORDER BY played_on DESC NULLS LAST, imported_at DESC
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, owner, string(f.Source), limit)
	if err != nil {
		return nil, fmt.Errorf("select games: %w", err)
	}
	defer rows.Close()

	games := make([]*domain.GameRecord, 0, limit)
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return games, nil
}

func (r *pgrepo) GetGame(ctx context.Context, owner, id string) (*domain.GameRecord, error) {
	query := `SELECT` + selectColumns + `
		FROM review_games
		WHERE id = $1 AND owner = $2`
	g, err := scanGame(r.db.QueryRowContext(ctx, query, id, owner))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (r *pgrepo) DeleteGame(ctx context.Context, owner, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM review_games WHERE id = $1 AND owner = $2`, id, owner)
	if err != nil {
		return false, fmt.Errorf("delete game: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete game: %w", err)
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*domain.GameRecord, error) {
	var (
		g        domain.GameRecord
		source   string
		result   string
		playedOn sql.NullTime
	)
	err := row.Scan(
		&g.ID,
		&g.Owner,
		&source,
		&g.Players.White,
		&g.Players.Black,
		&g.WhiteRating,
		&g.BlackRating,
		&playedOn,
		&result,
		&g.TimeControl,
		&g.URL,
		&g.PGN,
		&g.ImportedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan game: %w", err)
	}
	g.Source = domain.Platform(source)
	g.Result = domain.Result(result)
	if playedOn.Valid {
		g.Date = playedOn.Time
	}
	return &g, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
