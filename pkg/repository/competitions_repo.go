package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/turnaplay-teams/pkg/domain"
)

// CompetitionsRepository reads competition roster rules.
type CompetitionsRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewCompetitionsRepository creates a new competitions repository.
func NewCompetitionsRepository(db *sql.DB, dialect Dialect) *CompetitionsRepository {
	return &CompetitionsRepository{db: db, dialect: dialect}
}

// GetByID retrieves a competition by ID.
func (r *CompetitionsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Competition, error) {
	query := r.dialect.Rebind(`
		SELECT id, name, game_id, required_team_size, max_team_size, created_at
		FROM competitions
		WHERE id = ?
	`)

	var c domain.Competition
	var createdAt int64
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID,
		&c.Name,
		&c.GameID,
		&c.RequiredTeamSize,
		&c.MaxTeamSize,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCompetitionNotFound
		}
		return nil, err
	}
	c.CreatedAt = fromMillis(createdAt)
	return &c, nil
}

// RequiredTeamSize returns the minimum roster size for a valid team.
func (r *CompetitionsRepository) RequiredTeamSize(ctx context.Context, id uuid.UUID) (int, error) {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return c.RequiredTeamSize, nil
}

// MaxTeamSize returns the roster ceiling.
func (r *CompetitionsRepository) MaxTeamSize(ctx context.Context, id uuid.UUID) (int, error) {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return c.MaxTeamSize, nil
}

// GameID returns the game the competition is played in.
func (r *CompetitionsRepository) GameID(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	return c.GameID, nil
}
