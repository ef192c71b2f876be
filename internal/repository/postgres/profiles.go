package postgres

import (
	"context"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/core/domain"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/core/port"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/repository"
)

// ProfileRepository implements port.ProfileRepository using PostgreSQL.
type ProfileRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewProfileRepository wires a PostgreSQL-backed profile repository.
func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *ProfileRepository) WithTx(tx pgx.Tx) *ProfileRepository {
	if tx == nil {
		return r
	}
	return &ProfileRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts the profile row associated with a newly registered user.
func (r *ProfileRepository) Create(ctx context.Context, profile domain.Profile) error {
	stmt, args, err := r.builder.Insert("profiles").
		Columns("id", "user_id", "profile_type", "display_name", "created_at").
		Values(profile.ID, profile.UserID, profile.ProfileType, profile.DisplayName, profile.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert profile sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}

	return nil
}

// GetByUserID retrieves the profile for the supplied user.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	stmt, args, err := r.builder.
		Select("id", "user_id", "profile_type", "display_name", "created_at").
		From("profiles").
		Where(squirrel.Eq{"user_id": userID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select profile sql: %w", err)
	}

	var profile domain.Profile
	row := r.exec.QueryRow(ctx, stmt, args...)
	if err := row.Scan(&profile.ID, &profile.UserID, &profile.ProfileType, &profile.DisplayName, &profile.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}

	return &profile, nil
}

var _ port.ProfileRepository = (*ProfileRepository)(nil)
