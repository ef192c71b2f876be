package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/core/domain"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/core/port"
)

// RegistrationRepository writes the user and profile rows in one transaction.
type RegistrationRepository struct {
	pool     *pgxpool.Pool
	users    *UserRepository
	profiles *ProfileRepository
}

// NewRegistrationRepository wires the transactional registration writer.
func NewRegistrationRepository(pool *pgxpool.Pool, users *UserRepository, profiles *ProfileRepository) *RegistrationRepository {
	return &RegistrationRepository{
		pool:     pool,
		users:    users,
		profiles: profiles,
	}
}

// CreateUserWithProfile inserts both rows atomically. A failed profile insert
// rolls back the user row, so the identifier stays free for a retry.
func (r *RegistrationRepository) CreateUserWithProfile(ctx context.Context, user domain.User, profile domain.Profile) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin registration tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := r.users.WithTx(tx).Create(ctx, user); err != nil {
		return err
	}
	if err := r.profiles.WithTx(tx).Create(ctx, profile); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit registration tx: %w", err)
	}

	return nil
}

var _ port.RegistrationRepository = (*RegistrationRepository)(nil)
