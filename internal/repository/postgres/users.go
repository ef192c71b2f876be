package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/core/domain"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/core/port"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/repository"
)

const uniqueViolationCode = "23505"

var userColumns = []string{
	"id",
	"email",
	"phone",
	"password_hash",
	"role",
	"is_email_verified",
	"is_phone_verified",
	"is_active",
	"reset_password_token_hash",
	"reset_password_expires_at",
	"last_login_at",
	"created_at",
	"updated_at",
}

type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository implements port.UserRepository using PostgreSQL.
type UserRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewUserRepository wires a PostgreSQL-backed user repository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *UserRepository) WithTx(tx pgx.Tx) *UserRepository {
	if tx == nil {
		return r
	}
	return &UserRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a new user row. Concurrent duplicate registrations are
// rejected by the email/phone unique constraints and surface as ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	stmt, args, err := r.builder.Insert("users").
		Columns(
			"id",
			"email",
			"phone",
			"password_hash",
			"role",
			"is_email_verified",
			"is_phone_verified",
			"is_active",
			"created_at",
			"updated_at",
		).
		Values(
			user.ID,
			user.Email,
			user.Phone,
			user.PasswordHash,
			user.Role,
			user.IsEmailVerified,
			user.IsPhoneVerified,
			user.IsActive,
			user.CreatedAt,
			user.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByEmail retrieves a user by email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email})
}

// GetByIdentifier retrieves a user by email or phone, whichever matches.
func (r *UserRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Or{
		squirrel.Eq{"email": identifier},
		squirrel.Eq{"phone": identifier},
	})
}

// GetByResetTokenHash retrieves the user holding a pending reset token hash.
func (r *UserRepository) GetByResetTokenHash(ctx context.Context, tokenHash string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"reset_password_token_hash": tokenHash})
}

// UpdateLastLogin stamps the most recent successful login.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	stmt, args, err := r.builder.Update("users").
		Set("last_login_at", at).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update last login sql: %w", err)
	}

	return r.execExpectingRow(ctx, stmt, args, "update last login")
}

// SetVerified flips the verification flag for the supplied channel.
func (r *UserRepository) SetVerified(ctx context.Context, id string, channel domain.OTPPurpose, at time.Time) error {
	column := "is_email_verified"
	if channel == domain.OTPPurposePhone {
		column = "is_phone_verified"
	}

	stmt, args, err := r.builder.Update("users").
		Set(column, true).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set verified sql: %w", err)
	}

	return r.execExpectingRow(ctx, stmt, args, "set verified")
}

// SetResetToken stores the reset token hash and its expiry; both fields are
// written together so a hash never exists without a commensurate expiry.
func (r *UserRepository) SetResetToken(ctx context.Context, id string, tokenHash string, expiresAt time.Time) error {
	stmt, args, err := r.builder.Update("users").
		Set("reset_password_token_hash", tokenHash).
		Set("reset_password_expires_at", expiresAt).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set reset token sql: %w", err)
	}

	return r.execExpectingRow(ctx, stmt, args, "set reset token")
}

// UpdatePasswordAndClearReset writes the new password hash and clears both
// reset fields in a single statement, making the reset token single-use.
func (r *UserRepository) UpdatePasswordAndClearReset(ctx context.Context, id string, passwordHash string, changedAt time.Time) error {
	stmt, args, err := r.builder.Update("users").
		Set("password_hash", passwordHash).
		Set("reset_password_token_hash", nil).
		Set("reset_password_expires_at", nil).
		Set("updated_at", changedAt).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update password sql: %w", err)
	}

	return r.execExpectingRow(ctx, stmt, args, "update password")
}

func (r *UserRepository) getOne(ctx context.Context, pred any) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From("users").
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)
	return scanUser(row)
}

func (r *UserRepository) execExpectingRow(ctx context.Context, stmt string, args []any, op string) error {
	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user        domain.User
		resetHash   sql.NullString
		resetExpiry *time.Time
		lastLogin   *time.Time
	)

	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Phone,
		&user.PasswordHash,
		&user.Role,
		&user.IsEmailVerified,
		&user.IsPhoneVerified,
		&user.IsActive,
		&resetHash,
		&resetExpiry,
		&lastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	if resetHash.Valid {
		val := resetHash.String
		user.ResetPasswordTokenHash = &val
	}
	user.ResetPasswordExpiresAt = resetExpiry
	user.LastLoginAt = lastLogin

	return &user, nil
}

var _ port.UserRepository = (*UserRepository)(nil)
