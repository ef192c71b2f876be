package postgres

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Users         *UserRepository
	Profiles      *ProfileRepository
	Registrations *RegistrationRepository
}

// NewRepositories wires all repositories backed by the provided pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	users := NewUserRepository(pool)
	profiles := NewProfileRepository(pool)
	return &Repositories{
		Users:         users,
		Profiles:      profiles,
		Registrations: NewRegistrationRepository(pool, users, profiles),
	}
}
