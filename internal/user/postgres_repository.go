package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// checkViolation is the PostgreSQL error code for a failed CHECK constraint.
const checkViolation = "23514"

const userColumns = `id, external_id, email, display_name, role, subscription_status, tier,
		       requests_used_this_period, requests_limit, created_at, last_active_at`

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// FindByExternalID retrieves a single user by its identity-provider subject id.
func (r *PostgresRepository) FindByExternalID(ctx context.Context, externalID string) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE external_id = $1`

	u, err := scanUser(r.pool.QueryRow(ctx, query, externalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}

	return u, nil
}

// UpsertByExternalID inserts a user or refreshes the profile fields of the
// existing row in a single statement. The unique index on external_id turns a
// concurrent second insert into an update. The returned bool is true when the
// row was created by this call.
func (r *PostgresRepository) UpsertByExternalID(ctx context.Context, externalID string, f UpsertFields) (*User, bool, error) {
	query := `
		INSERT INTO users (external_id, email, display_name, role, subscription_status, tier,
		                   requests_used_this_period, requests_limit, created_at, last_active_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8, $8)
		ON CONFLICT (external_id) DO UPDATE
		SET email          = EXCLUDED.email,
		    display_name   = EXCLUDED.display_name,
		    last_active_at = GREATEST(users.last_active_at, EXCLUDED.last_active_at)
		RETURNING ` + userColumns + `, (xmax = 0) AS created`

	var created bool
	row := r.pool.QueryRow(ctx, query,
		externalID,
		f.Email,
		f.DisplayName,
		string(RoleUser),
		string(SubscriptionTrial),
		string(TierFree),
		f.RequestsLimit,
		f.Now,
	)

	u, err := scanUser(row, &created)
	if err != nil {
		return nil, false, fmt.Errorf("upserting user: %w", err)
	}

	return u, created, nil
}

// List retrieves all users ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context) ([]User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}

	if users == nil {
		users = []User{}
	}

	return users, nil
}

// UpdateRole sets the role of the user with the given internal id.
func (r *PostgresRepository) UpdateRole(ctx context.Context, id uuid.UUID, role Role) (*User, error) {
	query := `
		UPDATE users
		SET role = $2
		WHERE id = $1
		RETURNING ` + userColumns

	u, err := scanUser(r.pool.QueryRow(ctx, query, id, string(role)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == checkViolation {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
		}
		return nil, fmt.Errorf("updating user role: %w", err)
	}

	return u, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, extra ...any) (*User, error) {
	var (
		u                  User
		role, status, tier string
	)

	dest := []any{
		&u.ID, &u.ExternalID, &u.Email, &u.DisplayName,
		&role, &status, &tier,
		&u.RequestsUsedThisPeriod, &u.RequestsLimit,
		&u.CreatedAt, &u.LastActiveAt,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	u.Role = Role(role)
	u.SubscriptionStatus = SubscriptionStatus(status)
	u.Tier = Tier(tier)

	return &u, nil
}
