package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/business-hub/hub/internal/data/pgxutil"
	domainauth "github.com/business-hub/hub/internal/domain/auth"
	apperrors "github.com/business-hub/hub/internal/errors"
)

// LoginEventRepo persists the credential-exchange audit trail.
type LoginEventRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewLoginEventRepo creates a new LoginEventRepo instance with the given database connection.
func NewLoginEventRepo(db *sql.DB) *LoginEventRepo {
	return &LoginEventRepo{
		DB:           db,
		timeProvider: &RealTimeProvider{},
	}
}

// NewLoginEventRepoWithTimeProvider creates a LoginEventRepo with a custom
// TimeProvider (useful for testing).
func NewLoginEventRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *LoginEventRepo {
	return &LoginEventRepo{DB: db, timeProvider: tp}
}

// Record appends one login outcome. A zero CreatedAt is filled from the repo clock.
func (r *LoginEventRepo) Record(ctx context.Context, ev domainauth.LoginEvent) error {
	createdAt := ev.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.timeProvider.Now()
	}

	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx, `
			INSERT INTO login_events (identifier, outcome, remote_addr, created_at)
			VALUES ($1, $2, $3, $4)
		`, ev.Identifier, ev.Outcome, ev.RemoteAddr, createdAt)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("record login event: %w", apperrors.MapDBError(err))
	}
	return nil
}

// ListByIdentifier returns the most recent login events for one identifier,
// newest first.
func (r *LoginEventRepo) ListByIdentifier(
	ctx context.Context,
	identifier string,
	limit int,
) ([]domainauth.LoginEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	var events []domainauth.LoginEvent
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, `
			SELECT id, identifier, outcome, remote_addr, created_at
			FROM login_events
			WHERE identifier = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		`, identifier, limit)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		var collectErr error
		events, collectErr = pgx.CollectRows(rows, pgx.RowToStructByName[domainauth.LoginEvent])
		return collectErr
	})
	if err != nil {
		return nil, fmt.Errorf("list login events: %w", apperrors.MapDBError(err))
	}
	return events, nil
}
