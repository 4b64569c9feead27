package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voyagehq/gatekeeper/internal/database"
	"github.com/voyagehq/gatekeeper/internal/models"
)

// SecurityEventRepository handles durable security event storage
type SecurityEventRepository struct {
	pool *pgxpool.Pool
}

// NewSecurityEventRepository creates a new SecurityEventRepository
func NewSecurityEventRepository(db *database.DB) *SecurityEventRepository {
	return &SecurityEventRepository{pool: db.Pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanSecurityEventRow populates a SecurityEvent model from a database row
func scanSecurityEventRow(row rowScanner) (*models.SecurityEvent, error) {
	var event models.SecurityEvent
	var details []byte

	err := row.Scan(
		&event.ID, &event.Type, &event.Severity, &event.Source,
		&event.Identity, &event.UserAgent, &event.Timestamp,
		&details, &event.Resolved,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if len(details) > 0 {
		if err := json.Unmarshal(details, &event.Details); err != nil {
			return nil, fmt.Errorf("failed to decode event details: %w", err)
		}
	}

	return &event, nil
}

func scanSecurityEventRows(rows pgx.Rows) ([]*models.SecurityEvent, error) {
	defer rows.Close()

	events := make([]*models.SecurityEvent, 0)

	for rows.Next() {
		event, err := scanSecurityEventRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan security event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating security event rows: %w", err)
	}

	return events, nil
}

// Create persists a security event
func (r *SecurityEventRepository) Create(ctx context.Context, event *models.SecurityEvent) error {
	details, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("failed to encode event details: %w", err)
	}

	query := `
		INSERT INTO security_events (
			id, event_type, severity, source, identity, user_agent,
			occurred_at, details, resolved
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.pool.Exec(
		ctx, query,
		event.ID, event.Type, event.Severity, event.Source,
		event.Identity, event.UserAgent, event.Timestamp, details, event.Resolved,
	)
	if err != nil {
		return fmt.Errorf("failed to create security event: %w", database.MapPostgresError(err))
	}

	return nil
}

// GetByID retrieves a single event
func (r *SecurityEventRepository) GetByID(ctx context.Context, id string) (*models.SecurityEvent, error) {
	query := `
		SELECT id, event_type, severity, source, identity, user_agent,
		       occurred_at, details, resolved
		FROM security_events
		WHERE id = $1
	`

	return scanSecurityEventRow(r.pool.QueryRow(ctx, query, id))
}

// GetSince retrieves events recorded at or after the given time, oldest first
func (r *SecurityEventRepository) GetSince(ctx context.Context, since time.Time, limit int) ([]*models.SecurityEvent, error) {
	query := `
		SELECT id, event_type, severity, source, identity, user_agent,
		       occurred_at, details, resolved
		FROM security_events
		WHERE occurred_at >= $1
		ORDER BY occurred_at ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query security events: %w", err)
	}

	return scanSecurityEventRows(rows)
}

// GetByIdentity retrieves events attributed to a single identity, newest first
func (r *SecurityEventRepository) GetByIdentity(ctx context.Context, identity string, limit int) ([]*models.SecurityEvent, error) {
	query := `
		SELECT id, event_type, severity, source, identity, user_agent,
		       occurred_at, details, resolved
		FROM security_events
		WHERE identity = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, identity, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query security events: %w", err)
	}

	return scanSecurityEventRows(rows)
}

// Cleanup removes archived events older than the specified number of days
func (r *SecurityEventRepository) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	query := `
		DELETE FROM security_events
		WHERE occurred_at < CURRENT_TIMESTAMP - INTERVAL '1 day' * $1
	`

	result, err := r.pool.Exec(ctx, query, olderThanDays)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup security events: %w", err)
	}

	return result.RowsAffected(), nil
}

// Count reports the number of archived events
func (r *SecurityEventRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM security_events`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count security events: %w", err)
	}
	return count, nil
}
