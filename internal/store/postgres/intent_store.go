package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/polymirror/internal/domain"
)

// IntentStore implements domain.TradeIntentStore using PostgreSQL.
type IntentStore struct {
	pool *pgxpool.Pool
}

// NewIntentStore creates an IntentStore backed by the given connection pool.
func NewIntentStore(pool *pgxpool.Pool) *IntentStore {
	return &IntentStore{pool: pool}
}

const intentSelectCols = `trade_id, market, asset_id, side, price, size,
	timestamp, status, retry_count, created_at`

// Save inserts a new trade intent record and returns it with the
// database-assigned creation time. Uniqueness of TradeID is not checked here.
func (s *IntentStore) Save(ctx context.Context, intent domain.TradeIntent) (domain.TradeIntent, error) {
	if intent.Status == "" {
		intent.Status = domain.TradeStatusPending
	}

	const query = `
		INSERT INTO trade_intents (
			trade_id, market, asset_id, side, price, size,
			timestamp, status, retry_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	err := s.pool.QueryRow(ctx, query,
		intent.TradeID, intent.Market, intent.AssetID, string(intent.Side),
		intent.Price, intent.Size, intent.Timestamp,
		string(intent.Status), intent.RetryCount,
	).Scan(&intent.CreatedAt)
	if err != nil {
		return domain.TradeIntent{}, fmt.Errorf("postgres: save intent %s: %w", intent.TradeID, err)
	}

	return intent, nil
}

// UpdateStatus updates the status (and optionally the retry count) of all
// records with the given trade ID. An unknown trade ID is a no-op, not an
// error.
func (s *IntentStore) UpdateStatus(ctx context.Context, tradeID string, status domain.TradeStatus, retryCount *int) error {
	const query = `
		UPDATE trade_intents
		SET status = $2, retry_count = COALESCE($3, retry_count)
		WHERE trade_id = $1`

	if _, err := s.pool.Exec(ctx, query, tradeID, string(status), retryCount); err != nil {
		return fmt.Errorf("postgres: update intent %s: %w", tradeID, err)
	}
	return nil
}

// ListPending returns all intents whose status is still pending, oldest first.
func (s *IntentStore) ListPending(ctx context.Context) ([]domain.TradeIntent, error) {
	query := `SELECT ` + intentSelectCols + `
		FROM trade_intents WHERE status = 'pending' ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list pending intents: %w", err)
	}
	defer rows.Close()

	intents, err := scanIntentRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan pending intents: %w", err)
	}
	return intents, nil
}

func scanIntentRows(rows pgx.Rows) ([]domain.TradeIntent, error) {
	var intents []domain.TradeIntent
	for rows.Next() {
		var in domain.TradeIntent
		var side, status string
		if err := rows.Scan(
			&in.TradeID, &in.Market, &in.AssetID, &side,
			&in.Price, &in.Size, &in.Timestamp,
			&status, &in.RetryCount, &in.CreatedAt,
		); err != nil {
			return nil, err
		}
		in.Side = domain.OrderSide(side)
		in.Status = domain.TradeStatus(status)
		intents = append(intents, in)
	}
	return intents, rows.Err()
}

// Compile-time interface check.
var _ domain.TradeIntentStore = (*IntentStore)(nil)
