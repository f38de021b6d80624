package payout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"ascend/internal/payout/models"
	"ascend/internal/platform/postgres"
	"ascend/pkg/domain"
	"ascend/pkg/platform/sentinel"
	txcontext "ascend/pkg/platform/tx"
)

const requestColumns = `
	id, payee_id, amount, currency, line_ids::text[], status, external_reference,
	failure_reason, paid_amount, requested_at, updated_at, completed_at`

// PostgresStore persists payout requests.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) q(ctx context.Context) txcontext.Querier {
	return txcontext.QuerierFrom(ctx, s.db)
}

func (s *PostgresStore) Create(ctx context.Context, r *models.Request) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO payout_requests (
			id, payee_id, amount, currency, line_ids, status, requested_at, updated_at
		) VALUES ($1, $2, $3, $4, $5::uuid[], $6, $7, $8)
	`, uuid.UUID(r.ID), uuid.UUID(r.PayeeID), r.Amount, r.Currency.String(),
		pq.Array(lineStrings(r.LineIDs)), string(r.Status), r.RequestedAt, r.UpdatedAt)
	switch {
	case err == nil:
		return nil
	case postgres.IsUniqueViolation(err, ""):
		return sentinel.ErrConflict
	case postgres.IsForeignKeyViolation(err):
		return sentinel.ErrNotFound
	default:
		return fmt.Errorf("insert payout request: %w", err)
	}
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.PayoutRequestID) (*models.Request, error) {
	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+requestColumns+` FROM payout_requests WHERE id = $1`, uuid.UUID(id))
	r, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return r, err
}

func (s *PostgresStore) ListByPayee(ctx context.Context, payee domain.ParticipantID) ([]*models.Request, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT `+requestColumns+` FROM payout_requests
		WHERE payee_id = $1
		ORDER BY requested_at DESC
	`, uuid.UUID(payee))
	if err != nil {
		return nil, fmt.Errorf("list payout requests: %w", err)
	}
	defer rows.Close()

	var out []*models.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Update writes the mutable columns guarded by the expected current status.
func (s *PostgresStore) Update(ctx context.Context, r *models.Request, from models.Status) error {
	var paid decimal.NullDecimal
	if r.PaidAmount != nil {
		paid = decimal.NullDecimal{Decimal: *r.PaidAmount, Valid: true}
	}
	var completed sql.NullTime
	if r.CompletedAt != nil {
		completed = sql.NullTime{Time: *r.CompletedAt, Valid: true}
	}
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE payout_requests SET
			status = $3,
			external_reference = $4,
			failure_reason = $5,
			paid_amount = $6,
			updated_at = $7,
			completed_at = $8
		WHERE id = $1 AND status = $2
	`, uuid.UUID(r.ID), string(from), string(r.Status), r.ExternalReference, r.FailureReason,
		paid, r.UpdatedAt, completed)
	if err != nil {
		return fmt.Errorf("update payout request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	var exists bool
	if err := s.q(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM payout_requests WHERE id = $1)`, uuid.UUID(r.ID),
	).Scan(&exists); err != nil {
		return fmt.Errorf("check payout request: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (*models.Request, error) {
	var (
		r         models.Request
		id, payee uuid.UUID
		currency  string
		status    string
		lineIDs   []string
		paid      decimal.NullDecimal
		completed sql.NullTime
	)
	err := row.Scan(&id, &payee, &r.Amount, &currency, pq.Array(&lineIDs), &status,
		&r.ExternalReference, &r.FailureReason, &paid, &r.RequestedAt, &r.UpdatedAt, &completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan payout request: %w", err)
	}
	r.ID = domain.PayoutRequestID(id)
	r.PayeeID = domain.ParticipantID(payee)
	r.Currency = domain.Currency(currency)
	r.Status = models.Status(status)
	r.LineIDs = make([]domain.LineID, 0, len(lineIDs))
	for _, raw := range lineIDs {
		lineID, err := domain.ParseLineID(raw)
		if err != nil {
			return nil, fmt.Errorf("scan payout line id: %w", err)
		}
		r.LineIDs = append(r.LineIDs, lineID)
	}
	if paid.Valid {
		amount := paid.Decimal
		r.PaidAmount = &amount
	}
	if completed.Valid {
		at := completed.Time
		r.CompletedAt = &at
	}
	return &r, nil
}

func lineStrings(ids []domain.LineID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
