package sale

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ascend/internal/commission/models"
	"ascend/internal/platform/postgres"
	"ascend/pkg/domain"
	"ascend/pkg/platform/sentinel"
	txcontext "ascend/pkg/platform/tx"
)

const saleColumns = `id, seller_id, amount, currency, metadata, status, void_reason, recorded_at, voided_at, computed_at`

// PostgresStore persists sales.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) q(ctx context.Context) txcontext.Querier {
	return txcontext.QuerierFrom(ctx, s.db)
}

func (s *PostgresStore) Create(ctx context.Context, sale *models.Sale) error {
	metadata, err := json.Marshal(sale.Metadata)
	if err != nil {
		return fmt.Errorf("encode sale metadata: %w", err)
	}
	if sale.Metadata == nil {
		metadata = []byte(`{}`)
	}
	_, err = s.q(ctx).ExecContext(ctx, `
		INSERT INTO sales (id, seller_id, amount, currency, metadata, status, void_reason, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.UUID(sale.ID), uuid.UUID(sale.SellerID), sale.Amount, sale.Currency.String(),
		metadata, string(sale.Status), sale.VoidReason, sale.RecordedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err, "") {
			return sentinel.ErrConflict
		}
		if postgres.IsForeignKeyViolation(err) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.SaleID) (*models.Sale, error) {
	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, uuid.UUID(id))
	return scanSale(row)
}

// MarkVoided flips a recorded sale to voided in a single conditional update.
func (s *PostgresStore) MarkVoided(ctx context.Context, id domain.SaleID, reason string, at time.Time) (*models.Sale, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		UPDATE sales SET status = $2, void_reason = $3, voided_at = $4
		WHERE id = $1 AND status = $5
		RETURNING `+saleColumns,
		uuid.UUID(id), string(models.SaleVoided), reason, at, string(models.SaleRecorded))
	sale, err := scanSale(row)
	if errors.Is(err, sentinel.ErrNotFound) {
		if _, findErr := s.FindByID(ctx, id); findErr != nil {
			return nil, findErr
		}
		return nil, sentinel.ErrInvalidState
	}
	return sale, err
}

// MarkComputed stamps computed_at once; a sale already stamped keeps its
// original time.
func (s *PostgresStore) MarkComputed(ctx context.Context, id domain.SaleID, at time.Time) error {
	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE sales SET computed_at = COALESCE(computed_at, $2) WHERE id = $1`, uuid.UUID(id), at)
	if err != nil {
		return fmt.Errorf("mark sale computed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark sale computed: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListBySeller(ctx context.Context, seller domain.ParticipantID) ([]*models.Sale, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE seller_id = $1 ORDER BY recorded_at`, uuid.UUID(seller))
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var out []*models.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sale)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSale(row scanner) (*models.Sale, error) {
	var (
		sale       models.Sale
		id         uuid.UUID
		seller     uuid.UUID
		currency   string
		status     string
		metadata   []byte
		voidedAt   sql.NullTime
		computedAt sql.NullTime
	)
	err := row.Scan(&id, &seller, &sale.Amount, &currency, &metadata, &status,
		&sale.VoidReason, &sale.RecordedAt, &voidedAt, &computedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan sale: %w", err)
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &sale.Metadata); err != nil {
			return nil, fmt.Errorf("decode sale metadata: %w", err)
		}
		if len(sale.Metadata) == 0 {
			sale.Metadata = nil
		}
	}
	sale.ID = domain.SaleID(id)
	sale.SellerID = domain.ParticipantID(seller)
	sale.Currency = domain.Currency(currency)
	sale.Status = models.SaleStatus(status)
	if voidedAt.Valid {
		sale.VoidedAt = &voidedAt.Time
	}
	if computedAt.Valid {
		sale.ComputedAt = &computedAt.Time
	}
	return &sale, nil
}
