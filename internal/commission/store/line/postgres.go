package line

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"ascend/internal/commission/models"
	"ascend/internal/platform/postgres"
	"ascend/pkg/domain"
	"ascend/pkg/platform/sentinel"
	txcontext "ascend/pkg/platform/tx"
)

const naturalKeyConstraint = "commission_lines_natural_key"

const lineColumns = `
	id, sale_id, payee_id, level, amount, currency, rate_applied, base_rate,
	tier_multiplier, plan_id, plan_version, status, payout_request_id,
	needs_reconciliation, created_at, paid_at, revision`

// PostgresStore is the durable ledger. Every write sets revision from
// ledger_revision_seq so cached aggregates can be keyed by it.
type PostgresStore struct {
	db     *sql.DB
	runner *txcontext.SQLRunner
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, runner: txcontext.NewSQLRunner(db, 0)}
}

func (s *PostgresStore) q(ctx context.Context) txcontext.Querier {
	return txcontext.QuerierFrom(ctx, s.db)
}

// InsertBatch writes all lines in one transaction. A natural key clash rolls
// the batch back with ErrDuplicateLine.
func (s *PostgresStore) InsertBatch(ctx context.Context, lines []*models.Line) error {
	return s.runner.RunInTx(ctx, func(ctx context.Context) error {
		for _, l := range lines {
			err := s.q(ctx).QueryRowContext(ctx, `
				INSERT INTO commission_lines (
					id, sale_id, payee_id, level, amount, currency, rate_applied, base_rate,
					tier_multiplier, plan_id, plan_version, status, created_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
				RETURNING revision
			`, uuid.UUID(l.ID), uuid.UUID(l.SaleID), uuid.UUID(l.PayeeID), l.Level, l.Amount,
				l.Currency.String(), l.RateApplied, l.BaseRate, l.TierMultiplier,
				uuid.UUID(l.PlanID), l.PlanVersion, string(l.Status), l.CreatedAt,
			).Scan(&l.Revision)
			switch {
			case err == nil:
			case postgres.IsUniqueViolation(err, naturalKeyConstraint):
				return ErrDuplicateLine
			case postgres.IsForeignKeyViolation(err):
				return sentinel.ErrNotFound
			default:
				return fmt.Errorf("insert commission line: %w", err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.LineID) (*models.Line, error) {
	lines, err := s.query(ctx, `SELECT `+lineColumns+` FROM commission_lines WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return lines[0], nil
}

func (s *PostgresStore) ListBySale(ctx context.Context, saleID domain.SaleID) ([]*models.Line, error) {
	return s.query(ctx, `SELECT `+lineColumns+` FROM commission_lines WHERE sale_id = $1 ORDER BY level`, uuid.UUID(saleID))
}

func (s *PostgresStore) ListByPayee(ctx context.Context, payee domain.ParticipantID, filter models.LineFilter) ([]*models.Line, error) {
	where, args := filterClause(payee, filter)
	query := `SELECT ` + lineColumns + ` FROM commission_lines WHERE ` + where + ` ORDER BY created_at DESC, level`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return s.query(ctx, query, args...)
}

func (s *PostgresStore) ListByPayout(ctx context.Context, requestID domain.PayoutRequestID) ([]*models.Line, error) {
	return s.query(ctx, `SELECT `+lineColumns+` FROM commission_lines WHERE payout_request_id = $1 ORDER BY created_at`,
		uuid.UUID(requestID))
}

func (s *PostgresStore) ListPayable(ctx context.Context, payee domain.ParticipantID, currency domain.Currency) ([]*models.Line, error) {
	return s.query(ctx, `
		SELECT `+lineColumns+` FROM commission_lines
		WHERE payee_id = $1 AND currency = $2 AND status = $3 AND payout_request_id IS NULL
		ORDER BY created_at
	`, uuid.UUID(payee), currency.String(), string(models.LineApproved))
}

// UpdateStatus applies a guarded transition in one statement.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id domain.LineID, from, to models.LineStatus, at time.Time) (*models.Line, error) {
	probe := &models.Line{Status: from}
	if !probe.CanTransition(to) {
		return nil, sentinel.ErrInvalidState
	}
	var paidAt sql.NullTime
	if to == models.LinePaid {
		paidAt = sql.NullTime{Time: at, Valid: true}
	}
	lines, err := s.query(ctx, `
		UPDATE commission_lines SET
			status = $3,
			paid_at = COALESCE($4, paid_at),
			payout_request_id = CASE WHEN $3 = 'cancelled' THEN NULL ELSE payout_request_id END,
			revision = nextval('ledger_revision_seq')
		WHERE id = $1 AND status = $2
		RETURNING `+lineColumns,
		uuid.UUID(id), string(from), string(to), paidAt)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, s.missOrState(ctx, id)
	}
	return lines[0], nil
}

func (s *PostgresStore) FlagReconciliation(ctx context.Context, id domain.LineID) (*models.Line, error) {
	lines, err := s.query(ctx, `
		UPDATE commission_lines SET needs_reconciliation = TRUE, revision = nextval('ledger_revision_seq')
		WHERE id = $1
		RETURNING `+lineColumns, uuid.UUID(id))
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return lines[0], nil
}

// Reserve claims the lines for requestID. The update only matches approved,
// unreserved lines, so a short count means another request got there first.
func (s *PostgresStore) Reserve(ctx context.Context, ids []domain.LineID, requestID domain.PayoutRequestID) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	return s.runner.RunInTx(ctx, func(ctx context.Context) error {
		res, err := s.q(ctx).ExecContext(ctx, `
			UPDATE commission_lines SET payout_request_id = $2, revision = nextval('ledger_revision_seq')
			WHERE id = ANY($1::uuid[]) AND status = $3 AND payout_request_id IS NULL
		`, pq.Array(raw), uuid.UUID(requestID), string(models.LineApproved))
		if err != nil {
			return fmt.Errorf("reserve commission lines: %w", err)
		}
		if n, _ := res.RowsAffected(); n != int64(len(ids)) {
			return ErrNotReservable
		}
		return nil
	})
}

func (s *PostgresStore) Release(ctx context.Context, requestID domain.PayoutRequestID) (int, error) {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE commission_lines SET payout_request_id = NULL, revision = nextval('ledger_revision_seq')
		WHERE payout_request_id = $1 AND status <> $2
	`, uuid.UUID(requestID), string(models.LinePaid))
	if err != nil {
		return 0, fmt.Errorf("release commission lines: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *PostgresStore) Revision(ctx context.Context, payee domain.ParticipantID) (int64, error) {
	var rev int64
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT COALESCE(MAX(revision), 0) FROM commission_lines WHERE payee_id = $1`, uuid.UUID(payee),
	).Scan(&rev)
	if err != nil {
		return 0, fmt.Errorf("read ledger revision: %w", err)
	}
	return rev, nil
}

func (s *PostgresStore) LevelTotals(ctx context.Context, payee domain.ParticipantID, currency domain.Currency, period models.Period) (map[int]models.LevelTotal, error) {
	where, args := filterClause(payee, models.LineFilter{Currency: currency.String(), Period: period})
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT level, COUNT(*), COALESCE(SUM(amount), 0) FROM commission_lines
		WHERE `+where+` AND status <> 'cancelled'
		GROUP BY level
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("sum by level: %w", err)
	}
	defer rows.Close()

	out := make(map[int]models.LevelTotal)
	for rows.Next() {
		var (
			level int
			total models.LevelTotal
		)
		if err := rows.Scan(&level, &total.Count, &total.Total); err != nil {
			return nil, fmt.Errorf("scan level total: %w", err)
		}
		out[level] = total
	}
	return out, rows.Err()
}

func (s *PostgresStore) StatusTotals(ctx context.Context, payee domain.ParticipantID, currency domain.Currency) (map[models.LineStatus]decimal.Decimal, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT status, COALESCE(SUM(amount), 0) FROM commission_lines
		WHERE payee_id = $1 AND currency = $2
		GROUP BY status
	`, uuid.UUID(payee), currency.String())
	if err != nil {
		return nil, fmt.Errorf("sum by status: %w", err)
	}
	defer rows.Close()

	out := make(map[models.LineStatus]decimal.Decimal, 4)
	for _, st := range models.Statuses() {
		out[st] = decimal.Zero
	}
	for rows.Next() {
		var (
			status string
			total  decimal.Decimal
		)
		if err := rows.Scan(&status, &total); err != nil {
			return nil, fmt.Errorf("scan status total: %w", err)
		}
		out[models.LineStatus(status)] = total
	}
	return out, rows.Err()
}

func (s *PostgresStore) Buckets(ctx context.Context, payee domain.ParticipantID, currency domain.Currency, period models.Period, g models.Granularity) ([]models.Bucket, error) {
	where, args := filterClause(payee, models.LineFilter{Currency: currency.String(), Period: period})
	unit := "day"
	if g == models.Monthly {
		unit = "month"
	}
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT date_trunc('`+unit+`', created_at AT TIME ZONE 'UTC') AS bucket, COUNT(*), SUM(amount)
		FROM commission_lines
		WHERE `+where+` AND status <> 'cancelled'
		GROUP BY bucket ORDER BY bucket
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("sum by period: %w", err)
	}
	defer rows.Close()

	var out []models.Bucket
	for rows.Next() {
		var b models.Bucket
		if err := rows.Scan(&b.Start, &b.Count, &b.Total); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		b.Start = time.Date(b.Start.Year(), b.Start.Month(), b.Start.Day(), 0, 0, 0, 0, time.UTC)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PostgresStore) LifetimeTotal(ctx context.Context, payee domain.ParticipantID, currency domain.Currency) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM commission_lines
		WHERE payee_id = $1 AND currency = $2 AND status <> 'cancelled'
	`, uuid.UUID(payee), currency.String()).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum lifetime commission: %w", err)
	}
	return total, nil
}

func (s *PostgresStore) missOrState(ctx context.Context, id domain.LineID) error {
	var exists bool
	err := s.q(ctx).QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM commission_lines WHERE id = $1)`, uuid.UUID(id)).Scan(&exists)
	if err != nil {
		return fmt.Errorf("probe commission line: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}

func filterClause(payee domain.ParticipantID, f models.LineFilter) (string, []any) {
	clauses := []string{"payee_id = $1"}
	args := []any{uuid.UUID(payee)}
	add := func(clause string, v any) {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.Level != nil {
		add("level = $%d", *f.Level)
	}
	if f.Currency != "" {
		add("currency = $%d", f.Currency)
	}
	if !f.Period.From.IsZero() {
		add("created_at >= $%d", f.Period.From)
	}
	if !f.Period.To.IsZero() {
		add("created_at < $%d", f.Period.To)
	}
	return strings.Join(clauses, " AND "), args
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.Line, error) {
	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query commission lines: %w", err)
	}
	defer rows.Close()

	var out []*models.Line
	for rows.Next() {
		var (
			l        models.Line
			id       uuid.UUID
			sale     uuid.UUID
			payee    uuid.UUID
			plan     uuid.UUID
			currency string
			status   string
			payout   uuid.NullUUID
			paidAt   sql.NullTime
		)
		err := rows.Scan(&id, &sale, &payee, &l.Level, &l.Amount, &currency, &l.RateApplied,
			&l.BaseRate, &l.TierMultiplier, &plan, &l.PlanVersion, &status, &payout,
			&l.NeedsReconciliation, &l.CreatedAt, &paidAt, &l.Revision)
		if err != nil {
			return nil, fmt.Errorf("scan commission line: %w", err)
		}
		l.ID = domain.LineID(id)
		l.SaleID = domain.SaleID(sale)
		l.PayeeID = domain.ParticipantID(payee)
		l.PlanID = domain.PlanID(plan)
		l.Currency = domain.Currency(currency)
		l.Status = models.LineStatus(status)
		if payout.Valid {
			requestID := domain.PayoutRequestID(payout.UUID)
			l.PayoutRequestID = &requestID
		}
		if paidAt.Valid {
			l.PaidAt = &paidAt.Time
		}
		out = append(out, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commission lines: %w", err)
	}
	return out, nil
}
