package plan

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"ascend/internal/plan/models"
	"ascend/internal/platform/postgres"
	"ascend/pkg/domain"
	"ascend/pkg/platform/sentinel"
	txcontext "ascend/pkg/platform/tx"
)

const planColumns = `
	id, version, name, rates::text[], max_depth, min_points, min_tasks,
	min_sales_volume, cost_amount, cost_currency, active, created_at`

// PostgresStore persists plan versions and activations.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) q(ctx context.Context) txcontext.Querier {
	return txcontext.QuerierFrom(ctx, s.db)
}

// CreateVersion inserts a version only if it directly follows the latest.
func (s *PostgresStore) CreateVersion(ctx context.Context, p *models.Plan) error {
	rates := make([]string, 0, p.MaxDepth+1)
	for _, r := range p.RateVector() {
		rates = append(rates, r.String())
	}
	res, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO plans (
			id, version, name, rates, max_depth, min_points, min_tasks,
			min_sales_volume, cost_amount, cost_currency, active, created_at
		)
		SELECT $1, $2, $3, $4::numeric[], $5, $6, $7, $8, $9, $10, $11, $12
		WHERE (SELECT COALESCE(MAX(version), 0) FROM plans WHERE id = $1) = $2 - 1
	`,
		uuid.UUID(p.ID), p.Version, p.Name, pq.Array(rates), p.MaxDepth,
		p.Eligibility.MinPoints, p.Eligibility.MinTasks, p.Eligibility.MinSalesVolume,
		p.Cost.Amount, p.Cost.Currency.String(), p.Active, p.CreatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, "") {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert plan version: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) FindLatest(ctx context.Context, id domain.PlanID) (*models.Plan, error) {
	return s.findOne(ctx, `SELECT `+planColumns+` FROM plans WHERE id = $1 ORDER BY version DESC LIMIT 1`, uuid.UUID(id))
}

func (s *PostgresStore) FindVersion(ctx context.Context, id domain.PlanID, version int) (*models.Plan, error) {
	return s.findOne(ctx, `SELECT `+planColumns+` FROM plans WHERE id = $1 AND version = $2`, uuid.UUID(id), version)
}

func (s *PostgresStore) ListActive(ctx context.Context) ([]*models.Plan, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT `+planColumns+` FROM (
			SELECT DISTINCT ON (id) * FROM plans ORDER BY id, version DESC
		) latest
		WHERE active
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list active plans: %w", err)
	}
	return scanPlans(rows)
}

func (s *PostgresStore) SetActive(ctx context.Context, id domain.PlanID, active bool) error {
	res, err := s.q(ctx).ExecContext(ctx, `UPDATE plans SET active = $2 WHERE id = $1`, uuid.UUID(id), active)
	if err != nil {
		return fmt.Errorf("set plan active: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) RecordActivation(ctx context.Context, a *models.Activation) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO plan_activations (id, participant_id, plan_id, plan_version, payment_ref, activated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.ID, uuid.UUID(a.ParticipantID), uuid.UUID(a.PlanID), a.PlanVersion, a.PaymentRef, a.ActivatedAt)
	if err != nil {
		return fmt.Errorf("insert plan activation: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListActivations(ctx context.Context, participantID domain.ParticipantID) ([]*models.Activation, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT id, participant_id, plan_id, plan_version, payment_ref, activated_at
		FROM plan_activations WHERE participant_id = $1
		ORDER BY activated_at DESC
	`, uuid.UUID(participantID))
	if err != nil {
		return nil, fmt.Errorf("list activations: %w", err)
	}
	defer rows.Close()

	var out []*models.Activation
	for rows.Next() {
		var (
			a           models.Activation
			participant uuid.UUID
			plan        uuid.UUID
		)
		if err := rows.Scan(&a.ID, &participant, &plan, &a.PlanVersion, &a.PaymentRef, &a.ActivatedAt); err != nil {
			return nil, fmt.Errorf("scan activation: %w", err)
		}
		a.ParticipantID = domain.ParticipantID(participant)
		a.PlanID = domain.PlanID(plan)
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) findOne(ctx context.Context, query string, args ...any) (*models.Plan, error) {
	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find plan: %w", err)
	}
	plans, err := scanPlans(rows)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return plans[0], nil
}

func scanPlans(rows *sql.Rows) ([]*models.Plan, error) {
	defer rows.Close()

	var out []*models.Plan
	for rows.Next() {
		var (
			id        uuid.UUID
			version   int
			name      string
			rawRates  []string
			maxDepth  int
			elig      models.Eligibility
			costAmt   decimal.Decimal
			costCur   string
			active    bool
			createdAt sql.NullTime
		)
		if err := rows.Scan(&id, &version, &name, pq.Array(&rawRates), &maxDepth,
			&elig.MinPoints, &elig.MinTasks, &elig.MinSalesVolume,
			&costAmt, &costCur, &active, &createdAt); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}

		rates := make([]decimal.Decimal, len(rawRates))
		for i, raw := range rawRates {
			r, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("parse stored rate: %w", err)
			}
			rates[i] = r
		}
		p, err := models.NewPlan(domain.PlanID(id), version, models.Schedule{
			Name:        name,
			Rates:       rates,
			Eligibility: elig,
			Cost:        domain.Money{Amount: costAmt, Currency: domain.Currency(costCur)},
		}, active, createdAt.Time)
		if err != nil {
			return nil, fmt.Errorf("rebuild plan %s v%d: %w", id, version, err)
		}
		if p.MaxDepth != maxDepth {
			return nil, fmt.Errorf("plan %s v%d: stored depth %d disagrees with rates", id, version, maxDepth)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}
	return out, nil
}
