package participant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"ascend/internal/network/models"
	"ascend/internal/platform/postgres"
	"ascend/pkg/domain"
	"ascend/pkg/platform/sentinel"
	txcontext "ascend/pkg/platform/tx"
)

// linkLockKey serializes all upline writes. Two concurrent links A->B and
// B->A would each pass the ancestry check under row locks alone.
const linkLockKey int64 = 0x6173636e64 // "ascnd"

const participantColumns = `
	p.id, p.upline_id, p.referral_code, p.email, p.display_name, p.payout_account,
	p.plan_id, p.plan_version, p.lifetime_sales, p.lifetime_commission, p.completed_tasks, p.points,
	p.tier, p.registered_at, p.linked_at`

// PostgresStore persists the network in the participants table. Upline
// ancestry is resolved with recursive CTEs over the upline_id index.
type PostgresStore struct {
	db     *sql.DB
	runner txcontext.Runner
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, runner: txcontext.NewSQLRunner(db, 0)}
}

func (s *PostgresStore) q(ctx context.Context) txcontext.Querier {
	return txcontext.QuerierFrom(ctx, s.db)
}

func (s *PostgresStore) Create(ctx context.Context, p *models.Participant) error {
	query := `
		INSERT INTO participants (
			id, upline_id, referral_code, email, display_name, payout_account,
			plan_id, plan_version, lifetime_sales, lifetime_commission, completed_tasks, points,
			tier, registered_at, linked_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(p.ID),
		nullableParticipant(p.UplineID),
		string(p.ReferralCode),
		p.Email,
		p.DisplayName,
		p.PayoutAccount,
		nullablePlan(p.PlanID),
		nullableVersion(p.PlanVersion),
		p.Stats.LifetimeSales,
		p.Stats.LifetimeCommission,
		p.Stats.CompletedTasks,
		p.Stats.Points,
		string(p.Tier),
		p.RegisteredAt,
		p.LinkedAt,
	)
	switch {
	case err == nil:
		return nil
	case postgres.IsUniqueViolation(err, "participants_referral_code_key"):
		return sentinel.ErrAlreadyUsed
	case postgres.IsUniqueViolation(err, ""):
		return sentinel.ErrConflict
	case postgres.IsForeignKeyViolation(err):
		return sentinel.ErrNotFound
	default:
		return fmt.Errorf("insert participant: %w", err)
	}
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.ParticipantID) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants p WHERE p.id = $1`
	return s.findOne(ctx, query, uuid.UUID(id))
}

func (s *PostgresStore) FindByReferralCode(ctx context.Context, code models.ReferralCode) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants p WHERE p.referral_code = $1`
	return s.findOne(ctx, query, string(code))
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.Participant, error) {
	rows, err := s.q(ctx).QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("find participant: %w", err)
	}
	found, err := scanParticipants(rows)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return found[0], nil
}

// Ancestors returns up to maxDepth ancestors, closest first. Each recursion
// step is one primary-key lookup, so the cost follows the depth.
func (s *PostgresStore) Ancestors(ctx context.Context, id domain.ParticipantID, maxDepth int) ([]*models.Participant, error) {
	if _, err := s.FindByID(ctx, id); err != nil {
		return nil, err
	}
	query := `
		WITH RECURSIVE chain AS (
			SELECT upline_id AS id, 1 AS depth FROM participants WHERE id = $1
			UNION ALL
			SELECT p.upline_id, c.depth + 1
			FROM chain c JOIN participants p ON p.id = c.id
			WHERE c.depth < $2 AND p.upline_id IS NOT NULL
		)
		SELECT ` + participantColumns + `
		FROM chain c JOIN participants p ON p.id = c.id
		WHERE c.depth <= $2
		ORDER BY c.depth
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, uuid.UUID(id), maxDepth)
	if err != nil {
		return nil, fmt.Errorf("query ancestors: %w", err)
	}
	return scanParticipants(rows)
}

func (s *PostgresStore) ListChildren(ctx context.Context, id domain.ParticipantID) ([]*models.Participant, error) {
	if _, err := s.FindByID(ctx, id); err != nil {
		return nil, err
	}
	query := `SELECT ` + participantColumns + ` FROM participants p WHERE p.upline_id = $1 ORDER BY p.registered_at, p.id`
	rows, err := s.q(ctx).QueryContext(ctx, query, uuid.UUID(id))
	if err != nil {
		return nil, fmt.Errorf("query children: %w", err)
	}
	return scanParticipants(rows)
}

// LinkUpline checks ancestry and the depth limit, then sets the parent,
// inside one transaction holding the network-wide link lock.
func (s *PostgresStore) LinkUpline(ctx context.Context, childID, parentID domain.ParticipantID, maxDepth int, now time.Time) error {
	return s.runner.RunInTx(ctx, func(ctx context.Context) error {
		q := s.q(ctx)
		if _, err := q.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, linkLockKey); err != nil {
			return fmt.Errorf("acquire link lock: %w", err)
		}

		var current uuid.NullUUID
		err := q.QueryRowContext(ctx, `SELECT upline_id FROM participants WHERE id = $1 FOR UPDATE`, uuid.UUID(childID)).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock participant: %w", err)
		}
		if current.Valid {
			return ErrAlreadyLinked
		}

		var (
			parentExists, cycle bool
			chain               int
		)
		err = q.QueryRowContext(ctx, `
			WITH RECURSIVE up AS (
				SELECT id, upline_id FROM participants WHERE id = $1
				UNION ALL
				SELECT p.id, p.upline_id FROM participants p JOIN up ON p.id = up.upline_id
			)
			SELECT EXISTS (SELECT 1 FROM up), EXISTS (SELECT 1 FROM up WHERE id = $2), COUNT(*)
			FROM up
		`, uuid.UUID(parentID), uuid.UUID(childID)).Scan(&parentExists, &cycle, &chain)
		if err != nil {
			return fmt.Errorf("check ancestry: %w", err)
		}
		if !parentExists {
			return sentinel.ErrNotFound
		}
		if cycle {
			return ErrCycle
		}
		if maxDepth > 0 {
			var height int
			err = q.QueryRowContext(ctx, `
				WITH RECURSIVE down AS (
					SELECT id, 1 AS lvl FROM participants WHERE upline_id = $1
					UNION ALL
					SELECT p.id, d.lvl + 1 FROM participants p JOIN down d ON p.upline_id = d.id
				)
				SELECT COALESCE(MAX(lvl), 0) FROM down
			`, uuid.UUID(childID)).Scan(&height)
			if err != nil {
				return fmt.Errorf("measure subtree: %w", err)
			}
			// chain counts the parent and its ancestors, so it is the child's depth.
			if chain+height > maxDepth {
				return ErrTooDeep
			}
		}

		res, err := q.ExecContext(ctx,
			`UPDATE participants SET upline_id = $2, linked_at = $3 WHERE id = $1 AND upline_id IS NULL`,
			uuid.UUID(childID), uuid.UUID(parentID), now)
		if err != nil {
			return fmt.Errorf("link upline: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrAlreadyLinked
		}
		return nil
	})
}

func (s *PostgresStore) CountDescendants(ctx context.Context, id domain.ParticipantID) (int, error) {
	if _, err := s.FindByID(ctx, id); err != nil {
		return 0, err
	}
	var count int
	err := s.q(ctx).QueryRowContext(ctx, `
		WITH RECURSIVE down AS (
			SELECT id FROM participants WHERE upline_id = $1
			UNION ALL
			SELECT p.id FROM participants p JOIN down d ON p.upline_id = d.id
		)
		SELECT COUNT(*) FROM down
	`, uuid.UUID(id)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count descendants: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) AddActivity(ctx context.Context, id domain.ParticipantID, points, tasks int64) (*models.Participant, error) {
	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE participants SET points = points + $2, completed_tasks = completed_tasks + $3 WHERE id = $1`,
		uuid.UUID(id), points, tasks)
	if err := affectedOne(res, err, "record activity"); err != nil {
		return nil, err
	}
	return s.FindByID(ctx, id)
}

func (s *PostgresStore) AddLifetimeSales(ctx context.Context, id domain.ParticipantID, amount decimal.Decimal) error {
	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE participants SET lifetime_sales = lifetime_sales + $2 WHERE id = $1`,
		uuid.UUID(id), amount)
	return affectedOne(res, err, "add lifetime sales")
}

// UpdateStanding stores the latest rank evaluation. The CASE keeps the tier
// from moving down if evaluations race.
func (s *PostgresStore) UpdateStanding(ctx context.Context, id domain.ParticipantID, tier domain.Tier, lifetimeCommission decimal.Decimal) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE participants
		SET lifetime_commission = $3,
		    tier = CASE WHEN array_position($4::text[], tier) < array_position($4::text[], $2::text) THEN $2 ELSE tier END
		WHERE id = $1
	`, uuid.UUID(id), string(tier), lifetimeCommission, pq.Array(tierNames()))
	return affectedOne(res, err, "update standing")
}

func (s *PostgresStore) SetPlan(ctx context.Context, id domain.ParticipantID, planID domain.PlanID, version int) error {
	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE participants SET plan_id = $2, plan_version = $3 WHERE id = $1`,
		uuid.UUID(id), uuid.UUID(planID), version)
	return affectedOne(res, err, "set plan")
}

func (s *PostgresStore) ListIDs(ctx context.Context, offset, limit int) ([]domain.ParticipantID, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT id FROM participants ORDER BY registered_at, id OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list participant ids: %w", err)
	}
	defer rows.Close()

	var ids []domain.ParticipantID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan participant id: %w", err)
		}
		ids = append(ids, domain.ParticipantID(id))
	}
	return ids, rows.Err()
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.q(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM participants`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return n, nil
}

func scanParticipants(rows *sql.Rows) ([]*models.Participant, error) {
	defer rows.Close()

	var out []*models.Participant
	for rows.Next() {
		var (
			p           models.Participant
			id          uuid.UUID
			upline      uuid.NullUUID
			planID      uuid.NullUUID
			planVersion sql.NullInt64
			code        string
			tier        string
			linkedAt    sql.NullTime
		)
		if err := rows.Scan(
			&id, &upline, &code, &p.Email, &p.DisplayName, &p.PayoutAccount,
			&planID, &planVersion, &p.Stats.LifetimeSales, &p.Stats.LifetimeCommission,
			&p.Stats.CompletedTasks, &p.Stats.Points, &tier, &p.RegisteredAt, &linkedAt,
		); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		p.ID = domain.ParticipantID(id)
		p.ReferralCode = models.ReferralCode(code)
		p.Tier = domain.Tier(tier)
		if upline.Valid {
			uid := domain.ParticipantID(upline.UUID)
			p.UplineID = &uid
		}
		if planID.Valid {
			pid := domain.PlanID(planID.UUID)
			p.PlanID = &pid
			p.PlanVersion = int(planVersion.Int64)
		}
		if linkedAt.Valid {
			t := linkedAt.Time
			p.LinkedAt = &t
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return out, nil
}

func affectedOne(res sql.Result, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func nullableParticipant(id *domain.ParticipantID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*id), Valid: true}
}

func nullablePlan(id *domain.PlanID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*id), Valid: true}
}

func nullableVersion(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v > 0}
}

func tierNames() []string {
	tiers := domain.Tiers()
	names := make([]string, len(tiers))
	for i, t := range tiers {
		names[i] = string(t)
	}
	return names
}
