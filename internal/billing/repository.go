package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rfpdesk/rfpdesk/internal/platform/db"
	"github.com/rfpdesk/rfpdesk/internal/shared"
)

// Repository defines persistence operations for billing.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	ListPlans(ctx context.Context) ([]Plan, error)
	GetPlan(ctx context.Context, id string) (Plan, error)
	InsertPlan(ctx context.Context, plan Plan) (Plan, error)
	UpdatePlan(ctx context.Context, plan Plan) (Plan, error)
	DeletePlan(ctx context.Context, id string) error
	CountAssignments(ctx context.Context, planID string) (int, error)
	UserExists(ctx context.Context, userID int64) (bool, error)
	UpsertUserPlan(ctx context.Context, userID int64, planID string) error
	ApplyPlanCredits(ctx context.Context, userID int64, plan Plan) error
	RecordAudit(ctx context.Context, log shared.AuditLog) error
}

type repository struct {
	db   db.Querier
	pool db.TxBeginner
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const planColumns = `id, name, price, interval, credits_included, api_quota_per_month, popular, created_at, updated_at`

func (r *repository) ListPlans(ctx context.Context) ([]Plan, error) {
	rows, err := r.db.Query(ctx, `SELECT `+planColumns+` FROM billing_plans ORDER BY price, name`)
	if err != nil {
		return nil, fmt.Errorf("billing: list plans: %w", err)
	}
	defer rows.Close()
	plans := []Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (r *repository) GetPlan(ctx context.Context, id string) (Plan, error) {
	p, err := scanPlan(r.db.QueryRow(ctx, `SELECT `+planColumns+` FROM billing_plans WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Plan{}, ErrPlanNotFound
	}
	return p, err
}

func (r *repository) InsertPlan(ctx context.Context, plan Plan) (Plan, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO billing_plans (id, name, price, interval, credits_included, api_quota_per_month, popular)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+planColumns,
		plan.ID, plan.Name, plan.Price, plan.Interval, plan.CreditsIncluded, plan.APIQuotaPerMonth, plan.Popular,
	)
	return scanPlan(row)
}

func (r *repository) UpdatePlan(ctx context.Context, plan Plan) (Plan, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE billing_plans
		 SET name = $2, price = $3, interval = $4, credits_included = $5,
		     api_quota_per_month = $6, popular = $7, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+planColumns,
		plan.ID, plan.Name, plan.Price, plan.Interval, plan.CreditsIncluded, plan.APIQuotaPerMonth, plan.Popular,
	)
	p, err := scanPlan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Plan{}, ErrPlanNotFound
	}
	return p, err
}

func (r *repository) DeletePlan(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM billing_plans WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrPlanInUse
		}
		return fmt.Errorf("billing: delete plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (r *repository) CountAssignments(ctx context.Context, planID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM user_plans WHERE plan_id = $1`, planID).Scan(&n)
	return n, err
}

func (r *repository) UserExists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	return exists, err
}

func (r *repository) UpsertUserPlan(ctx context.Context, userID int64, planID string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO user_plans (user_id, plan_id, assigned_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (user_id) DO UPDATE SET plan_id = EXCLUDED.plan_id, assigned_at = NOW()`,
		userID, planID)
	if err != nil {
		return fmt.Errorf("billing: upsert user plan: %w", err)
	}
	return nil
}

// ApplyPlanCredits resets the user's credit balance and API quota from the
// plan. Nil plan limits leave the current values untouched.
func (r *repository) ApplyPlanCredits(ctx context.Context, userID int64, plan Plan) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO user_credits (user_id, balance, api_quota_per_month, updated_at)
		 VALUES ($1, COALESCE($2::bigint, 0), $3::bigint, NOW())
		 ON CONFLICT (user_id) DO UPDATE
		 SET balance = COALESCE($2::bigint, user_credits.balance),
		     api_quota_per_month = COALESCE($3::bigint, user_credits.api_quota_per_month),
		     updated_at = NOW()`,
		userID, plan.CreditsIncluded, plan.APIQuotaPerMonth)
	if err != nil {
		return fmt.Errorf("billing: apply credits: %w", err)
	}
	return nil
}

func (r *repository) RecordAudit(ctx context.Context, log shared.AuditLog) error {
	return shared.NewAuditLogger(r.db).Record(ctx, log)
}

func scanPlan(row pgx.Row) (Plan, error) {
	var p Plan
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Interval, &p.CreditsIncluded, &p.APIQuotaPerMonth, &p.Popular, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
