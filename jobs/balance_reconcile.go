package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Reconciler repairs drift between an account's balance estimate and the
// sum of its ledger entries. Drift should not happen under normal
// operation; this job is the safety net for manual data surgery and
// partially applied migrations.
type Reconciler struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewReconciler constructs a Reconciler.
func NewReconciler(pool *pgxpool.Pool, logger *slog.Logger) *Reconciler {
	return &Reconciler{pool: pool, logger: logger}
}

// Handle processes TaskBalanceReconcile tasks.
func (r *Reconciler) Handle(ctx context.Context, t *asynq.Task) error {
	var payload BalanceReconcilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	repaired, err := r.Run(ctx, payload.UserID)
	if err != nil {
		return err
	}
	r.logger.Info("balance reconcile finished",
		slog.Int64("user_id", payload.UserID),
		slog.Int64("repaired", repaired))
	return nil
}

// Run recomputes balances and returns how many accounts drifted. With
// userID zero every account is checked.
func (r *Reconciler) Run(ctx context.Context, userID int64) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `UPDATE accounts a
SET balance_estimate = s.total, updated_at = NOW()
FROM (
	SELECT a.id, COALESCE(SUM(CASE WHEN t.type = 'CREDIT' THEN t.amount ELSE -t.amount END), 0) AS total
	FROM accounts a
	LEFT JOIN transactions t ON t.account_id = a.id
	WHERE $1 = 0 OR a.user_id = $1
	GROUP BY a.id
) s
WHERE s.id = a.id AND a.balance_estimate <> s.total`, userID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
