package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskBalanceReconcile recomputes account balances from the ledger.
	TaskBalanceReconcile = "ledger:balance_reconcile"
)

// BalanceReconcilePayload scopes a reconcile run. A zero UserID means
// every account.
type BalanceReconcilePayload struct {
	UserID int64 `json:"user_id,omitempty"`
}

// NewBalanceReconcileTask constructs an Asynq task.
func NewBalanceReconcileTask(payload BalanceReconcilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBalanceReconcile, data), nil
}
