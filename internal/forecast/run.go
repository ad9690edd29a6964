package forecast

import (
	"context"
	"time"
)

// RunStatus tracks a forecast batch through its lifecycle.
type RunStatus string

const (
	RunPending    RunStatus = "pending"
	RunProcessing RunStatus = "processing"
	RunCompleted  RunStatus = "completed"
	RunFailed     RunStatus = "failed"
)

// ForecastRun records one batch generation over the region/blood-type
// grid: how many cells it covered, produced and skipped.
type ForecastRun struct {
	ID            int64      `json:"id" db:"id"`
	Status        RunStatus  `json:"status" db:"status"`
	HorizonHours  int        `json:"horizon_hours" db:"horizon_hours"`
	Regions       []string   `json:"regions" db:"-"`
	TotalCells    int        `json:"total_cells" db:"total_cells"`
	ForecastCount int        `json:"forecast_count" db:"forecast_count"`
	SkippedCells  int        `json:"skipped_cells" db:"skipped_cells"`
	ErrorMessage  string     `json:"error_message,omitempty" db:"error_message"`
	StartedAt     time.Time  `json:"started_at" db:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// RunRecorder persists run lifecycle updates. A nil recorder disables
// tracking without changing forecast behavior.
type RunRecorder interface {
	StartRun(ctx context.Context, run *ForecastRun) error
	FinishRun(ctx context.Context, run *ForecastRun) error
}
