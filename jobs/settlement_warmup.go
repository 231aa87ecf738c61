package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/reventa-app/reventa/internal/settlement"
)

// OverviewWarmer is the slice of the settlement service the warmup job needs.
type OverviewWarmer interface {
	AvailableMonths(ctx context.Context) ([]string, error)
	InvalidateMonth(ctx context.Context, monthKey string)
	MonthOverview(ctx context.Context, monthKey string) (*settlement.MonthOverview, error)
}

// SettlementWarmupJob refreshes cached month overviews off the request path.
type SettlementWarmupJob struct {
	warmer OverviewWarmer
	logger *slog.Logger
}

// NewSettlementWarmupJob constructs the job.
func NewSettlementWarmupJob(warmer OverviewWarmer, logger *slog.Logger) *SettlementWarmupJob {
	return &SettlementWarmupJob{warmer: warmer, logger: logger}
}

// Handle processes TaskSettlementWarmup tasks. Each selected month is
// invalidated and recomputed so the next read serves a fresh snapshot.
func (j *SettlementWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SettlementWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	months := payload.Months
	if len(months) == 0 {
		var err error
		months, err = j.warmer.AvailableMonths(ctx)
		if err != nil {
			return err
		}
	}

	for _, month := range months {
		j.warmer.InvalidateMonth(ctx, month)
		if _, err := j.warmer.MonthOverview(ctx, month); err != nil {
			j.logger.Warn("settlement warmup", slog.Any("error", err), slog.String("month", month))
			continue
		}
		j.logger.Info("settlement overview warmed", slog.String("month", month))
	}
	return nil
}
