package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/reventa-app/reventa/internal/settlement"
)

type fakeWarmer struct {
	months      []string
	invalidated []string
	computed    []string
}

func (f *fakeWarmer) AvailableMonths(ctx context.Context) ([]string, error) {
	return f.months, nil
}

func (f *fakeWarmer) InvalidateMonth(ctx context.Context, monthKey string) {
	f.invalidated = append(f.invalidated, monthKey)
}

func (f *fakeWarmer) MonthOverview(ctx context.Context, monthKey string) (*settlement.MonthOverview, error) {
	f.computed = append(f.computed, monthKey)
	return &settlement.MonthOverview{Month: monthKey}, nil
}

func warmupTask(t *testing.T, payload SettlementWarmupPayload) *asynq.Task {
	t.Helper()
	task, err := NewSettlementWarmupTask(payload)
	require.NoError(t, err)
	return task
}

func TestWarmupRecomputesRequestedMonths(t *testing.T) {
	warmer := &fakeWarmer{}
	job := NewSettlementWarmupJob(warmer, slog.Default())

	err := job.Handle(context.Background(), warmupTask(t, SettlementWarmupPayload{Months: []string{"2025-03"}}))
	require.NoError(t, err)
	require.Equal(t, []string{"2025-03"}, warmer.invalidated)
	require.Equal(t, []string{"2025-03"}, warmer.computed)
}

func TestWarmupDefaultsToAvailableMonths(t *testing.T) {
	warmer := &fakeWarmer{months: []string{"2025-03", "2025-02"}}
	job := NewSettlementWarmupJob(warmer, slog.Default())

	err := job.Handle(context.Background(), warmupTask(t, SettlementWarmupPayload{}))
	require.NoError(t, err)
	require.Equal(t, []string{"2025-03", "2025-02"}, warmer.computed)
}

func TestWarmupSkipsMalformedPayload(t *testing.T) {
	job := NewSettlementWarmupJob(&fakeWarmer{}, slog.Default())
	task := asynq.NewTask(TaskSettlementWarmup, []byte("{not json"))

	err := job.Handle(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestWarmupPayloadRoundTrip(t *testing.T) {
	task := warmupTask(t, SettlementWarmupPayload{Months: []string{"2025-01"}})
	var payload SettlementWarmupPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.Equal(t, []string{"2025-01"}, payload.Months)
}
