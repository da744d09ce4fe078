package api

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohamedkandolo/Projet-RH/payroll"
	"github.com/Mohamedkandolo/Projet-RH/store/sqlite"
)

func newTestScheduler(t *testing.T) (*PeriodScheduler, *payroll.Service) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	paySvc := payroll.NewService(store, logger)
	ps := NewPeriodScheduler(paySvc, logger)
	ps.Now = func() time.Time { return time.Date(2025, time.July, 15, 8, 0, 0, 0, time.UTC) }
	return ps, paySvc
}

func TestPeriodScheduler_RunNowOpensCurrentMonthOnce(t *testing.T) {
	ps, paySvc := newTestScheduler(t)
	ctx := context.Background()

	// WHEN: the check runs twice in the same month
	created, err := ps.RunNow(ctx)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = ps.RunNow(ctx)
	require.NoError(t, err)
	assert.False(t, created)

	// THEN: exactly one OPEN period exists for July 2025
	periods, _, err := paySvc.ListPeriods(ctx, payroll.PeriodFilter{})
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, "2025-07", periods[0].Label())
	assert.Equal(t, payroll.StatusOpen, periods[0].Status)
}

func TestPeriodScheduler_StartRunsImmediately(t *testing.T) {
	ps, paySvc := newTestScheduler(t)
	ps.Interval = time.Hour

	ps.Start()
	ps.Start() // second call is a no-op

	require.Eventually(t, func() bool {
		periods, _, err := paySvc.ListPeriods(context.Background(), payroll.PeriodFilter{})
		return err == nil && len(periods) == 1
	}, 2*time.Second, 10*time.Millisecond)

	ps.Stop()
	ps.Stop()
}

func TestPeriodScheduler_DisabledDoesNothing(t *testing.T) {
	ps, paySvc := newTestScheduler(t)
	ps.Enabled = false

	ps.Start()
	ps.Stop()

	periods, _, err := paySvc.ListPeriods(context.Background(), payroll.PeriodFilter{})
	require.NoError(t, err)
	assert.Empty(t, periods)
}
