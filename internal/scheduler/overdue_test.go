package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarium/internal/entities"
	"github.com/mrlokans/librarium/internal/tasks"
)

type fakeLoanFinder struct {
	mu       sync.Mutex
	loans    []entities.Loan
	err      error
	calls    int
	blockFor time.Duration
}

func (f *fakeLoanFinder) FindOverdue(_ time.Time) ([]entities.Loan, error) {
	f.mu.Lock()
	f.calls++
	block := f.blockFor
	f.mu.Unlock()
	if block > 0 {
		time.Sleep(block)
	}
	return f.loans, f.err
}

func (f *fakeLoanFinder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeEnqueuer struct {
	mu      sync.Mutex
	notices []tasks.OverdueNoticeTask
	err     error
}

func (f *fakeEnqueuer) EnqueueOverdueNotice(_ context.Context, task tasks.OverdueNoticeTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.notices = append(f.notices, task)
	return nil
}

func (f *fakeEnqueuer) enqueued() []tasks.OverdueNoticeTask {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tasks.OverdueNoticeTask(nil), f.notices...)
}

func overdueLoan(id uint, title, member string, due time.Time) entities.Loan {
	return entities.Loan{
		ID:      id,
		DueDate: due,
		Book:    entities.Book{Title: title},
		Member:  entities.Member{Name: member, Email: member + "@example.com"},
	}
}

func TestRunScan_EnqueuesNotices(t *testing.T) {
	now := time.Now()
	finder := &fakeLoanFinder{loans: []entities.Loan{
		overdueLoan(1, "Dune", "alice", now.AddDate(0, 0, -3)),
		overdueLoan(2, "Emma", "bob", now.AddDate(0, 0, -1)),
	}}
	enqueuer := &fakeEnqueuer{}

	scanner := NewOverdueScanner(finder, enqueuer, time.Hour)
	scanner.runScan(context.Background())

	notices := enqueuer.enqueued()
	require.Len(t, notices, 2)
	assert.Equal(t, uint(1), notices[0].LoanID)
	assert.Equal(t, "Dune", notices[0].BookTitle)
	assert.Equal(t, "alice@example.com", notices[0].MemberEmail)
}

func TestRunScan_NoEnqueuer(t *testing.T) {
	finder := &fakeLoanFinder{loans: []entities.Loan{
		overdueLoan(1, "Dune", "alice", time.Now().AddDate(0, 0, -3)),
	}}

	// Logging-only mode must not panic
	scanner := NewOverdueScanner(finder, nil, time.Hour)
	scanner.runScan(context.Background())
	assert.Equal(t, 1, finder.callCount())
}

func TestRunScan_FinderError(t *testing.T) {
	finder := &fakeLoanFinder{err: errors.New("db gone")}
	enqueuer := &fakeEnqueuer{}

	scanner := NewOverdueScanner(finder, enqueuer, time.Hour)
	scanner.runScan(context.Background())

	assert.Empty(t, enqueuer.enqueued())
}

func TestRunScan_EnqueueErrorContinues(t *testing.T) {
	now := time.Now()
	finder := &fakeLoanFinder{loans: []entities.Loan{
		overdueLoan(1, "Dune", "alice", now.AddDate(0, 0, -3)),
		overdueLoan(2, "Emma", "bob", now.AddDate(0, 0, -1)),
	}}
	enqueuer := &fakeEnqueuer{err: errors.New("queue full")}

	scanner := NewOverdueScanner(finder, enqueuer, time.Hour)
	scanner.runScan(context.Background())

	// Both loans were still visited
	assert.Equal(t, 1, finder.callCount())
}

func TestRunScan_SkipsWhenScanning(t *testing.T) {
	finder := &fakeLoanFinder{blockFor: 200 * time.Millisecond}
	scanner := NewOverdueScanner(finder, nil, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			scanner.runScan(context.Background())
		}()
	}
	wg.Wait()

	// The overlapping scan is skipped rather than queued
	assert.Equal(t, 1, finder.callCount())
}

func TestStartStop(t *testing.T) {
	finder := &fakeLoanFinder{}
	scanner := NewOverdueScanner(finder, nil, time.Hour)

	require.NoError(t, scanner.Start(context.Background()))
	assert.True(t, scanner.IsRunning())
	assert.NotNil(t, scanner.NextRunTime())

	// Idempotent start
	require.NoError(t, scanner.Start(context.Background()))

	// The immediate startup sweep runs
	require.Eventually(t, func() bool {
		return finder.callCount() >= 1
	}, time.Second, 10*time.Millisecond)

	scanner.Stop()
	assert.False(t, scanner.IsRunning())
	assert.Nil(t, scanner.NextRunTime())
}

func TestStop_WaitsForSweepInFlight(t *testing.T) {
	// The finder blocks long enough that Stop lands while the
	// cron-scheduled sweep is still running.
	finder := &fakeLoanFinder{blockFor: 600 * time.Millisecond}
	scanner := NewOverdueScanner(finder, nil, time.Second)

	require.NoError(t, scanner.Start(context.Background()))

	// First call is the startup sweep; the second is cron's.
	require.Eventually(t, func() bool {
		return finder.callCount() >= 2
	}, 3*time.Second, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		scanner.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Stop did not return while a sweep was in flight")
	}
	assert.False(t, scanner.IsRunning())
}

func TestStart_InvalidInterval(t *testing.T) {
	scanner := NewOverdueScanner(&fakeLoanFinder{}, nil, 0)
	assert.Error(t, scanner.Start(context.Background()))
}
