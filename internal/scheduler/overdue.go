// Package scheduler runs the periodic overdue loan scan.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/librarium/internal/entities"
	"github.com/mrlokans/librarium/internal/tasks"
)

// LoanFinder looks up open loans that are past their due date.
type LoanFinder interface {
	FindOverdue(now time.Time) ([]entities.Loan, error)
}

// NoticeEnqueuer hands overdue notices to the background task queue.
// Nil is allowed; the scanner then only logs what it finds.
type NoticeEnqueuer interface {
	EnqueueOverdueNotice(ctx context.Context, task tasks.OverdueNoticeTask) error
}

// OverdueScanner periodically sweeps the loan ledger for overdue loans.
// The scan is read-only: a loan's overdue state is derived from its due
// date at read time, so the scanner never mutates rows. Its job is
// visibility, logging each overdue loan and enqueuing a notice for it.
type OverdueScanner struct {
	loans    LoanFinder
	notices  NoticeEnqueuer
	interval time.Duration

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isScanning bool
	cancelFunc context.CancelFunc

	// now is swappable in tests
	now func() time.Time
}

// NewOverdueScanner creates a scanner that runs every interval.
func NewOverdueScanner(loans LoanFinder, notices NoticeEnqueuer, interval time.Duration) *OverdueScanner {
	return &OverdueScanner{
		loans:    loans,
		notices:  notices,
		interval: interval,
		cron:     cron.New(),
		now:      time.Now,
	}
}

// Start begins the periodic scan and runs one sweep immediately so a
// freshly started service reports overdue loans without waiting a full
// interval.
func (s *OverdueScanner) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if s.interval <= 0 {
		return fmt.Errorf("invalid overdue scan interval %v", s.interval)
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	entryID, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		s.runScan(cancelCtx)
	})
	if err != nil {
		s.cancelFunc = nil
		return fmt.Errorf("failed to schedule overdue scan: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	log.Printf("Overdue scanner: started, scanning every %s", s.interval)

	go s.runScan(cancelCtx)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scanner, waiting for an in-flight scan. The
// lock is released before the wait: a running sweep needs it to clear
// isScanning, so holding it here would block shutdown forever.
func (s *OverdueScanner) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancelFunc
	s.cancelFunc = nil
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()

	if cancel != nil {
		cancel()
	}

	log.Printf("Overdue scanner: stopped")
}

// RunNow triggers an immediate scan outside the schedule.
func (s *OverdueScanner) RunNow() {
	go s.runScan(context.Background())
}

// IsRunning reports whether the scheduler is active.
func (s *OverdueScanner) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime returns when the next scheduled scan will occur.
func (s *OverdueScanner) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runScan executes a single sweep. If a previous sweep is still in
// flight the new one is skipped rather than queued.
func (s *OverdueScanner) runScan(ctx context.Context) {
	s.mu.Lock()
	if s.isScanning {
		s.mu.Unlock()
		log.Printf("Overdue scanner: previous scan still in progress, skipping")
		return
	}
	s.isScanning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isScanning = false
		s.mu.Unlock()
	}()

	now := s.now()
	overdue, err := s.loans.FindOverdue(now)
	if err != nil {
		log.Printf("Overdue scanner: scan failed: %v", err)
		return
	}

	if len(overdue) == 0 {
		log.Printf("Overdue scanner: no overdue loans")
		return
	}

	log.Printf("Overdue scanner: found %d overdue loan(s)", len(overdue))
	for _, loan := range overdue {
		days := int(now.Sub(loan.DueDate).Hours() / 24)
		log.Printf("Overdue scanner: loan %d, %q borrowed by %s, due %s (%d day(s) overdue)",
			loan.ID, loan.Book.Title, loan.Member.Name,
			loan.DueDate.Format("2006-01-02"), days)

		if s.notices == nil {
			continue
		}
		notice := tasks.OverdueNoticeTask{
			LoanID:      loan.ID,
			BookTitle:   loan.Book.Title,
			MemberName:  loan.Member.Name,
			MemberEmail: loan.Member.Email,
			DueDate:     loan.DueDate,
		}
		if err := s.notices.EnqueueOverdueNotice(ctx, notice); err != nil {
			log.Printf("Overdue scanner: failed to enqueue notice for loan %d: %v", loan.ID, err)
		}
	}
}
