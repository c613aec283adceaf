package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// OverdueNoticeTask notifies a member that one of their loans is past due.
// The overdue scanner enqueues one task per overdue loan it finds.
type OverdueNoticeTask struct {
	LoanID      uint      `json:"loan_id"`
	BookTitle   string    `json:"book_title"`
	MemberName  string    `json:"member_name"`
	MemberEmail string    `json:"member_email"`
	DueDate     time.Time `json:"due_date"`
}

// Config returns the queue configuration for overdue notice tasks.
func (t OverdueNoticeTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "overdue_notice",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     1 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// Notifier delivers an overdue notice to a member. The default implementation
// logs the notice; a mail or webhook sender can be plugged in instead.
type Notifier interface {
	NotifyOverdue(ctx context.Context, task OverdueNoticeTask) error
}

// LogNotifier writes overdue notices to the application log.
type LogNotifier struct{}

// NotifyOverdue logs the notice.
func (LogNotifier) NotifyOverdue(_ context.Context, task OverdueNoticeTask) error {
	log.Printf("[OVERDUE] Loan %d: %q borrowed by %s <%s> was due %s",
		task.LoanID, task.BookTitle, task.MemberName, task.MemberEmail,
		task.DueDate.Format("2006-01-02"))
	return nil
}

// OverdueNoticeProcessor creates a processor function for OverdueNoticeTask.
func OverdueNoticeProcessor(notifier Notifier) backlite.QueueProcessor[OverdueNoticeTask] {
	return func(ctx context.Context, task OverdueNoticeTask) error {
		if notifier == nil {
			return fmt.Errorf("notifier not configured")
		}
		if err := notifier.NotifyOverdue(ctx, task); err != nil {
			return fmt.Errorf("notify overdue loan %d: %w", task.LoanID, err)
		}
		return nil
	}
}

// NewOverdueNoticeQueue creates a backlite queue for overdue notice tasks.
func NewOverdueNoticeQueue(notifier Notifier) backlite.Queue {
	return backlite.NewQueue(OverdueNoticeProcessor(notifier))
}

// EnqueueOverdueNotice queues a single overdue notice for delivery.
func (c *Client) EnqueueOverdueNotice(ctx context.Context, task OverdueNoticeTask) error {
	if _, err := c.Add(task).Ctx(ctx).Save(); err != nil {
		return fmt.Errorf("failed to enqueue overdue notice: %w", err)
	}
	return nil
}
