package worker

import (
	"context"
	"log"
	"sync"
	"time"
)

// Reminder sends overdue loan reminders and reports how many went out.
type Reminder interface {
	SendOverdueReminders(ctx context.Context) (int, error)
}

// OverdueWorker periodically reminds borrowers of overdue loans.
type OverdueWorker struct {
	reminder Reminder
	interval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOverdueWorker creates a worker scanning every interval. A zero interval disables it.
func NewOverdueWorker(reminder Reminder, interval time.Duration) *OverdueWorker {
	return &OverdueWorker{reminder: reminder, interval: interval}
}

// Start runs a scan immediately and then on every tick until Stop or ctx ends.
func (w *OverdueWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		log.Println("overdue reminders disabled")
		return
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.scan(ctx)
		for {
			select {
			case <-ticker.C:
				w.scan(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the loop and waits for a running scan to finish.
func (w *OverdueWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func (w *OverdueWorker) scan(ctx context.Context) {
	sent, err := w.reminder.SendOverdueReminders(ctx)
	if err != nil {
		log.Printf("overdue scan: %v", err)
		return
	}
	if sent > 0 {
		log.Printf("overdue scan: %d reminder(s) queued", sent)
	}
}
