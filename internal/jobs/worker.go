package jobs

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"time"
)

// Mailer delivers a single welcome mail. The default implementation only
// logs; there is no SMTP integration.
type Mailer interface {
	SendWelcome(email, fullName string) error
}

type LogMailer struct{}

func (LogMailer) SendWelcome(email, fullName string) error {
	log.Printf("[MAIL] welcome to=%s name=%q\n", email, fullName)
	return nil
}

// Worker polls for due jobs and dispatches them.
type Worker struct {
	ID     string
	Repo   *Repo
	Mailer Mailer
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(800 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, err := w.Repo.Claim(w.ID)
			if err != nil {
				log.Printf("worker claim error: %v\n", err)
				continue
			}
			if job == nil {
				continue
			}
			w.handle(job)
		}
	}
}

func (w *Worker) handle(job *Job) {
	switch job.Type {
	case TypeWelcomeEmail:
		w.handleWelcome(job)
	default:
		_ = w.Repo.MarkFailed(job.ID, "unknown job type")
	}
}

func (w *Worker) handleWelcome(job *Job) {
	var p welcomePayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		_ = w.Repo.MarkFailed(job.ID, "bad payload")
		return
	}

	if err := w.Mailer.SendWelcome(p.Email, p.FullName); err != nil {
		w.retry(job, err.Error())
		return
	}
	_ = w.Repo.MarkDone(job.ID)
}

func (w *Worker) retry(job *Job, errMsg string) {
	attempts := job.Attempts + 1
	if attempts >= job.MaxAttempts {
		_ = w.Repo.MarkFailed(job.ID, errMsg)
		return
	}

	next := time.Now().Add(backoffDelay(attempts))
	_ = w.Repo.RetryLater(job.ID, attempts, next, errMsg)
}

// backoffDelay doubles per attempt, capped at 10 minutes.
func backoffDelay(attempts int) time.Duration {
	sec := math.Min(math.Pow(2, float64(attempts)), 600)
	return time.Duration(sec) * time.Second
}
