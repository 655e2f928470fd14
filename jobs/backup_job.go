package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrAlreadyRunning is returned when a trigger arrives while a backup run is
// still in flight. Runs against the same table namespace must not overlap.
var ErrAlreadyRunning = errors.New("backup job already running")

// Runner executes one backup run.
type Runner interface {
	Run(ctx context.Context) error
}

// RunStatus describes the most recent backup run.
type RunStatus struct {
	Running    bool       `json:"running"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Attempts   int        `json:"attempts"`
	LastError  string     `json:"last_error,omitempty"`
}

// BackupJob wraps a Runner with retry-until-attempts semantics and an
// in-process overlap guard. A terminal failure is surfaced through the
// failure hook after all attempts are exhausted.
type BackupJob struct {
	runner      Runner
	maxAttempts int
	logger      *zap.Logger

	mu     sync.Mutex
	status RunStatus
}

// NewBackupJob creates a job around runner. maxAttempts defaults to 3.
func NewBackupJob(runner Runner, maxAttempts int, logger *zap.Logger) *BackupJob {
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	return &BackupJob{
		runner:      runner,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Execute runs the backup synchronously, retrying failed runs up to the
// attempt limit. Returns nil as soon as one attempt succeeds.
func (j *BackupJob) Execute(ctx context.Context) error {
	if err := j.begin(); err != nil {
		return err
	}
	defer j.finish()

	var lastErr error
	for attempt := 1; attempt <= j.maxAttempts; attempt++ {
		j.recordAttempt(attempt)
		start := time.Now()
		j.logger.Info("starting shop backup job", zap.Int("attempt", attempt))

		lastErr = j.runner.Run(ctx)
		if lastErr == nil {
			j.logger.Info("shop backup job completed",
				zap.Int("attempt", attempt),
				zap.Duration("duration", time.Since(start)),
			)
			j.recordResult(nil)
			return nil
		}

		j.logger.Warn("shop backup job attempt failed",
			zap.Int("attempt", attempt),
			zap.Error(lastErr),
		)

		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}
	}

	j.failed(lastErr)
	j.recordResult(lastErr)
	return lastErr
}

// TriggerAsync starts Execute on its own goroutine, rejecting overlap.
func (j *BackupJob) TriggerAsync() error {
	j.mu.Lock()
	if j.status.Running {
		j.mu.Unlock()
		return ErrAlreadyRunning
	}
	j.mu.Unlock()

	go func() {
		// Detached from the request context: the run outlives the trigger.
		_ = j.Execute(context.Background())
	}()
	return nil
}

// Status reports the state of the most recent run.
func (j *BackupJob) Status() RunStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// failed is the terminal failure hook, called once all attempts are spent.
func (j *BackupJob) failed(err error) {
	j.logger.Error("shop backup job failed finally",
		zap.Int("attempts", j.maxAttempts),
		zap.Error(err),
	)
}

func (j *BackupJob) begin() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.Running {
		return ErrAlreadyRunning
	}
	now := time.Now()
	j.status = RunStatus{Running: true, StartedAt: &now}
	return nil
}

func (j *BackupJob) finish() {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now()
	j.status.Running = false
	j.status.FinishedAt = &now
}

func (j *BackupJob) recordAttempt(attempt int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status.Attempts = attempt
}

func (j *BackupJob) recordResult(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err != nil {
		j.status.LastError = err.Error()
	} else {
		j.status.LastError = ""
	}
}
