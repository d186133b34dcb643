package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/onekeel/swarm/internal/campaign/domain"
	"github.com/onekeel/swarm/internal/campaign/service"
	"github.com/onekeel/swarm/internal/metrics"
	"github.com/onekeel/swarm/internal/ratelimit"

	apperrors "github.com/onekeel/swarm/internal/errors"
)

// RunnerOptions configures the execution runner.
type RunnerOptions struct {
	// Workers is the number of executions processed concurrently.
	Workers int
	// QueueSize bounds the number of executions waiting to be processed.
	QueueSize int
	// PerChannelLimit scopes the send rate limit per channel instead of
	// globally across all channels.
	PerChannelLimit bool
}

// Runner processes queued executions in the background. Each execution walks
// its recipients in enrollment order, personalizes the campaign template,
// delivers through the sender and records per-recipient outcomes. A failure
// for one recipient never aborts the execution; the terminal status is derived
// from the final sent/failed counts.
type Runner struct {
	campaignRepo  CampaignRepository
	executionRepo ExecutionRepository
	recipientRepo RecipientRepository
	sender        service.Sender
	personalizer  service.Personalizer
	limiter       *ratelimit.Limiter
	notifiers     []ExecutionNotifier
	metrics       metrics.BusinessMetrics
	logger        *slog.Logger
	opts          RunnerOptions

	queue chan uuid.UUID
	stops sync.Map // executionID -> *stopFlag

	mu      sync.Mutex
	started bool
	closed  bool
	group   *errgroup.Group

	now func() time.Time
}

type stopFlag struct {
	mu      sync.Mutex
	stopped bool
}

func (f *stopFlag) set() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *stopFlag) isSet() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

// NewRunner creates a new Runner. The limiter may be nil to disable send
// throttling; notifiers receive one callback per finished execution.
func NewRunner(
	campaignRepo CampaignRepository,
	executionRepo ExecutionRepository,
	recipientRepo RecipientRepository,
	sender service.Sender,
	personalizer service.Personalizer,
	limiter *ratelimit.Limiter,
	businessMetrics metrics.BusinessMetrics,
	logger *slog.Logger,
	opts RunnerOptions,
) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 128
	}
	if businessMetrics == nil {
		businessMetrics = metrics.NewNoOpBusinessMetrics()
	}

	return &Runner{
		campaignRepo:  campaignRepo,
		executionRepo: executionRepo,
		recipientRepo: recipientRepo,
		sender:        sender,
		personalizer:  personalizer,
		limiter:       limiter,
		metrics:       businessMetrics,
		logger:        logger,
		opts:          opts,
		queue:         make(chan uuid.UUID, opts.QueueSize),
		now:           time.Now,
	}
}

// AddNotifier registers a notifier for finished executions. Must be called
// before Start.
func (r *Runner) AddNotifier(notifier ExecutionNotifier) {
	r.notifiers = append(r.notifiers, notifier)
}

// Start launches the worker pool. Workers drain the queue until Shutdown is
// called or the context is cancelled.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true

	group, ctx := errgroup.WithContext(ctx)
	r.group = group

	for i := 0; i < r.opts.Workers; i++ {
		group.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case executionID, ok := <-r.queue:
					if !ok {
						return nil
					}
					r.process(ctx, executionID)
				}
			}
		})
	}
}

// Enqueue hands a queued execution to the worker pool. Returns an error when
// the queue is full or the runner is shut down.
func (r *Runner) Enqueue(executionID uuid.UUID) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return apperrors.New("runner is shut down")
	}
	r.mu.Unlock()

	select {
	case r.queue <- executionID:
		return nil
	default:
		return apperrors.New("execution queue is full")
	}
}

// Stop flags an execution for cancellation. The runner checks the flag
// between recipients, so the in-flight send completes before the execution
// stops.
func (r *Runner) Stop(executionID uuid.UUID) {
	flag, _ := r.stops.LoadOrStore(executionID, &stopFlag{})
	flag.(*stopFlag).set()
}

// Shutdown closes the queue and waits for in-flight executions to finish.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	group := r.group
	r.mu.Unlock()

	if group == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- group.Wait() }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// process runs one execution to a terminal state.
func (r *Runner) process(ctx context.Context, executionID uuid.UUID) {
	start := r.now()
	logger := r.logger.With("execution_id", executionID)

	flag, _ := r.stops.LoadOrStore(executionID, &stopFlag{})
	stop := flag.(*stopFlag)
	defer r.stops.Delete(executionID)

	execution, err := r.executionRepo.GetByID(ctx, executionID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load execution", "error", err)
		return
	}
	if execution.Status.Terminal() {
		logger.WarnContext(ctx, "execution already finished", "status", execution.Status)
		return
	}
	if execution.StopRequested {
		stop.set()
	}

	// Stopped before the first recipient: everything stays queued.
	if stop.isSet() {
		r.finish(ctx, logger, execution.ID, domain.ExecutionStopped, execution.Stats, start)
		return
	}

	campaign, err := r.campaignRepo.GetByID(ctx, execution.CampaignID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load campaign", "error", err)
		r.finish(ctx, logger, execution.ID, domain.ExecutionFailed, execution.Stats, start)
		return
	}

	if err := r.executionRepo.MarkRunning(ctx, execution.ID, r.now().UTC()); err != nil {
		logger.ErrorContext(ctx, "failed to mark execution running", "error", err)
		return
	}

	recipients, err := r.recipientRepo.ListByExecution(ctx, execution.ID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list recipients", "error", err)
		r.finish(ctx, logger, execution.ID, domain.ExecutionFailed, execution.Stats, start)
		return
	}

	stats := domain.ExecutionStats{Total: len(recipients)}
	for _, recipient := range recipients {
		switch recipient.Status {
		case domain.RecipientSent:
			stats.Sent++
		case domain.RecipientFailed:
			stats.Failed++
		default:
			stats.Queued++
		}
	}
	stopped := false

	for _, recipient := range recipients {
		if stop.isSet() || ctx.Err() != nil {
			stopped = true
			break
		}
		if recipient.Status != domain.RecipientQueued {
			continue
		}

		if r.deliver(ctx, logger, campaign, recipient, stop) {
			stats.Sent++
		} else {
			stats.Failed++
		}
		stats.Queued--

		if err := r.executionRepo.UpdateStats(ctx, execution.ID, stats); err != nil {
			logger.WarnContext(ctx, "failed to persist execution stats", "error", err)
		}
	}

	status := domain.TerminalStatusFor(stats.Sent, stats.Failed)
	if stopped {
		status = domain.ExecutionStopped
	}
	r.finish(ctx, logger, execution.ID, status, stats, start)
}

// deliver sends to one recipient and records the outcome. Returns true on a
// successful send. Errors are contained here; they never propagate to the
// execution loop.
func (r *Runner) deliver(
	ctx context.Context,
	logger *slog.Logger,
	campaign *domain.Campaign,
	recipient *domain.Recipient,
	stop *stopFlag,
) bool {
	if err := r.waitForLimit(ctx, campaign.Channel, stop); err != nil {
		r.recordOutcome(ctx, logger, recipient, "", err)
		return false
	}

	message := service.Message{
		Channel: campaign.Channel,
		Address: recipient.Address,
		Subject: r.personalizer.Render(campaign.Subject, recipient.Variables),
		Body:    r.personalizer.Render(campaign.Body, recipient.Variables),
	}

	messageID, err := r.sender.Send(ctx, message)
	r.recordOutcome(ctx, logger, recipient, messageID, err)
	return err == nil
}

// waitForLimit blocks until the send rate limit admits another message.
// Aborts when the execution is stopped or the context is cancelled.
func (r *Runner) waitForLimit(ctx context.Context, channel domain.Channel, stop *stopFlag) error {
	if r.limiter == nil {
		return nil
	}

	key := ratelimit.ChannelKey("sender", "all")
	if r.opts.PerChannelLimit {
		key = ratelimit.ChannelKey("sender", string(channel))
	}

	for {
		decision := r.limiter.Check(ctx, key, 1)
		if decision.Allowed {
			return nil
		}

		wait := decision.RetryAfter
		if wait <= 0 {
			wait = 100 * time.Millisecond
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return apperrors.Wrap(ctx.Err(), "send rate wait aborted")
		case <-timer.C:
		}

		if stop.isSet() {
			return apperrors.Wrap(apperrors.ErrRateLimited, "execution stopped while waiting for send slot")
		}
	}
}

// recordOutcome persists one delivery attempt and its business metric.
func (r *Runner) recordOutcome(ctx context.Context, logger *slog.Logger, recipient *domain.Recipient, messageID string, sendErr error) {
	if sendErr == nil {
		r.metrics.RecordOperation(ctx, "execution", "recipient_send", "success")
		if err := r.recipientRepo.MarkSent(ctx, recipient.ID, messageID); err != nil {
			logger.WarnContext(ctx, "failed to mark recipient sent", "recipient_id", recipient.ID, "error", err)
		}
		return
	}

	r.metrics.RecordOperation(ctx, "execution", "recipient_send", "error")
	logger.WarnContext(ctx, "recipient delivery failed",
		"recipient_id", recipient.ID,
		"address", recipient.Address,
		"error", sendErr,
	)
	if err := r.recipientRepo.MarkFailed(ctx, recipient.ID, sendErr.Error()); err != nil {
		logger.WarnContext(ctx, "failed to mark recipient failed", "recipient_id", recipient.ID, "error", err)
	}
}

// finish persists the terminal status and notifies listeners once.
func (r *Runner) finish(
	ctx context.Context,
	logger *slog.Logger,
	executionID uuid.UUID,
	status domain.ExecutionStatus,
	stats domain.ExecutionStats,
	start time.Time,
) {
	if err := r.executionRepo.Finish(ctx, executionID, status, stats, r.now().UTC()); err != nil {
		logger.ErrorContext(ctx, "failed to finish execution", "status", status, "error", err)
		return
	}

	duration := r.now().Sub(start)
	metricStatus := "success"
	if status == domain.ExecutionFailed {
		metricStatus = "error"
	}
	r.metrics.RecordOperation(ctx, "execution", "execution_run", metricStatus)
	r.metrics.RecordDuration(ctx, "execution", "execution_run", duration, metricStatus)

	logger.InfoContext(ctx, "execution finished",
		"status", status,
		"sent", stats.Sent,
		"failed", stats.Failed,
		"queued", stats.Queued,
		"duration", duration,
	)

	if len(r.notifiers) == 0 {
		return
	}

	execution, err := r.executionRepo.GetByID(ctx, executionID)
	if err != nil {
		logger.WarnContext(ctx, "failed to reload execution for notification", "error", err)
		return
	}
	campaign, err := r.campaignRepo.GetByID(ctx, execution.CampaignID)
	if err != nil {
		logger.WarnContext(ctx, "failed to load campaign for notification", "error", err)
		return
	}
	for _, notifier := range r.notifiers {
		notifier.ExecutionFinished(ctx, campaign, execution)
	}
}
