package gojob

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-datacite/core"
	glog "github.com/goliatone/go-logger/glog"
)

const defaultIdleDelay = time.Second

// JobHandler runs and settles one delivery. core.Service implements it.
type JobHandler interface {
	HandleJob(ctx context.Context, delivery core.JobDelivery) error
}

// Consumer pulls publish jobs from a dequeuer and hands them to a handler.
type Consumer struct {
	dequeuer  core.JobDequeuer
	handler   JobHandler
	hook      core.JobWorkerHook
	logger    glog.Logger
	idleDelay time.Duration
	now       func() time.Time
}

type ConsumerOption func(*Consumer)

func WithConsumerHook(hook core.JobWorkerHook) ConsumerOption {
	return func(c *Consumer) {
		c.hook = hook
	}
}

// WithConsumerLogger resolves the consumer logger with provider taking
// precedence over logger.
func WithConsumerLogger(provider glog.LoggerProvider, logger glog.Logger) ConsumerOption {
	return func(c *Consumer) {
		_, resolved := glog.Resolve("datacite.jobs", provider, logger)
		c.logger = glog.Ensure(resolved)
	}
}

// WithIdleDelay sets how long Run waits after an empty or failed dequeue.
func WithIdleDelay(delay time.Duration) ConsumerOption {
	return func(c *Consumer) {
		if delay > 0 {
			c.idleDelay = delay
		}
	}
}

func NewConsumer(dequeuer core.JobDequeuer, handler JobHandler, opts ...ConsumerOption) (*Consumer, error) {
	if dequeuer == nil {
		return nil, fmt.Errorf("gojob: dequeuer is required")
	}
	if handler == nil {
		return nil, fmt.Errorf("gojob: job handler is required")
	}
	consumer := &Consumer{
		dequeuer:  dequeuer,
		handler:   handler,
		logger:    glog.Nop(),
		idleDelay: defaultIdleDelay,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(consumer)
		}
	}
	return consumer, nil
}

// RunOnce handles at most one delivery. It reports false when the queue
// had nothing to hand out.
func (c *Consumer) RunOnce(ctx context.Context) (bool, error) {
	delivery, err := c.dequeuer.Dequeue(ctx)
	if err != nil {
		return false, err
	}
	if delivery == nil {
		return false, nil
	}

	event := core.JobWorkerEvent{
		Message:   delivery.Message(),
		Attempt:   1,
		StartedAt: c.now().UTC(),
	}
	if counted, ok := delivery.(interface{ Attempt() int }); ok {
		event.Attempt = counted.Attempt()
	}
	c.emit(ctx, "start", event)

	err = c.handler.HandleJob(ctx, delivery)
	event.Duration = c.now().UTC().Sub(event.StartedAt)
	if err != nil {
		event.Err = err
		c.emit(ctx, "failure", event)
		c.logger.WithContext(ctx).Error("job failed", jobFields(event)...)
		return true, err
	}
	c.emit(ctx, "success", event)
	return true, nil
}

// Run consumes until ctx is done. Job failures are settled by the handler
// and do not stop the loop.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		handled, err := c.RunOnce(ctx)
		if handled {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.WithContext(ctx).Warn("job dequeue failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.idleDelay):
		}
	}
}

func (c *Consumer) emit(ctx context.Context, stage string, event core.JobWorkerEvent) {
	if c.hook == nil {
		return
	}
	switch stage {
	case "start":
		c.hook.OnStart(ctx, event)
	case "success":
		c.hook.OnSuccess(ctx, event)
	case "failure":
		c.hook.OnFailure(ctx, event)
	}
}

func jobFields(event core.JobWorkerEvent) []any {
	fields := []any{"attempt", event.Attempt, "duration_ms", event.Duration.Milliseconds()}
	if event.Message != nil {
		fields = append(fields, "job_id", event.Message.JobID, "idempotency_key", event.Message.IdempotencyKey)
	}
	if event.Err != nil {
		fields = append(fields, "error", event.Err.Error())
	}
	return fields
}
