package email

import (
	"context"
	"time"

	"github.com/galva-ai/backend/internal/logging"
)

// Queue is the dispatcher's view of the outbox.
type Queue interface {
	Push(ctx context.Context, msg *Message) error
	Pop(ctx context.Context) (*Message, error)
}

// MessageSender delivers a single rendered message. *Sender is the SMTP
// implementation.
type MessageSender interface {
	Send(ctx context.Context, msg *Message) error
}

// Dispatcher drains the outbox and delivers messages with bounded retries.
// A message that keeps failing is dropped after maxAttempts and logged;
// account state is never touched.
type Dispatcher struct {
	queue       Queue
	sender      MessageSender
	logger      *logging.Logger
	maxAttempts int
}

func NewDispatcher(queue Queue, sender MessageSender, logger *logging.Logger, maxAttempts int) *Dispatcher {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Dispatcher{
		queue:       queue,
		sender:      sender,
		logger:      logger,
		maxAttempts: maxAttempts,
	}
}

// Run processes the queue until the context is cancelled. Intended to be
// started once as a background goroutine.
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info("email dispatcher started", "max_attempts", d.maxAttempts)

	for {
		if ctx.Err() != nil {
			d.logger.Info("email dispatcher stopped")
			return
		}

		msg, err := d.queue.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				d.logger.Info("email dispatcher stopped")
				return
			}
			d.logger.Error("failed to read from outbox", "error", err)
			time.Sleep(time.Second)
			continue
		}
		if msg == nil {
			continue
		}

		d.deliver(ctx, msg)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg *Message) {
	err := d.sender.Send(ctx, msg)
	if err == nil {
		return
	}

	msg.Attempts++
	if msg.Attempts >= d.maxAttempts {
		d.logger.Error("dropping email after repeated failures",
			"kind", msg.Kind,
			"email", msg.To,
			"attempts", msg.Attempts,
			"error", err,
		)
		return
	}

	d.logger.Warn("email delivery failed, requeueing",
		"kind", msg.Kind,
		"email", msg.To,
		"attempt", msg.Attempts,
		"error", err,
	)

	if pushErr := d.queue.Push(ctx, msg); pushErr != nil {
		d.logger.Error("failed to requeue email", "email", msg.To, "error", pushErr)
	}
}
