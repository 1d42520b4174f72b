package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	outboxKey  = "email:outbox"
	popTimeout = 5 * time.Second
)

// Outbox is a Redis-backed queue for outgoing email. The lifecycle manager
// enqueues after its store transition commits, so delivery failures can never
// misrepresent account state.
type Outbox struct {
	client *redis.Client
}

func NewOutbox(client *redis.Client) *Outbox {
	return &Outbox{client: client}
}

// Push appends a message to the queue.
func (o *Outbox) Push(ctx context.Context, msg *Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox message: %w", err)
	}

	if err := o.client.LPush(ctx, outboxKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue email: %w", err)
	}

	return nil
}

// Pop blocks for up to popTimeout and returns the oldest queued message, or
// (nil, nil) when the queue stays empty.
func (o *Outbox) Pop(ctx context.Context) (*Message, error) {
	result, err := o.client.BRPop(ctx, popTimeout, outboxKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue email: %w", err)
	}

	// BRPop returns [key, value].
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply length %d", len(result))
	}

	msg := new(Message)
	if err := json.Unmarshal([]byte(result[1]), msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal outbox message: %w", err)
	}

	return msg, nil
}

// SendVerificationEmail queues a verification email. Implements the account
// lifecycle manager's Notifier contract.
func (o *Outbox) SendVerificationEmail(ctx context.Context, toEmail, firstName, token string) error {
	return o.Push(ctx, &Message{
		Kind:      KindVerification,
		To:        toEmail,
		FirstName: firstName,
		Token:     token,
	})
}

// ResendVerificationEmail queues a requested re-send, which renders the short
// verification copy instead of the signup welcome letter.
func (o *Outbox) ResendVerificationEmail(ctx context.Context, toEmail, firstName, token string) error {
	return o.Push(ctx, &Message{
		Kind:      KindVerificationResend,
		To:        toEmail,
		FirstName: firstName,
		Token:     token,
	})
}

// SendPasswordResetEmail queues a password reset email.
func (o *Outbox) SendPasswordResetEmail(ctx context.Context, toEmail, firstName, token string) error {
	return o.Push(ctx, &Message{
		Kind:      KindPasswordReset,
		To:        toEmail,
		FirstName: firstName,
		Token:     token,
	})
}
