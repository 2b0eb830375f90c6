package stream

import (
	"context"
	"fmt"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const defaultMaxRetries = 2

// RetryHandler retries message processing with exponential backoff and moves
// messages that keep failing to a dead-letter stream.
type RetryHandler struct {
	client        goredis.Cmdable
	deadLetterKey string
	buildBackoff  func() backoff.BackOff
}

func NewRetryHandler(client goredis.Cmdable, deadLetterKey string) *RetryHandler {
	return &RetryHandler{
		client:        client,
		deadLetterKey: deadLetterKey,
		buildBackoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			b.MaxElapsedTime = 10 * time.Second
			return backoff.WithMaxRetries(b, defaultMaxRetries)
		},
	}
}

// WithBackoff replaces the backoff policy.
func (h *RetryHandler) WithBackoff(factory func() backoff.BackOff) *RetryHandler {
	h.buildBackoff = factory
	return h
}

// RetryWithBackoff runs fn until it succeeds, returns a permanent error or the
// policy gives up. The final error is dead-lettered with fields and returned.
func (h *RetryHandler) RetryWithBackoff(ctx context.Context, fn func() error, messageID string, fields map[string]interface{}) error {
	attempt := 0
	op := func() error {
		attempt++
		err := fn()
		if err != nil {
			log.Warn().
				Err(err).
				Str("message_id", messageID).
				Int("attempt", attempt).
				Msg("Message processing attempt failed")
		}
		return err
	}

	err := backoff.Retry(op, backoff.WithContext(h.buildBackoff(), ctx))
	if err == nil {
		return nil
	}

	if dlqErr := h.sendToDeadLetter(ctx, messageID, fields, err, attempt); dlqErr != nil {
		log.Error().Err(dlqErr).Str("message_id", messageID).Msg("Failed to dead-letter message")
	}
	return err
}

func (h *RetryHandler) sendToDeadLetter(ctx context.Context, messageID string, fields map[string]interface{}, cause error, attempts int) error {
	values := make(map[string]interface{}, len(fields)+4)
	for k, v := range fields {
		values[k] = v
	}
	values["originalId"] = messageID
	values["error"] = cause.Error()
	values["attempts"] = attempts
	values["failedAt"] = time.Now().UTC().Format(time.RFC3339)

	err := h.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: h.deadLetterKey,
		Values: values,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to add to dead letter stream: %w", err)
	}

	log.Warn().
		Str("message_id", messageID).
		Str("dead_letter_key", h.deadLetterKey).
		Int("attempts", attempts).
		Msg("Message moved to dead letter stream")

	return nil
}
