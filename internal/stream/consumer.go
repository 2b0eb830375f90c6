package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RishiKendai/shingle/internal/models"
	"github.com/RishiKendai/shingle/internal/plagiarism"
	"github.com/RishiKendai/shingle/internal/service"
	backoff "github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Processor compares the texts of a job under the job's ID.
type Processor interface {
	CompareWithID(ctx context.Context, id, source string, req models.CompareRequest) (*models.Report, error)
}

type Consumer struct {
	client              redis.Cmdable
	streamKey           string
	consumerGroup       string
	consumerName        string
	processor           Processor
	retryHandler        *RetryHandler
	retentionDuration   time.Duration
	pelRecoveryInterval time.Duration
	minIdle             time.Duration
	batchSize           int64
	cleanupInterval     time.Duration
	lastPELCheck        time.Time
	lastCleanup         time.Time
}

func NewConsumer(
	client redis.Cmdable,
	streamKey string,
	consumerGroup string,
	consumerName string,
	processor Processor,
	retryHandler *RetryHandler,
	retentionDuration time.Duration,
) *Consumer {
	return &Consumer{
		client:              client,
		streamKey:           streamKey,
		consumerGroup:       consumerGroup,
		consumerName:        consumerName,
		processor:           processor,
		retryHandler:        retryHandler,
		retentionDuration:   retentionDuration,
		pelRecoveryInterval: 30 * time.Second,
		minIdle:             time.Minute,
		batchSize:           10,
		cleanupInterval:     1 * time.Hour,
		lastPELCheck:        time.Now(),
		lastCleanup:         time.Now(),
	}
}

func (c *Consumer) Start(ctx context.Context) error {
	if err := c.createConsumerGroup(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to create consumer group")
	}

	log.Info().Str("stream", c.streamKey).Msg("Recovering pending comparison jobs")
	if err := c.recoverPEL(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to recover PEL messages on startup")
	}
	c.lastPELCheck = time.Now()

	go c.runCleanupPeriodically(ctx)
	log.Info().
		Dur("cleanup_interval", c.cleanupInterval).
		Dur("retention", c.retentionDuration).
		Msg("Started cleanup goroutine")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := c.consume(ctx); err != nil {
				log.Error().Err(err).Msg("Error consuming comparison jobs")
				time.Sleep(1 * time.Second) // Brief pause before retrying
			}
		}
	}
}

func (c *Consumer) createConsumerGroup(ctx context.Context) error {
	// Start at 0 so jobs enqueued before the first consumer are not skipped
	err := c.client.XGroupCreateMkStream(ctx, c.streamKey, c.consumerGroup, "0").Err()
	if err != nil {
		if strings.Contains(err.Error(), "BUSYGROUP") {
			log.Debug().
				Str("group", c.consumerGroup).
				Msg("Consumer group already exists")
			return nil
		}
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	log.Info().
		Str("group", c.consumerGroup).
		Str("stream", c.streamKey).
		Msg("Created consumer group reading from the start of the stream")
	return nil
}

// recoverPEL claims jobs that another consumer read but never acknowledged
// and processes them here.
func (c *Consumer) recoverPEL(ctx context.Context) error {
	start := "0-0"
	for {
		claimed, next, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   c.streamKey,
			Group:    c.consumerGroup,
			Consumer: c.consumerName,
			MinIdle:  c.minIdle,
			Start:    start,
			Count:    100,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil
			}
			return fmt.Errorf("failed to claim pending jobs: %w", err)
		}

		if len(claimed) > 0 {
			log.Info().Int("claimed", len(claimed)).Msg("Claimed idle pending jobs")
		}
		for i := range claimed {
			if err := c.processMessage(ctx, &claimed[i]); err != nil {
				log.Error().
					Err(err).
					Str("message_id", claimed[i].ID).
					Msg("Failed to process claimed job")
			}
		}

		if next == "" || next == "0-0" {
			return nil
		}
		start = next
	}
}

func (c *Consumer) consume(ctx context.Context) error {
	if time.Since(c.lastPELCheck) > c.pelRecoveryInterval {
		if err := c.recoverPEL(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to recover pending jobs")
		}
		c.lastPELCheck = time.Now()
	}

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.consumerGroup,
		Consumer: c.consumerName,
		Streams:  []string{c.streamKey, ">"},
		Count:    c.batchSize,
		Block:    time.Second,
	}).Result()

	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, stream := range streams {
		if stream.Stream != c.streamKey {
			continue
		}

		for _, msg := range stream.Messages {
			if err := c.processMessage(ctx, &msg); err != nil {
				log.Error().
					Err(err).
					Str("message_id", msg.ID).
					Msg("Comparison job failed")
			}
		}
	}

	return nil
}

// processMessage runs one comparison job and acknowledges the entry once it
// has either completed or been dead-lettered.
func (c *Consumer) processMessage(ctx context.Context, msg *redis.XMessage) error {
	fields := make(map[string]string)
	for key, val := range msg.Values {
		if value, ok := val.(string); ok {
			fields[key] = value
		}
	}

	streamMsg := &StreamMessage{
		ID:     msg.ID,
		Fields: fields,
	}

	job, err := ParseJob(streamMsg)
	if err != nil {
		log.Error().Err(err).Str("message_id", msg.ID).Msg("Failed to parse comparison job")
		// Acknowledge bad messages to avoid reprocessing
		_ = c.acknowledge(ctx, msg.ID)
		return err
	}

	c.setStatus(ctx, job.JobID, models.StepProcessing)

	fieldsMap := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		fieldsMap[k] = v
	}

	req := models.CompareRequest{Text1: job.Text1, Text2: job.Text2}
	err = c.retryHandler.RetryWithBackoff(ctx, func() error {
		_, err := c.processor.CompareWithID(ctx, job.JobID, service.SourceStream, req)
		if isPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}, msg.ID, fieldsMap)

	if err != nil {
		c.setStatus(ctx, job.JobID, models.StepFailed)
		// Already dead-lettered by the retry handler
		_ = c.acknowledge(ctx, msg.ID)
		return err
	}

	c.setStatus(ctx, job.JobID, models.StepCompleted)

	return c.acknowledge(ctx, msg.ID)
}

func (c *Consumer) setStatus(ctx context.Context, id string, step models.Step) {
	if err := plagiarism.UpdateStatus(ctx, c.client, id, step); err != nil {
		log.Warn().Err(err).Str("id", id).Str("step", string(step)).Msg("Failed to update job status")
	}
}

// isPermanent reports whether retrying err cannot succeed.
func isPermanent(err error) bool {
	return errors.Is(err, service.ErrTextTooLarge) || errors.Is(err, service.ErrInvalidEncoding)
}

// removes messages older than retention duration
func (c *Consumer) cleanupOldMessages(ctx context.Context) error {
	// Calculate the minimum ID to keep (messages older than this will be deleted)
	cutoffTime := time.Now().Add(-c.retentionDuration)
	minID := fmt.Sprintf("%d-0", cutoffTime.UnixMilli())

	// Use XTrimMinID to remove old messages
	trimmed, err := c.client.XTrimMinID(ctx, c.streamKey, minID).Result()
	if err != nil {
		return fmt.Errorf("failed to trim stream: %w", err)
	}

	if trimmed > 0 {
		log.Debug().
			Int64("trimmed", trimmed).
			Dur("retention", c.retentionDuration).
			Str("cutoff_time", cutoffTime.Format(time.RFC3339)).
			Msg("Cleaned up old messages from stream")
	}

	return nil
}

// runs cleanup every hour
func (c *Consumer) runCleanupPeriodically(ctx context.Context) {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	// Run initial cleanup after startup
	if err := c.cleanupOldMessages(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to run initial cleanup")
	}
	c.lastCleanup = time.Now()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Cleanup goroutine shutting down")
			return
		case <-ticker.C:
			if err := c.cleanupOldMessages(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to cleanup old messages")
			}
			c.lastCleanup = time.Now()
		}
	}
}

func (c *Consumer) acknowledge(ctx context.Context, messageID string) error {
	err := c.client.XAck(ctx, c.streamKey, c.consumerGroup, messageID).Err()
	if err != nil {
		log.Error().Err(err).Str("message_id", messageID).Msg("Failed to acknowledge message")
		return err
	}

	log.Debug().
		Str("message_id", messageID).
		Msg("Message acknowledged")

	return nil
}
