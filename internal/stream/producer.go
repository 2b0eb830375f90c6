package stream

import (
	"context"
	"fmt"

	"github.com/RishiKendai/shingle/internal/models"
	"github.com/RishiKendai/shingle/internal/plagiarism"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Producer appends comparison jobs to the stream read by Consumer.
type Producer struct {
	client    redis.Cmdable
	streamKey string
}

func NewProducer(client redis.Cmdable, streamKey string) *Producer {
	return &Producer{client: client, streamKey: streamKey}
}

// Enqueue adds job to the stream and marks it queued.
func (p *Producer) Enqueue(ctx context.Context, job *models.ComparisonJob) error {
	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.streamKey,
		Values: map[string]interface{}{
			"jobId": job.JobID,
			"text1": job.Text1,
			"text2": job.Text2,
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to enqueue job %s: %w", job.JobID, err)
	}

	if err := plagiarism.UpdateStatus(ctx, p.client, job.JobID, models.StepQueued); err != nil {
		log.Warn().Err(err).Str("id", job.JobID).Msg("Failed to mark job queued")
	}

	log.Debug().
		Str("id", job.JobID).
		Str("message_id", id).
		Msg("Comparison job enqueued")

	return nil
}
