package plagiarism

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RishiKendai/shingle/internal/models"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	statusKeyPrefix = "comparison_status:"
	statusTTL       = 12 * time.Hour
)

// ErrStatusNotFound is returned when no status is stored for an ID.
var ErrStatusNotFound = errors.New("status not found")

var validSteps = map[models.Step]bool{
	models.StepQueued:     true,
	models.StepProcessing: true,
	models.StepCompleted:  true,
	models.StepFailed:     true,
}

func statusKey(id string) string {
	return statusKeyPrefix + id
}

// UpdateStatus stores the processing step of comparison id.
func UpdateStatus(ctx context.Context, rdb goredis.Cmdable, id string, step models.Step) error {
	if !validSteps[step] {
		return fmt.Errorf("unknown step: %s", step)
	}

	rkey := statusKey(id)

	err := rdb.Set(ctx, rkey, string(step), statusTTL).Err()
	if err != nil {
		log.Error().Err(err).
			Str("step", string(step)).
			Str("id", id).
			Str("redisKey", rkey).
			Msg("Failed to update status in Redis")
		return fmt.Errorf("failed to update status in Redis: %w", err)
	}

	log.Trace().
		Str("step", string(step)).
		Str("id", id).
		Msg("Status updated in Redis")

	return nil
}

// GetStatus returns the stored processing step of comparison id.
func GetStatus(ctx context.Context, rdb goredis.Cmdable, id string) (models.Step, error) {
	val, err := rdb.Get(ctx, statusKey(id)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", ErrStatusNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read status from Redis: %w", err)
	}
	return models.Step(val), nil
}
